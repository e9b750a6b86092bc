package database

import (
	"context"
	"fmt"

	"imagestore/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
	*Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		Queries: New(pool),
	}
}

func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := New(tx)
	err = fn(q)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}

// DeleteImageReleasingBlob removes the record and reports, within the same
// transaction, whether another record still references its blob.
func (s *Store) DeleteImageReleasingBlob(ctx context.Context, img *models.Image) (deleted bool, blobInUse bool, err error) {
	err = s.ExecTx(ctx, func(q *Queries) error {
		deleted, err = q.DeleteImage(ctx, img.Key())
		if err != nil || !deleted {
			return err
		}
		blobInUse, err = q.ImageBlobInUse(ctx, img.Hash, img.Extension)
		return err
	})
	if err != nil {
		return false, false, err
	}
	return deleted, blobInUse, nil
}
