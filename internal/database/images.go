package database

import (
	"context"
	"errors"
	"time"

	"imagestore/internal/models"

	"github.com/jackc/pgx/v5"
)

type CreateImageParams struct {
	Hash       string
	Extension  string
	Owner      string
	ImageName  *string
	Longitude  *float64
	Latitude   *float64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

const imageColumns = `hash, extension, owner, image_name, longitude, latitude, created_at, modified_at`

func scanImage(row pgx.Row) (*models.Image, error) {
	var img models.Image
	err := row.Scan(
		&img.Hash,
		&img.Extension,
		&img.Owner,
		&img.ImageName,
		&img.Longitude,
		&img.Latitude,
		&img.CreatedAt,
		&img.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// InsertImage relies on the (hash, owner) primary key; a second insert of
// the same key returns ErrImageAlreadyExists.
func (q *Queries) InsertImage(ctx context.Context, arg CreateImageParams) (*models.Image, error) {
	query := `
		INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + imageColumns

	now := time.Now()
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = now
	}
	if arg.ModifiedAt.IsZero() {
		arg.ModifiedAt = arg.CreatedAt
	}

	img, err := scanImage(q.db.QueryRow(ctx, query,
		arg.Hash,
		arg.Extension,
		arg.Owner,
		arg.ImageName,
		arg.Longitude,
		arg.Latitude,
		arg.CreatedAt,
		arg.ModifiedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrImageAlreadyExists
		}
		return nil, err
	}

	return img, nil
}

func (q *Queries) ListImageHashes(ctx context.Context, owner string) ([]string, error) {
	query := `
		SELECT hash
		FROM images
		WHERE owner = $1
		ORDER BY created_at DESC, hash ASC
	`
	rows, err := q.db.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := []string{}
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return hashes, nil
}

func (q *Queries) GetImage(ctx context.Context, key models.ImageKey) (*models.Image, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE hash = $1 AND owner = $2
	`
	img, err := scanImage(q.db.QueryRow(ctx, query, key.Hash, key.Owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return img, nil
}

func (q *Queries) DeleteImage(ctx context.Context, key models.ImageKey) (bool, error) {
	query := `DELETE FROM images WHERE hash = $1 AND owner = $2`
	res, err := q.db.Exec(ctx, query, key.Hash, key.Owner)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// ImageBlobInUse reports whether any owner still has a record pointing at
// the blob {hash}.{extension}. It never returns record data.
func (q *Queries) ImageBlobInUse(ctx context.Context, hash, extension string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM images WHERE hash = $1 AND extension = $2)`
	var inUse bool
	if err := q.db.QueryRow(ctx, query, hash, extension).Scan(&inUse); err != nil {
		return false, err
	}
	return inUse, nil
}
