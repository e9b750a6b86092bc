// Package ingest ties authentication, content hashing, metadata extraction,
// blob storage and the image record store into the operations exposed over
// HTTP. It is the only layer that decides what an internal failure means.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"imagestore/internal/auth"
	"imagestore/internal/database"
	"imagestore/internal/imaging"
	"imagestore/internal/models"
	"imagestore/internal/storage"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrImageNotFound      = errors.New("image not found")
)

var extensionPattern = regexp.MustCompile(`^[a-z0-9]{1,16}$`)

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type ImageRepository interface {
	InsertImage(ctx context.Context, arg database.CreateImageParams) (*models.Image, error)
	ListImageHashes(ctx context.Context, owner string) ([]string, error)
	GetImage(ctx context.Context, key models.ImageKey) (*models.Image, error)
	DeleteImageReleasingBlob(ctx context.Context, img *models.Image) (deleted bool, blobInUse bool, err error)
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type Publisher interface {
	PublishEvent(owner string, event models.ImageEvent)
}

type Credentials struct {
	Username string
	Password string
}

type UploadRequest struct {
	Content    string
	Extension  string
	ImageName  *string
	CreatedAt  *time.Time
	ModifiedAt *time.Time
}

type UploadResult struct {
	Image *models.Image
	// Duplicate is set when the owner already had these bytes; Image is
	// then the record stored earlier.
	Duplicate bool
}

type ImageWithContent struct {
	*models.Image
	Content []byte
}

type Service struct {
	users  UserRepository
	images ImageRepository
	blobs  storage.BlobStore
	tokens TokenIssuer
	events Publisher
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
	now       func() time.Time
}

func NewService(users UserRepository, images ImageRepository, blobs storage.BlobStore, tokens TokenIssuer, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		images: images,
		blobs:  blobs,
		tokens: tokens,
		events: events,
		logger: logger.With(slog.String("component", "ingest")),
		now:    time.Now,
	}
}

// Login returns a session token. Unknown users and wrong passwords are
// indistinguishable to the caller, including in response time.
func (s *Service) Login(ctx context.Context, creds Credentials) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, creds.Username)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		auth.CheckPasswordHash(creds.Password, s.dummyPasswordHash())
		return "", ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(creds.Password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("stored password hash for %q is unusable: %w", user.Username, err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("imagestore-timing-equalizer")
		if err != nil {
			s.logger.Error("failed to prepare dummy password hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Upload stores the image for owner. The blob is written before the record
// so a visible record always has its bytes.
func (s *Service) Upload(ctx context.Context, owner string, req UploadRequest) (*UploadResult, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: missing owner", ErrInvalidInput)
	}

	extension, err := NormalizeExtension(req.Extension)
	if err != nil {
		return nil, err
	}

	data, err := decodeContent(req.Content)
	if err != nil {
		return nil, err
	}

	hash := imaging.Digest(data)
	coords := imaging.ExtractGPS(data)
	log := s.logger.With(slog.String("owner", owner), slog.String("hash", hash))

	key := storage.BlobKey(hash, extension)
	existed, err := s.blobs.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check blob %s: %w", key, err)
	}

	if err := s.blobs.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to save blob %s: %w", key, err)
	}

	now := s.now()
	params := database.CreateImageParams{
		Hash:       hash,
		Extension:  extension,
		Owner:      owner,
		ImageName:  normalizeName(req.ImageName),
		Longitude:  coords.Longitude,
		Latitude:   coords.Latitude,
		CreatedAt:  timeOr(req.CreatedAt, now),
		ModifiedAt: timeOr(req.ModifiedAt, timeOr(req.CreatedAt, now)),
	}

	img, err := s.images.InsertImage(ctx, params)
	if errors.Is(err, database.ErrImageAlreadyExists) {
		existing, getErr := s.images.GetImage(ctx, models.ImageKey{Hash: hash, Owner: owner})
		if getErr != nil {
			return nil, fmt.Errorf("failed to load existing image: %w", getErr)
		}
		if existing == nil {
			// Deleted between the insert and the lookup.
			existing = &models.Image{Hash: hash, Extension: extension, Owner: owner}
		}
		if !existed && existing.Extension != extension {
			s.removeBlob(ctx, log, key)
		}
		log.InfoContext(ctx, "duplicate upload")
		return &UploadResult{Image: existing, Duplicate: true}, nil
	}
	if err != nil {
		if !existed {
			s.removeBlob(ctx, log, key)
		}
		return nil, fmt.Errorf("failed to insert image record: %w", err)
	}

	log.InfoContext(ctx, "image stored",
		slog.String("extension", extension),
		slog.Int("bytes", len(data)),
		slog.Bool("gps", coords.Latitude != nil || coords.Longitude != nil),
	)
	s.publish(owner, models.EventImageUploaded, hash)

	return &UploadResult{Image: img}, nil
}

func (s *Service) ListHashes(ctx context.Context, owner string) ([]string, error) {
	hashes, err := s.images.ListImageHashes(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return hashes, nil
}

func (s *Service) Get(ctx context.Context, key models.ImageKey) (*ImageWithContent, error) {
	img, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	blobKey := storage.BlobKey(img.Hash, img.Extension)
	rc, err := s.blobs.Get(ctx, blobKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", blobKey, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", blobKey, err)
	}

	return &ImageWithContent{Image: img, Content: content}, nil
}

// Delete removes the record first; the database decides existence. The
// blob goes last and only when no other owner still references it.
func (s *Service) Delete(ctx context.Context, key models.ImageKey) error {
	img, err := s.lookup(ctx, key)
	if err != nil {
		return err
	}

	deleted, blobInUse, err := s.images.DeleteImageReleasingBlob(ctx, img)
	if err != nil {
		return fmt.Errorf("failed to delete image record: %w", err)
	}
	if !deleted {
		return ErrImageNotFound
	}

	log := s.logger.With(slog.String("owner", key.Owner), slog.String("hash", key.Hash))
	if !blobInUse {
		s.removeBlob(ctx, log, storage.BlobKey(img.Hash, img.Extension))
	}

	log.InfoContext(ctx, "image deleted", slog.Bool("blob_shared", blobInUse))
	s.publish(key.Owner, models.EventImageDeleted, key.Hash)

	return nil
}

func (s *Service) lookup(ctx context.Context, key models.ImageKey) (*models.Image, error) {
	if key.Owner == "" || !imaging.IsDigest(key.Hash) {
		return nil, ErrImageNotFound
	}

	img, err := s.images.GetImage(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	if img == nil {
		return nil, ErrImageNotFound
	}
	return img, nil
}

func (s *Service) removeBlob(ctx context.Context, log *slog.Logger, key string) {
	err := s.blobs.Delete(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrBlobNotFound):
		log.WarnContext(ctx, "blob already missing", slog.String("blob", key))
	default:
		log.ErrorContext(ctx, "failed to remove blob", slog.String("blob", key), slog.Any("error", err))
	}
}

func (s *Service) publish(owner, eventType, hash string) {
	if s.events == nil {
		return
	}
	s.events.PublishEvent(owner, models.ImageEvent{
		EventType: eventType,
		Hash:      hash,
		EventTime: s.now(),
	})
}

// NormalizeExtension strips a leading dot and lowercases. Anything other
// than 1-16 ASCII letters or digits is rejected so the value is safe to
// use in a file name.
func NormalizeExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return "", fmt.Errorf("%w: extension is required", ErrInvalidInput)
	}
	if !extensionPattern.MatchString(ext) {
		return "", fmt.Errorf("%w: extension must be 1-16 letters or digits", ErrInvalidInput)
	}
	return ext, nil
}

func decodeContent(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(content)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: content is not valid base64", ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}
	return data, nil
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func timeOr(t *time.Time, def time.Time) time.Time {
	if t == nil || t.IsZero() {
		return def
	}
	return *t
}
