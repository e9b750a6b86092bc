package database

import (
	"context"
	"testing"
	"time"

	"imagestore/internal/imaging"
	"imagestore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func createTestImage(t *testing.T, owner string, createdAt time.Time) *models.Image {
	t.Helper()

	name := "photo.jpg"
	lat, lon := 40.446111, -79.982222
	img, err := testStore.InsertImage(context.Background(), CreateImageParams{
		Hash:      imaging.Digest([]byte(uuid.NewString())),
		Extension: "jpg",
		Owner:     owner,
		ImageName: &name,
		Latitude:  &lat,
		Longitude: &lon,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return img
}

func TestInsertImage(t *testing.T) {
	user := createRandomUser(t)
	created := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)

	img := createTestImage(t, user.Username, created)

	require.Equal(t, user.Username, img.Owner)
	require.Equal(t, "jpg", img.Extension)
	require.Equal(t, "photo.jpg", *img.ImageName)
	require.InDelta(t, 40.446111, *img.Latitude, 1e-9)
	require.True(t, created.Equal(img.CreatedAt))
	require.True(t, created.Equal(img.ModifiedAt), "modified_at defaults to created_at")
}

func TestInsertImage_NullableMetadata(t *testing.T) {
	user := createRandomUser(t)

	img, err := testStore.InsertImage(context.Background(), CreateImageParams{
		Hash:      imaging.Digest([]byte("no metadata")),
		Extension: "png",
		Owner:     user.Username,
	})
	require.NoError(t, err)
	require.Nil(t, img.ImageName)
	require.Nil(t, img.Latitude)
	require.Nil(t, img.Longitude)
	require.False(t, img.CreatedAt.IsZero())
}

func TestInsertImage_DuplicateIsConflict(t *testing.T) {
	user := createRandomUser(t)
	img := createTestImage(t, user.Username, time.Now())

	_, err := testStore.InsertImage(context.Background(), CreateImageParams{
		Hash:      img.Hash,
		Extension: "jpg",
		Owner:     user.Username,
	})
	require.ErrorIs(t, err, ErrImageAlreadyExists)

	hashes, err := testStore.ListImageHashes(context.Background(), user.Username)
	require.NoError(t, err)
	require.Equal(t, []string{img.Hash}, hashes)
}

func TestInsertImage_SameHashDifferentOwners(t *testing.T) {
	alice := createRandomUser(t)
	bob := createRandomUser(t)
	img := createTestImage(t, alice.Username, time.Now())

	bobs, err := testStore.InsertImage(context.Background(), CreateImageParams{
		Hash:      img.Hash,
		Extension: img.Extension,
		Owner:     bob.Username,
	})
	require.NoError(t, err)
	require.Equal(t, img.Hash, bobs.Hash)
	require.Equal(t, bob.Username, bobs.Owner)
}

func TestInsertImage_UnknownOwner(t *testing.T) {
	_, err := testStore.InsertImage(context.Background(), CreateImageParams{
		Hash:      imaging.Digest([]byte("orphan")),
		Extension: "jpg",
		Owner:     "ghost-" + uuid.NewString(),
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrImageAlreadyExists)
}

func TestListImageHashes_NewestFirst(t *testing.T) {
	user := createRandomUser(t)
	base := time.Now().Add(-24 * time.Hour)

	oldest := createTestImage(t, user.Username, base)
	newest := createTestImage(t, user.Username, base.Add(2*time.Hour))
	middle := createTestImage(t, user.Username, base.Add(time.Hour))

	hashes, err := testStore.ListImageHashes(context.Background(), user.Username)
	require.NoError(t, err)
	require.Equal(t, []string{newest.Hash, middle.Hash, oldest.Hash}, hashes)

	empty, err := testStore.ListImageHashes(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestGetImage_ScopedByOwner(t *testing.T) {
	alice := createRandomUser(t)
	bob := createRandomUser(t)
	img := createTestImage(t, alice.Username, time.Now())

	found, err := testStore.GetImage(context.Background(), img.Key())
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, img.Hash, found.Hash)

	other, err := testStore.GetImage(context.Background(), models.ImageKey{Hash: img.Hash, Owner: bob.Username})
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestDeleteImage_ScopedByOwner(t *testing.T) {
	alice := createRandomUser(t)
	bob := createRandomUser(t)
	img := createTestImage(t, alice.Username, time.Now())

	deleted, err := testStore.DeleteImage(context.Background(), models.ImageKey{Hash: img.Hash, Owner: bob.Username})
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = testStore.DeleteImage(context.Background(), img.Key())
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = testStore.DeleteImage(context.Background(), img.Key())
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestDeleteImageReleasingBlob(t *testing.T) {
	alice := createRandomUser(t)
	bob := createRandomUser(t)
	img := createTestImage(t, alice.Username, time.Now())
	bobs, err := testStore.InsertImage(context.Background(), CreateImageParams{
		Hash: img.Hash, Extension: img.Extension, Owner: bob.Username,
	})
	require.NoError(t, err)

	deleted, inUse, err := testStore.DeleteImageReleasingBlob(context.Background(), img)
	require.NoError(t, err)
	require.True(t, deleted)
	require.True(t, inUse, "bob still references the blob")

	deleted, inUse, err = testStore.DeleteImageReleasingBlob(context.Background(), bobs)
	require.NoError(t, err)
	require.True(t, deleted)
	require.False(t, inUse)

	deleted, _, err = testStore.DeleteImageReleasingBlob(context.Background(), bobs)
	require.NoError(t, err)
	require.False(t, deleted)
}
