package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/client/storage"
)

func TestStorage_Profile_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.GetProfile(ctx)
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	profile := &storage.Profile{
		UserID:      "user-42",
		Username:    "dispatcher",
		DisplayName: "Night Dispatcher",
		UpdatedAt:   time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveProfile(ctx, profile))

	got, err := store.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile, got)

	require.NoError(t, store.DeleteProfile(ctx))
	assert.ErrorIs(t, store.DeleteProfile(ctx), storage.ErrProfileNotFound)

	_, err = store.GetProfile(ctx)
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)
}

func TestStorage_SaveProfile_Nil(t *testing.T) {
	store := createTestStorage(t)
	assert.Error(t, store.SaveProfile(context.Background(), nil))
}

func TestStorage_Profile_Closed(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	require.NoError(t, store.Close())

	_, err := store.GetProfile(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.SaveProfile(ctx, &storage.Profile{}), storage.ErrStorageClosed)
}
