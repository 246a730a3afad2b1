package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

func TestCacheEntryRoundTripKeepsStoredAt(t *testing.T) {
	storedAt := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	raw, err := encodeEntry(models.WeatherSnapshot{Temperature: 12.5, Time: "2026-10-19T08:30"}, storedAt)
	require.NoError(t, err)

	var got models.WeatherSnapshot
	at, err := decodeEntry(raw, &got)
	require.NoError(t, err)
	assert.True(t, storedAt.Equal(at))
	assert.Equal(t, 12.5, got.Temperature)
}

func TestDecodeEntryRejectsEmptyAndCorrupt(t *testing.T) {
	var dest models.WeatherSnapshot
	_, err := decodeEntry([]byte(`{"stored_at":"2026-10-19T08:30:00Z"}`), &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	_, err = decodeEntry([]byte(`not-json`), &dest)
	assert.Error(t, err)
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "weather:current", models.WeatherSnapshot{}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "weather:current"))

	var dest models.WeatherSnapshot
	_, err := repo.Get(ctx, "weather:current", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}
