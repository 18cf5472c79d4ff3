package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsportal/internal/domain/entity"
	"newsportal/internal/infra/adapter/persistence/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), "memory", "", true, discard)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.IsType(t, &memory.ArticleRepo{}, s.Repo)
	assert.Nil(t, s.DB)
	assert.Nil(t, s.Pinger())
}

func TestOpen_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "portal.db")
	s, err := Open(context.Background(), "sqlite3", dsn, true, discard)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NotNil(t, s.Pinger())
	require.NoError(t, s.Pinger().PingContext(context.Background()))
	assert.Nil(t, s.Breaker)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := s.Repo.Upsert(context.Background(), &entity.Article{
		ChannelID: "nasional", Slug: "a", Title: "A", Status: entity.StatusPublished,
		PublishedAt: now, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", false, discard)
	assert.Error(t, err)

	_, err = Open(context.Background(), "postgres", "", false, discard)
	assert.Error(t, err)
}
