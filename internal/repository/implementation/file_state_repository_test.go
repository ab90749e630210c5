package implementation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-studybot-be/internal/model"
	"ai-studybot-be/internal/pkg/logger"
)

func TestFileStateRepository_LoadFreshUser(t *testing.T) {
	repo := NewFileStateRepository(t.TempDir(), logger.NewNoopLogger())

	state := repo.Load(context.Background(), 12345)

	require.NotNil(t, state)
	assert.Equal(t, model.StateIdle, model.StateOf(state))
	assert.Empty(t, state.CurrentDocumentPath)
	assert.Empty(t, state.PendingSuggestions)
}

func TestFileStateRepository_RoundTrip(t *testing.T) {
	repo := NewFileStateRepository(t.TempDir(), logger.NewNoopLogger())
	ctx := context.Background()

	saved := &model.UserState{
		CurrentDocumentPath: "/tmp/uploads/biology.pdf",
		LastQuestion:        "What is the dermis?",
		PendingSuggestions: map[string]string{
			"sugg_ab12cd34": "What are the sublayers of the dermis?",
			"sugg_ef56gh78": "What do fibroblasts do?",
		},
	}
	repo.Save(ctx, 777, saved)

	loaded := repo.Load(ctx, 777)
	assert.Equal(t, saved, loaded)
}

func TestFileStateRepository_CorruptFileResetsState(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileStateRepository(dir, logger.NewNoopLogger())

	path := filepath.Join(dir, fmt.Sprintf("state_%d.json", int64(42)))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	state := repo.Load(context.Background(), 42)

	require.NotNil(t, state)
	assert.Equal(t, model.StateIdle, model.StateOf(state))
}

func TestFileStateRepository_SaveOverwrites(t *testing.T) {
	repo := NewFileStateRepository(t.TempDir(), logger.NewNoopLogger())
	ctx := context.Background()

	repo.Save(ctx, 9, &model.UserState{CurrentDocumentPath: "/tmp/a.pdf", LastQuestion: "old"})
	repo.Save(ctx, 9, &model.UserState{CurrentDocumentPath: "/tmp/b.epub"})

	loaded := repo.Load(ctx, 9)
	assert.Equal(t, "/tmp/b.epub", loaded.CurrentDocumentPath)
	assert.Empty(t, loaded.LastQuestion)
}
