package contextstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/satriahrh/contextchat/utils/log"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadKeysByBaseName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wiki.md", "wiki text")
	writeFile(t, dir, "calendar.txt", "calendar text")
	writeFile(t, dir, "notes.v2.txt", "dotted")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested"), "hidden.txt", "should not load")

	store := Load(context.Background(), dir)

	assert.Equal(t, []string{"calendar", "notes.v2", "wiki"}, store.Names())
	text, ok := store.Get("wiki")
	require.True(t, ok)
	assert.Equal(t, "wiki text", text)
	_, ok = store.Get("hidden")
	assert.False(t, ok)
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	store := Load(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))

	assert.Zero(t, store.Len())
	assert.Empty(t, store.Names())
}

func TestLoadUnreadableFileEmptiesStore(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log.SetLogger(zap.New(core))
	t.Cleanup(func() { log.SetLogger(zap.NewNop()) })

	dir := t.TempDir()
	writeFile(t, dir, "wiki.txt", "w")
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "broken.txt")))

	store := Load(context.Background(), dir)

	assert.Zero(t, store.Len())
	assert.Empty(t, store.Names())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Loading context files failed, continuing without context", entry.Message)
	assert.Equal(t, dir, entry.ContextMap()["dir"])
}

func TestLoadNameCollisionLastWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wiki.md", "from md")
	writeFile(t, dir, "wiki.txt", "from txt")

	store := Load(context.Background(), dir)

	assert.Equal(t, 1, store.Len())
	text, ok := store.Get("wiki")
	require.True(t, ok)
	assert.Equal(t, "from txt", text)
}

func TestLoadNamesAreStable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "discord.txt", "d")
	writeFile(t, dir, "wiki.txt", "w")

	store := Load(context.Background(), dir)

	assert.Equal(t, store.Names(), store.Names())
}

func TestContextName(t *testing.T) {
	assert.Equal(t, "wiki", contextName("wiki.md"))
	assert.Equal(t, "wiki", contextName("wiki"))
	assert.Equal(t, "a.b", contextName("a.b.c"))
	assert.Equal(t, ".notes", contextName(".notes"))
}
