package fs

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/mesto"
	"github.com/panyam/mesto/stores/storetest"
)

func TestFSStores(t *testing.T) {
	dir := t.TempDir()
	storetest.Run(t, NewUserStore(dir), NewCardStore(dir))
}

func TestUserStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	user := &mesto.User{ID: mesto.NewID(), Email: "ann@example.com", PasswordHash: "digest"}
	_, err := NewUserStore(dir).CreateUser(ctx, user)
	require.NoError(t, err)

	got, err := NewUserStore(dir).GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "digest", got.PasswordHash)
}

func TestUserStore_EmailFileNames(t *testing.T) {
	dir := t.TempDir()
	s := NewUserStore(dir)
	_, err := s.CreateUser(context.Background(), &mesto.User{Email: "../../etc/passwd@example.com"})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "emails"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
	assert.NotContains(t, entries[0].Name(), "..")
}

func TestCardStore_IgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cards"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cards", ".tmp-123"), []byte("partial"), 0644))

	list, err := NewCardStore(dir).ListCards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "doc.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	}
}
