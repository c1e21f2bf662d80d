package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	return NewFileStore(path, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
	})
}

func newSession(id string) *core.Session {
	sess := core.NewSession("test session")
	sess.ID = id
	sess.AddMessage(core.NewUserMessage("hello"))
	return sess
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess := newSession("s-1")
	require.NoError(t, store.Update(sess))

	// A fresh store against the same file must see the persisted state.
	reloaded := NewFileStore(store.path, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
	})
	got, err := reloaded.Get("s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Text())
}

func TestFileStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStore_UpdateIsUpsert(t *testing.T) {
	store := newTestStore(t)

	sess := newSession("s-1")
	require.NoError(t, store.Update(sess))

	sess.AddMessage(core.NewAgentMessage("Assistant", "hi there", 0))
	require.NoError(t, store.Update(sess))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Messages, 2)
}

func TestFileStore_Delete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Update(newSession("s-1")))
	require.NoError(t, store.Update(newSession("s-2")))

	removed, err := store.Delete("s-1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete("s-1")
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "s-2", all[0].ID)
}

func TestFileStore_CorruptFileQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
	})

	all, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	// Original file moved aside under a backup name.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "sessions.json.backup_")
}

func TestFileStore_Cleanup(t *testing.T) {
	store := newTestStore(t)

	old := newSession("old")
	old.Updated = time.Now().Add(-48 * time.Hour)
	fresh := newSession("fresh")

	require.NoError(t, store.Update(old))
	require.NoError(t, store.Update(fresh))

	removed, err := store.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := store.Get("old")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Get("fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestFileStore_CacheServesUntilTTL(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Update(newSession("s-1")))

	base := time.Now()
	store.now = func() time.Time { return base }

	// Prime the cache, then change the file behind the store's back.
	_, err := store.All()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.path, []byte("[]"), 0o600))

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 1, "within TTL the cache must be served")

	store.now = func() time.Time { return base.Add(DefaultCacheTTL + time.Second) }
	all, err = store.All()
	require.NoError(t, err)
	assert.Empty(t, all, "after TTL expiry the file must be re-read")
}

func TestFileStore_FailedWriteLeavesCacheIntact(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Update(newSession("s-1")))

	store.rename = func(_, _ string) error {
		return errors.New("disk full")
	}

	changed := newSession("s-1")
	changed.Title = "never persisted"
	changed.AddMessage(core.NewAgentMessage("Assistant", "ghost reply", 0))
	require.Error(t, store.Update(changed))

	// Reads within the TTL must still reflect the committed state, not the
	// rejected update.
	got, err := store.Get("s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "test session", got.Title)
	assert.Len(t, got.Messages, 1)
}

func TestFileStore_CrashBeforeRenameKeepsCommittedDocument(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Update(newSession("s-1")))

	// The temp file is written, then the atomic replace never happens.
	store.rename = func(_, _ string) error {
		return errors.New("process killed")
	}
	require.Error(t, store.Update(newSession("s-2")))

	// The canonical document on disk must be the previously committed
	// collection, fully parseable by a fresh store.
	reloaded := NewFileStore(store.path, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
	})
	all, err := reloaded.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "s-1", all[0].ID)

	// No quarantine backup either: the document was never corrupted.
	entries, err := os.ReadDir(filepath.Dir(store.path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".backup_")
	}
}

func TestFileStore_AllReturnsCopies(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Update(newSession("s-1")))

	all, err := store.All()
	require.NoError(t, err)
	all[0].Title = "mutated"

	again, err := store.All()
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].Title)
}
