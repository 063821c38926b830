package cache_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf/cache"
)

var modified = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

func age(t *testing.T, s *cache.Store, tenantID, docID int64, ts time.Time, by time.Duration) string {
	t.Helper()

	p := filepath.Join(s.Dir(), cache.Key(tenantID, docID, ts))
	old := time.Now().Add(-by)
	require.NoError(t, os.Chtimes(p, old, old))

	return p
}

func TestKey(t *testing.T) {
	k := cache.Key(3, 14, modified)

	assert.Regexp(t, regexp.MustCompile(`^t3_q14_[0-9a-f]{32}\.pdf$`), k)
	assert.Equal(t, k, cache.Key(3, 14, modified))
	assert.NotEqual(t, k, cache.Key(3, 14, modified.Add(time.Millisecond)))
	assert.NotEqual(t, k, cache.Key(4, 14, modified))
	// sub-millisecond differences share a key
	assert.Equal(t, k, cache.Key(3, 14, modified.Add(time.Microsecond)))
}

func TestStore_PutGet(t *testing.T) {
	s := cache.New(filepath.Join(t.TempDir(), "pdf"))
	data := []byte("%PDF-1.3 test")

	assert.False(t, s.IsCached(1, 2, modified))

	_, ok := s.Get(1, 2, modified)
	assert.False(t, ok)

	s.Put(1, 2, modified, data)

	assert.True(t, s.IsCached(1, 2, modified))

	got, ok := s.Get(1, 2, modified)
	require.True(t, ok)
	assert.Equal(t, data, got)
}

func TestStore_TimestampKeyed(t *testing.T) {
	s := cache.New(t.TempDir())
	updated := modified.Add(5 * time.Minute)

	s.Put(1, 2, modified, []byte("old"))

	_, ok := s.Get(1, 2, updated)
	assert.False(t, ok, "new timestamp must miss")

	s.Put(1, 2, updated, []byte("new"))

	oldData, ok := s.Get(1, 2, modified)
	require.True(t, ok)
	assert.Equal(t, []byte("old"), oldData)

	newData, ok := s.Get(1, 2, updated)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), newData)
}

func TestStore_Overwrite(t *testing.T) {
	s := cache.New(t.TempDir())

	s.Put(1, 2, modified, []byte("first"))
	s.Put(1, 2, modified, []byte("second"))

	got, ok := s.Get(1, 2, modified)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
	assert.Equal(t, 1, s.Stats().FileCount)
}

func TestStore_Expiry(t *testing.T) {
	s := cache.New(t.TempDir())

	s.Put(1, 2, modified, []byte("data"))
	p := age(t, s, 1, 2, modified, 25*time.Hour)

	assert.False(t, s.IsCached(1, 2, modified))

	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err), "expired entry must be removed on check")
}

func TestStore_WithRetention(t *testing.T) {
	s := cache.New(t.TempDir(), cache.WithRetention(time.Minute))

	s.Put(1, 2, modified, []byte("data"))
	age(t, s, 1, 2, modified, 2*time.Minute)

	_, ok := s.Get(1, 2, modified)
	assert.False(t, ok)
}

func TestStore_WithClock(t *testing.T) {
	now := time.Now()
	s := cache.New(t.TempDir(), cache.WithClock(func() time.Time { return now }))

	s.Put(1, 2, modified, []byte("data"))
	assert.True(t, s.IsCached(1, 2, modified))

	now = now.Add(48 * time.Hour)
	assert.False(t, s.IsCached(1, 2, modified))
}

func TestStore_InvalidateAll(t *testing.T) {
	s := cache.New(t.TempDir())

	s.Put(1, 2, modified, []byte("a"))
	s.Put(1, 2, modified.Add(time.Hour), []byte("b"))
	s.Put(1, 20, modified, []byte("other quote"))
	s.Put(11, 2, modified, []byte("other tenant"))

	assert.Equal(t, 2, s.InvalidateAll(1, 2))

	assert.False(t, s.IsCached(1, 2, modified))
	assert.False(t, s.IsCached(1, 2, modified.Add(time.Hour)))
	assert.True(t, s.IsCached(1, 20, modified))
	assert.True(t, s.IsCached(11, 2, modified))

	assert.Equal(t, 0, s.InvalidateAll(1, 2))
}

func TestStore_SweepExpired(t *testing.T) {
	s := cache.New(t.TempDir())

	s.Put(1, 1, modified, []byte("stale"))
	s.Put(1, 2, modified, []byte("fresh"))
	age(t, s, 1, 1, modified, 30*time.Hour)

	stray := filepath.Join(s.Dir(), ".tmp-abandoned")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))

	old := time.Now().Add(-30 * time.Hour)
	require.NoError(t, os.Chtimes(stray, old, old))

	assert.Equal(t, 2, s.SweepExpired())
	assert.True(t, s.IsCached(1, 2, modified))
	assert.Equal(t, 1, s.Stats().FileCount)
}

func TestStore_Stats(t *testing.T) {
	s := cache.New(t.TempDir())

	assert.Equal(t, cache.Stats{}, s.Stats())

	s.Put(1, 1, modified, []byte("12345"))
	s.Put(1, 2, modified, []byte("123"))
	p := age(t, s, 1, 1, modified, time.Hour)

	info, err := os.Stat(p)
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, 2, st.FileCount)
	assert.Equal(t, int64(8), st.TotalBytes)
	assert.True(t, st.OldestMtime.Equal(info.ModTime()))
}

func TestStore_MissingDirectory(t *testing.T) {
	s := cache.New(filepath.Join(t.TempDir(), "never", "created"))

	assert.False(t, s.IsCached(1, 2, modified))
	assert.Equal(t, 0, s.InvalidateAll(1, 2))
	assert.Equal(t, 0, s.SweepExpired())
	assert.Equal(t, cache.Stats{}, s.Stats())
}

func TestStore_PutFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// cache dir path points below a regular file, so MkdirAll fails
	s := cache.New(filepath.Join(blocker, "pdf"))

	assert.NotPanics(t, func() { s.Put(1, 2, modified, []byte("data")) })
	assert.False(t, s.IsCached(1, 2, modified))
}

func TestSweeper_StartStop(t *testing.T) {
	s := cache.New(t.TempDir())

	s.Put(1, 1, modified, []byte("stale"))
	p := age(t, s, 1, 1, modified, 48*time.Hour)

	sw := cache.NewSweeper(s, 10*time.Millisecond)
	sw.Start()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(p)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	sw.Stop()
	sw.Stop()
}
