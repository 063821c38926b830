// Package cache keeps rendered quote documents on the local filesystem,
// keyed by tenant, quote and the quote's last modification time.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRetention = 24 * time.Hour
	fileExt          = ".pdf"
	tmpPrefix        = ".tmp-"
)

type Stats struct {
	FileCount   int       `json:"file_count"`
	TotalBytes  int64     `json:"total_bytes"`
	OldestMtime time.Time `json:"oldest_mtime,omitzero"`
}

// Store is a filesystem cache of rendered documents. Errors never leave it:
// a failed read is a miss, a failed write or delete is logged.
type Store struct {
	dir       string
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Store)

func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now when judging file age.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:       dir,
		retention: DefaultRetention,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Dir() string {
	return s.dir
}

// prefix is shared by every entry of one quote, whatever its timestamp.
func prefix(tenantID, documentID int64) string {
	return fmt.Sprintf("t%d_q%d_", tenantID, documentID)
}

// Key returns the file name for an entry: the quote prefix followed by a
// 128-bit FNV-1a digest of tenant, quote and millisecond timestamp.
func Key(tenantID, documentID int64, lastModified time.Time) string {
	h := fnv.New128a()
	fmt.Fprintf(h, "%d|%d|%d", tenantID, documentID, lastModified.UnixMilli())

	return prefix(tenantID, documentID) + hex.EncodeToString(h.Sum(nil)) + fileExt
}

func (s *Store) path(tenantID, documentID int64, lastModified time.Time) string {
	return filepath.Join(s.dir, Key(tenantID, documentID, lastModified))
}

func (s *Store) expired(info fs.FileInfo) bool {
	return s.now().Sub(info.ModTime()) > s.retention
}

// IsCached reports whether a fresh entry exists. An expired entry is removed.
func (s *Store) IsCached(tenantID, documentID int64, lastModified time.Time) bool {
	p := s.path(tenantID, documentID, lastModified)

	info, err := os.Stat(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to stat cache entry", "path", p, "error", err)
		}

		return false
	}

	if s.expired(info) {
		s.remove(p)
		return false
	}

	return true
}

// Get returns the cached bytes, or nil and false on a miss.
func (s *Store) Get(tenantID, documentID int64, lastModified time.Time) ([]byte, bool) {
	if !s.IsCached(tenantID, documentID, lastModified) {
		return nil, false
	}

	p := s.path(tenantID, documentID, lastModified)

	data, err := os.ReadFile(p)
	if err != nil {
		s.logger.Warn("failed to read cache entry", "path", p, "error", err)
		return nil, false
	}

	if len(data) == 0 {
		s.remove(p)
		return nil, false
	}

	return data, true
}

// Put stores data under the entry key. The file is written to a temporary
// name and renamed so readers never see a partial document.
func (s *Store) Put(tenantID, documentID int64, lastModified time.Time, data []byte) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error("failed to create cache directory", "dir", s.dir, "error", err)
		return
	}

	p := s.path(tenantID, documentID, lastModified)
	tmp := filepath.Join(s.dir, tmpPrefix+uuid.NewString())

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error("failed to write cache entry", "path", tmp, "error", err)
		s.remove(tmp)

		return
	}

	if err := os.Rename(tmp, p); err != nil {
		s.logger.Error("failed to commit cache entry", "path", p, "error", err)
		s.remove(tmp)
	}
}

// InvalidateAll removes every entry of a quote regardless of timestamp or
// age and returns how many files were removed.
func (s *Store) InvalidateAll(tenantID, documentID int64) int {
	pre := prefix(tenantID, documentID)

	removed := 0

	s.scan(func(name string, _ fs.FileInfo) {
		if strings.HasPrefix(name, pre) && s.remove(filepath.Join(s.dir, name)) {
			removed++
		}
	})

	if removed > 0 {
		s.logger.Debug("invalidated cached documents", "tenant_id", tenantID, "quote_id", documentID, "count", removed)
	}

	return removed
}

// SweepExpired removes every file older than the retention window,
// including abandoned temporary files, and returns how many were removed.
func (s *Store) SweepExpired() int {
	removed := 0

	s.scan(func(name string, info fs.FileInfo) {
		if s.expired(info) && s.remove(filepath.Join(s.dir, name)) {
			removed++
		}
	})

	return removed
}

func (s *Store) Stats() Stats {
	var st Stats

	s.scan(func(name string, info fs.FileInfo) {
		if !strings.HasSuffix(name, fileExt) {
			return
		}

		st.FileCount++
		st.TotalBytes += info.Size()

		if st.OldestMtime.IsZero() || info.ModTime().Before(st.OldestMtime) {
			st.OldestMtime = info.ModTime()
		}
	})

	return st
}

// scan calls fn for each regular file in the cache directory. A missing
// directory is an empty cache.
func (s *Store) scan(fn func(name string, info fs.FileInfo)) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to list cache directory", "dir", s.dir, "error", err)
		}

		return
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		fn(e.Name(), info)
	}
}

func (s *Store) remove(p string) bool {
	if err := os.Remove(p); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove cache entry", "path", p, "error", err)
		}

		return false
	}

	return true
}
