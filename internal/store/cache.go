// Package store provides a file-backed, per-metric usage cache.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

// State classifies the outcome of a cache read.
type State int

const (
	Absent State = iota
	Fresh
	Stale
	IOError
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case IOError:
		return "error"
	default:
		return "absent"
	}
}

// TTL maps each metric to its maximum cache age.
type TTL map[model.Metric]time.Duration

// DefaultTTL returns the standard freshness windows.
func DefaultTTL() TTL {
	return TTL{
		model.MetricMonthly: 600 * time.Second,
		model.MetricDaily:   120 * time.Second,
		model.MetricQuota:   120 * time.Second,
	}
}

// DefaultDir returns the shared temp directory used for cache files.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), ".glm-statusline-cache")
}

// Result is the outcome of reading one metric. Only Fresh results carry Data.
type Result struct {
	State State
	Data  []byte
	Age   time.Duration
	Err   error
}

// Entry describes one cache file for status reporting.
type Entry struct {
	Metric model.Metric
	Path   string
	State  State
	Age    time.Duration
	TTL    time.Duration
	Size   int64
}

// Store holds one JSON file per metric under dir.
// Freshness is judged by file modification time only.
type Store struct {
	dir string
	ttl TTL
	now func() time.Time
}

// New creates a store rooted at dir. A nil ttl uses DefaultTTL.
func New(dir string, ttl TTL) *Store {
	if ttl == nil {
		ttl = DefaultTTL()
	}
	return &Store{dir: dir, ttl: ttl, now: time.Now}
}

// WithClock replaces the clock used for age calculations.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the cache file for a metric.
func (s *Store) Path(metric model.Metric) string {
	return filepath.Join(s.dir, string(metric)+".json")
}

// Read returns the cached bytes for metric if the file is within its TTL.
func (s *Store) Read(metric model.Metric) Result {
	ttl, ok := s.ttl[metric]
	if !ok {
		return Result{State: Absent}
	}

	info, err := os.Stat(s.Path(metric))
	if errors.Is(err, fs.ErrNotExist) {
		return Result{State: Absent}
	}
	if err != nil {
		return Result{State: IOError, Err: err}
	}

	age := s.now().Sub(info.ModTime())
	if age > ttl {
		return Result{State: Stale, Age: age}
	}

	data, err := os.ReadFile(s.Path(metric))
	if err != nil {
		return Result{State: IOError, Age: age, Err: err}
	}
	return Result{State: Fresh, Data: data, Age: age}
}

// Load decodes a fresh cache entry into v. Every other outcome,
// including a decode failure, reports false.
func (s *Store) Load(metric model.Metric, v any) bool {
	res := s.Read(metric)
	if res.State != Fresh {
		return false
	}
	return json.Unmarshal(res.Data, v) == nil
}

// Write overwrites the cache file for metric with v encoded as compact JSON.
func (s *Store) Write(metric model.Metric, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s cache: %w", metric, err)
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(s.Path(metric), data, 0o600); err != nil {
		return fmt.Errorf("writing %s cache: %w", metric, err)
	}
	return nil
}

// ClearAll deletes every known metric file. Missing files are ignored.
func (s *Store) ClearAll() error {
	var errs []error
	for _, m := range model.Metrics {
		if err := os.Remove(s.Path(m)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status reports the state of every known metric file.
func (s *Store) Status() []Entry {
	entries := make([]Entry, 0, len(model.Metrics))
	for _, m := range model.Metrics {
		e := Entry{Metric: m, Path: s.Path(m), TTL: s.ttl[m]}
		if info, err := os.Stat(e.Path); err == nil {
			e.Size = info.Size()
		}
		res := s.Read(m)
		e.State = res.State
		e.Age = res.Age
		entries = append(entries, e)
	}
	return entries
}
