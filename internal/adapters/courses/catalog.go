// Package courses loads exercise metadata from YAML course manifests and keeps
// it current while the manifests change on disk.
package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/domain/model"
)

const (
	defaultReloadDebounce = 250 * time.Millisecond
	defaultDirPoll        = 5 * time.Second
)

// Manifest is the on-disk layout of one course file.
type Manifest struct {
	CourseID string           `yaml:"course_id"`
	Slides   []model.Exercise `yaml:"slides"`
}

type exerciseKey struct {
	courseID string
	slideID  uuid.UUID
}

// Options configures a Catalog.
type Options struct {
	Dir            string
	ReloadDebounce time.Duration
	// DirPollInterval is how often Run checks for a courses directory that does not exist yet.
	DirPollInterval time.Duration
	Logger          *slog.Logger
}

// Catalog serves exercises from an immutable snapshot that is swapped atomically on reload.
type Catalog struct {
	dir      string
	debounce time.Duration
	dirPoll  time.Duration
	logger   *slog.Logger
	snapshot atomic.Pointer[map[exerciseKey]*model.Exercise]
}

var _ core.CourseCatalog = (*Catalog)(nil)

// New loads every manifest in opts.Dir. A missing directory yields an empty catalog.
func New(opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.ReloadDebounce
	if debounce <= 0 {
		debounce = defaultReloadDebounce
	}

	dirPoll := opts.DirPollInterval
	if dirPoll <= 0 {
		dirPoll = defaultDirPoll
	}

	c := &Catalog{
		dir:      opts.Dir,
		debounce: debounce,
		dirPoll:  dirPoll,
		logger:   logger.With("component", "course_catalog"),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// FindExercise returns a copy of the exercise on the slide.
func (c *Catalog) FindExercise(courseID string, slideID uuid.UUID) (*model.Exercise, bool) {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	ex, ok := (*snap)[exerciseKey{courseID: strings.ToLower(courseID), slideID: slideID}]
	if !ok {
		return nil, false
	}
	cp := *ex
	return &cp, true
}

// Len returns the number of exercises loaded.
func (c *Catalog) Len() int {
	snap := c.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(*snap)
}

// Reload re-reads all manifests. On error the previous snapshot stays in place.
func (c *Catalog) Reload() error {
	next := make(map[exerciseKey]*model.Exercise)
	if c.dir == "" {
		c.snapshot.Store(&next)
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("courses directory does not exist", "dir", c.dir)
		c.snapshot.Store(&next)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read courses dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !isManifest(e.Name()) {
			continue
		}
		if err := loadManifest(filepath.Join(c.dir, e.Name()), next); err != nil {
			return err
		}
	}

	c.snapshot.Store(&next)
	c.logger.Info("course catalog loaded", "dir", c.dir, "exercises", len(next))
	return nil
}

// Run watches the manifests directory and reloads on change until ctx is done.
// A directory that does not exist yet is waited for and loaded once it appears.
func (c *Catalog) Run(ctx context.Context) error {
	if c.dir == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create course watcher: %w", err)
	}
	defer watcher.Close()

	if err := c.attach(ctx, watcher); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	c.logger.InfoContext(ctx, "watching course manifests", "dir", c.dir)

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isManifest(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			// Editors write in bursts; coalesce into one reload.
			reload = time.After(c.debounce)
		case <-reload:
			reload = nil
			if err := c.Reload(); err != nil {
				c.logger.ErrorContext(ctx, "course catalog reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.WarnContext(ctx, "course watcher error", "error", err)
		}
	}
}

func (c *Catalog) attach(ctx context.Context, watcher *fsnotify.Watcher) error {
	if !dirMissing(c.dir) {
		return c.add(watcher)
	}

	c.logger.WarnContext(ctx, "courses directory does not exist, waiting for it", "dir", c.dir)
	ticker := time.NewTicker(c.dirPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if dirMissing(c.dir) {
			continue
		}
		if err := c.add(watcher); err != nil {
			return err
		}
		if err := c.Reload(); err != nil {
			c.logger.ErrorContext(ctx, "course catalog reload failed", "error", err)
		}
		return nil
	}
}

func (c *Catalog) add(watcher *fsnotify.Watcher) error {
	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}
	return nil
}

func dirMissing(dir string) bool {
	_, err := os.Stat(dir)
	return errors.Is(err, os.ErrNotExist)
}

func isManifest(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func loadManifest(path string, into map[exerciseKey]*model.Exercise) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}

	courseID := strings.TrimSpace(m.CourseID)
	if courseID == "" {
		courseID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	courseID = strings.ToLower(courseID)

	for i := range m.Slides {
		ex := m.Slides[i]
		slideID, err := uuid.Parse(ex.SlideID)
		if err != nil {
			return fmt.Errorf("manifest %s slide %d: invalid slide_id %q: %w", path, i, ex.SlideID, err)
		}
		if !ex.Type.Valid() {
			return fmt.Errorf("manifest %s slide %s: invalid exercise type %q", path, slideID, ex.Type)
		}
		if err := checking.ValidatePointsQuery(ex.PointsQuery); err != nil {
			return fmt.Errorf("manifest %s slide %s: %w", path, slideID, err)
		}
		ex.CourseID = courseID
		ex.SlideID = slideID.String()
		into[exerciseKey{courseID: courseID, slideID: slideID}] = &ex
	}
	return nil
}
