// Package fsbridge is the filesystem plugin: the front-end reads files and
// watches them through it instead of touching the OS directly.
package fsbridge

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Akaiko1/nfo-viewer/internal/host"
)

// Name is the plugin name.
const Name = "fs"

var (
	// ErrTooLarge is returned by ReadFile for files over the size cap.
	ErrTooLarge = errors.New("file too large")
	// ErrNotRegular is returned by ReadFile for directories and devices.
	ErrNotRegular = errors.New("not a regular file")
)

// Document is a file read through the bridge.
type Document struct {
	Path string
	Name string
	Size int64
	Data []byte
}

// Plugin implements host.Plugin.
type Plugin struct {
	fs      afero.Fs
	maxSize int64
	log     zerolog.Logger

	mu       sync.Mutex
	watchers map[*Watcher]struct{}
	closed   bool
}

// New creates the bridge. A nil fs means the OS filesystem.
func New(fs afero.Fs, maxSize int64, log zerolog.Logger) *Plugin {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Plugin{
		fs:       fs,
		maxSize:  maxSize,
		log:      log,
		watchers: make(map[*Watcher]struct{}),
	}
}

// Name implements host.Plugin.
func (p *Plugin) Name() string { return Name }

// Init implements host.Plugin.
func (p *Plugin) Init(h *host.Handle) error {
	p.log.Debug().Int64("max_size", p.maxSize).Msg("filesystem bridge ready")
	return nil
}

// Stat returns file information for path.
func (p *Plugin) Stat(path string) (os.FileInfo, error) {
	return p.fs.Stat(path)
}

// Exists reports whether path names an existing file or directory.
func (p *Plugin) Exists(path string) bool {
	_, err := p.fs.Stat(path)
	return err == nil
}

// IsDir reports whether path names an existing directory.
func (p *Plugin) IsDir(path string) bool {
	ok, err := afero.IsDir(p.fs, path)
	return err == nil && ok
}

// ReadFile reads a regular file up to the configured size cap.
func (p *Plugin) ReadFile(path string) (*Document, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%q: %w", path, ErrNotRegular)
	}
	if p.maxSize > 0 && info.Size() > p.maxSize {
		return nil, fmt.Errorf("%q is %d bytes, limit is %d: %w", path, info.Size(), p.maxSize, ErrTooLarge)
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	// The file may have grown since Stat; never read past the cap. Without a
	// cap read to EOF, since some files (procfs, FUSE) report size 0.
	var r io.Reader = f
	if p.maxSize > 0 {
		r = io.LimitReader(f, p.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	if p.maxSize > 0 && int64(len(data)) > p.maxSize {
		return nil, fmt.Errorf("%q grew past %d bytes: %w", path, p.maxSize, ErrTooLarge)
	}

	p.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("file read")
	return &Document{
		Path: path,
		Name: filepath.Base(path),
		Size: int64(len(data)),
		Data: data,
	}, nil
}

// Close stops every active watcher.
func (p *Plugin) Close() error {
	p.mu.Lock()
	watchers := make([]*Watcher, 0, len(p.watchers))
	for w := range p.watchers {
		watchers = append(watchers, w)
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for _, w := range watchers {
		if err := w.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Plugin) track(w *Watcher) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("filesystem bridge closed")
	}
	p.watchers[w] = struct{}{}
	return nil
}

func (p *Plugin) untrack(w *Watcher) {
	p.mu.Lock()
	delete(p.watchers, w)
	p.mu.Unlock()
}
