package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

// Registry manages a collection of rulesets.
type Registry interface {
	// Register adds a ruleset to the registry
	Register(rs *Ruleset) error

	// Unregister removes a ruleset from the registry
	Unregister(id string) error

	// Get returns a ruleset by its id
	Get(id string) (*Ruleset, bool)

	// List returns all registered rulesets sorted by id
	List() []*Ruleset

	// Reload reloads all rulesets from the configured directory
	Reload() error

	// Watch starts watching the ruleset directory for changes
	Watch() error

	// StopWatch stops watching the ruleset directory
	StopWatch()

	// LoadDirectory loads all rulesets from a directory
	LoadDirectory(dir string) error

	// LoadFile loads a single ruleset file
	LoadFile(path string) error
}

// DefaultRegistry is the default implementation of Registry. It always holds the
// embedded ruleset unless a file overrides its id.
type DefaultRegistry struct {
	mu       sync.RWMutex
	rulesets map[string]*Ruleset
	files    map[string]string // path -> ruleset id
	dir      string
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}
	onChange func(event string, rs *Ruleset)
}

// NewRegistry creates a registry holding only the embedded default ruleset.
func NewRegistry(logger *zap.Logger) *DefaultRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &DefaultRegistry{
		rulesets: make(map[string]*Ruleset),
		files:    make(map[string]string),
		logger:   logger,
	}
	r.rulesets[DefaultID] = Default()
	return r
}

// NewRegistryWithDirectory creates a registry and loads rulesets from dir.
func NewRegistryWithDirectory(dir string, logger *zap.Logger) (*DefaultRegistry, error) {
	r := NewRegistry(logger)
	if err := r.LoadDirectory(dir); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a ruleset to the registry.
func (r *DefaultRegistry) Register(rs *Ruleset) error {
	if rs == nil {
		return fmt.Errorf("ruleset cannot be nil")
	}
	if err := rs.Validate(); err != nil {
		return fmt.Errorf("invalid ruleset: %w", err)
	}
	if !rs.IsCompiled() {
		if err := rs.Compile(); err != nil {
			return fmt.Errorf("compiling ruleset %q: %w", rs.ID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Same id and version from a different source is a conflict; a new version
	// replaces the old one.
	if existing, ok := r.rulesets[rs.ID]; ok && existing != rs && existing.Version == rs.Version && rs.ID != DefaultID {
		return fmt.Errorf("ruleset %q version %s already registered", rs.ID, rs.Version)
	}

	r.rulesets[rs.ID] = rs
	return nil
}

// Unregister removes a ruleset from the registry.
func (r *DefaultRegistry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rulesets[id]; !ok {
		return fmt.Errorf("ruleset %q not found", id)
	}
	delete(r.rulesets, id)
	return nil
}

// Get returns a ruleset by id.
func (r *DefaultRegistry) Get(id string) (*Ruleset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rulesets[id]
	return rs, ok
}

// List returns all registered rulesets sorted by id.
func (r *DefaultRegistry) List() []*Ruleset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Ruleset, 0, len(r.rulesets))
	for _, rs := range r.rulesets {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered rulesets.
func (r *DefaultRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rulesets)
}

// LoadDirectory loads all YAML ruleset files from a directory. A missing
// directory is not an error.
func (r *DefaultRegistry) LoadDirectory(dir string) error {
	r.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading rulesets: %s", strings.Join(loadErrors, "; "))
	}
	return nil
}

// LoadFile loads a single ruleset file.
func (r *DefaultRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	// A rewritten file replaces what it registered before, whatever the version.
	r.mu.Lock()
	if prev, ok := r.files[path]; ok && prev == rs.ID {
		delete(r.rulesets, prev)
	}
	r.mu.Unlock()

	if err := r.Register(&rs); err != nil {
		return fmt.Errorf("registering ruleset: %w", err)
	}

	r.mu.Lock()
	r.files[path] = rs.ID
	r.mu.Unlock()

	r.logger.Debug("ruleset loaded", zap.String("path", path), zap.String("id", rs.ID), zap.String("version", rs.Version))
	return nil
}

// Reload reloads all rulesets from the configured directory.
func (r *DefaultRegistry) Reload() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}

	r.mu.Lock()
	r.rulesets = map[string]*Ruleset{DefaultID: Default()}
	r.files = make(map[string]string)
	r.mu.Unlock()

	return r.LoadDirectory(r.dir)
}

// SetOnChange sets a callback invoked after the watcher applies a change. rs is
// the ruleset that was loaded or, for "remove", the one dropped; it is never nil.
func (r *DefaultRegistry) SetOnChange(fn func(event string, rs *Ruleset)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Watch starts watching the ruleset directory for changes.
func (r *DefaultRegistry) Watch() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", r.dir, err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})
	go r.watchLoop()

	return nil
}

// watchLoop handles file system events until StopWatch.
func (r *DefaultRegistry) watchLoop() {
	defer close(r.done)
	for {
		select {
		case <-r.stopChan:
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !isYAML(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, "create")
			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, "modify")
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove(event.Name)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("ruleset watcher error", zap.Error(err))
		}
	}
}

func (r *DefaultRegistry) handleFileChange(path string, eventType string) {
	if err := r.LoadFile(path); err != nil {
		r.logger.Warn("ruleset reload failed", zap.String("path", path), zap.Error(err))
		return
	}

	r.mu.RLock()
	fn := r.onChange
	rs := r.rulesets[r.files[path]]
	r.mu.RUnlock()

	r.logger.Info("ruleset changed", zap.String("event", eventType), zap.String("path", path))
	if fn != nil {
		fn(eventType, rs)
	}
}

// handleFileRemove drops the ruleset loaded from path and reports it to the
// change callback. Paths the registry never loaded are ignored.
func (r *DefaultRegistry) handleFileRemove(path string) {
	r.mu.Lock()
	id, ok := r.files[path]
	var removed *Ruleset
	if ok {
		removed = r.rulesets[id]
		delete(r.files, path)
		if id == DefaultID {
			r.rulesets[id] = Default()
		} else {
			delete(r.rulesets, id)
		}
	}
	fn := r.onChange
	r.mu.Unlock()

	if !ok || removed == nil {
		return
	}
	r.logger.Info("ruleset removed", zap.String("path", path), zap.String("id", id))
	if fn != nil {
		fn("remove", removed)
	}
}

// StopWatch stops watching the ruleset directory and waits for the watch loop
// to exit.
func (r *DefaultRegistry) StopWatch() {
	if r.stopChan == nil {
		return
	}
	close(r.stopChan)
	if r.watcher != nil {
		r.watcher.Close()
	}
	<-r.done
	r.stopChan = nil
	r.watcher = nil
}

// Clear removes every ruleset except the embedded default.
func (r *DefaultRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rulesets = map[string]*Ruleset{DefaultID: Default()}
	r.files = make(map[string]string)
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
