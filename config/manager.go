package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dyike/CortexSI/pkg/errors"
	"github.com/dyike/CortexSI/pkg/logger"
)

// Snapshot is a validated configuration together with the Telegram channels
// it resolves to. A config whose channel catalog fails to load never becomes
// a Snapshot.
type Snapshot struct {
	Config   Config
	Channels []string
	Catalog  *ChannelCatalog
}

// NewSnapshot validates cfg and resolves its Telegram channels.
func NewSnapshot(cfg Config) (Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return Snapshot{}, err
	}
	channels, catalog, err := cfg.ResolveTelegramChannels()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Config: cfg, Channels: channels, Catalog: catalog}, nil
}

// Manager owns the JSON config file. Watch reloads it, and the channel
// catalog it points at, when either changes on disk.
type Manager struct {
	path     string
	debounce time.Duration

	mu       sync.RWMutex
	current  Snapshot
	onChange func(Snapshot)
	watching bool

	// writing is set while Set rewrites the file so the resulting event is ignored
	writing atomic.Bool
}

type managerOptions struct {
	configPath string
	debounce   time.Duration
}

type ManagerOption func(*managerOptions)

var (
	defaultManager *Manager
	managerMu      sync.Mutex
)

// NewManager loads the config file, writing defaults when it does not exist.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	options := managerOptions{debounce: 300 * time.Millisecond}
	for _, opt := range opts {
		opt(&options)
	}

	path := options.configPath
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg, err := readConfig(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := writeConfigFile(path, cfg); err != nil {
			return nil, fmt.Errorf("write initial config: %w", err)
		}
	case err != nil:
		return nil, err
	}

	snap, err := NewSnapshot(cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &Manager{path: path, debounce: options.debounce, current: snap}, nil
}

func (m *Manager) Get() Config {
	return m.Snapshot().Config
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) Path() string {
	return m.path
}

// Set assigns one field by its JSON key, validates the result and persists
// it. List fields take comma-separated values.
func (m *Manager) Set(key, value string) error {
	cfg := m.Get()
	if err := setField(&cfg, key, value); err != nil {
		return err
	}
	snap, err := NewSnapshot(cfg)
	if err != nil {
		return err
	}

	m.writing.Store(true)
	if err := writeConfigFile(m.path, cfg); err != nil {
		m.writing.Store(false)
		return err
	}
	time.AfterFunc(2*m.debounce, func() { m.writing.Store(false) })

	m.apply(snap)
	return nil
}

// Watch calls onChange with every snapshot that differs from the current one.
// Invalid edits are logged and ignored; the previous snapshot stays active.
func (m *Manager) Watch(ctx context.Context, onChange func(Snapshot)) error {
	m.mu.Lock()
	m.onChange = onChange
	if m.watching {
		m.mu.Unlock()
		return nil
	}
	m.watching = true
	catalog := m.current.Config.TelegramChannelsFile
	m.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := map[string]bool{filepath.Dir(m.path): true}
	if catalog != "" {
		// the catalog directory may not exist yet; the config dir still counts
		if _, err := os.Stat(filepath.Dir(catalog)); err == nil {
			dirs[filepath.Dir(catalog)] = true
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go m.watchLoop(ctx, watcher)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, m.reload)
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if m.relevant(evt) && !m.writing.Load() {
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Get().Warnw("config watcher error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

// relevant reports whether evt touches the config file or the channel catalog.
func (m *Manager) relevant(evt fsnotify.Event) bool {
	if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(evt.Name)
	if name == filepath.Clean(m.path) {
		return true
	}
	catalog := m.Get().TelegramChannelsFile
	return catalog != "" && name == filepath.Clean(catalog)
}

func (m *Manager) reload() {
	log := logger.Get().With("path", m.path)

	cfg, err := readConfig(m.path)
	if err != nil {
		log.Warnw("config reload failed", "error", err)
		return
	}
	snap, err := NewSnapshot(cfg)
	if err != nil {
		log.Warnw("config rejected, keeping previous", "error", err)
		return
	}
	if reflect.DeepEqual(m.Snapshot(), snap) {
		return
	}
	log.Infow("config reloaded", "telegram_channels", len(snap.Channels), "watch_tickers", snap.Config.WatchTickers)
	m.apply(snap)
}

func (m *Manager) apply(snap Snapshot) {
	m.mu.Lock()
	m.current = snap
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// DefaultConfigPath is config.json under the user config directory.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		if dir, err = os.Getwd(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "CortexSI", "config.json"), nil
}

// readConfig decodes path over the defaults rooted at its directory, so keys
// missing from the file keep their default. A missing file returns the
// defaults with an error wrapping os.ErrNotExist.
func readConfig(path string) (Config, error) {
	cfg := *DefaultConfigWithRoot(filepath.Dir(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(errors.ErrParse, "config %s: %v", path, err)
	}
	return cfg, nil
}

// setField patches the field tagged key with value.
func setField(cfg *Config, key, value string) error {
	field, ok := fieldByJSONKey(key)
	if !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "unknown config key %q", key)
	}

	var raw []byte
	switch field.Type.Kind() {
	case reflect.String:
		raw, _ = json.Marshal(value)
	case reflect.Slice:
		raw, _ = json.Marshal(splitList(value))
	default:
		raw = []byte(strings.TrimSpace(value))
	}
	if !json.Valid(raw) {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: %q is not a %s", key, value, field.Type.Kind())
	}

	// fresh zero value so decoding a list does not reuse a backing array
	// shared with the active snapshot
	reflect.ValueOf(cfg).Elem().FieldByIndex(field.Index).Set(reflect.Zero(field.Type))
	patch := append([]byte(`{"`+key+`":`), raw...)
	patch = append(patch, '}')
	if err := json.Unmarshal(patch, cfg); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: %v", key, err)
	}
	return nil
}

func fieldByJSONKey(key string) (reflect.StructField, bool) {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == key && name != "" && name != "-" {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// writeConfigFile replaces path atomically.
func writeConfigFile(path string, cfg Config) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "cfg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&cfg); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir != "" {
			o.configPath = filepath.Join(dir, "config.json")
		}
	}
}

func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		if path != "" {
			o.configPath = path
		}
	}
}

func WithDebounce(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// DefaultManager returns the manager set by SetDefaultManager, or one over
// DefaultConfigPath.
func DefaultManager() (*Manager, error) {
	managerMu.Lock()
	defer managerMu.Unlock()
	if defaultManager != nil {
		return defaultManager, nil
	}
	mgr, err := NewManager()
	if err != nil {
		return nil, err
	}
	defaultManager = mgr
	return defaultManager, nil
}

func SetDefaultManager(mgr *Manager) {
	managerMu.Lock()
	defer managerMu.Unlock()
	defaultManager = mgr
}
