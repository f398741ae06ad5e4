package sessions

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinodismyname/mcpcsv/config"
	"github.com/vinodismyname/mcpcsv/internal/editor"
	"github.com/vinodismyname/mcpcsv/internal/table"
)

// Handle pairs a table editor with TTL metadata and a write version used to
// invalidate pagination cursors.
type Handle struct {
	ID        string
	Editor    *editor.Editor
	LoadedAt  time.Time
	ExpiresAt time.Time
	version   int64
	mu        sync.RWMutex
}

// TableGate coordinates capacity for open table handles (backed by runtime.Controller).
type TableGate interface {
	AcquireTable(ctx context.Context) error
	ReleaseTable()
}

// PathValidator abstracts filesystem path validation. Implementations return
// a canonical absolute path if allowed, or an error when denied.
type PathValidator interface {
	ValidateTablePath(path string) (string, error)
}

// ErrHandleNotFound indicates an unknown or expired handle ID.
var ErrHandleNotFound = errors.New("sessions: handle not found")

// Manager owns one editor per open table so concurrent MCP sessions never
// share in-memory state. Handles expire after an idle TTL.
type Manager struct {
	mu           sync.RWMutex
	handles      map[string]*Handle
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         TableGate
	validator    PathValidator
	editorOpts   []editor.Option
	stopCh       chan struct{}
	stopOnce     sync.Once
	cleanupWG    sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithGate bounds the number of open handles.
func WithGate(g TableGate) Option { return func(m *Manager) { m.gate = g } }

// WithValidator checks table paths before they are opened.
func WithValidator(v PathValidator) Option { return func(m *Manager) { m.validator = v } }

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option { return func(m *Manager) { m.clock = clock } }

// WithEditorOptions is applied to every editor the manager creates.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(m *Manager) { m.editorOpts = append(m.editorOpts, opts...) }
}

// NewManager constructs a handle manager. Pass ttl or cleanupEvery <= 0 to use
// defaults from config.
func NewManager(ttl, cleanupEvery time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultTableIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultTableCleanupPeriod
	}
	m := &Manager{
		handles:      make(map[string]*Handle),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        time.Now,
		stopCh:       make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start launches periodic eviction of expired handles.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and drops all handles.
func (m *Manager) Close(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, h := range m.handles {
		// wait for in-flight operations on the handle
		h.mu.Lock()
		h.mu.Unlock()
		delete(m.handles, id)
		m.release()
	}
	return nil
}

// Open registers a handle for the CSV file at path and returns its ID. The
// file does not need to exist yet; it is created on the first mutation.
func (m *Manager) Open(ctx context.Context, path string) (string, error) {
	if err := m.acquire(ctx); err != nil {
		return "", err
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		m.release()
		return "", fmt.Errorf("sessions: %w: %s", table.ErrUnsupportedFormat, ext)
	}
	if m.validator != nil {
		canonical, err := m.validator.ValidateTablePath(path)
		if err != nil {
			m.release()
			return "", err
		}
		path = canonical
	}

	ed := editor.New(table.NewStore(path), m.editorOpts...)
	return m.register(ed), nil
}

// Adopt registers an existing editor as a managed handle.
func (m *Manager) Adopt(ctx context.Context, ed *editor.Editor) (string, error) {
	if ed == nil {
		return "", fmt.Errorf("sessions: nil editor")
	}
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	return m.register(ed), nil
}

func (m *Manager) register(ed *editor.Editor) string {
	now := m.clock()
	h := &Handle{ID: uuid.NewString(), Editor: ed, LoadedAt: now, ExpiresAt: now.Add(m.ttl)}
	m.mu.Lock()
	m.handles[h.ID] = h
	m.mu.Unlock()
	return h.ID
}

// Get returns the handle when present and refreshes its TTL.
func (m *Manager) Get(id string) (*Handle, bool) {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := m.clock()
	h.mu.Lock()
	h.ExpiresAt = now.Add(m.ttl)
	h.mu.Unlock()
	return h, true
}

// WithRead runs fn under a shared lock and passes the current write version.
func (m *Manager) WithRead(id string, fn func(ed *editor.Editor, version int64) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.Editor, h.version)
}

// WithWrite runs fn under an exclusive lock. The write version advances only
// when fn succeeds.
func (m *Manager) WithWrite(id string, fn func(ed *editor.Editor) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := fn(h.Editor); err != nil {
		return err
	}
	h.version++
	return nil
}

// CloseHandle removes a handle by ID and releases capacity via the gate.
func (m *Manager) CloseHandle(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	// wait for in-flight operations before giving the slot back
	h.mu.Lock()
	h.mu.Unlock()
	m.release()
	return nil
}

// EvictExpired drops handles whose TTL has elapsed.
func (m *Manager) EvictExpired() {
	now := m.clock()
	var expired []string

	m.mu.RLock()
	for id, h := range m.handles {
		if h.Expired(now) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.mu.Lock()
		_, ok := m.handles[id]
		delete(m.handles, id)
		m.mu.Unlock()
		if ok {
			m.release()
		}
	}
}

// Count returns the current number of open handles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.gate == nil {
		return nil
	}
	return m.gate.AcquireTable(ctx)
}

func (m *Manager) release() {
	if m.gate == nil {
		return
	}
	m.gate.ReleaseTable()
}

// Expired reports whether the handle has reached its TTL.
func (h *Handle) Expired(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return now.After(h.ExpiresAt)
}
