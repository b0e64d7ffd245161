// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/forgechat/internal/model"
	"github.com/jeranaias/forgechat/internal/store"
)

// Defaults are the configured values applied to newly created
// sessions.
type Defaults struct {
	Model        string
	SystemPrompt string
	Tools        []string

	// Rules is the default XML rules document source, applied to
	// sessions without rules of their own.
	Rules string
}

// Config holds manager configuration.
type Config struct {
	AutoSaveEnabled  bool
	AutoSaveInterval time.Duration

	// MaxRecent bounds the store's recent-session list.
	MaxRecent int

	Defaults Defaults
}

// DefaultConfig returns the standard manager configuration.
func DefaultConfig() Config {
	return Config{
		AutoSaveEnabled:  true,
		AutoSaveInterval: 5 * time.Minute,
		MaxRecent:        10,
	}
}

// Manager owns the current session. All methods are safe for
// concurrent use. Auto-save is cooperative: the owner calls Check on
// a tick and the manager saves when the session is dirty and the
// interval has elapsed.
type Manager struct {
	mu sync.Mutex

	store   *store.Store
	cfg     Config
	current *model.Session

	dirty    bool
	lastSave time.Time

	onSave func(*model.Session) // called after each successful save
}

// NewManager creates a manager over the given store.
func NewManager(st *store.Store, cfg Config) *Manager {
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = DefaultConfig().AutoSaveInterval
	}
	if cfg.MaxRecent <= 0 {
		cfg.MaxRecent = DefaultConfig().MaxRecent
	}
	return &Manager{
		store:    st,
		cfg:      cfg,
		lastSave: time.Now(),
	}
}

// SetSaveCallback registers fn to run after each successful save,
// outside the manager lock.
func (m *Manager) SetSaveCallback(fn func(*model.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSave = fn
}

// ===== CURRENT SESSION =====

// Current returns the active session, or nil when none is open.
func (m *Manager) Current() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// New creates a fresh session with the configured defaults, makes it
// current, and persists it. An unsaved dirty session is saved first.
func (m *Manager) New(title string) (*model.Session, error) {
	if err := m.SaveIfDirty(); err != nil {
		return nil, err
	}

	sess := model.NewSession(title)
	sess.Model = m.cfg.Defaults.Model
	sess.SystemPrompt = m.cfg.Defaults.SystemPrompt
	sess.ToolsEnabled = append([]string(nil), m.cfg.Defaults.Tools...)
	sess.CustomRules = m.cfg.Defaults.Rules

	m.mu.Lock()
	m.current = sess
	m.dirty = false
	m.mu.Unlock()

	if err := m.Save(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Open loads a session by ID and makes it current. An unsaved dirty
// session is saved first.
func (m *Manager) Open(id string) (*model.Session, error) {
	if err := m.SaveIfDirty(); err != nil {
		return nil, err
	}

	sess, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = sess
	m.dirty = false
	m.lastSave = time.Now()
	m.mu.Unlock()

	if err := m.store.TouchRecent(id, m.cfg.MaxRecent); err != nil {
		return nil, err
	}
	return sess, nil
}

// RestoreLast opens the most recently used session. Returns (nil,
// nil) when there is nothing to restore.
func (m *Manager) RestoreLast() (*model.Session, error) {
	last := m.store.LastSession()
	if last == "" {
		return nil, nil
	}
	return m.Open(last)
}

// Close saves any pending changes and drops the current session.
func (m *Manager) Close() error {
	if err := m.SaveIfDirty(); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = nil
	m.dirty = false
	m.mu.Unlock()
	return nil
}

// Delete removes a session from disk. Deleting the current session
// also closes it without saving.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	if m.current != nil && m.current.ID == id {
		m.current = nil
		m.dirty = false
	}
	m.mu.Unlock()

	if err := m.store.Delete(id); err != nil {
		return err
	}
	m.store.RemoveRecent(id)
	return nil
}

// ===== DIRTY TRACKING AND SAVE =====

// MarkDirty flags the current session as having unsaved changes.
func (m *Manager) MarkDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
}

// IsDirty reports whether the current session has unsaved changes.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Save persists the current session unconditionally.
func (m *Manager) Save() error {
	m.mu.Lock()
	sess := m.current
	onSave := m.onSave
	m.mu.Unlock()

	if sess == nil {
		return fmt.Errorf("no session to save")
	}
	if err := m.store.Save(sess); err != nil {
		return err
	}
	if err := m.store.TouchRecent(sess.ID, m.cfg.MaxRecent); err != nil {
		return err
	}

	m.mu.Lock()
	m.dirty = false
	m.lastSave = time.Now()
	m.mu.Unlock()

	if onSave != nil {
		onSave(sess)
	}
	return nil
}

// SaveIfDirty persists the current session only when it has unsaved
// changes.
func (m *Manager) SaveIfDirty() error {
	m.mu.Lock()
	needed := m.dirty && m.current != nil
	m.mu.Unlock()
	if !needed {
		return nil
	}
	return m.Save()
}

// ShouldAutoSave reports whether auto-save is due.
func (m *Manager) ShouldAutoSave() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.AutoSaveEnabled && m.dirty && m.current != nil &&
		time.Since(m.lastSave) >= m.cfg.AutoSaveInterval
}

// Check runs due auto-save work. Callers drive it from a ticker; the
// returned error is the save failure, if any.
func (m *Manager) Check() error {
	if !m.ShouldAutoSave() {
		return nil
	}
	return m.Save()
}
