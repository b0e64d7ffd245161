// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/forgechat/internal/model"
	"github.com/jeranaias/forgechat/internal/util"
)

// ===== ERRORS =====

// StoreError wraps a store failure with the operation and session ID
// that caused it.
type StoreError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *StoreError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("store: %s %s: %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrSessionNotFound is returned when a session ID has no file on
// disk. Match it with errors.Is.
var ErrSessionNotFound = errors.New("session not found")

// ===== STORE =====

// Store reads and writes sessions under a single directory. Methods
// are safe for sequential use; concurrent writers of the same session
// need external coordination.
type Store struct {
	dir string
}

// DefaultDir returns the standard session directory,
// ~/.forgechat/sessions.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".forgechat", "sessions"), nil
}

// Open creates a store rooted at dir, creating the directory if
// needed. An empty dir selects DefaultDir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) sessionPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// validID rejects IDs that could escape the store directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

// Save writes the session to disk atomically.
func (s *Store) Save(sess *model.Session) error {
	if sess == nil || !validID(sess.ID) {
		return &StoreError{Op: "save", Err: errors.New("invalid session ID")}
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return &StoreError{Op: "save", SessionID: sess.ID, Err: err}
	}
	if err := util.AtomicWriteFile(s.sessionPath(sess.ID), data, 0600); err != nil {
		return &StoreError{Op: "save", SessionID: sess.ID, Err: err}
	}
	return nil
}

// Load reads a session by ID. Returns an error wrapping
// ErrSessionNotFound when no such session exists.
func (s *Store) Load(id string) (*model.Session, error) {
	if !validID(id) {
		return nil, &StoreError{Op: "load", SessionID: id, Err: ErrSessionNotFound}
	}
	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StoreError{Op: "load", SessionID: id, Err: ErrSessionNotFound}
		}
		return nil, &StoreError{Op: "load", SessionID: id, Err: err}
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &StoreError{Op: "load", SessionID: id, Err: err}
	}
	return &sess, nil
}

// Delete removes a session file. Deleting a missing session returns
// an error wrapping ErrSessionNotFound.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return &StoreError{Op: "delete", SessionID: id, Err: ErrSessionNotFound}
	}
	err := os.Remove(s.sessionPath(id))
	if os.IsNotExist(err) {
		return &StoreError{Op: "delete", SessionID: id, Err: ErrSessionNotFound}
	}
	if err != nil {
		return &StoreError{Op: "delete", SessionID: id, Err: err}
	}
	return nil
}

// Exists reports whether a session file is present.
func (s *Store) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	_, err := os.Stat(s.sessionPath(id))
	return err == nil
}

// List returns metadata for every stored session, newest update
// first. Unreadable or corrupt files are skipped.
func (s *Store) List() ([]model.SessionMeta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	metas := make([]model.SessionMeta, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == recentFile {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, sess.Meta())
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search returns metadata for sessions whose title or message content
// contains query, case-insensitively. An empty query matches nothing.
func (s *Store) Search(query string) ([]model.SessionMeta, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}

	var metas []model.SessionMeta
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == recentFile {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if sessionMatches(sess, query) {
			metas = append(metas, sess.Meta())
		}
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

func sessionMatches(sess *model.Session, query string) bool {
	if strings.Contains(strings.ToLower(sess.Title), query) {
		return true
	}
	for _, msg := range sess.Messages {
		if strings.Contains(strings.ToLower(msg.Content), query) {
			return true
		}
	}
	return false
}

// CleanupOlderThan deletes sessions not updated within the retention
// window and returns how many were removed. retentionDays <= 0
// disables cleanup.
func (s *Store) CleanupOlderThan(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	metas, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, meta := range metas {
		if meta.UpdatedAt.Before(cutoff) {
			if err := s.Delete(meta.ID); err != nil {
				continue
			}
			s.touchRecentRemove(meta.ID)
			removed++
		}
	}
	return removed, nil
}

// Clear deletes every stored session and the recent index, returning
// how many sessions were removed.
func (s *Store) Clear() (int, error) {
	metas, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, meta := range metas {
		if err := s.Delete(meta.ID); err != nil {
			continue
		}
		removed++
	}
	os.Remove(filepath.Join(s.dir, recentFile))
	return removed, nil
}
