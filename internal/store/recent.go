// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jeranaias/forgechat/internal/util"
)

// recentFile is the on-disk name of the recent-session index. It
// lives next to the session files and is excluded from listings.
const recentFile = "recent.json"

type recentIndex struct {
	IDs []string `json:"ids"`
}

func (s *Store) recentPath() string {
	return filepath.Join(s.dir, recentFile)
}

func (s *Store) readRecent() recentIndex {
	var idx recentIndex
	data, err := os.ReadFile(s.recentPath())
	if err != nil {
		return idx
	}
	// A corrupt index is treated as empty; it rebuilds as sessions
	// are touched.
	_ = json.Unmarshal(data, &idx)
	return idx
}

func (s *Store) writeRecent(idx recentIndex) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(s.recentPath(), data, 0600)
}

// TouchRecent moves id to the front of the recent list, trimming the
// list to max entries. max <= 0 leaves the length unbounded.
func (s *Store) TouchRecent(id string, max int) error {
	if !validID(id) {
		return nil
	}
	idx := s.readRecent()

	ids := make([]string, 0, len(idx.IDs)+1)
	ids = append(ids, id)
	for _, existing := range idx.IDs {
		if existing != id {
			ids = append(ids, existing)
		}
	}
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	return s.writeRecent(recentIndex{IDs: ids})
}

// Recent returns the most recently used session IDs, newest first,
// skipping IDs whose session files no longer exist.
func (s *Store) Recent(max int) []string {
	idx := s.readRecent()
	ids := make([]string, 0, len(idx.IDs))
	for _, id := range idx.IDs {
		if !s.Exists(id) {
			continue
		}
		ids = append(ids, id)
		if max > 0 && len(ids) == max {
			break
		}
	}
	return ids
}

// LastSession returns the most recently used session ID, or "" when
// there is none.
func (s *Store) LastSession() string {
	ids := s.Recent(1)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// touchRecentRemove drops id from the recent list. Used when a
// session is deleted.
func (s *Store) touchRecentRemove(id string) {
	idx := s.readRecent()
	ids := idx.IDs[:0]
	for _, existing := range idx.IDs {
		if existing != id {
			ids = append(ids, existing)
		}
	}
	_ = s.writeRecent(recentIndex{IDs: ids})
}

// RemoveRecent drops id from the recent list.
func (s *Store) RemoveRecent(id string) {
	s.touchRecentRemove(id)
}
