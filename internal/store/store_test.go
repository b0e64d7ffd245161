// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/jeranaias/forgechat/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	sess := model.NewSession("round trip")
	sess.AddMessage(model.RoleUser, "hello")
	sess.AddMessage(model.RoleAssistant, "hi there")
	sess.CustomRules = "<rules />"

	if err := s.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Title != "round trip" || len(got.Messages) != 2 {
		t.Errorf("loaded session = %+v", got)
	}
	if got.CustomRules != "<rules />" {
		t.Errorf("CustomRules = %q", got.CustomRules)
	}
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load("no-such-id")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveRejectsBadID(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"", "../escape", `a\b`, "."} {
		sess := model.NewSession("bad")
		sess.ID = id
		if err := s.Save(sess); err == nil {
			t.Errorf("Save should reject ID %q", id)
		}
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	sess := model.NewSession("doomed")
	if err := s.Save(sess); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists(sess.ID) {
		t.Error("session should be gone")
	}
	if err := s.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("double delete should report not found, got %v", err)
	}
}

func TestListSortsByUpdatedAt(t *testing.T) {
	s := newTestStore(t)

	old := model.NewSession("old")
	old.UpdatedAt = time.Now().Add(-time.Hour)
	fresh := model.NewSession("fresh")

	if err := s.Save(old); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(fresh); err != nil {
		t.Fatal(err)
	}

	metas, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(metas) = %d", len(metas))
	}
	if metas[0].Title != "fresh" || metas[1].Title != "old" {
		t.Errorf("ordering wrong: %q, %q", metas[0].Title, metas[1].Title)
	}
}

func TestListSkipsRecentIndex(t *testing.T) {
	s := newTestStore(t)
	sess := model.NewSession("only")
	if err := s.Save(sess); err != nil {
		t.Fatal(err)
	}
	if err := s.TouchRecent(sess.ID, 10); err != nil {
		t.Fatal(err)
	}

	metas, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("recent.json leaked into listing: %+v", metas)
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)

	a := model.NewSession("Refactor plan")
	a.AddMessage(model.RoleUser, "split the parser into two files")
	b := model.NewSession("Other")
	b.AddMessage(model.RoleUser, "unrelated chatter")
	for _, sess := range []*model.Session{a, b} {
		if err := s.Save(sess); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"refactor", 1},
		{"PARSER", 1},
		{"nothing matches this", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := s.Search(tt.query)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("Search(%q) = %d results, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestCleanupOlderThan(t *testing.T) {
	s := newTestStore(t)

	stale := model.NewSession("stale")
	stale.UpdatedAt = time.Now().AddDate(0, 0, -60)
	fresh := model.NewSession("fresh")
	for _, sess := range []*model.Session{stale, fresh} {
		if err := s.Save(sess); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := s.CleanupOlderThan(30)
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if s.Exists(stale.ID) {
		t.Error("stale session should be deleted")
	}
	if !s.Exists(fresh.ID) {
		t.Error("fresh session should survive")
	}

	// Disabled retention removes nothing.
	if n, _ := s.CleanupOlderThan(0); n != 0 {
		t.Errorf("disabled cleanup removed %d sessions", n)
	}
}

func TestRecentList(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		sess := model.NewSession(title)
		if err := s.Save(sess); err != nil {
			t.Fatal(err)
		}
		if err := s.TouchRecent(sess.ID, 10); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, sess.ID)
	}

	recent := s.Recent(0)
	if len(recent) != 3 || recent[0] != ids[2] {
		t.Errorf("Recent = %v, want newest first", recent)
	}

	// Re-touching moves to the front without duplicating.
	if err := s.TouchRecent(ids[0], 10); err != nil {
		t.Fatal(err)
	}
	recent = s.Recent(0)
	if len(recent) != 3 || recent[0] != ids[0] {
		t.Errorf("Recent after re-touch = %v", recent)
	}

	if got := s.LastSession(); got != ids[0] {
		t.Errorf("LastSession = %q, want %q", got, ids[0])
	}

	// Deleted sessions drop out of the recent list.
	if err := s.Delete(ids[0]); err != nil {
		t.Fatal(err)
	}
	recent = s.Recent(0)
	for _, id := range recent {
		if id == ids[0] {
			t.Error("deleted session still listed as recent")
		}
	}
}

func TestRecentTrimsToMax(t *testing.T) {
	s := newTestStore(t)
	var last string
	for i := 0; i < 5; i++ {
		sess := model.NewSession("s")
		if err := s.Save(sess); err != nil {
			t.Fatal(err)
		}
		if err := s.TouchRecent(sess.ID, 3); err != nil {
			t.Fatal(err)
		}
		last = sess.ID
	}
	recent := s.Recent(0)
	if len(recent) != 3 {
		t.Errorf("len(recent) = %d, want 3", len(recent))
	}
	if recent[0] != last {
		t.Errorf("newest should be first: %v", recent)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	for _, title := range []string{"one", "two", "three"} {
		sess := model.NewSession(title)
		if err := s.Save(sess); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := s.TouchRecent(sess.ID, 10); err != nil {
			t.Fatalf("TouchRecent: %v", err)
		}
	}

	removed, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	metas, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("List after Clear = %d sessions", len(metas))
	}
	if got := s.LastSession(); got != "" {
		t.Errorf("LastSession after Clear = %q", got)
	}
}
