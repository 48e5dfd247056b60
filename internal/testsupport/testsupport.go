// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"scanhub/internal/config"
	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a store for the configuration and closes it when the
// test ends.
func MustOpenStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedTeam creates an active team with one leader membership and returns the
// team. The leader's user ID is leaderID.
func SeedTeam(t *testing.T, st *store.Store, name string, leaderID int64) *store.Team {
	t.Helper()

	ctx := context.Background()
	team, err := st.CreateTeam(ctx, name, leaderID)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := st.AddMember(ctx, team.ID, leaderID, workflow.RoleLeader); err != nil {
		t.Fatalf("add leader: %v", err)
	}
	return team
}

// SeedProject creates a manga project under the team.
func SeedProject(t *testing.T, st *store.Store, teamID int64, title string) *store.Project {
	t.Helper()

	project, err := st.CreateProject(context.Background(), teamID, title, "", store.KindManga, store.RatingGeneral)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

// SeedChapter creates a raw chapter under the project.
func SeedChapter(t *testing.T, st *store.Store, projectID int64, title string) *store.Chapter {
	t.Helper()

	chapter, err := st.CreateChapter(context.Background(), projectID, title)
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	return chapter
}
