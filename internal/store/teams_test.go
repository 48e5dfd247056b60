package store_test

import (
	"context"
	"testing"

	"scanhub/internal/store"
	"scanhub/internal/testsupport"
	"scanhub/internal/workflow"
)

func TestCreateTeamAndMembers(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	team := testsupport.SeedTeam(t, st, "night-owls", 1)
	if team.Status != store.TeamActive {
		t.Fatalf("status = %s, want active", team.Status)
	}

	if err := st.AddMember(ctx, team.ID, 2, workflow.RoleTranslator); err != nil {
		t.Fatalf("add translator: %v", err)
	}
	if err := st.AddMember(ctx, team.ID, 3, workflow.RoleCleaner); err != nil {
		t.Fatalf("add cleaner: %v", err)
	}

	members, err := st.Members(ctx, team.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("members = %d, want 3", len(members))
	}
}

func TestAddMemberReplacesRole(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	team := testsupport.SeedTeam(t, st, "night-owls", 1)
	if err := st.AddMember(ctx, team.ID, 2, workflow.RoleTranslator); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := st.AddMember(ctx, team.ID, 2, workflow.RoleEditor); err != nil {
		t.Fatalf("re-role member: %v", err)
	}

	role, ok, err := st.RoleOf(ctx, 2, team.ID)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if !ok || role != workflow.RoleEditor {
		t.Fatalf("role = %s ok=%v, want editor", role, ok)
	}
}

func TestRoleOfIgnoresInactiveMembership(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	team := testsupport.SeedTeam(t, st, "night-owls", 1)
	if err := st.AddMember(ctx, team.ID, 2, workflow.RoleTranslator); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := st.RemoveMember(ctx, team.ID, 2); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	_, ok, err := st.RoleOf(ctx, 2, team.ID)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if ok {
		t.Fatal("removed member must have no role")
	}
}

func TestRoleOfIgnoresInactiveTeam(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	team := testsupport.SeedTeam(t, st, "night-owls", 1)
	if err := st.SetTeamStatus(ctx, team.ID, store.TeamSuspended); err != nil {
		t.Fatalf("suspend team: %v", err)
	}

	_, ok, err := st.RoleOf(ctx, 1, team.ID)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if ok {
		t.Fatal("suspended team must grant no roles")
	}

	if err := st.SetTeamStatus(ctx, team.ID, store.TeamActive); err != nil {
		t.Fatalf("reactivate team: %v", err)
	}
	role, ok, err := st.RoleOf(ctx, 1, team.ID)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if !ok || role != workflow.RoleLeader {
		t.Fatalf("role = %s ok=%v, want leader", role, ok)
	}
}

func TestSetTeamStatusUnknownTeam(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	err := st.SetTeamStatus(context.Background(), 999, store.TeamDisbanded)
	if err == nil {
		t.Fatal("expected error for unknown team")
	}
}
