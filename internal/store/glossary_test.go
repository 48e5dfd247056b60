package store_test

import (
	"context"
	"testing"

	"scanhub/internal/testsupport"
)

func TestUpsertTermCreatesAndRedefines(t *testing.T) {
	st, project, _ := seedWorkspace(t)
	ctx := context.Background()

	term, err := st.UpsertTerm(ctx, project.ID, "регенерация", "regeneration", 1)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if term.Definition != "regeneration" {
		t.Errorf("definition = %q", term.Definition)
	}

	updated, err := st.UpsertTerm(ctx, project.ID, "регенерация", "healing factor", 2)
	if err != nil {
		t.Fatalf("redefine: %v", err)
	}
	if updated.ID != term.ID {
		t.Errorf("redefinition must keep identity: %d != %d", updated.ID, term.ID)
	}
	if updated.Definition != "healing factor" {
		t.Errorf("definition = %q", updated.Definition)
	}
	if updated.CreatedBy != 1 {
		t.Errorf("original author must survive redefinition, got %d", updated.CreatedBy)
	}

	terms, err := st.TermsForProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(terms) != 1 {
		t.Fatalf("terms = %d, want 1", len(terms))
	}
}

func TestTermsScopedPerProject(t *testing.T) {
	st, project, _ := seedWorkspace(t)
	ctx := context.Background()

	team := testsupport.SeedTeam(t, st, "second-team", 5)
	other := testsupport.SeedProject(t, st, team.ID, "Other Title")

	if _, err := st.UpsertTerm(ctx, project.ID, "башня", "the tower", 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := st.UpsertTerm(ctx, other.ID, "башня", "a different tower", 5); err != nil {
		t.Fatalf("upsert other project: %v", err)
	}

	terms, err := st.TermsForProject(ctx, other.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(terms) != 1 || terms[0].Definition != "a different tower" {
		t.Fatalf("terms = %+v", terms)
	}
}

func TestTermsSortedByCollation(t *testing.T) {
	st, project, _ := seedWorkspace(t)
	ctx := context.Background()

	// Inserted out of order; the default "ru" collation must order Cyrillic
	// terms alphabetically, which BINARY byte order does not guarantee for
	// mixed case.
	for _, term := range []string{"яд", "Арена", "башня", "аура"} {
		if _, err := st.UpsertTerm(ctx, project.ID, term, "def", 1); err != nil {
			t.Fatalf("upsert %q: %v", term, err)
		}
	}

	terms, err := st.TermsForProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, 0, len(terms))
	for _, term := range terms {
		got = append(got, term.Term)
	}
	want := []string{"Арена", "аура", "башня", "яд"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDeleteTerm(t *testing.T) {
	st, project, _ := seedWorkspace(t)
	ctx := context.Background()

	if _, err := st.UpsertTerm(ctx, project.ID, "ранг", "rank", 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.DeleteTerm(ctx, project.ID, "ранг"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteTerm(ctx, project.ID, "ранг"); err == nil {
		t.Fatal("deleting a missing term must fail")
	}
}
