package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

func newChapterCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapter",
		Short: "Manage chapters and drive the translation workflow",
	}
	cmd.AddCommand(newChapterCreateCommand(ctx))
	cmd.AddCommand(newChapterListCommand(ctx))
	cmd.AddCommand(newChapterShowCommand(ctx))
	cmd.AddCommand(newChapterAdvanceCommand(ctx))
	cmd.AddCommand(newChapterHistoryCommand(ctx))
	cmd.AddCommand(newChapterActionsCommand(ctx))
	cmd.AddCommand(newChapterRemoveCommand(ctx))
	return cmd
}

func newChapterCreateCommand(ctx *commandContext) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a chapter in the raw stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			project, err := st.ProjectByID(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			if project == nil {
				return fmt.Errorf("project %d not found", projectID)
			}
			chapter, err := st.CreateChapter(cmd.Context(), projectID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created chapter %d (%s) in %s\n", chapter.ID, chapter.Title, chapter.Stage)
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Owning project ID")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newChapterListCommand(ctx *commandContext) *cobra.Command {
	var (
		projectID int64
		stageName string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.ChapterFilter{ProjectID: projectID}
			if stageName != "" {
				stage, ok := workflow.ParseStage(stageName)
				if !ok {
					return fmt.Errorf("unknown stage %q (expected one of %v)", stageName, workflow.AllStages())
				}
				filter.Stages = []workflow.Stage{stage}
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			chapters, err := st.ListChapters(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(chapters))
			for _, chapter := range chapters {
				rows = append(rows, []string{
					strconv.FormatInt(chapter.ID, 10),
					chapter.Title,
					string(chapter.Stage),
					readinessLabel(chapter.Readiness.TranslationDone),
					readinessLabel(chapter.Readiness.CleaningDone),
					strconv.FormatInt(chapter.Revision, 10),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Stage", "Translation", "Cleaning", "Rev"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Filter by project ID")
	cmd.Flags().StringVar(&stageName, "stage", "", "Filter by workflow stage")
	return cmd
}

func newChapterShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <chapter-id>",
		Short: "Show a chapter's workflow state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter id")
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			chapter, err := st.ChapterByID(cmd.Context(), chapterID)
			if err != nil {
				return err
			}
			if chapter == nil {
				return fmt.Errorf("chapter %d not found", chapterID)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chapter %d: %s\n", chapter.ID, chapter.Title)
			fmt.Fprintf(out, "  Stage: %s  Revision: %d\n", chapter.Stage, chapter.Revision)
			fmt.Fprintf(out, "  Translation: %s  Cleaning: %s\n",
				readinessLabel(chapter.Readiness.TranslationDone),
				readinessLabel(chapter.Readiness.CleaningDone))
			roles := workflow.ActionableRoles(chapter.Stage, chapter.Readiness)
			if len(roles) == 0 {
				fmt.Fprintln(out, "  No further actions: chapter is done")
			} else {
				fmt.Fprintf(out, "  Actionable roles: %v\n", roles)
			}
			return nil
		},
	}
}

func newChapterAdvanceCommand(ctx *commandContext) *cobra.Command {
	var (
		actorID int64
		note    string
	)

	cmd := &cobra.Command{
		Use:   "advance <chapter-id> <target-stage>",
		Short: "Request a workflow transition on behalf of a user",
		Long: `Request a workflow transition on behalf of a user.

Requesting the stage a chapter already occupies marks the actor's drafting
work complete (translation or cleaning). A conflict means another member
committed first; re-run the command to retry against the fresh state.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter id")
			if err != nil {
				return err
			}
			target, ok := workflow.ParseStage(args[1])
			if !ok {
				return fmt.Errorf("unknown stage %q (expected one of %v)", args[1], workflow.AllStages())
			}
			engine, _, err := ctx.engine()
			if err != nil {
				return err
			}
			state, err := engine.RequestTransition(cmd.Context(), chapterID, actorID, target, note)
			if err != nil {
				if errors.Is(err, workflow.ErrConflict) {
					return fmt.Errorf("%w (re-run the command to retry)", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chapter %d is now %s (translation %s, cleaning %s)\n",
				state.ID, state.Stage,
				readinessLabel(state.Readiness.TranslationDone),
				readinessLabel(state.Readiness.CleaningDone))
			return nil
		},
	}
	cmd.Flags().Int64Var(&actorID, "user", 0, "Acting user ID")
	cmd.Flags().StringVar(&note, "note", "", "Optional note recorded with the transition")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newChapterRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <chapter-id>",
		Short: "Delete a chapter and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter id")
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := st.DeleteChapter(cmd.Context(), chapterID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed chapter %d\n", chapterID)
			return nil
		},
	}
}

func newChapterHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <chapter-id>",
		Short: "Show a chapter's committed transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter id")
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			records, err := st.TransitionsFor(cmd.Context(), chapterID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					strconv.FormatInt(record.Seq, 10),
					string(record.From),
					string(record.To),
					string(record.Role),
					strconv.FormatInt(record.ActorID, 10),
					record.Note,
					record.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Seq", "From", "To", "Role", "Actor", "Note", "When"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newChapterActionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "actions <chapter-id>",
		Short: "Show which roles can act on a chapter right now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter id")
			if err != nil {
				return err
			}
			engine, _, err := ctx.engine()
			if err != nil {
				return err
			}
			roles, err := engine.ActionableRoles(cmd.Context(), chapterID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(roles) == 0 {
				fmt.Fprintln(out, "No role can act: chapter is done")
				return nil
			}
			for _, role := range roles {
				fmt.Fprintf(out, "%s\t%s\n", role, role.Description())
			}
			return nil
		},
	}
}
