package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scanhub/internal/store"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage translated titles",
	}
	cmd.AddCommand(newProjectCreateCommand(ctx))
	cmd.AddCommand(newProjectListCommand(ctx))
	cmd.AddCommand(newProjectShowCommand(ctx))
	cmd.AddCommand(newProjectSetStatusCommand(ctx))
	cmd.AddCommand(newProjectRemoveCommand(ctx))
	return cmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		teamID      int64
		description string
		kindName    string
		ratingName  string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project under a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := store.ParseProjectKind(kindName)
			if !ok {
				return fmt.Errorf("unknown project kind %q (expected manga, manhwa, or manhua)", kindName)
			}
			rating, ok := store.ParseAgeRating(ratingName)
			if !ok {
				return fmt.Errorf("unknown age rating %q (expected general or adult)", ratingName)
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			project, err := st.CreateProject(cmd.Context(), teamID, args[0], description, kind, rating)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %d (%s)\n", project.ID, project.Title)
			return nil
		},
	}
	cmd.Flags().Int64Var(&teamID, "team", 0, "Owning team ID")
	cmd.Flags().StringVar(&description, "description", "", "Short project description")
	cmd.Flags().StringVar(&kindName, "kind", "manga", "Source material kind (manga, manhwa, manhua)")
	cmd.Flags().StringVar(&ratingName, "rating", "general", "Age rating (general, adult)")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var teamID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			projects, err := st.ListProjects(cmd.Context(), teamID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(projects))
			for _, project := range projects {
				rows = append(rows, []string{
					strconv.FormatInt(project.ID, 10),
					project.Title,
					string(project.Kind),
					string(project.AgeRating),
					string(project.Status),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Kind", "Rating", "Status"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().Int64Var(&teamID, "team", 0, "Filter by owning team ID")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its chapter health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project id")
			if err != nil {
				return err
			}
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
			summary, err := st.Health(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project %d: %s\n", project.ID, project.Title)
			if project.Description != "" {
				fmt.Fprintf(out, "  %s\n", project.Description)
			}
			fmt.Fprintf(out, "  Kind: %s  Rating: %s  Status: %s\n", project.Kind, project.AgeRating, project.Status)
			fmt.Fprintf(out, "  Chapters: %d total (%d raw, %d drafting, %d editing, %d typesetting, %d done)\n",
				summary.Total, summary.Raw, summary.Drafting, summary.Editing, summary.Typesetting, summary.Done)
			return nil
		},
	}
}

func newProjectRemoveCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <project-id>",
		Short: "Delete a project with all its chapters and glossary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project id")
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if !force {
				summary, err := st.Health(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if summary.Total > 0 {
					return fmt.Errorf("project %d still has %d chapters (use --force to delete anyway)", projectID, summary.Total)
				}
			}
			if err := st.DeleteProject(cmd.Context(), projectID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed project %d\n", projectID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Delete even when the project still has chapters")
	return cmd
}

func newProjectSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <project-id> <translating|dropped|completed|frozen>",
		Short: "Change a project's lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project id")
			if err != nil {
				return err
			}
			status, ok := store.ParseProjectStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown project status %q", args[1])
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := st.SetProjectStatus(cmd.Context(), projectID, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %d is now %s\n", projectID, status)
			return nil
		},
	}
}
