package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGlossaryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage per-project term glossaries",
	}
	cmd.AddCommand(newGlossaryAddCommand(ctx))
	cmd.AddCommand(newGlossaryListCommand(ctx))
	cmd.AddCommand(newGlossaryRemoveCommand(ctx))
	return cmd
}

func newGlossaryAddCommand(ctx *commandContext) *cobra.Command {
	var (
		projectID int64
		userID    int64
	)

	cmd := &cobra.Command{
		Use:   "add <term> <definition>",
		Short: "Add or redefine a glossary term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			term, err := st.UpsertTerm(cmd.Context(), projectID, args[0], args[1], userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved term %q in project %d\n", term.Term, projectID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Owning project ID")
	cmd.Flags().Int64Var(&userID, "user", 0, "Acting user ID")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newGlossaryListCommand(ctx *commandContext) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's glossary terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			terms, err := st.TermsForProject(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(terms))
			for _, term := range terms {
				rows = append(rows, []string{term.Term, term.Definition})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Term", "Definition"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Owning project ID")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newGlossaryRemoveCommand(ctx *commandContext) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "remove <term>",
		Short: "Remove a glossary term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := st.DeleteTerm(cmd.Context(), projectID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed term %q from project %d\n", args[0], projectID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Owning project ID")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
