package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

func newTeamCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage translation teams and memberships",
	}
	cmd.AddCommand(newTeamCreateCommand(ctx))
	cmd.AddCommand(newTeamListCommand(ctx))
	cmd.AddCommand(newTeamMembersCommand(ctx))
	cmd.AddCommand(newTeamAddMemberCommand(ctx))
	cmd.AddCommand(newTeamRemoveMemberCommand(ctx))
	cmd.AddCommand(newTeamSetStatusCommand(ctx))
	return cmd
}

func newTeamCreateCommand(ctx *commandContext) *cobra.Command {
	var creatorID int64

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a team and enroll the creator as leader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			team, err := st.CreateTeam(cmd.Context(), args[0], creatorID)
			if err != nil {
				return err
			}
			if err := st.AddMember(cmd.Context(), team.ID, creatorID, workflow.RoleLeader); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created team %d (%s)\n", team.ID, team.Name)
			return nil
		},
	}
	cmd.Flags().Int64Var(&creatorID, "creator", 0, "User ID of the team creator")
	_ = cmd.MarkFlagRequired("creator")
	return cmd
}

func newTeamListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			teams, err := st.ListTeams(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(teams))
			for _, team := range teams {
				rows = append(rows, []string{
					strconv.FormatInt(team.ID, 10),
					team.Name,
					string(team.Status),
					team.CreatedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Status", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newTeamMembersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "members <team-id>",
		Short: "List a team's active members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := parseID(args[0], "team id")
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			members, err := st.Members(cmd.Context(), teamID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(members))
			for _, member := range members {
				rows = append(rows, []string{
					strconv.FormatInt(member.UserID, 10),
					string(member.Role),
					member.Role.Description(),
					member.JoinedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"User", "Role", "Responsibility", "Joined"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newTeamAddMemberCommand(ctx *commandContext) *cobra.Command {
	var (
		userID   int64
		roleName string
	)

	cmd := &cobra.Command{
		Use:   "add-member <team-id>",
		Short: "Add or re-role a team member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := parseID(args[0], "team id")
			if err != nil {
				return err
			}
			role, ok := workflow.ParseRole(roleName)
			if !ok {
				return fmt.Errorf("unknown role %q (expected one of %v)", roleName, workflow.AllRoles())
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := st.AddMember(cmd.Context(), teamID, userID, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added user %d to team %d as %s\n", userID, teamID, role)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID to add")
	cmd.Flags().StringVar(&roleName, "role", "", "Workflow role (leader, editor, translator, cleaner, typesetter)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newTeamRemoveMemberCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <team-id> <user-id>",
		Short: "Deactivate a team membership",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := parseID(args[0], "team id")
			if err != nil {
				return err
			}
			userID, err := parseID(args[1], "user id")
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := st.RemoveMember(cmd.Context(), teamID, userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %d from team %d\n", userID, teamID)
			return nil
		},
	}
}

func newTeamSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <team-id> <active|suspended|disbanded>",
		Short: "Change a team's lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := parseID(args[0], "team id")
			if err != nil {
				return err
			}
			status, ok := store.ParseTeamStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown team status %q", args[1])
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := st.SetTeamStatus(cmd.Context(), teamID, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Team %d is now %s\n", teamID, status)
			return nil
		},
	}
}
