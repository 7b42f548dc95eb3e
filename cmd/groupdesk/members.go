package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alecgard/groupdesk/internal/group"
)

func newMembersCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage a group's members and their roles",
	}
	cmd.AddCommand(
		newMembersListCmd(opts),
		newMembersAddCmd(opts),
		newMembersSetRoleCmd(opts),
		newMembersRemoveCmd(opts),
	)
	return cmd
}

func newMembersListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <group-id>",
		Short: "List a group's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			members, err := c.ListMembers(ctx, args[0])
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, members, func(w io.Writer) {
				rows := make([][]string, 0, len(members))
				for _, m := range members {
					rows = append(rows, []string{m.UserID, orDash(m.DisplayName), orDash(m.Email), m.Role.Label(), timeText(m.JoinedAt)})
				}
				printTable(w, []string{"user", "name", "email", "role", "joined"}, rows)
			})
		},
	}
}

func newMembersAddCmd(opts *cliOptions) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "add <group-id>",
		Short: "Add an existing user to a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			r, err := group.ParseRole(role)
			if err != nil {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			m, err := c.AddMember(ctx, args[0], group.AddMemberInput{Email: email, Role: r})
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, m, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s as %s\n", email, m.Role.Label())
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to add")
	cmd.Flags().StringVar(&role, "role", string(group.RoleMember), "member, manager or administrator")
	return cmd
}

func newMembersSetRoleCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <group-id> <user-id> <role>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := group.ParseRole(args[2])
			if err != nil {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			m, err := c.UpdateMember(ctx, args[0], args[1], group.UpdateMemberInput{Role: r})
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, m, func(w io.Writer) {
				fmt.Fprintf(w, "%s is now %s\n", args[1], m.Role.Label())
			})
		},
	}
}

func newMembersRemoveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <group-id> <user-id>",
		Short: "Remove a member from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := opts.confirm(cmd, fmt.Sprintf("Remove %s from group %s?", args[1], args[0]))
			if err != nil || !ok {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			if err := c.RemoveMember(ctx, args[0], args[1]); err != nil {
				return apiError(err)
			}
			return opts.render(cmd, map[string]string{"removed": args[1], "group_id": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Removed %s\n", args[1])
			})
		},
	}
}
