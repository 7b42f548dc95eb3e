package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/groupdesk/internal/group"
)

func newInvitationsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invitations",
		Aliases: []string{"invites"},
		Short:   "Send, review and accept group invitations",
	}
	cmd.AddCommand(
		newInvitationsListCmd(opts),
		newInvitationsMineCmd(opts),
		newInvitationsShowCmd(opts),
		newInvitationsCreateCmd(opts),
		newInvitationsRevokeCmd(opts),
		newInvitationsAcceptCmd(opts),
	)
	return cmd
}

func invitationRows(invs []group.Invitation, now time.Time, withGroup bool) [][]string {
	rows := make([][]string, 0, len(invs))
	for i := range invs {
		inv := &invs[i]
		row := []string{inv.ID}
		if withGroup {
			row = append(row, orDash(inv.GroupName))
		}
		row = append(row, inv.Email, inv.Role.Label(), string(inv.EffectiveStatus(now)), timeText(inv.ExpiresAt))
		rows = append(rows, row)
	}
	return rows
}

func newInvitationsListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <group-id>",
		Short: "List a group's invitations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			invs, err := c.ListInvitations(ctx, args[0])
			if err != nil {
				return apiError(err)
			}
			now := time.Now()
			return opts.render(cmd, invs, func(w io.Writer) {
				printTable(w, []string{"id", "email", "role", "status", "expires"}, invitationRows(invs, now, false))
			})
		},
	}
}

func newInvitationsMineCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List invitations addressed to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			invs, err := c.ListMyInvitations(ctx)
			if err != nil {
				return apiError(err)
			}
			now := time.Now()
			return opts.render(cmd, invs, func(w io.Writer) {
				printTable(w, []string{"id", "group", "email", "role", "status", "expires"}, invitationRows(invs, now, true))
			})
		},
	}
}

func newInvitationsShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <token>",
		Short: "Look up an invitation by its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			inv, err := c.GetInvitation(ctx, args[0])
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, inv, func(w io.Writer) {
				printDetail(w, [][2]string{
					{"Group", orDash(inv.GroupName)},
					{"Email", inv.Email},
					{"Role", inv.Role.Label()},
					{"Status", string(inv.EffectiveStatus(time.Now()))},
					{"Expires", timeText(inv.ExpiresAt)},
					{"Invited by", orDash(inv.InvitedBy)},
				})
			})
		},
	}
}

func newInvitationsCreateCmd(opts *cliOptions) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "create <group-id>",
		Short: "Invite someone to a group by email",
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
			inv, err := c.CreateInvitation(ctx, args[0], group.CreateInvitationInput{Email: email, Role: r})
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, inv, func(w io.Writer) {
				fmt.Fprintf(w, "Invited %s as %s, expires %s\n", inv.Email, inv.Role.Label(), timeText(inv.ExpiresAt))
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email to invite")
	cmd.Flags().StringVar(&role, "role", string(group.RoleMember), "member, manager or administrator")
	return cmd
}

func newInvitationsRevokeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <group-id> <invitation-id>",
		Short: "Revoke a pending invitation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := opts.confirm(cmd, fmt.Sprintf("Revoke invitation %s?", args[1]))
			if err != nil || !ok {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			if err := c.RevokeInvitation(ctx, args[0], args[1]); err != nil {
				return apiError(err)
			}
			return opts.render(cmd, map[string]string{"revoked": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "Revoked invitation %s\n", args[1])
			})
		},
	}
}

func newInvitationsAcceptCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <token>",
		Short: "Accept an invitation and join its group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			m, err := c.AcceptInvitation(ctx, args[0])
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, m, func(w io.Writer) {
				fmt.Fprintf(w, "Joined %s as %s\n", orDash(m.GroupName), m.Role.Label())
			})
		},
	}
}
