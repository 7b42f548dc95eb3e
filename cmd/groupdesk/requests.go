package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/groupdesk/internal/group"
)

func newRequestsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"join-requests"},
		Short:   "Ask to join groups and review requests to join yours",
	}
	cmd.AddCommand(
		newRequestsListCmd(opts),
		newRequestsMineCmd(opts),
		newRequestsApproveCmd(opts),
		newRequestsDenyCmd(opts),
		newRequestsCancelCmd(opts),
		newRequestsJoinCmd(opts),
	)
	return cmd
}

func requestRows(reqs []group.JoinRequest, now time.Time, mine bool) [][]string {
	rows := make([][]string, 0, len(reqs))
	for i := range reqs {
		jr := &reqs[i]
		who := jr.Requester()
		if mine {
			who = orDash(jr.GroupName)
		}
		rows = append(rows, []string{jr.ID, who, string(jr.EffectiveStatus(now)), optional(jr.Message), timeText(jr.CreatedAt)})
	}
	return rows
}

func optionalFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) || value == "" {
		return nil
	}
	return &value
}

func newRequestsListCmd(opts *cliOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list <group-id>",
		Short: "List requests to join a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			reqs, err := c.ListJoinRequests(ctx, args[0], group.JoinRequestStatus(status))
			if err != nil {
				return apiError(err)
			}
			now := time.Now()
			return opts.render(cmd, reqs, func(w io.Writer) {
				printTable(w, []string{"id", "requester", "status", "message", "requested"}, requestRows(reqs, now, false))
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only requests with this status (pending, approved, denied, expired)")
	return cmd
}

func newRequestsMineCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own requests to join groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			reqs, err := c.ListMyJoinRequests(ctx)
			if err != nil {
				return apiError(err)
			}
			now := time.Now()
			return opts.render(cmd, reqs, func(w io.Writer) {
				printTable(w, []string{"id", "group", "status", "message", "requested"}, requestRows(reqs, now, true))
			})
		},
	}
}

func newRequestsApproveCmd(opts *cliOptions) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "approve <group-id> <request-id>",
		Short: "Approve a request to join",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			in := group.ReviewInput{Note: optionalFlag(cmd, "note", note)}
			if err := c.ApproveJoinRequest(ctx, args[0], args[1], in); err != nil {
				return apiError(err)
			}
			return opts.render(cmd, map[string]string{"approved": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "Approved request %s\n", args[1])
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note for the requester")
	return cmd
}

func newRequestsDenyCmd(opts *cliOptions) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "deny <group-id> <request-id>",
		Short: "Deny a request to join",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := opts.confirm(cmd, fmt.Sprintf("Deny request %s?", args[1]))
			if err != nil || !ok {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			in := group.ReviewInput{Note: optionalFlag(cmd, "note", note)}
			if err := c.DenyJoinRequest(ctx, args[0], args[1], in); err != nil {
				return apiError(err)
			}
			return opts.render(cmd, map[string]string{"denied": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "Denied request %s\n", args[1])
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note for the requester")
	return cmd
}

func newRequestsCancelCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <request-id>",
		Short: "Withdraw one of your pending requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := opts.confirm(cmd, fmt.Sprintf("Cancel request %s?", args[0]))
			if err != nil || !ok {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			if err := c.CancelJoinRequest(ctx, args[0]); err != nil {
				return apiError(err)
			}
			return opts.render(cmd, map[string]string{"cancelled": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Cancelled request %s\n", args[0])
			})
		},
	}
}

func newRequestsJoinCmd(opts *cliOptions) *cobra.Command {
	var message, link, email, name string
	cmd := &cobra.Command{
		Use:   "join [group-id]",
		Short: "Ask to join a public group, or submit a shared join link with --link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (link == "") == (len(args) == 0) {
				return fmt.Errorf("pass either a group id or --link")
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}

			var jr *group.JoinRequest
			if link != "" {
				if email == "" {
					return fmt.Errorf("--email is required with --link")
				}
				jr, err = c.SubmitJoinLink(ctx, link, group.JoinLinkInput{
					Name:    name,
					Email:   email,
					Message: optionalFlag(cmd, "message", message),
				})
			} else {
				jr, err = c.RequestToJoin(ctx, args[0], group.JoinRequestInput{Message: optionalFlag(cmd, "message", message)})
			}
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, jr, func(w io.Writer) {
				fmt.Fprintf(w, "Request %s sent, status %s\n", orDash(jr.ID), jr.EffectiveStatus(time.Now()))
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "message for the group's reviewers")
	cmd.Flags().StringVar(&link, "link", "", "join link token")
	cmd.Flags().StringVar(&email, "email", "", "your email, for --link")
	cmd.Flags().StringVar(&name, "name", "", "your name, for --link")
	return cmd
}
