package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alecgard/groupdesk/internal/session"
)

type sessionView struct {
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user,omitempty"`
	LoginURL      string        `json:"login_url,omitempty"`
}

func newSessionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show who the current token signs in as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			mgr := session.NewManager(c)
			if err := mgr.Init(ctx); err != nil {
				return err
			}

			view := sessionView{User: mgr.User(), Authenticated: mgr.Authenticated()}
			if !view.Authenticated {
				view.LoginURL = mgr.LoginURL("")
			}
			return opts.render(cmd, view, func(w io.Writer) {
				if view.User == nil {
					printDetail(w, [][2]string{{"Signed in", "no"}, {"Login", view.LoginURL}})
					return
				}
				u := view.User
				printDetail(w, [][2]string{
					{"Signed in as", u.Label()},
					{"User ID", u.ID},
					{"Email", orDash(u.Email)},
					{"Email status", string(u.Verification)},
				})
				if len(u.Memberships) == 0 {
					return
				}
				io.WriteString(w, "\n")
				rows := make([][]string, 0, len(u.Memberships))
				for _, m := range u.Memberships {
					rows = append(rows, []string{m.GroupID, orDash(m.GroupName), m.Role.Label()})
				}
				printTable(w, []string{"group", "name", "role"}, rows)
			})
		},
	}
}

func newLoginURLCmd(opts *cliOptions) *cobra.Command {
	var returnTo string
	cmd := &cobra.Command{
		Use:   "login-url",
		Short: "Print the auth service's login page URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.api(cmd)
			if err != nil {
				return err
			}
			u := c.LoginURL(strings.TrimSpace(returnTo))
			return opts.render(cmd, map[string]string{"login_url": u}, func(w io.Writer) {
				io.WriteString(w, u+"\n")
			})
		},
	}
	cmd.Flags().StringVar(&returnTo, "return", "", "URL to return to after signing in")
	return cmd
}
