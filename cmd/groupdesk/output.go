package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alecgard/groupdesk/internal/client"
	"github.com/alecgard/groupdesk/internal/config"
)

// api builds a client for the configured backend and a context carrying
// the caller's bearer token.
func (o *cliOptions) api(cmd *cobra.Command) (*client.Client, context.Context, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if o.backend != "" {
		backend := strings.TrimRight(o.backend, "/")
		cfg.API.GroupsBaseURL = backend + "/api"
		cfg.API.AuthBaseURL = backend + "/auth"
	}

	c := client.New(client.Options{
		GroupsBaseURL: cfg.API.GroupsBaseURL,
		AuthBaseURL:   cfg.API.AuthBaseURL,
		Timeout:       cfg.API.Timeout,
		UserAgent:     "groupdesk-cli/" + version,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = client.WithCredentials(ctx, client.Credentials{BearerToken: o.token})
	return c, ctx, nil
}

// apiError rewrites a 401 into a hint the terminal user can act on.
func apiError(err error) error {
	if ue, ok := client.AsUnauthorized(err); ok {
		return fmt.Errorf("not signed in: sign in at %s and pass the token with --token or GROUPDESK_TOKEN", ue.LoginURL)
	}
	return err
}

// format returns the effective output format for w.
func (o *cliOptions) format(w io.Writer) string {
	if o.output != "" {
		return o.output
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "table"
	}
	return "json"
}

// render writes v as JSON or hands w to table for the human view.
func (o *cliOptions) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if o.format(w) == "json" {
		return printJSON(w, v)
	}
	table(w)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes an aligned table with upper-cased headers.
func printTable(w io.Writer, columns []string, rows [][]string) {
	if len(columns) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// printDetail writes key/value pairs, one per line.
func printDetail(w io.Writer, pairs [][2]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s:\t%s\n", p[0], p[1])
	}
	tw.Flush()
}

var errNotInteractive = errors.New("confirmation required but stdin is not a terminal; use --yes")

// confirm asks the user before a destructive call. Anything but y or yes
// declines.
func (o *cliOptions) confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if o.yes {
		return true, nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, errNotInteractive
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
		return false, nil
	}
	return true, nil
}

func optional(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func timeText(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func timePtrText(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return timeText(*t)
}
