package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alecgard/groupdesk/internal/config"
)

// cliOptions holds the persistent flags, resolved against the environment
// and the CLI profile before any subcommand runs.
type cliOptions struct {
	cfgFile string
	backend string
	token   string
	output  string
	profile string
	yes     bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "groupdesk",
		Short: "groupdesk: group membership front-end",
		Long: "groupdesk serves a web front-end for managing groups, members, invitations and join requests " +
			"against a groups API and an auth service. The same operations are available from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			return opts.resolve(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: none, environment only)")
	flags.StringVar(&opts.backend, "backend", "", "backend base URL; groups API at /api and auth at /auth")
	flags.StringVar(&opts.token, "token", "", "bearer token (default: $GROUPDESK_TOKEN)")
	flags.StringVarP(&opts.output, "output", "o", "", "output format: table or json (default: table on a terminal, json otherwise)")
	flags.StringVarP(&opts.profile, "profile", "p", "", "CLI profile to use")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "skip confirmation prompts")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newVersionCmd(),
		newSessionCmd(opts),
		newLoginURLCmd(opts),
		newGroupsCmd(opts),
		newMembersCmd(opts),
		newInvitationsCmd(opts),
		newRequestsCmd(opts),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
