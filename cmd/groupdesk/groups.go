package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alecgard/groupdesk/internal/group"
)

func newGroupsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List, inspect and manage groups",
	}
	cmd.AddCommand(
		newGroupsListCmd(opts),
		newGroupsGetCmd(opts),
		newGroupsCreateCmd(opts),
		newGroupsUpdateCmd(opts),
		newGroupsDeleteCmd(opts),
	)
	return cmd
}

func groupRows(groups []group.Group) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		role := "-"
		if g.CurrentUserRole != nil {
			role = g.CurrentUserRole.Label()
		}
		rows = append(rows, []string{g.ID, g.Name, string(g.Visibility), strconv.Itoa(g.MemberCount), role})
	}
	return rows
}

func printGroup(w io.Writer, g *group.Group) {
	role := "-"
	if g.CurrentUserRole != nil {
		role = g.CurrentUserRole.Label()
	}
	printDetail(w, [][2]string{
		{"ID", g.ID},
		{"Name", g.Name},
		{"Description", optional(g.Description)},
		{"Visibility", string(g.Visibility)},
		{"Members", strconv.Itoa(g.MemberCount)},
		{"Your role", role},
		{"Created", timeText(g.CreatedAt)},
		{"Updated", timeText(g.UpdatedAt)},
	})
}

func parseVisibility(s string) (group.Visibility, error) {
	switch group.Visibility(s) {
	case group.VisibilityPublic, group.VisibilityPrivate:
		return group.Visibility(s), nil
	}
	return "", fmt.Errorf("invalid visibility %q: use public or private", s)
}

func newGroupsListCmd(opts *cliOptions) *cobra.Command {
	var visibility, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := group.ListGroupsParams{Query: query}
			if visibility != "" {
				v, err := parseVisibility(visibility)
				if err != nil {
					return err
				}
				params.Visibility = v
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			groups, err := c.ListGroups(ctx, params)
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, groups, func(w io.Writer) {
				printTable(w, []string{"id", "name", "visibility", "members", "your role"}, groupRows(groups))
			})
		},
	}
	cmd.Flags().StringVar(&visibility, "visibility", "", "only public or private groups")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search by name")
	return cmd
}

func newGroupsGetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <group-id>",
		Short: "Show one group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			g, err := c.GetGroup(ctx, args[0])
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, g, func(w io.Writer) { printGroup(w, g) })
		},
	}
}

func newGroupsCreateCmd(opts *cliOptions) *cobra.Command {
	var name, description, visibility string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group; you become its administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			v, err := parseVisibility(visibility)
			if err != nil {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			g, err := c.CreateGroup(ctx, group.NewCreateGroupInput(name, description, v))
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, g, func(w io.Writer) {
				fmt.Fprintf(w, "Created group %s (%s)\n", g.Name, g.ID)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "group name")
	cmd.Flags().StringVar(&description, "description", "", "group description")
	cmd.Flags().StringVar(&visibility, "visibility", string(group.VisibilityPrivate), "public or private")
	return cmd
}

func newGroupsUpdateCmd(opts *cliOptions) *cobra.Command {
	var name, description, visibility string
	cmd := &cobra.Command{
		Use:   "update <group-id>",
		Short: "Change a group's name, description or visibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in group.UpdateGroupInput
			flags := cmd.Flags()
			if flags.Changed("name") {
				if name == "" {
					return fmt.Errorf("--name cannot be empty")
				}
				in.Name = &name
			}
			if flags.Changed("description") {
				in.Description = &description
			}
			if flags.Changed("visibility") {
				v, err := parseVisibility(visibility)
				if err != nil {
					return err
				}
				in.Visibility = &v
			}
			if in.Name == nil && in.Description == nil && in.Visibility == nil {
				return fmt.Errorf("nothing to update: pass --name, --description or --visibility")
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			g, err := c.UpdateGroup(ctx, args[0], in)
			if err != nil {
				return apiError(err)
			}
			return opts.render(cmd, g, func(w io.Writer) {
				fmt.Fprintf(w, "Updated group %s (%s)\n", g.Name, g.ID)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description (empty clears it)")
	cmd.Flags().StringVar(&visibility, "visibility", "", "public or private")
	return cmd
}

func newGroupsDeleteCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group-id>",
		Short: "Delete a group and all of its memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := opts.confirm(cmd, fmt.Sprintf("Delete group %s? This cannot be undone.", args[0]))
			if err != nil || !ok {
				return err
			}

			c, ctx, err := opts.api(cmd)
			if err != nil {
				return err
			}
			if err := c.DeleteGroup(ctx, args[0]); err != nil {
				return apiError(err)
			}
			return opts.render(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted group %s\n", args[0])
			})
		},
	}
}
