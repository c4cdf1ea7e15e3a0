package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdxmph/leadbox/internal/config"
	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/db"
	"github.com/pdxmph/leadbox/internal/filter"
	"github.com/pdxmph/leadbox/internal/tasks"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty database and a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.Initialize(a.cfg.Database.Path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database created at %s\n", a.cfg.Database.Path)

			path := a.configPath
			if path == "" {
				var err error
				if path, err = config.Path(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := a.cfg.SaveTo(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			}
			return nil
		},
	}
}

func newFixturesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fixtures [path]",
		Short: "Create a database filled with sample leads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Database.Path
			if len(args) == 1 {
				path = args[0]
			}
			if err := db.CreateFixturesDatabase(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fixtures database created at %s\n", path)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var filterName, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print filter counts and the matching contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := crm.ParseFilter(filterName)
			if err != nil {
				return err
			}

			database, store, err := a.openDirectory()
			if err != nil {
				return err
			}
			defer database.Close()

			all := store.ListAll()
			printList(cmd.OutOrStdout(), filter.Counts(all, a.cfg.Agent.Name), filter.Visible(all, f, search, a.cfg.Agent.Name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filterName, "filter", "f", string(crm.FilterAll), "filter to apply (all, assignedToMe, unassigned, liveChat, blocked, trash)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match names or phone numbers")
	return cmd
}

func printList(out io.Writer, badges []filter.Badge, contacts []crm.Contact) {
	for _, b := range badges {
		fmt.Fprintf(out, "%-16s %d\n", b.Filter.Label(), b.Count)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tSTATUS\tAGENT")
	for _, c := range contacts {
		agent := c.AssignedAgent
		if agent == "" {
			agent = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Status, agent)
	}
	w.Flush()
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <contact-id> <status>",
		Short: "Move a lead to another status",
		Long:  "Move a lead to another status (new, follow-up, scheduled, closed, lost). An audit note is recorded for every change.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := crm.ParseLeadStatus(args[1])
			if err != nil {
				return err
			}

			database, store, err := a.openDirectory()
			if err != nil {
				return err
			}
			defer database.Close()

			_, stop, err := a.taskManager(store)
			if err != nil {
				return err
			}
			defer stop()

			t, err := store.SetStatus(args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.AuditText())
			return nil
		},
	}
}

func newNoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "note <contact-id> <text...>",
		Short: "Add a note to a contact",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, store, err := a.openDirectory()
			if err != nil {
				return err
			}
			defer database.Close()

			notes, err := store.AddNote(args[0], a.cfg.Agent.Name, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d notes on %s\n", len(notes), args[0])
			return nil
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List follow-up task backends and whether they work here",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tSTATE")
			for _, b := range tasks.DescribeBackends() {
				state := "disabled"
				if b.Enabled {
					state = "enabled"
				}
				fmt.Fprintf(w, "%s\t%s\n", b.Name, state)
			}
			return w.Flush()
		},
	}
}
