// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toeirei/tabula/internal/source"
)

// errNoStore is returned by snapshot commands when the database could not
// be opened at startup.
var errNoStore = fmt.Errorf("snapshot store is not available; check the database configuration")

// newSnapshotCmd creates the 'snapshot' command group: save, list, show
// and delete locally stored collections.
func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage locally stored snapshots of a collection",
		Long: `Snapshots store a profile's records in the local database so they can
be browsed offline, from the TUI or with 'snapshot show'.`,
	}

	cmd.AddCommand(newSnapshotSaveCmd())
	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotShowCmd())
	cmd.AddCommand(newSnapshotDeleteCmd())
	return cmd
}

func newSnapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>",
		Short: "Fetch the active profile's full collection and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if store == nil {
				return errNoStore
			}
			name, p, err := cfg.ActiveProfile()
			if err != nil {
				return err
			}

			rest := source.NewRESTSource(p.RESTConfig(), buildClient())
			records, err := rest.FetchAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching %s: %w", p.Endpoint, err)
			}

			if _, err := store.SaveSnapshot(cmd.Context(), args[0], name, records); err != nil {
				return err
			}
			cmd.Printf("saved snapshot %q (%d records from %s)\n", args[0], len(records), name)
			return nil
		},
	}
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if store == nil {
				return errNoStore
			}
			snaps, err := store.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				cmd.Println("no snapshots stored")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROFILE\tRECORDS\tCREATED")
			for _, snap := range snaps {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					snap.Name, snap.Profile, snap.RecordCount,
					snap.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newSnapshotShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a snapshot's records as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if store == nil {
				return errNoStore
			}
			snap, err := store.GetSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			records, err := store.LoadRecords(cmd.Context(), snap.ID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}

func newSnapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if store == nil {
				return errNoStore
			}
			if err := store.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("deleted snapshot %q\n", args[0])
			return nil
		},
	}
}
