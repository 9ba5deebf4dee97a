// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toeirei/tabula/internal/config"
)

// newProfilesCmd creates the 'profiles' command, listing the configured
// API profiles plus the built-in demo profile.
func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configured API profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := map[string]config.Profile{}
			for name, p := range cfg.Profiles {
				profiles[name] = p
			}
			if _, ok := profiles["dummyjson"]; !ok {
				profiles["dummyjson"] = config.DummyJSONProfile()
			}

			names := make([]string, 0, len(profiles))
			for name := range profiles {
				names = append(names, name)
			}
			sort.Strings(names)

			active, _, err := cfg.ActiveProfile()
			if err != nil {
				active = ""
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tENDPOINT\tMODE\tCOLUMNS")
			for _, name := range names {
				p := profiles[name]
				mode := p.Mode
				if mode == "" {
					mode = "server"
				}
				marker := ""
				if name == active {
					marker = " *"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%s\t%d\n", name, marker, p.Endpoint, mode, len(p.Columns))
			}
			return w.Flush()
		},
	}
}
