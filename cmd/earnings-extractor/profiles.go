// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List company profiles",
	Long: `Profiles lists the registered company profiles (built-in and those in
profiles_dir) with their aliases and the metric keys each declares. The
default profile supplies the generic rules every company profile falls
back to.`,
	RunE: runProfiles,
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"extraction.profiles_dir": "profiles-dir"})
	if err != nil {
		return err
	}
	reg, err := newRegistry(cfg.Extraction)
	if err != nil {
		return err
	}
	reg.Seal()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tALIASES\tMETRICS")
	for _, p := range reg.Profiles() {
		name := p.Name()
		if p.IsDefault() {
			name += " (default)"
		}
		keys := make([]string, 0, len(p.Metrics()))
		for _, m := range p.Metrics() {
			keys = append(keys, string(m.Key))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, strings.Join(p.Aliases(), ", "), strings.Join(keys, ", "))
	}
	return tw.Flush()
}

func init() {
	profilesCmd.Flags().String("profiles-dir", "", "directory of additional company profile YAML files")

	rootCmd.AddCommand(profilesCmd)
}
