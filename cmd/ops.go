package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/bambi-editor/internal/filter"
	"github.com/AnyUserName/bambi-editor/internal/preset"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the available operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		for _, k := range filter.Kinds() {
			icon, ok := filter.Icon(k)
			if !ok {
				icon = "-"
			}
			arg := ""
			switch {
			case k.IsColorAdjust():
				arg = "=-10..10"
			case k == filter.Scale:
				arg = "=percent"
			}
			fmt.Fprintf(w, "  %-22s %-26s %s\n", k.Name()+arg, k.String(), icon)
		}
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		for _, name := range preset.Names() {
			p := preset.Get(name)
			steps := make([]string, len(p.Steps))
			for i, s := range p.Steps {
				steps[i] = s.String()
			}
			fmt.Fprintf(w, "  %-10s q=%-3d %s\n", name, p.Quality, strings.Join(steps, " → "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(opsCmd)
	rootCmd.AddCommand(presetsCmd)
}
