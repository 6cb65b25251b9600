// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mathspan/internal/pattern"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns FILE",
	Short: "Validate a pattern file and list its patterns",
	Long: `Patterns loads an XML or YAML pattern file, resolving rule references,
and prints each pattern with its branch count and capture names. A file that
fails to load is reported with the reason.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := pattern.Load(args[0])
		if err != nil {
			return err
		}

		names := f.Names()
		fmt.Fprintf(os.Stdout, "%-24s  %-8s  %s\n", "Pattern", "Branches", "Captures")
		for _, name := range names {
			def, _ := f.Pattern(name)
			fmt.Fprintf(os.Stdout, "%-24s  %-8d  %s\n", name, len(def.Branches), strings.Join(def.CaptureNames(), ", "))
		}
		fmt.Fprintf(os.Stdout, "\n%d patterns\n", len(names))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(patternsCmd)
}
