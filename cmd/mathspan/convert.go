// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mathspan/internal/container"
	"github.com/pdiddy/mathspan/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [sources...]",
	Short: "Convert LaTeX sources to HTML with MathML",
	Long: `Convert runs each LaTeX source through a LaTeXML container image
(docker or podman) and writes <id>.html into the output directory, ready for
extract. Existing HTML files are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig().Conversion
		if cmd.Flags().Changed("image") {
			cfg.Image, _ = cmd.Flags().GetString("image")
		}
		if cmd.Flags().Changed("out") {
			cfg.OutputDir, _ = cmd.Flags().GetString("out")
		}

		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		conv, err := convert.NewLaTeXMLConverter(rt, cfg.Image)
		if err != nil {
			return err
		}

		result := convert.ConvertPaths(context.Background(), conv, args, cfg.OutputDir, os.Stdout)
		if result.HasFailures() {
			return fmt.Errorf("%d document(s) failed conversion", result.Failed)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().String("image", convert.DefaultLaTeXMLImage, "LaTeXML container image")
	convertCmd.Flags().String("out", "documents", "output directory for HTML documents")

	rootCmd.AddCommand(convertCmd)
}
