// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/doc"
	"github.com/pdiddy/mathspan/internal/extract"
	"github.com/pdiddy/mathspan/internal/sentence"
)

var dnmCmd = &cobra.Command{
	Use:   "dnm DOCUMENT",
	Short: "Print the narrative text model of a document",
	Long: `Dnm linearizes an HTML document with the configuration used for
parsing (formulas become MathFormula) or, with --alternate, the print
configuration (formulas become linearized MathML).

--sentences prints one sentence per line; --mapping prints every mapped
text span with the node it came from.`,
	Args: cobra.ExactArgs(1),
	RunE: runDNM,
}

func runDNM(cmd *cobra.Command, args []string) error {
	alternate, _ := cmd.Flags().GetBool("alternate")
	mapping, _ := cmd.Flags().GetBool("mapping")
	sentences, _ := cmd.Flags().GetBool("sentences")

	tree, err := doc.LoadFile(args[0])
	if err != nil {
		return err
	}

	cfg := loadConfig().Extraction
	spec, def := cfg.SentenceDNM, extract.SentenceDNMConfig()
	if alternate {
		spec, def = cfg.AlternateDNM, extract.AlternateDNMConfig()
	}
	dcfg := def
	if spec != nil {
		if dcfg, err = dnm.FromSpec(*spec, extract.Linearizers); err != nil {
			return err
		}
	}
	d := dnm.Build(tree, tree.Root(), dcfg)

	switch {
	case mapping:
		for _, m := range d.Mappings() {
			kind := "text"
			if m.Unit {
				kind = "unit"
			}
			r, _ := d.Range(m.Start, m.End)
			fmt.Fprintf(os.Stdout, "%6d %6d  %-4s  %-50s  %q\n", m.Start, m.End, kind, tree.Path(m.Node), r.Text())
		}
	case sentences:
		for _, r := range sentence.Split(d.FullRange()) {
			fmt.Fprintln(os.Stdout, r.Text())
		}
	default:
		fmt.Fprintln(os.Stdout, d.Text())
	}
	return nil
}

func init() {
	dnmCmd.Flags().Bool("alternate", false, "use the print configuration")
	dnmCmd.Flags().Bool("mapping", false, "print the back-mapping")
	dnmCmd.Flags().Bool("sentences", false, "print sentences, one per line")

	rootCmd.AddCommand(dnmCmd)
}
