package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"LinkCart/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		out    string
		schema string
		keep   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write saved links as CSV",
		Long: `Write saved links as CSV to --out ("-" for stdout). The store is
emptied afterwards unless --keep is given or LINKCART_EXPORT_CLEAR=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schema == "" {
				schema = a.cfg.Export.Schema
			}
			sc, err := export.ParseSchema(schema)
			if err != nil {
				return err
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			ex := &export.Exporter{
				Source:     store,
				Schema:     sc,
				ClearAfter: a.cfg.Export.ClearAfter && !keep,
				Log:        a.log,
			}

			var res export.Result
			if out == "-" {
				res, err = ex.Export(cmd.Context(), cmd.OutOrStdout())
			} else {
				res, err = ex.ExportFile(cmd.Context(), out)
			}
			if err != nil {
				return err
			}

			if out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d links to %s (cleared: %t)\n", res.Rows, out, res.Cleared)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", export.FileName, `output file, "-" for stdout`)
	f.StringVar(&schema, "schema", "", "full or simple (overrides LINKCART_EXPORT_SCHEMA)")
	f.BoolVar(&keep, "keep", false, "keep links after export")
	return cmd
}
