package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"LinkCart/internal/links"
	"LinkCart/internal/popup"
	"LinkCart/internal/scrape"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved links in key order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return writeTable(out, entries)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func writeTable(w io.Writer, entries []links.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no links saved")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tPRICE\tQTY\tLINK")
	for _, e := range entries {
		name := e.Record.ProductName
		if name == "" {
			name = e.Record.Title
		}
		qty := ""
		if e.Record.Count > 0 {
			qty = fmt.Sprint(e.Record.Count)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Key, name, e.Record.Price, qty, e.Record.Link)
	}
	return tw.Flush()
}

func newAddCmd(a *app) *cobra.Command {
	var rec links.Record

	cmd := &cobra.Command{
		Use:   "add <link>",
		Short: "Save a link by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec.Link = args[0]

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			e, err := store.Save(cmd.Context(), rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s as $%s\n", e.Record.Link, e.Key)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&rec.Title, "title", "", "page title")
	f.StringVar(&rec.ProductName, "product", "", "product (SKU) name")
	f.StringVar(&rec.Price, "price", "", "price or price range")
	f.StringVar(&rec.Img, "img", "", "image url")
	f.IntVar(&rec.Count, "count", 0, "quantity")
	return cmd
}

func newScrapeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <url>",
		Short: "Fetch a product page and save what it lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := scrape.NewClient(a.cfg.Scrape.Timeout, a.log).Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			saved := 0
			for _, rec := range popup.RecordsFromPage(page) {
				e, err := store.Save(cmd.Context(), rec)
				if errors.Is(err, links.ErrDuplicateRecord) {
					fmt.Fprintf(out, "already saved: %s %s\n", rec.Link, rec.ProductName)
					continue
				}
				if err != nil {
					return err
				}
				saved++
				fmt.Fprintf(out, "saved $%s %s %s\n", e.Key, rec.ProductName, rec.Price)
			}
			if saved == 0 {
				return links.ErrDuplicateRecord
			}
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete one link; later keys move down by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete all links without --yes")
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all links deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all links")
	return cmd
}
