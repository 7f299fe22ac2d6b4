// Package export writes the saved links as a CSV download.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"
	"go.uber.org/zap"

	"LinkCart/internal/links"
)

const (
	FileName    = "links.csv"
	ContentType = "text/csv; charset=utf-8"
)

// Schema picks the column layout.
type Schema string

const (
	// SchemaFull has one row per SKU: Product Name, Link, Price, Image, Count.
	SchemaFull Schema = "full"
	// SchemaSimple is the page-level layout; the page title fills the
	// product name column.
	SchemaSimple Schema = "simple"
)

func ParseSchema(s string) (Schema, error) {
	switch Schema(s) {
	case SchemaFull, "":
		return SchemaFull, nil
	case SchemaSimple:
		return SchemaSimple, nil
	default:
		return "", fmt.Errorf("unknown export schema %q", s)
	}
}

type fullRow struct {
	ProductName string `csv:"Product Name"`
	Link        string `csv:"Link"`
	Price       string `csv:"Price"`
	Image       string `csv:"Image"`
	Count       int    `csv:"Count,omitempty"`
}

type simpleRow struct {
	ProductName string `csv:"Product name"`
	Link        string `csv:"Link"`
	PriceRange  string `csv:"Price range"`
	Img         string `csv:"Img"`
}

// WriteCSV encodes entries in the order given. Fields holding commas,
// quotes or newlines are quoted by encoding/csv.
func WriteCSV(w io.Writer, schema Schema, entries []links.Entry) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	var err error
	switch schema {
	case SchemaSimple:
		err = encodeRows(enc, entries, func(r links.Record) any {
			return simpleRow{ProductName: r.Title, Link: r.Link, PriceRange: r.Price, Img: r.Img}
		}, simpleRow{})
	default:
		err = encodeRows(enc, entries, func(r links.Record) any {
			return fullRow{ProductName: r.ProductName, Link: r.Link, Price: r.Price, Image: r.Img, Count: r.Count}
		}, fullRow{})
	}
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func encodeRows(enc *csvutil.Encoder, entries []links.Entry, row func(links.Record) any, zero any) error {
	// an empty export still carries the header row
	if len(entries) == 0 {
		return enc.EncodeHeader(zero)
	}
	for _, e := range entries {
		if err := enc.Encode(row(e.Record)); err != nil {
			return fmt.Errorf("encode row %s: %w", e.Key, err)
		}
	}
	return nil
}

// Source is the part of the record store the exporter needs. Drain must
// clear only after its callback succeeds, without letting a save slip in
// between the read and the clear.
type Source interface {
	List(ctx context.Context) ([]links.Entry, error)
	Drain(ctx context.Context, fn func([]links.Entry) error) error
}

type Exporter struct {
	Source     Source
	Schema     Schema
	ClearAfter bool
	Log        *zap.Logger
}

type Result struct {
	ID      string
	Rows    int
	Cleared bool
}

// Export writes every record to w. With ClearAfter set the store is emptied
// once the CSV has been written; a failed write leaves the store untouched.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (Result, error) {
	return e.run(ctx, func(entries []links.Entry) error {
		return WriteCSV(w, e.Schema, entries)
	})
}

// ExportFile writes the CSV to path. The file is closed before the store is
// cleared, and a failed write or close removes the partial file and keeps
// the records.
func (e *Exporter) ExportFile(ctx context.Context, path string) (Result, error) {
	return e.run(ctx, func(entries []links.Entry) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteCSV(f, e.Schema, entries); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return err
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return err
		}
		return nil
	})
}

func (e *Exporter) run(ctx context.Context, write func([]links.Entry) error) (Result, error) {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	res := Result{ID: uuid.NewString()}

	var werr error
	emit := func(entries []links.Entry) error {
		if err := write(entries); err != nil {
			werr = err
			return err
		}
		res.Rows = len(entries)
		return nil
	}

	var err error
	if e.ClearAfter {
		err = e.Source.Drain(ctx, emit)
	} else {
		var entries []links.Entry
		if entries, err = e.Source.List(ctx); err == nil {
			err = emit(entries)
		}
	}
	switch {
	case werr != nil:
		return res, fmt.Errorf("write csv: %w", werr)
	case err != nil:
		log.Error("export failed", zap.String("export_id", res.ID), zap.Error(err))
		return res, err
	}
	res.Cleared = e.ClearAfter

	log.Info("links exported",
		zap.String("export_id", res.ID),
		zap.Int("rows", res.Rows),
		zap.Bool("cleared", res.Cleared),
	)
	return res, nil
}
