package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkCart/internal/export"
	"LinkCart/internal/kv"
	"LinkCart/internal/links"
)

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV_Full(t *testing.T) {
	entries := []links.Entry{
		{Key: "1", Record: links.Record{Link: "https://a", ProductName: "Red, large", Price: "1,200.50", Img: "https://img/a.jpg", Count: 3}},
		{Key: "2", Record: links.Record{Link: "https://b", ProductName: `Says "hi"`, Price: "2"}},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, export.SchemaFull, entries))

	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"Product Name", "Link", "Price", "Image", "Count"},
		{"Red, large", "https://a", "1,200.50", "https://img/a.jpg", "3"},
		{`Says "hi"`, "https://b", "2", "", ""},
	}, rows)
}

func TestWriteCSV_Simple(t *testing.T) {
	entries := []links.Entry{
		{Key: "1", Record: links.Record{Link: "https://a", Title: "Cable", Price: "1 - 2"}},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, export.SchemaSimple, entries))

	assert.Equal(t, [][]string{
		{"Product name", "Link", "Price range", "Img"},
		{"Cable", "https://a", "1 - 2", ""},
	}, readCSV(t, buf.Bytes()))
}

func TestWriteCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, export.SchemaFull, nil))
	assert.Equal(t, [][]string{{"Product Name", "Link", "Price", "Image", "Count"}}, readCSV(t, buf.Bytes()))
}

func TestExporter_RoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	store := links.NewStore(kv.NewMemStore())

	const n = 11
	for i := 1; i <= n; i++ {
		_, err := store.Save(ctx, links.Record{
			Link:        "https://shop.example/" + strconv.Itoa(i),
			ProductName: "item " + strconv.Itoa(i),
			Price:       strconv.Itoa(i),
			Count:       i,
		})
		require.NoError(t, err)
	}

	ex := &export.Exporter{Source: store, Schema: export.SchemaFull, ClearAfter: true}

	var buf bytes.Buffer
	res, err := ex.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, n, res.Rows)
	assert.True(t, res.Cleared)
	assert.NotEmpty(t, res.ID)

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, n+1)
	for i, row := range rows[1:] {
		k := strconv.Itoa(i + 1)
		assert.Equal(t, []string{"item " + k, "https://shop.example/" + k, k, "", k}, row)
	}

	left, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestExporter_KeepStore(t *testing.T) {
	ctx := context.Background()
	store := links.NewStore(kv.NewMemStore())
	_, err := store.Save(ctx, links.Record{Link: "https://a"})
	require.NoError(t, err)

	ex := &export.Exporter{Source: store, Schema: export.SchemaFull}
	res, err := ex.Export(ctx, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, res.Cleared)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestExporter_WriteFailureKeepsStore(t *testing.T) {
	ctx := context.Background()
	store := links.NewStore(kv.NewMemStore())
	_, err := store.Save(ctx, links.Record{Link: "https://a"})
	require.NoError(t, err)

	ex := &export.Exporter{Source: store, ClearAfter: true}
	_, err = ex.Export(ctx, failWriter{})
	require.Error(t, err)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestParseSchema(t *testing.T) {
	s, err := export.ParseSchema("")
	require.NoError(t, err)
	assert.Equal(t, export.SchemaFull, s)

	_, err = export.ParseSchema("xlsx")
	require.Error(t, err)
}

// saveOnWrite starts a save the first time the CSV is written, the way a
// second request could arrive mid-export.
type saveOnWrite struct {
	bytes.Buffer
	store *links.Store
	once  sync.Once
	done  chan error
}

func (w *saveOnWrite) Write(p []byte) (int, error) {
	w.once.Do(func() {
		go func() {
			_, err := w.store.Save(context.Background(), links.Record{Link: "https://late"})
			w.done <- err
		}()
	})
	return w.Buffer.Write(p)
}

func TestExporter_SaveDuringExportSurvivesClear(t *testing.T) {
	ctx := context.Background()
	store := links.NewStore(kv.NewMemStore())
	_, err := store.Save(ctx, links.Record{Link: "https://early"})
	require.NoError(t, err)

	w := &saveOnWrite{store: store, done: make(chan error, 1)}
	ex := &export.Exporter{Source: store, Schema: export.SchemaFull, ClearAfter: true}

	res, err := ex.Export(ctx, w)
	require.NoError(t, err)
	require.NoError(t, <-w.done)
	assert.Equal(t, 1, res.Rows)
	assert.NotContains(t, w.String(), "https://late")

	left, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "1", left[0].Key)
	assert.Equal(t, "https://late", left[0].Record.Link)
}

func TestExporter_ExportFile(t *testing.T) {
	ctx := context.Background()

	t.Run("written then cleared", func(t *testing.T) {
		store := links.NewStore(kv.NewMemStore())
		_, err := store.Save(ctx, links.Record{Link: "https://a", ProductName: "A"})
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), export.FileName)
		ex := &export.Exporter{Source: store, Schema: export.SchemaFull, ClearAfter: true}
		res, err := ex.ExportFile(ctx, path)
		require.NoError(t, err)
		assert.True(t, res.Cleared)

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, readCSV(t, b), 2)

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("unwritable path keeps store", func(t *testing.T) {
		store := links.NewStore(kv.NewMemStore())
		_, err := store.Save(ctx, links.Record{Link: "https://a"})
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "missing", export.FileName)
		ex := &export.Exporter{Source: store, ClearAfter: true}
		_, err = ex.ExportFile(ctx, path)
		require.Error(t, err)

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
