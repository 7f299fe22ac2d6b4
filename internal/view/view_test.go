package view_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkCart/internal/links"
	"LinkCart/internal/view"
)

func TestBuild_Empty(t *testing.T) {
	m := view.Build(nil)
	assert.True(t, m.Empty)
	assert.Equal(t, view.EmptyMessage, m.Message)
	assert.Empty(t, m.Rows)
}

func TestBuild_Rows(t *testing.T) {
	m := view.Build([]links.Entry{
		{Key: "1", Record: links.Record{Link: "https://a", Title: "A", Price: "10", Img: "https://img/a.jpg"}},
		{Key: "2", Record: links.Record{Link: "https://b", Title: "B", ProductName: "Blue", Price: "2", Count: 4}},
	})

	require.Len(t, m.Rows, 2)
	assert.False(t, m.Empty)
	assert.Equal(t, view.Row{
		Key: "1", Link: "https://a", Title: "A", Price: "10",
		ImageURL: "https://img/a.jpg", ImageAlt: view.NoImageMessage,
	}, m.Rows[0])
	assert.Equal(t, "Qty: 4", m.Rows[1].CountLabel)
	assert.Equal(t, "Blue", m.Rows[1].ProductName)
	assert.Empty(t, m.Rows[1].ImageURL)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, view.Render(&buf, view.Build([]links.Entry{
		{Key: "1", Record: links.Record{Link: "https://a", Title: "<script>x</script>", Price: "10"}},
	})))

	out := buf.String()
	assert.Contains(t, out, `action="/ui/delete/1"`)
	assert.Contains(t, out, view.NoImageMessage)
	assert.NotContains(t, out, "<script>x</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRender_ErrorReplacesList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, view.Render(&buf, view.Failed()))

	out := buf.String()
	assert.Contains(t, out, view.ErrorMessage)
	assert.False(t, strings.Contains(out, `class="link"`))
}
