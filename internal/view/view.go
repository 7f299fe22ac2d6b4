// Package view turns the ordered record list into what the popup page
// shows. Build is pure; Render only formats its result.
package view

import (
	"strconv"

	"LinkCart/internal/links"
)

const (
	EmptyMessage   = `No links saved yet. Use "Add" to save the current page.`
	ErrorMessage   = "Saved links could not be loaded."
	NoImageMessage = "No image"
)

type Row struct {
	Key         string
	Link        string
	Title       string
	ProductName string
	Price       string
	CountLabel  string
	ImageURL    string
	ImageAlt    string
}

type Model struct {
	Rows    []Row
	Empty   bool
	Message string
	Error   string
	Notice  string
}

func Build(entries []links.Entry) Model {
	if len(entries) == 0 {
		return Model{Empty: true, Message: EmptyMessage}
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		r := Row{
			Key:         e.Key,
			Link:        e.Record.Link,
			Title:       e.Record.Title,
			ProductName: e.Record.ProductName,
			Price:       e.Record.Price,
			ImageURL:    e.Record.Img,
			ImageAlt:    NoImageMessage,
		}
		if e.Record.Count > 0 {
			r.CountLabel = "Qty: " + strconv.Itoa(e.Record.Count)
		}
		rows = append(rows, r)
	}
	return Model{Rows: rows}
}

// Failed is the model shown instead of a stale list when loading fails.
func Failed() Model {
	return Model{Error: ErrorMessage}
}
