// Package links is the record store: saved product links kept under dense
// 1-based string keys ("1".."N") on top of a kv.Store.
package links

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateRecord    = errors.New("record already saved")
	ErrNotFound           = errors.New("record not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidRecord      = errors.New("invalid record")
)

// Record is one saved product link. ProductName and Count are empty for
// pages saved without a per-SKU breakdown.
type Record struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	ProductName string `json:"productName,omitempty"`
	Price       string `json:"price"`
	Img         string `json:"img,omitempty"`
	Count       int    `json:"count,omitempty"`
}

type Entry struct {
	Key    string `json:"key"`
	Record Record `json:"record"`
}

// SameProduct reports whether r and o describe the same saved item: same
// link and same product name.
func (r Record) SameProduct(o Record) bool {
	return r.Link == o.Link && r.ProductName == o.ProductName
}

func (r Record) validate() error {
	if strings.TrimSpace(r.Link) == "" {
		return errors.Join(ErrInvalidRecord, errors.New("link required"))
	}
	if r.Count < 0 {
		return errors.Join(ErrInvalidRecord, errors.New("count must not be negative"))
	}
	return nil
}
