// Package query defines the filter specification shared by every ledger
// reader, and the rules for parsing it out of raw request parameters.
//
// Parsing is deliberately lenient on filter values and strict on structure:
// a value that cannot be interpreted (bad date, non-numeric id) is dropped
// and echoed back in Ignored, while a structurally invalid request (page<1,
// unknown sort field) fails fast with a ValidationError.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-distribusi-ops/pkg/datetz"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ValidationError marks a structurally invalid request. It is reported to
// the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IgnoredFilter records a semantically invalid filter value that was
// dropped. Not an error; echoed back so callers can see that the applied
// filters differ from the requested ones.
type IgnoredFilter struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Filter is the parsed filter specification for one list/read request.
type Filter struct {
	Window *datetz.Range // nil means full history

	StoreID    *uint
	SalesRepID *uint
	ProductID  *uint

	Kabupaten     string
	Kecamatan     string
	PaymentMethod string
	Search        string

	Page     int
	PageSize int

	SortField  string // validated key of the caller's sortable map
	SortColumn string // DB column resolved from that map; safe to interpolate
	SortDir    SortDir

	Ignored []IgnoredFilter
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// OrderClause builds the ORDER BY expression. SortColumn only ever comes
// from a handler-owned whitelist, never from raw input.
func (f Filter) OrderClause() string {
	return f.SortColumn + " " + string(f.SortDir)
}

// Applied echoes the filters that actually took effect, for the canonical
// response shape. Dropped values appear in Ignored instead.
func (f Filter) Applied() map[string]interface{} {
	applied := map[string]interface{}{}
	if f.Window != nil {
		if !f.Window.From.IsZero() {
			applied["date_from"] = f.Window.From.Format("2006-01-02")
		}
		if !f.Window.To.IsZero() {
			applied["date_to"] = f.Window.To.AddDate(0, 0, -1).Format("2006-01-02")
		}
	}
	if f.StoreID != nil {
		applied["store_id"] = *f.StoreID
	}
	if f.SalesRepID != nil {
		applied["sales_rep_id"] = *f.SalesRepID
	}
	if f.ProductID != nil {
		applied["product_id"] = *f.ProductID
	}
	if f.Kabupaten != "" {
		applied["kabupaten"] = f.Kabupaten
	}
	if f.Kecamatan != "" {
		applied["kecamatan"] = f.Kecamatan
	}
	if f.PaymentMethod != "" {
		applied["payment_method"] = f.PaymentMethod
	}
	if f.Search != "" {
		applied["search"] = f.Search
	}
	return applied
}

// Getter reads one raw request parameter; absent params return "".
// fiber's ctx.Query satisfies this through a tiny adapter.
type Getter func(key string) string

// Parse builds a Filter from raw parameters. sortable maps accepted sort
// field names to their DB columns; the first entry passed is irrelevant,
// defaultSort must be a key of sortable.
func Parse(get Getter, ranger *datetz.Ranger, sortable map[string]string, defaultSort string) (Filter, error) {
	f := Filter{
		Page:       1,
		PageSize:   DefaultPageSize,
		SortField:  defaultSort,
		SortColumn: sortable[defaultSort],
		SortDir:    SortDesc,
	}

	// Struktur: page / page_size / sort salah -> gagal langsung
	if raw := get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, &ValidationError{Field: "page", Reason: "must be a positive integer"}
		}
		f.Page = n
	}
	if raw := get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageSize {
			return f, &ValidationError{Field: "page_size", Reason: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
		}
		f.PageSize = n
	}
	if raw := get("sort_field"); raw != "" {
		col, ok := sortable[raw]
		if !ok {
			return f, &ValidationError{Field: "sort_field", Reason: "unknown sort field"}
		}
		f.SortField = raw
		f.SortColumn = col
	}
	if raw := strings.ToLower(get("sort_dir")); raw != "" {
		switch raw {
		case string(SortAsc):
			f.SortDir = SortAsc
		case string(SortDesc):
			f.SortDir = SortDesc
		default:
			return f, &ValidationError{Field: "sort_dir", Reason: "must be asc or desc"}
		}
	}

	// Nilai filter: salah format -> di-drop, bukan error (Ignored echo)
	f.StoreID = f.parseID(get, "store_id")
	f.SalesRepID = f.parseID(get, "sales_rep_id")
	f.ProductID = f.parseID(get, "product_id")

	f.Kabupaten = strings.TrimSpace(get("kabupaten"))
	f.Kecamatan = strings.TrimSpace(get("kecamatan"))
	f.Search = strings.TrimSpace(get("search"))

	if raw := strings.ToUpper(strings.TrimSpace(get("payment_method"))); raw != "" {
		if raw == "CASH" || raw == "TRANSFER" {
			f.PaymentMethod = raw
		} else {
			f.drop("payment_method", raw, "must be CASH or TRANSFER")
		}
	}

	f.Window = f.parseWindow(get, ranger)

	return f, nil
}

func (f *Filter) parseID(get Getter, field string) *uint {
	raw := strings.TrimSpace(get(field))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		f.drop(field, raw, "not a valid id")
		return nil
	}
	id := uint(n)
	return &id
}

// parseWindow resolves date_range shortcuts first, then explicit
// date_from/date_to. A shortcut wins over explicit bounds when both appear.
func (f *Filter) parseWindow(get Getter, ranger *datetz.Ranger) *datetz.Range {
	if raw := strings.TrimSpace(get("date_range")); raw != "" {
		if r, ok := ranger.Shortcut(raw); ok {
			return &r
		}
		f.drop("date_range", raw, "unknown range shortcut")
	}

	var from, to time.Time
	if raw := strings.TrimSpace(get("date_from")); raw != "" {
		t, err := ranger.ParseDate(raw)
		if err != nil {
			f.drop("date_from", raw, "not a valid date")
		} else {
			from = t
		}
	}
	if raw := strings.TrimSpace(get("date_to")); raw != "" {
		t, err := ranger.ParseDate(raw)
		if err != nil {
			f.drop("date_to", raw, "not a valid date")
		} else {
			to = t
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		f.drop("date_to", to.Format("2006-01-02"), "before date_from")
		to = time.Time{}
	}
	if from.IsZero() && to.IsZero() {
		return nil
	}
	r := ranger.Between(from, to)
	return &r
}

func (f *Filter) drop(field, value, reason string) {
	f.Ignored = append(f.Ignored, IgnoredFilter{Field: field, Value: value, Reason: reason})
}
