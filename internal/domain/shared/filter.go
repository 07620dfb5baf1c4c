package shared

import (
	"strings"
	"unicode"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter is the list query handed to repositories. Filters holds equality
// matches keyed by column; repositories ignore keys they do not whitelist.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// Normalize clamps paging into range and makes OrderDir "asc" or "desc"
func (f Filter) Normalize() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if !strings.EqualFold(f.OrderDir, "asc") {
		f.OrderDir = "desc"
	} else {
		f.OrderDir = "asc"
	}
	if f.Filters == nil {
		f.Filters = map[string]any{}
	}
	return f
}

func (f Filter) Offset() int { return (f.Page - 1) * f.PageSize }

// SortColumn maps an API sort key such as "startTime" to "start_time"
func SortColumn(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
