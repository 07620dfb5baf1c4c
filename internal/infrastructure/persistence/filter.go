package persistence

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// paginate applies ordering, offset and limit
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultOrder string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultOrder)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// search adds a case-insensitive LIKE over the given columns; works on
// both postgres and sqlite
func search(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(term) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// whereFilters applies equality filters for whitelisted keys, in key order
func whereFilters(query *gorm.DB, filters map[string]any, columns map[string]string) *gorm.DB {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		col, ok := columns[key]
		value := filters[key]
		if !ok || value == nil || value == "" {
			continue
		}
		query = query.Where(col+" = ?", value)
	}
	return query
}

var baseSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

func sortFields(extra ...string) map[string]bool {
	m := make(map[string]bool, len(baseSortFields)+len(extra))
	for k := range baseSortFields {
		m[k] = true
	}
	for _, f := range extra {
		m[f] = true
	}
	return m
}

// first loads one row into a new T, mapping a missing row to shared.ErrNotFound
func first[T any](query *gorm.DB, conds ...any) (*T, error) {
	var out T
	if err := query.First(&out, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func count(query *gorm.DB) (int64, error) {
	var n int64
	err := query.Count(&n).Error
	return n, err
}

func exists(query *gorm.DB) (bool, error) {
	n, err := count(query.Limit(1))
	return n > 0, err
}
