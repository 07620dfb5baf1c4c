package envelope

// PaginationInfo is the normalized pagination block for list endpoints.
type PaginationInfo struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// List is the untyped result of UnwrapList.
type List struct {
	Items      []any          `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// Value is the result of unwrapping a single-entity response.
type Value struct {
	Value any `json:"value"`
}

// Levels probed for pagination fields, outermost meta first.
var (
	totalPaths = []string{"data.meta.total", "meta.total", "total", "data.total"}
	pageLevels = []string{"data.meta", "meta", "", "data"}
)

type listOptions struct {
	page  int
	limit int
}

// ListOption supplies the values a caller requested, used when the response
// does not echo them back.
type ListOption func(*listOptions)

// WithPage sets the page used when the response carries none.
func WithPage(page int) ListOption {
	return func(o *listOptions) { o.page = page }
}

// WithLimit sets the page size used when the response carries none.
func WithLimit(limit int) ListOption {
	return func(o *listOptions) { o.limit = limit }
}

// Unwrap returns the logical payload of a response body:
// resp.data.data, else resp.data, else resp itself.
func Unwrap(resp any) any {
	if v, ok := lookup(resp, "data.data"); ok {
		return v
	}
	if v, ok := lookup(resp, "data"); ok {
		return v
	}
	return resp
}

// UnwrapValue wraps Unwrap for single-entity endpoints.
func UnwrapValue(resp any) Value {
	return Value{Value: Unwrap(resp)}
}

// UnwrapList extracts the item list and a normalized pagination block.
// It never fails: a body without a recognizable list yields no items and
// a single empty page.
func UnwrapList(resp any, opts ...ListOption) List {
	o := listOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	items := listItems(Unwrap(resp))

	total, ok := firstInt(resp, totalPaths...)
	if !ok || total < 0 {
		total = len(items)
	}

	page, ok := firstInt(resp, levelPaths("page")...)
	if !ok {
		page = o.page
	}
	if page < 1 {
		page = 1
	}

	limit, ok := firstInt(resp, levelPaths("limit", "pageSize", "page_size", "per_page")...)
	if !ok {
		limit = o.limit
	}
	if limit < 0 {
		limit = 0
	}

	totalPages, ok := firstInt(resp, levelPaths("totalPages", "total_pages")...)
	if !ok {
		totalPages = ComputeTotalPages(total, limit)
	}
	if totalPages < 1 {
		totalPages = 1
	}

	return List{
		Items:      items,
		Pagination: NewPaginationInfo(page, limit, total, totalPages),
	}
}

// NewPaginationInfo derives HasNext and HasPrev from the given counters.
func NewPaginationInfo(page, limit, total, totalPages int) PaginationInfo {
	return PaginationInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ComputeTotalPages returns ceil(total/limit), or 1 when limit is not
// positive. The result is never below 1.
func ComputeTotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

func listItems(payload any) []any {
	if arr, ok := payload.([]any); ok {
		return arr
	}
	if v, ok := lookup(payload, "items"); ok {
		if arr, ok := v.([]any); ok {
			return arr
		}
	}
	return []any{}
}

// levelPaths expands field names over every pagination level, level-major,
// so the outermost meta block wins over any alias at a deeper level.
func levelPaths(fields ...string) []string {
	paths := make([]string, 0, len(pageLevels)*len(fields))
	for _, level := range pageLevels {
		for _, f := range fields {
			if level == "" {
				paths = append(paths, f)
			} else {
				paths = append(paths, level+"."+f)
			}
		}
	}
	return paths
}
