package services

// Page is the Web API paging object shared by every list endpoint.
type Page[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Total    int     `json:"total"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// Compact drops nil entries and dereferences the rest.
func Compact[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

// compactPage converts a page with nullable items to one without.
// Total is left as reported by the API.
func compactPage[T any](p *Page[*T]) *Page[T] {
	if p == nil {
		return &Page[T]{Items: []T{}}
	}
	return &Page[T]{
		Href:     p.Href,
		Items:    Compact(p.Items),
		Limit:    p.Limit,
		Offset:   p.Offset,
		Total:    p.Total,
		Next:     p.Next,
		Previous: p.Previous,
	}
}

const (
	minLimit     = 1
	maxLimit     = 50
	defaultLimit = 20
)

// clampLimit keeps limit inside the API range, substituting the default for zero.
func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultLimit
	case limit < minLimit:
		return minLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// chunk splits ids into groups of at most size.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
