package query

// PageSize is the number of rows shown per page.
const PageSize = 10

// windowRadius is how many pages either side of the current one are linked.
const windowRadius = 2

// Page is one page of a filtered, sorted collection. From and To are the
// 1-based positions of the first and last item on the page, both zero when
// the collection is empty.
type Page[T any] struct {
	Items      []T          `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalItems int          `json:"total_items"`
	TotalPages int          `json:"total_pages"`
	From       int          `json:"from"`
	To         int          `json:"to"`
	Window     []WindowItem `json:"window"`
}

// WindowItem is one pagination control: a page link or an ellipsis gap.
type WindowItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// TotalPages returns the page count for n items; never less than one.
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// ClampPage moves page into [1, TotalPages(n)].
func ClampPage(page, n int) int {
	total := TotalPages(n)
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Paginate returns the requested page of items. Out of range pages are
// clamped rather than rejected.
func Paginate[T any](items []T, page int) Page[T] {
	n := len(items)
	page = ClampPage(page, n)
	total := TotalPages(n)

	lo := (page - 1) * PageSize
	hi := min(lo+PageSize, n)

	p := Page[T]{
		Items:      items[lo:hi:hi],
		Page:       page,
		PageSize:   PageSize,
		TotalItems: n,
		TotalPages: total,
		Window:     PageWindow(page, total),
	}
	if n > 0 {
		p.From, p.To = lo+1, hi
	} else {
		p.Items = []T{}
	}
	return p
}

// PageWindow lists the page links around current: the pages within two of
// it, plus the first and last page, with an ellipsis wherever pages are
// skipped.
func PageWindow(current, total int) []WindowItem {
	if total < 1 {
		total = 1
	}
	current = max(1, min(current, total))
	start := max(1, current-windowRadius)
	end := min(total, current+windowRadius)

	var out []WindowItem
	if start > 1 {
		out = append(out, WindowItem{Page: 1})
		if start > 2 {
			out = append(out, WindowItem{Ellipsis: true})
		}
	}
	for p := start; p <= end; p++ {
		out = append(out, WindowItem{Page: p})
	}
	if end < total {
		if end < total-1 {
			out = append(out, WindowItem{Ellipsis: true})
		}
		out = append(out, WindowItem{Page: total})
	}
	return out
}

// MapPage converts the items of p, keeping its position and controls.
func MapPage[T, U any](p Page[T], f func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = f(it)
	}
	return Page[U]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
		From:       p.From,
		To:         p.To,
		Window:     p.Window,
	}
}
