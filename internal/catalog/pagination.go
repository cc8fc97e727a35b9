package catalog

// Pagination derives page math from a result total. The page strip shows at
// most windowSize buttons centered on the current page, clamped to the
// sequence bounds.
type Pagination struct {
	Page     int
	PageSize int
	Total    int
}

const windowSize = 7

// TotalPages is ceil(Total/PageSize), never below 1: an empty result still
// renders a single page with prev and next disabled.
func (p Pagination) TotalPages() int {
	if p.PageSize <= 0 {
		return 1
	}
	pages := (p.Total + p.PageSize - 1) / p.PageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Skip is the catalog API offset for the current page.
func (p Pagination) Skip() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.PageSize
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages()
}

// Window returns the page numbers to render as buttons: at most windowSize
// entries centered on the current page, clamped to [1, TotalPages].
func (p Pagination) Window() []int {
	totalPages := p.TotalPages()

	page := p.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := page - windowSize/2
	if start+windowSize-1 > totalPages {
		start = totalPages - windowSize + 1
	}
	if start < 1 {
		start = 1
	}

	end := start + windowSize - 1
	if end > totalPages {
		end = totalPages
	}

	window := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		window = append(window, n)
	}
	return window
}
