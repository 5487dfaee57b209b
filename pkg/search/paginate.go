package search

// PageSize is the fixed number of results per page of search output.
const PageSize = 10

// PageOf slices items down to the requested 1-indexed page and reports the
// total number of pages. Out-of-range pages come back empty; page counts
// round up so a final partial page is still a page.
func PageOf[T any](items []T, page int) ([]T, int) {
	totalPages := (len(items) + PageSize - 1) / PageSize
	if page < 1 || page > totalPages {
		return nil, totalPages
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
