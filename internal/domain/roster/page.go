package roster

import "github.com/okian/internboard/internal/domain/types"

// Paginate slices rows to a 1-based page. A page past the end is empty but
// still reports the totals. Any page or size value is accepted without
// overflowing.
func Paginate(rows []types.Row, page, size int) types.Page {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(rows)
	pages := total / size
	if total%size != 0 {
		pages++
	}

	// page-1 < pages keeps (page-1)*size below total.
	start := total
	if page-1 < pages {
		start = (page - 1) * size
	}
	end := total
	if size < total-start {
		end = start + size
	}

	items := make([]types.Row, end-start)
	copy(items, rows[start:end])
	return types.Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
	}
}
