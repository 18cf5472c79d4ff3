package pagination

// Metadata describes the page included in a response.
type Metadata struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Response wraps one page of items.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

// CalculateOffset returns the index of the first item of a 1-based page.
func CalculateOffset(page, limit int) int {
	return (page - 1) * limit
}

// CalculateTotalPages returns ceil(total/limit), and 1 for an empty result.
func CalculateTotalPages(total int64, limit int) int {
	if total == 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Paginate cuts the requested page out of an already ordered result.
// A page past the end yields an empty, non-nil Data slice.
func Paginate[T any](items []T, p Params) Response[T] {
	total := len(items)
	start := min(CalculateOffset(p.Page, p.Limit), total)
	end := min(start+p.Limit, total)

	data := make([]T, end-start)
	copy(data, items[start:end])
	return Response[T]{
		Data: data,
		Pagination: Metadata{
			Total:      int64(total),
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: CalculateTotalPages(int64(total), p.Limit),
		},
	}
}

// Map converts the items of a page, keeping its metadata.
func Map[T, U any](r Response[T], fn func(T) U) Response[U] {
	data := make([]U, len(r.Data))
	for i, v := range r.Data {
		data[i] = fn(v)
	}
	return Response[U]{Data: data, Pagination: r.Pagination}
}
