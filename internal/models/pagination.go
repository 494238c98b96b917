package models

// PageRequest is a normalized 1-based page selection.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Pagination is the metadata block returned with every listing.
type Pagination struct {
	Total        int64 `json:"total"`
	PerPage      int   `json:"per_page"`
	CurrentPage  int   `json:"current_page"`
	LastPage     int   `json:"last_page"`
	HasMorePages bool  `json:"has_more_pages"`
}

// NewPagination computes the listing metadata for total rows.
func NewPagination(total int64, req PageRequest) Pagination {
	lastPage := 1
	if req.PerPage > 0 && total > 0 {
		lastPage = int((total + int64(req.PerPage) - 1) / int64(req.PerPage))
	}
	return Pagination{
		Total:        total,
		PerPage:      req.PerPage,
		CurrentPage:  req.Page,
		LastPage:     lastPage,
		HasMorePages: req.Page < lastPage,
	}
}

// Normalize clamps the request: page at least 1, per-page defaulted and capped.
func (p PageRequest) Normalize(defaultPerPage, maxPerPage int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}
