package model

import "time"

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// JobFilter narrows a job listing. MinDate/MaxDate are calendar days,
// inclusive on both ends; Completed is tri-state (nil means no filter).
type JobFilter struct {
	MinDate   *time.Time
	MaxDate   *time.Time
	Service   string
	Completed *bool
	Page      int
	PageSize  int
}

// Normalize clamps page to >=1 and page size to [1, MaxPageSize], and
// expands the date bounds to day-start / day-end.
func (f *JobFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.MinDate != nil {
		d := dayStart(*f.MinDate)
		f.MinDate = &d
	}
	if f.MaxDate != nil {
		d := dayEnd(*f.MaxDate)
		f.MaxDate = &d
	}
}

// Offset is the row offset of the requested page.
func (f *JobFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Pagination describes one page of a listing.
type Pagination struct {
	Count     int `json:"count"`
	Page      int `json:"page"`
	PageCount int `json:"page_count"`
	PageItems int `json:"page_items"`
	PageSize  int `json:"page_size"`
}

// NewPagination computes paging metadata; page_count is ceil(count/size).
func NewPagination(count, page, pageSize, pageItems int) Pagination {
	pageCount := 0
	if pageSize > 0 {
		pageCount = (count + pageSize - 1) / pageSize
	}
	return Pagination{
		Count:     count,
		Page:      page,
		PageCount: pageCount,
		PageItems: pageItems,
		PageSize:  pageSize,
	}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
