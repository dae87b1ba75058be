// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows shown in paged lists.
// Keep this as an int because most call sites add/subtract and then
// cast to int64 for Mongo Find().SetLimit().
const PageSize = 50

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset converts a 1-based start into a Mongo skip value.
func Offset(start int) int64 {
	if start < 1 {
		return 0
	}
	return int64(start - 1)
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int   `json:"start"` // 1-based start index (0 if no results)
	End       int   `json:"end"`   // 1-based end index (0 if no results)
	Total     int64 `json:"total"`
	PrevStart int   `json:"prev_start,omitempty"` // start value for the previous page, 0 when none
	NextStart int   `json:"next_start,omitempty"` // start value for the next page, 0 when none
}

// ComputeRange calculates display range values given the current start
// index, the number of items shown and the total number of matches.
func ComputeRange(start, shown int, total int64) Range {
	return computeRangeWithSize(start, shown, total, PageSize)
}

func computeRangeWithSize(start, shown int, total int64, pageSize int) Range {
	if shown == 0 {
		return Range{Total: total}
	}
	r := Range{
		Start: start,
		End:   start + shown - 1,
		Total: total,
	}
	if start > 1 {
		r.PrevStart = start - pageSize
		if r.PrevStart < 1 {
			r.PrevStart = 1
		}
	}
	if int64(r.End) < total {
		r.NextStart = r.End + 1
	}
	return r
}
