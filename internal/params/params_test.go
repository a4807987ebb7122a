package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantPage   int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 15, wantPage: 1, wantOffset: 0},
		{name: "explicit values", query: "limit=20&page=3", wantLimit: 20, wantPage: 3, wantOffset: 40},
		{name: "limit capped", query: "limit=500", wantLimit: 30, wantPage: 1, wantOffset: 0},
		{name: "zero limit falls back", query: "limit=0", wantLimit: 15, wantPage: 1, wantOffset: 0},
		{name: "negative limit falls back", query: "limit=-5", wantLimit: 15, wantPage: 1, wantOffset: 0},
		{name: "non-numeric limit ignored", query: "limit=abc&page=2", wantLimit: 15, wantPage: 2, wantOffset: 15},
		{name: "zero page falls back", query: "page=0", wantLimit: 15, wantPage: 1, wantOffset: 0},
		{name: "negative page falls back", query: "page=-1", wantLimit: 15, wantPage: 1, wantOffset: 0},
		{name: "whitespace trimmed", query: "limit=+10+&page=+2+", wantLimit: 10, wantPage: 2, wantOffset: 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			assert.NoError(t, err)

			p := ParsePagination(q)

			assert.Equal(t, tc.wantLimit, p.Limit)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantOffset, p.Offset)
		})
	}
}

func TestComputeMeta(t *testing.T) {
	tests := []struct {
		name           string
		page           int
		limit          int
		total          int
		wantTotalPages int
		wantHasNext    bool
		wantHasPrev    bool
	}{
		{name: "first of many", page: 1, limit: 15, total: 31, wantTotalPages: 3, wantHasNext: true, wantHasPrev: false},
		{name: "middle page", page: 2, limit: 15, total: 31, wantTotalPages: 3, wantHasNext: true, wantHasPrev: true},
		{name: "last page", page: 3, limit: 15, total: 31, wantTotalPages: 3, wantHasNext: false, wantHasPrev: true},
		{name: "empty table", page: 1, limit: 15, total: 0, wantTotalPages: 0, wantHasNext: false, wantHasPrev: false},
		{name: "exact fit", page: 2, limit: 10, total: 20, wantTotalPages: 2, wantHasNext: false, wantHasPrev: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Pagination{Page: tc.page, Limit: tc.limit, Offset: (tc.page - 1) * tc.limit}
			p.ComputeMeta(tc.total)

			assert.Equal(t, tc.total, p.Total)
			assert.Equal(t, tc.wantTotalPages, p.TotalPages)
			assert.Equal(t, tc.wantHasNext, p.HasNext)
			assert.Equal(t, tc.wantHasPrev, p.HasPrev)
		})
	}
}
