package app

import (
	"math"
	"testing"

	"github.com/pscheid92/memeboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeMemeQuery_Defaults(t *testing.T) {
	q := NormalizeMemeQuery(MemeListParams{})

	assert.Equal(t, domain.MemeQuery{
		Page:      1,
		Limit:     10,
		Tags:      []string{},
		Match:     domain.MatchAny,
		SortBy:    domain.SortCreatedAt,
		Direction: domain.SortDesc,
	}, q)
}

func TestNormalizeMemeQuery_Clamps(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"zero page", "0", "10", 1, 10},
		{"negative page", "-3", "10", 1, 10},
		{"garbage page", "abc", "10", 1, 10},
		{"limit above max", "2", "500", 2, 50},
		{"limit zero", "1", "0", 1, 1},
		{"limit garbage", "1", "ten", 1, 10},
		{"padded", " 4 ", " 25 ", 4, 25},
		{"huge page", "1844674407370955162", "10", math.MaxInt32 / 10, 10},
		{"huge page max limit", "9223372036854775807", "50", math.MaxInt32 / 50, 50},
		{"page beyond int range", "99999999999999999999999", "10", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NormalizeMemeQuery(MemeListParams{Page: tt.page, Limit: tt.limit})
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantLimit, q.Limit)
			assert.GreaterOrEqual(t, q.Offset(), 0)
		})
	}
}

func TestNormalizeMemeQuery_SortAndMatch(t *testing.T) {
	tests := []struct {
		sortedBy string
		want     domain.SortField
	}{
		{"upvotes", domain.SortUpvotes},
		{"upvotesNumber", domain.SortUpvotes},
		{"DOWNVOTES", domain.SortDownvotes},
		{"commentsNumber", domain.SortCommentsCount},
		{"commentsCount", domain.SortCommentsCount},
		{"createdAt", domain.SortCreatedAt},
		{"title; DROP TABLE memes", domain.SortCreatedAt},
	}
	for _, tt := range tests {
		t.Run(tt.sortedBy, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMemeQuery(MemeListParams{SortedBy: tt.sortedBy}).SortBy)
		})
	}

	q := NormalizeMemeQuery(MemeListParams{Match: "ALL", SortDirection: "Asc"})
	assert.Equal(t, domain.MatchAll, q.Match)
	assert.Equal(t, domain.SortAsc, q.Direction)

	q = NormalizeMemeQuery(MemeListParams{Match: "most", SortDirection: "sideways"})
	assert.Equal(t, domain.MatchAny, q.Match)
	assert.Equal(t, domain.SortDesc, q.Direction)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"cats", "dogs", "funny"}, NormalizeTags("Cats, dogs", " FUNNY ,cats", ",,"))
	assert.Equal(t, []string{}, NormalizeTags())
	assert.Equal(t, []string{}, NormalizeTags(" ", ","))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		limit int
		total int
		want  domain.Pagination
	}{
		{"empty", 1, 10, 0, domain.Pagination{Page: 1, Limit: 10}},
		{"single page", 1, 10, 7, domain.Pagination{Page: 1, Limit: 10, TotalItems: 7, TotalPages: 1}},
		{"exact fit", 1, 5, 10, domain.Pagination{Page: 1, Limit: 5, TotalItems: 10, TotalPages: 2, HasNextPage: true}},
		{"last page", 2, 5, 10, domain.Pagination{Page: 2, Limit: 5, TotalItems: 10, TotalPages: 2, HasPreviousPage: true}},
		{"middle", 2, 3, 10, domain.Pagination{Page: 2, Limit: 3, TotalItems: 10, TotalPages: 4, HasNextPage: true, HasPreviousPage: true}},
		{"past the end", 9, 5, 10, domain.Pagination{Page: 9, Limit: 5, TotalItems: 10, TotalPages: 2, HasPreviousPage: true}},
		{"huge page", 1844674407370955162, 10, 10, domain.Pagination{Page: 1844674407370955162, Limit: 10, TotalItems: 10, TotalPages: 1, HasPreviousPage: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(domain.MemeQuery{Page: tt.page, Limit: tt.limit}, tt.total)
			assert.Equal(t, tt.want, got)
		})
	}
}
