package app

import (
	"math"
	"strconv"
	"strings"

	"github.com/pscheid92/memeboard/internal/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 50

	// maxOffset bounds (page-1)*limit so it stays a valid SQL OFFSET.
	maxOffset = math.MaxInt32
)

// MemeListParams are the raw list parameters as received from a client.
type MemeListParams struct {
	Page          string
	Limit         string
	Title         string
	Tags          []string
	Match         string
	SortedBy      string
	SortDirection string
}

var sortAliases = map[string]domain.SortField{
	"createdat":       domain.SortCreatedAt,
	"upvotes":         domain.SortUpvotes,
	"upvotesnumber":   domain.SortUpvotes,
	"downvotes":       domain.SortDownvotes,
	"downvotesnumber": domain.SortDownvotes,
	"commentscount":   domain.SortCommentsCount,
	"commentsnumber":  domain.SortCommentsCount,
}

// NormalizeMemeQuery clamps and defaults every parameter. It never fails:
// anything unusable falls back to its default.
func NormalizeMemeQuery(p MemeListParams) domain.MemeQuery {
	q := domain.MemeQuery{
		Page:      parseIntDefault(p.Page, defaultPage),
		Limit:     parseIntDefault(p.Limit, defaultLimit),
		Title:     strings.TrimSpace(p.Title),
		Tags:      NormalizeTags(p.Tags...),
		Match:     domain.MatchAny,
		SortBy:    domain.SortCreatedAt,
		Direction: domain.SortDesc,
	}

	q.Limit = min(max(q.Limit, 1), maxLimit)
	q.Page = min(max(q.Page, 1), maxOffset/q.Limit)

	if strings.EqualFold(strings.TrimSpace(p.Match), string(domain.MatchAll)) {
		q.Match = domain.MatchAll
	}
	if field, ok := sortAliases[strings.ToLower(strings.TrimSpace(p.SortedBy))]; ok {
		q.SortBy = field
	}
	if strings.EqualFold(strings.TrimSpace(p.SortDirection), string(domain.SortAsc)) {
		q.Direction = domain.SortAsc
	}
	return q
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// NormalizeTags splits every value on commas, lowercases, trims and drops
// empties and duplicates. Order of first appearance is kept.
func NormalizeTags(values ...string) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			tag := strings.ToLower(strings.TrimSpace(part))
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// Paginate derives page metadata for total matching items.
func Paginate(q domain.MemeQuery, total int) domain.Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	return domain.Pagination{
		Page:            q.Page,
		Limit:           q.Limit,
		TotalItems:      total,
		TotalPages:      totalPages,
		HasNextPage:     q.Page < totalPages,
		HasPreviousPage: q.Page > 1,
	}
}
