package domain

type SortField string

const (
	SortCreatedAt     SortField = "createdAt"
	SortUpvotes       SortField = "upvotes"
	SortDownvotes     SortField = "downvotes"
	SortCommentsCount SortField = "commentsCount"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type TagMatch string

const (
	// MatchAny keeps memes sharing at least one tag with the filter.
	MatchAny TagMatch = "any"
	// MatchAll keeps memes carrying every tag of the filter.
	MatchAll TagMatch = "all"
)

// MemeQuery is a normalized list request. Build it with app.NormalizeMemeQuery.
type MemeQuery struct {
	Page      int
	Limit     int
	Title     string
	Tags      []string
	Match     TagMatch
	SortBy    SortField
	Direction SortDirection
}

func (q MemeQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Page            int
	Limit           int
	TotalItems      int
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
}

type MemePage struct {
	Memes      []Meme
	Pagination Pagination
}
