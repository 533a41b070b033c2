package httpserver

import (
	"time"

	"github.com/pscheid92/memeboard/internal/domain"
)

type ownerResponse struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
}

type userResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

type memeResponse struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	ImageURL      string        `json:"imageUrl"`
	Description   string        `json:"description"`
	Tags          []string      `json:"tags"`
	Upvotes       int           `json:"upvotes"`
	Downvotes     int           `json:"downvotes"`
	CommentsCount int           `json:"commentsCount"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Owner         ownerResponse `json:"owner"`
}

type memeDetailResponse struct {
	memeResponse
	Comments []commentResponse `json:"comments"`
}

type commentResponse struct {
	ID        string        `json:"id"`
	MemeID    string        `json:"memeId"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Owner     ownerResponse `json:"owner"`
}

type paginationResponse struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type memePageResponse struct {
	Memes      []memeResponse     `json:"memes"`
	Pagination paginationResponse `json:"pagination"`
}

type voteResponse struct {
	Meme    memeResponse `json:"meme"`
	Message string       `json:"message"`
}

type commentCreatedResponse struct {
	Comment commentResponse `json:"comment"`
	Message string          `json:"message"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toOwnerResponse(o domain.Owner) ownerResponse {
	return ownerResponse{ID: o.ID.String(), UserName: o.Username}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID.String(), UserName: u.Username, CreatedAt: u.CreatedAt}
}

func toMemeResponse(m *domain.Meme) memeResponse {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return memeResponse{
		ID:            m.ID.String(),
		Title:         m.Title,
		ImageURL:      m.ImageURL,
		Description:   m.Description,
		Tags:          tags,
		Upvotes:       m.Upvotes,
		Downvotes:     m.Downvotes,
		CommentsCount: m.CommentsCount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Owner:         toOwnerResponse(m.Owner),
	}
}

func toMemeDetailResponse(d *domain.MemeDetail) memeDetailResponse {
	return memeDetailResponse{
		memeResponse: toMemeResponse(&d.Meme),
		Comments:     toCommentResponses(d.Comments),
	}
}

func toCommentResponse(c *domain.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID.String(),
		MemeID:    c.MemeID.String(),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Owner:     toOwnerResponse(c.Owner),
	}
}

func toCommentResponses(comments []domain.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, toCommentResponse(&comments[i]))
	}
	return out
}

func toMemePageResponse(p *domain.MemePage) memePageResponse {
	memes := make([]memeResponse, 0, len(p.Memes))
	for i := range p.Memes {
		memes = append(memes, toMemeResponse(&p.Memes[i]))
	}
	return memePageResponse{
		Memes: memes,
		Pagination: paginationResponse{
			Page:            p.Pagination.Page,
			Limit:           p.Pagination.Limit,
			TotalItems:      p.Pagination.TotalItems,
			TotalPages:      p.Pagination.TotalPages,
			HasNextPage:     p.Pagination.HasNextPage,
			HasPreviousPage: p.Pagination.HasPreviousPage,
		},
	}
}
