package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrMemeNotFound    = errors.New("meme not found")
	ErrImageTaken      = errors.New("image url already in use")
	ErrCommentNotFound = errors.New("comment not found")
	ErrVoteNotFound    = errors.New("vote not found")
	ErrVoteConflict    = errors.New("concurrent vote on the same meme")

	ErrNoMemesAvailable     = errors.New("no memes available")
	ErrMemeOfTheDayNotFound = errors.New("meme of the day not found")
	ErrMemeOfTheDayExists   = errors.New("meme of the day already chosen")
)
