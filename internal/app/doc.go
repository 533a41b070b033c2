// Package app provides the application service layer.
//
// Orchestrates use cases: signup and login, meme listing and detail, meme
// creation with image compensation, ownership-gated edits, votes and comments
// through the engagement engine, and the meme of the day.
// Sits between HTTP handlers and domain repositories. Depends on domain interfaces, not concrete implementations.
package app
