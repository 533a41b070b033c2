// Package domain defines the core types and the contracts between layers.
//
// Files are concept-oriented (meme.go, comment.go, vote.go, engagement.go, ...).
// No implementation code lives here, only types, interfaces and sentinel errors,
// so adapters and the app layer can depend on it without import cycles.
package domain
