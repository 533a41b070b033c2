package domain

type ResourceKind string

const (
	ResourceMeme    ResourceKind = "meme"
	ResourceComment ResourceKind = "comment"
)
