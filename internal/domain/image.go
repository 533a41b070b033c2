package domain

import (
	"context"
	"io"
)

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists uploaded images and hands back the public URL.
type ImageStore interface {
	Save(ctx context.Context, u Upload) (string, error)
	Delete(ctx context.Context, url string) error
}
