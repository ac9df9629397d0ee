package model

import (
	"io"
	"time"
)

// MediaCollectionImages is the collection holding product images.
const MediaCollectionImages = "images"

// Media is a stored file attached to a product.
type Media struct {
	ID         int64
	ProductID  int64
	Collection string
	FileName   string
	MimeType   string
	Size       int64
	Path       string // Location relative to the media root
	URL        string
	CreatedAt  time.Time
}

// Upload is a file received from a client, not yet stored.
type Upload struct {
	FileName string
	Size     int64 // As declared by the client; may be zero when unknown
	Content  io.Reader
}
