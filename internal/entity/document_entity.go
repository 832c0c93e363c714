package entity

import "time"

// Document is one stored chunk of the private corpus.
type Document struct {
	Id        int64
	Content   string
	Source    string
	Metadata  map[string]interface{}
	Embedding []float32
	CreatedAt time.Time
}
