package store

import "time"

// RetrievalConfig holds the tunables of the retrieval core.
type RetrievalConfig struct {
	MaxDocs             int
	SimilarityThreshold float64
	WebSearchMaxResults int
	SessionTTL          time.Duration
	MaxSessionMessages  int

	// ConfidenceThreshold is the hedging cut-off: decisions below it run both backends.
	ConfidenceThreshold float64

	ClassifierTimeout time.Duration
	BackendTimeout    time.Duration
	SessionTimeout    time.Duration
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MaxDocs:             5,
		SimilarityThreshold: 0.7,
		WebSearchMaxResults: 3,
		SessionTTL:          30 * time.Minute,
		MaxSessionMessages:  10,
		ConfidenceThreshold: 0.6,
		ClassifierTimeout:   20 * time.Second,
		BackendTimeout:      10 * time.Second,
		SessionTimeout:      2 * time.Second,
	}
}

// Normalize fills zero values with defaults.
func (c RetrievalConfig) Normalize() RetrievalConfig {
	d := DefaultRetrievalConfig()
	if c.MaxDocs <= 0 {
		c.MaxDocs = d.MaxDocs
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		c.SimilarityThreshold = d.SimilarityThreshold
	}
	if c.WebSearchMaxResults <= 0 {
		c.WebSearchMaxResults = d.WebSearchMaxResults
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.MaxSessionMessages <= 0 {
		c.MaxSessionMessages = d.MaxSessionMessages
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if c.ClassifierTimeout <= 0 {
		c.ClassifierTimeout = d.ClassifierTimeout
	}
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = d.BackendTimeout
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = d.SessionTimeout
	}
	return c
}
