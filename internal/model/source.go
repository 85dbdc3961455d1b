package model

import "time"

// SourceItem is one headline discovered by the collector. Key is the canonical
// link and is what the ledger deduplicates on.
type SourceItem struct {
	Key         string     `json:"link"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Origin      string     `json:"source_name"`
	PublishedAt *time.Time `json:"published,omitempty"`
}

// SelectedSource is a SourceItem the editor chose for coverage.
type SelectedSource struct {
	Item   SourceItem
	Reason string
}
