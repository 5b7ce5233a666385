package library

import "storygenie/internal/domain/story"

// Store is the local collection of saved stories.
type Store interface {
	// Save appends rec. On failure the collection is left as it was.
	Save(rec story.Record) error
	// LoadAll returns every saved story, newest first.
	LoadAll() ([]story.Record, error)
	// ClearAll removes every saved story. Clearing an empty store is not an error.
	ClearAll() error
}

// Shelf is the persisted form: the records in save order.
type Shelf []story.Record

// NewestFirst returns a reversed copy of the shelf.
func (s Shelf) NewestFirst() []story.Record {
	out := make([]story.Record, len(s))
	for i, rec := range s {
		out[len(s)-1-i] = rec
	}
	return out
}

// Find returns the record with the given id.
func (s Shelf) Find(id string) (story.Record, bool) {
	for _, rec := range s {
		if rec.ID == id {
			return rec, true
		}
	}
	return story.Record{}, false
}
