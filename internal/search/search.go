// Package search provides full-text search over a wedding's content
// for the dashboard: FAQ entries, love story segments, and RSVPs.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultFAQ   ResultType = "faq"
	ResultStory ResultType = "story"
	ResultRSVP  ResultType = "rsvp"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type            ResultType `json:"type"`
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Snippet         string     `json:"snippet"`
	WeddingConfigID string     `json:"weddingConfigId"`
}

// Query describes a search request. WeddingConfigID is always set by
// the caller; results never cross tenants.
type Query struct {
	Text            string
	WeddingConfigID string
	FilterType      ResultType // empty = all types
	Limit           int
	Offset          int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexFAQ(f FAQRecord) error
	IndexStory(s StoryRecord) error
	IndexRSVP(r RSVPRecord) error
	DeleteFAQ(id string) error
	DeleteStory(id string) error
}

// FAQRecord is the data we index for a FAQ entry.
type FAQRecord struct {
	ID              string `json:"id"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	WeddingConfigID string `json:"weddingConfigId"`
}

// StoryRecord is the data we index for a love story segment.
type StoryRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	OccurredOn      string `json:"occurredOn"`
	WeddingConfigID string `json:"weddingConfigId"`
}

// RSVPRecord is the data we index for a guest RSVP.
type RSVPRecord struct {
	ID              string `json:"id"`
	GuestName       string `json:"guestName"`
	Message         string `json:"message"`
	Attending       bool   `json:"attending"`
	WeddingConfigID string `json:"weddingConfigId"`
}
