package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxFAQs    = "wedloft_faqs"
	idxStories = "wedloft_story"
	idxRSVPs   = "wedloft_rsvps"
)

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes.
// If the initial connection fails the store starts unhealthy and the
// background monitor keeps retrying; callers fall back to Postgres.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		primaryKey string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxFAQs,
			primaryKey: "id",
			filterable: []string{"weddingConfigId"},
			searchable: []string{"question", "answer"},
		},
		{
			uid:        idxStories,
			primaryKey: "id",
			filterable: []string{"weddingConfigId"},
			searchable: []string{"title", "body"},
		},
		{
			uid:        idxRSVPs,
			primaryKey: "id",
			filterable: []string{"weddingConfigId", "attending"},
			searchable: []string{"guestName", "message"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: idx.primaryKey,
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries all three indexes (or a filtered subset) and merges
// results. Every sub-query is scoped to the wedding config.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxFAQs, ResultFAQ},
		{idxStories, ResultStory},
		{idxRSVPs, ResultRSVP},
	}

	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		sr := &meili.SearchRequest{
			IndexUID:              ti.uid,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
			ShowRankingScore:      true,
			Filter:                []string{fmt.Sprintf("weddingConfigId = %q", q.WeddingConfigID)},
		}
		queries = append(queries, sr)
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}

	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxFAQs:
		return ResultFAQ
	case idxStories:
		return ResultStory
	case idxRSVPs:
		return ResultRSVP
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp}
	r.ID = decodeString(hit, "id")
	r.WeddingConfigID = decodeString(hit, "weddingConfigId")

	switch rtyp {
	case ResultFAQ:
		r.Title = firstNonBlank(decodeFormattedString(hit, "question"), decodeString(hit, "question"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "answer"), decodeString(hit, "answer"))
	case ResultStory:
		r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "body"), decodeString(hit, "body"))
	case ResultRSVP:
		r.Title = firstNonBlank(decodeFormattedString(hit, "guestName"), decodeString(hit, "guestName"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "message"), decodeString(hit, "message"))
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexFAQ adds or updates a FAQ entry in the search index.
func (m *Meili) IndexFAQ(f FAQRecord) error {
	_, err := m.client.Index(idxFAQs).AddDocuments([]FAQRecord{f}, nil)
	return err
}

// IndexStory adds or updates a love story segment in the search index.
func (m *Meili) IndexStory(s StoryRecord) error {
	_, err := m.client.Index(idxStories).AddDocuments([]StoryRecord{s}, nil)
	return err
}

// IndexRSVP adds or updates an RSVP in the search index.
func (m *Meili) IndexRSVP(r RSVPRecord) error {
	_, err := m.client.Index(idxRSVPs).AddDocuments([]RSVPRecord{r}, nil)
	return err
}

// DeleteFAQ removes a FAQ entry from the search index.
func (m *Meili) DeleteFAQ(id string) error {
	_, err := m.client.Index(idxFAQs).DeleteDocument(id, nil)
	return err
}

// DeleteStory removes a love story segment from the search index.
func (m *Meili) DeleteStory(id string) error {
	_, err := m.client.Index(idxStories).DeleteDocument(id, nil)
	return err
}

// IndexFAQs bulk-indexes FAQ entries.
func (m *Meili) IndexFAQs(faqs []FAQRecord) error {
	if len(faqs) == 0 {
		return nil
	}
	_, err := m.client.Index(idxFAQs).AddDocuments(faqs, nil)
	return err
}

// IndexStories bulk-indexes love story segments.
func (m *Meili) IndexStories(stories []StoryRecord) error {
	if len(stories) == 0 {
		return nil
	}
	_, err := m.client.Index(idxStories).AddDocuments(stories, nil)
	return err
}

// IndexRSVPs bulk-indexes RSVPs.
func (m *Meili) IndexRSVPs(rsvps []RSVPRecord) error {
	if len(rsvps) == 0 {
		return nil
	}
	_, err := m.client.Index(idxRSVPs).AddDocuments(rsvps, nil)
	return err
}
