package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch
// is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexFAQ indexes a FAQ entry (fire-and-forget to Meilisearch).
func (s *Service) IndexFAQ(f FAQRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexFAQ(f); err != nil {
			log.Printf("search: index faq %s: %v", f.ID, err)
		}
	}()
}

// IndexStory indexes a love story segment (fire-and-forget to Meilisearch).
func (s *Service) IndexStory(rec StoryRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexStory(rec); err != nil {
			log.Printf("search: index story %s: %v", rec.ID, err)
		}
	}()
}

// IndexRSVP indexes an RSVP (fire-and-forget to Meilisearch).
func (s *Service) IndexRSVP(rec RSVPRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexRSVP(rec); err != nil {
			log.Printf("search: index rsvp %s: %v", rec.ID, err)
		}
	}()
}

// DeleteFAQ removes a FAQ entry from the search index (fire-and-forget).
func (s *Service) DeleteFAQ(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteFAQ(id); err != nil {
			log.Printf("search: delete faq %s: %v", id, err)
		}
	}()
}

// DeleteStory removes a love story segment from the search index
// (fire-and-forget).
func (s *Service) DeleteStory(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteStory(id); err != nil {
			log.Printf("search: delete story %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes the given records to Meilisearch.
func (s *Service) ReindexAll(faqs []FAQRecord, stories []StoryRecord, rsvps []RSVPRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if len(faqs) > 0 {
		if err := s.meili.IndexFAQs(faqs); err != nil {
			log.Printf("search: reindex faqs: %v", err)
		}
	}
	if len(stories) > 0 {
		if err := s.meili.IndexStories(stories); err != nil {
			log.Printf("search: reindex stories: %v", err)
		}
	}
	if len(rsvps) > 0 {
		if err := s.meili.IndexRSVPs(rsvps); err != nil {
			log.Printf("search: reindex rsvps: %v", err)
		}
	}
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL
// into Meilisearch. Called at startup if Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	faqs, stories, rsvps, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(faqs, stories, rsvps)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
