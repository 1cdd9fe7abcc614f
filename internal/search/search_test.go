package search

import (
	"encoding/json"
	"testing"

	meili "github.com/meilisearch/meilisearch-go"
)

func rawHit(fields map[string]any) meili.Hit {
	hit := meili.Hit{}
	for k, v := range fields {
		data, _ := json.Marshal(v)
		hit[k] = json.RawMessage(data)
	}
	return hit
}

func TestHitToResultFAQ(t *testing.T) {
	hit := rawHit(map[string]any{
		"id":              "faq-1",
		"question":        "Is there parking?",
		"answer":          "Yes, next to the venue.",
		"weddingConfigId": "wed-1",
	})

	r := hitToResult(hit, ResultFAQ)
	if r.ID != "faq-1" || r.WeddingConfigID != "wed-1" {
		t.Fatalf("unexpected identifiers %+v", r)
	}
	if r.Title != "Is there parking?" || r.Snippet != "Yes, next to the venue." {
		t.Errorf("unexpected title/snippet %+v", r)
	}
}

func TestHitToResultPrefersHighlighted(t *testing.T) {
	hit := rawHit(map[string]any{
		"id":        "story-1",
		"title":     "How we met",
		"body":      "It was raining.",
		"_formatted": map[string]string{"title": "How we <mark>met</mark>", "body": ""},
	})

	r := hitToResult(hit, ResultStory)
	if r.Title != "How we <mark>met</mark>" {
		t.Errorf("expected formatted title, got %q", r.Title)
	}
	if r.Snippet != "It was raining." {
		t.Errorf("expected fallback to plain body, got %q", r.Snippet)
	}
}

func TestIndexToResultType(t *testing.T) {
	cases := map[string]ResultType{
		idxFAQs:    ResultFAQ,
		idxStories: ResultStory,
		idxRSVPs:   ResultRSVP,
		"other":    "",
	}
	for uid, want := range cases {
		if got := indexToResultType(uid); got != want {
			t.Errorf("indexToResultType(%s) = %q, want %q", uid, got, want)
		}
	}
}

func TestServiceFallsBackWithEmptyQuery(t *testing.T) {
	// No Meilisearch and a blank query: PG FTS short-circuits before
	// touching the database, so a nil DB handle is safe here.
	svc := NewService(nil, NewPgFTS(nil))
	resp := svc.Search(Query{Text: "   ", WeddingConfigID: "wed-1"})
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("expected empty response, got %+v", resp)
	}
	if resp.Results == nil {
		t.Error("expected non-nil results slice for JSON encoding")
	}
}
