package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a
// fallback. Vectors are computed inline; the content tables are small
// enough per wedding that this never needs a stored tsvector column.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across faq_items, love_story_segments
// and rsvps using plainto_tsquery and ts_rank, with ts_headline for
// snippets. All sub-queries are scoped to the wedding config.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text, q.WeddingConfigID}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultFAQ {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'faq'::text AS type, f.id, f.question AS title,
				ts_headline('english', coalesce(f.answer, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				f.wedding_config_id,
				ts_rank(to_tsvector('english', f.question || ' ' || coalesce(f.answer, '')), %s) AS rank
			FROM faq_items f
			WHERE f.wedding_config_id = $2
			  AND to_tsvector('english', f.question || ' ' || coalesce(f.answer, '')) @@ %s`,
			tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultStory {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'story'::text AS type, s.id, s.title,
				ts_headline('english', coalesce(s.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				s.wedding_config_id,
				ts_rank(to_tsvector('english', s.title || ' ' || coalesce(s.body, '')), %s) AS rank
			FROM love_story_segments s
			WHERE s.wedding_config_id = $2
			  AND to_tsvector('english', s.title || ' ' || coalesce(s.body, '')) @@ %s`,
			tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultRSVP {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'rsvp'::text AS type, r.id, r.guest_name AS title,
				ts_headline('english', coalesce(r.message, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				r.wedding_config_id,
				ts_rank(to_tsvector('english', r.guest_name || ' ' || coalesce(r.message, '')), %s) AS rank
			FROM rsvps r
			WHERE r.wedding_config_id = $2
			  AND to_tsvector('english', r.guest_name || ' ' || coalesce(r.message, '')) @@ %s`,
			tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, wedding_config_id
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.WeddingConfigID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]FAQRecord, []StoryRecord, []RSVPRecord, error) {
	faqRows, err := p.db.QueryContext(ctx, `
		SELECT id, question, answer, wedding_config_id
		FROM faq_items
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load faqs: %w", err)
	}
	defer faqRows.Close()

	faqs := make([]FAQRecord, 0)
	for faqRows.Next() {
		var f FAQRecord
		if err := faqRows.Scan(&f.ID, &f.Question, &f.Answer, &f.WeddingConfigID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan faq: %w", err)
		}
		faqs = append(faqs, f)
	}
	if err := faqRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate faqs: %w", err)
	}

	storyRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, body, coalesce(occurred_on, ''), wedding_config_id
		FROM love_story_segments
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load stories: %w", err)
	}
	defer storyRows.Close()

	stories := make([]StoryRecord, 0)
	for storyRows.Next() {
		var s StoryRecord
		if err := storyRows.Scan(&s.ID, &s.Title, &s.Body, &s.OccurredOn, &s.WeddingConfigID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	if err := storyRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate stories: %w", err)
	}

	rsvpRows, err := p.db.QueryContext(ctx, `
		SELECT id, guest_name, coalesce(message, ''), attending, wedding_config_id
		FROM rsvps
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load rsvps: %w", err)
	}
	defer rsvpRows.Close()

	rsvps := make([]RSVPRecord, 0)
	for rsvpRows.Next() {
		var r RSVPRecord
		if err := rsvpRows.Scan(&r.ID, &r.GuestName, &r.Message, &r.Attending, &r.WeddingConfigID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan rsvp: %w", err)
		}
		rsvps = append(rsvps, r)
	}
	if err := rsvpRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate rsvps: %w", err)
	}

	return faqs, stories, rsvps, nil
}
