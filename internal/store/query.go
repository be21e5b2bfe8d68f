package store

import (
	"context"
	"fmt"
	"strings"

	"pairjournal/internal/journal"
)

// Query describes one retrieval against the entry store. Authors is always
// required. At most one of DateEquals / DateFrom+DateTo / Keywords is set;
// Keywords switches the query into FTS relevance mode.
type Query struct {
	Authors    []journal.Author
	DateEquals string
	DateFrom   string
	DateTo     string
	Keywords   []string
	Limit      int
}

// Hit is one matched entry. Score is populated only for keyword queries;
// higher means more relevant.
type Hit struct {
	Entry journal.Entry
	Score float64
}

// Search executes the query. Date-filtered and unfiltered queries order by
// date then creation time, newest first. Keyword queries order by relevance
// with date as the tie-break.
func (s *Store) Search(ctx context.Context, q Query) ([]Hit, error) {
	if len(q.Authors) == 0 {
		return nil, fmt.Errorf("query requires at least one author")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if len(q.Keywords) > 0 {
		return s.searchKeywords(ctx, q)
	}
	return s.searchByDate(ctx, q)
}

func (s *Store) searchByDate(ctx context.Context, q Query) ([]Hit, error) {
	var sb strings.Builder
	args := make([]any, 0, len(q.Authors)+3)

	sb.WriteString(`SELECT id, author, date, text, created_at FROM entries WHERE author IN (`)
	writeAuthorPlaceholders(&sb, &args, q.Authors)
	sb.WriteString(`)`)

	switch {
	case q.DateEquals != "":
		sb.WriteString(` AND date = ?`)
		args = append(args, q.DateEquals)
	case q.DateFrom != "" && q.DateTo != "":
		sb.WriteString(` AND date >= ? AND date <= ?`)
		args = append(args, q.DateFrom, q.DateTo)
	}

	sb.WriteString(` ORDER BY date DESC, created_at DESC LIMIT ?`)
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("date query failed: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, Hit{Entry: e})
	}
	return hits, nil
}

func (s *Store) searchKeywords(ctx context.Context, q Query) ([]Hit, error) {
	var sb strings.Builder
	args := make([]any, 0, len(q.Authors)+2)

	// bm25 ranks lower-is-better; negate so callers see higher-is-better.
	sb.WriteString(`SELECT e.id, e.author, e.date, e.text, e.created_at, -bm25(entries_fts) AS score
		FROM entries_fts f
		JOIN entries e ON e.rowid = f.rowid
		WHERE entries_fts MATCH ? AND e.author IN (`)
	args = append(args, ftsMatchExpr(q.Keywords))
	writeAuthorPlaceholders(&sb, &args, q.Authors)
	sb.WriteString(`) ORDER BY score DESC, e.date DESC LIMIT ?`)
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("keyword query failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var author string
		if err := rows.Scan(&h.Entry.ID, &author, &h.Entry.Date, &h.Entry.Text, &h.Entry.CreatedAt, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		h.Entry.Author = journal.Author(author)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return hits, nil
}

func writeAuthorPlaceholders(sb *strings.Builder, args *[]any, authors []journal.Author) {
	for i, a := range authors {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		*args = append(*args, string(a))
	}
}

// ftsMatchExpr builds an OR query of quoted keywords so user tokens are
// matched as terms rather than FTS5 syntax.
func ftsMatchExpr(keywords []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ReplaceAll(kw, `"`, "")
		if kw == "" {
			continue
		}
		quoted = append(quoted, `"`+kw+`"`)
	}
	return strings.Join(quoted, " OR ")
}
