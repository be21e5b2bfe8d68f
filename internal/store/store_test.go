package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairjournal/internal/journal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustSave(t *testing.T, s *Store, author journal.Author, date, text string) *journal.Entry {
	t.Helper()
	e := &journal.Entry{Author: author, Date: date, Text: text}
	require.NoError(t, s.Save(context.Background(), e))
	return e
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	e := mustSave(t, s, journal.AuthorShivam, "2024-03-01", "went hiking")
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestSaveRejectsBadDate(t *testing.T) {
	s := newTestStore(t)
	err := s.Save(context.Background(), &journal.Entry{
		Author: journal.AuthorShivam, Date: "March 1st", Text: "x",
	})
	require.Error(t, err)
}

func TestListByAuthor_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.AuthorShivam, "2024-03-01", "first")
	mustSave(t, s, journal.AuthorShivam, "2024-03-03", "third")
	mustSave(t, s, journal.AuthorShivam, "2024-03-02", "second")
	mustSave(t, s, journal.AuthorShreya, "2024-03-04", "hers")

	entries, err := s.ListByAuthor(context.Background(), journal.AuthorShivam, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Text)
	assert.Equal(t, "second", entries[1].Text)
	assert.Equal(t, "first", entries[2].Text)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	e := mustSave(t, s, journal.AuthorShreya, "2024-03-01", "bye")

	require.NoError(t, s.Delete(context.Background(), e.ID))
	err := s.Delete(context.Background(), e.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestSearch_DateEquals(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.AuthorShivam, "2024-03-01", "on the day")
	mustSave(t, s, journal.AuthorShivam, "2024-03-01", "also on the day")
	mustSave(t, s, journal.AuthorShivam, "2024-03-02", "day after")
	mustSave(t, s, journal.AuthorShreya, "2024-03-01", "her day")

	hits, err := s.Search(context.Background(), Query{
		Authors:    []journal.Author{journal.AuthorShivam},
		DateEquals: "2024-03-01",
		Limit:      15,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "2024-03-01", h.Entry.Date)
		assert.Equal(t, journal.AuthorShivam, h.Entry.Author)
	}
}

func TestSearch_DateRangeBothAuthors(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.AuthorShivam, "2024-03-01", "in range")
	mustSave(t, s, journal.AuthorShreya, "2024-03-05", "also in range")
	mustSave(t, s, journal.AuthorShivam, "2024-02-20", "too old")

	hits, err := s.Search(context.Background(), Query{
		Authors:  journal.Authors(),
		DateFrom: "2024-03-01",
		DateTo:   "2024-03-07",
		Limit:    15,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// Newest date first.
	assert.Equal(t, "2024-03-05", hits[0].Entry.Date)
	assert.Equal(t, "2024-03-01", hits[1].Entry.Date)
}

func TestSearch_KeywordsMatchAndProjectScore(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.AuthorShivam, "2024-03-01", "went hiking on the ridge trail")
	mustSave(t, s, journal.AuthorShivam, "2024-03-02", "quiet day reading at home")
	mustSave(t, s, journal.AuthorShreya, "2024-03-03", "planned the hiking trip, bought hiking boots")

	hits, err := s.Search(context.Background(), Query{
		Authors:  journal.Authors(),
		Keywords: []string{"hiking"},
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Contains(t, h.Entry.Text, "hiking")
		assert.NotZero(t, h.Score)
	}
}

func TestSearch_KeywordsRespectAuthorFilter(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.AuthorShivam, "2024-03-01", "thinking about the wedding")
	mustSave(t, s, journal.AuthorShreya, "2024-03-02", "wedding venue booked")

	hits, err := s.Search(context.Background(), Query{
		Authors:  []journal.Author{journal.AuthorShreya},
		Keywords: []string{"wedding"},
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, journal.AuthorShreya, hits[0].Entry.Author)
}

func TestSearch_QuotesHostileKeywords(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.AuthorShivam, "2024-03-01", "nothing special")

	// FTS5 operators inside tokens must not break the query.
	_, err := s.Search(context.Background(), Query{
		Authors:  []journal.Author{journal.AuthorShivam},
		Keywords: []string{`near"`, "AND", "trail*"},
		Limit:    10,
	})
	require.NoError(t, err)
}

func TestSchemaErrorNamesRequiredBuildTag(t *testing.T) {
	err := schemaError(errors.New("no such module: fts5"))
	require.ErrorContains(t, err, "sqlite_fts5")

	err = schemaError(errors.New("table entries already exists"))
	require.NotContains(t, err.Error(), "sqlite_fts5")
	require.Contains(t, err.Error(), "schema statement failed")
}

func TestSearch_RequiresAuthors(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Search(context.Background(), Query{Limit: 5})
	require.Error(t, err)
}

func TestSearch_Limit(t *testing.T) {
	s := newTestStore(t)
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		mustSave(t, s, journal.AuthorShivam, d, "entry for "+d)
	}
	hits, err := s.Search(context.Background(), Query{
		Authors: []journal.Author{journal.AuthorShivam},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2024-03-03", hits[0].Entry.Date)
}
