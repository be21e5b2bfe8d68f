package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pairjournal/internal/assistant"
	"pairjournal/internal/config"
	"pairjournal/internal/gen"
	"pairjournal/internal/journal"
	"pairjournal/internal/store"
)

func TestMain(m *testing.M) {
	// The genai dependency chain pulls in opencensus, whose stats worker
	// starts in init() and never exits.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type fakeGenerator struct {
	lastPrompt string
	res        *gen.Result
	err        error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (*gen.Result, error) {
	f.lastPrompt = prompt
	return f.res, f.err
}

func newTestServer(t *testing.T, fg *fakeGenerator) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	as := assistant.New(st, fg, config.DefaultConfig().Retrieval, nil, nil)
	return New(":0", st, as, nil), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAsk_HappyPath(t *testing.T) {
	fg := &fakeGenerator{res: &gen.Result{Text: "You wrote about hiking.", FinishReason: "STOP"}}
	srv, st := newTestServer(t, fg)

	require.NoError(t, st.Save(context.Background(), &journal.Entry{
		Author: journal.AuthorShivam, Date: "2024-03-01", Text: "went hiking",
	}))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", map[string]any{
		"question": "What did I write on 2024-03-01?",
		"asker":    "shivam",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer  string `json:"answer"`
		Partial bool   `json:"partial"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "You wrote about hiking.", resp.Answer)
	assert.False(t, resp.Partial)
	assert.Contains(t, fg.lastPrompt, "went hiking")
}

func TestAsk_ValidatesInput(t *testing.T) {
	fg := &fakeGenerator{res: &gen.Result{Text: "x", FinishReason: "STOP"}}
	srv, _ := newTestServer(t, fg)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"MissingQuestion", map[string]any{"asker": "shivam"}},
		{"UnknownAsker", map[string]any{"question": "hi", "asker": "mallory"}},
		{"MissingAsker", map[string]any{"question": "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAsk_TruncatesTurnWindow(t *testing.T) {
	fg := &fakeGenerator{res: &gen.Result{Text: "ok", FinishReason: "STOP"}}
	srv, _ := newTestServer(t, fg)

	turns := make([]journal.Turn, 0, 10)
	for i := 0; i < 10; i++ {
		turns = append(turns, journal.Turn{Speaker: journal.SpeakerUser, Text: "turn"})
	}
	turns[0].Text = "dropped"
	turns[9].Text = "kept"

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", map[string]any{
		"question": "hello",
		"asker":    "shreya",
		"turns":    turns,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, fg.lastPrompt, "dropped")
	assert.Contains(t, fg.lastPrompt, "kept")
	assert.LessOrEqual(t, strings.Count(fg.lastPrompt, "Shreya: "), assistant.MaxTurns)
}

func TestAsk_BlockedMapsTo422(t *testing.T) {
	fg := &fakeGenerator{res: &gen.Result{BlockReason: "SAFETY"}}
	srv, _ := newTestServer(t, fg)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", map[string]any{
		"question": "hmm", "asker": "shivam",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "SAFETY")
}

func TestAsk_EmptyResultMapsTo502(t *testing.T) {
	fg := &fakeGenerator{res: &gen.Result{}}
	srv, _ := newTestServer(t, fg)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", map[string]any{
		"question": "hmm", "asker": "shivam",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestEntryCRUD(t *testing.T) {
	fg := &fakeGenerator{res: &gen.Result{Text: "x", FinishReason: "STOP"}}
	srv, _ := newTestServer(t, fg)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/entries", map[string]any{
		"author": "shreya", "date": "2024-03-01", "text": "baked bread",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created journal.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = doJSON(t, h, http.MethodGet, "/api/entries?author=shreya", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "baked bread", entries[0].Text)

	rec = doJSON(t, h, http.MethodDelete, "/api/entries/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/entries/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEntry_Validation(t *testing.T) {
	fg := &fakeGenerator{res: &gen.Result{Text: "x", FinishReason: "STOP"}}
	srv, _ := newTestServer(t, fg)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"UnknownAuthor", map[string]any{"author": "bob", "text": "hi"}},
		{"MissingText", map[string]any{"author": "shivam"}},
		{"BadDate", map[string]any{"author": "shivam", "text": "hi", "date": "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/entries", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
