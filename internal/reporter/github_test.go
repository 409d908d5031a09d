package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertCommentCreatesWhenNoneExists(t *testing.T) {
	var created string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/web/issues/42/comments":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			fmt.Fprint(w, `[{"id": 1, "body": "unrelated comment"}]`)
		case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/web/issues/42/comments":
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			created = payload["body"]
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id": 2}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewGitHubClient("tok", "acme/web")
	c.BaseURL = srv.URL

	body := CommentMarker + "\nreport body"
	require.NoError(t, c.UpsertComment(context.Background(), 42, body))
	assert.Equal(t, body, created)
}

func TestUpsertCommentUpdatesMarkedComment(t *testing.T) {
	var patched string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/web/issues/42/comments":
			fmt.Fprintf(w, `[{"id": 7, "body": "other"}, {"id": 9, "body": "%s old report"}]`, CommentMarker)
		case r.Method == http.MethodPatch && r.URL.Path == "/repos/acme/web/issues/comments/9":
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			patched = payload["body"]
			fmt.Fprint(w, `{"id": 9}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewGitHubClient("tok", "acme/web")
	c.BaseURL = srv.URL

	require.NoError(t, c.UpsertComment(context.Background(), 42, CommentMarker+"\nnew report"))
	assert.Contains(t, patched, "new report")
}

func TestUpsertCommentListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewGitHubClient("tok", "acme/web")
	c.BaseURL = srv.URL

	err := c.UpsertComment(context.Background(), 42, "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
