package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
)

func TestIndexBatchRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/elements/batch", r.URL.Path)

		var els []domain.ElementData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&els))
		require.Len(t, els, 2)
		assert.Equal(t, "alpha", els[0].Metadata.ElementName)

		json.NewEncoder(w).Encode(map[string]interface{}{"ids": []string{"id-1", "id-2"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ids, err := c.IndexBatch(context.Background(), []domain.ElementData{
		{Metadata: domain.ElementMetadata{ElementName: "alpha"}, ElementString: "func alpha() {}"},
		{Metadata: domain.ElementMetadata{ElementName: "beta"}, ElementString: "func beta() {}"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1", "id-2"}, ids)
}

func TestSearchSendsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "http handler", r.URL.Query().Get("q"))
		assert.Equal(t, "0.5", r.URL.Query().Get("threshold"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []domain.SearchResult{
				{Element: domain.ElementData{Metadata: domain.ElementMetadata{ElementName: "serveHTTP"}}, Similarity: 0.91},
			},
		})
	}))
	defer srv.Close()

	results, err := New(srv.URL).Search(context.Background(), "http handler", 0.5, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "serveHTTP", results[0].Element.Metadata.ElementName)
	assert.InDelta(t, 0.91, results[0].Similarity, 1e-9)
}

func TestServerErrorIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "missing required field: elementString"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).IndexElement(context.Background(), domain.ElementData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field: elementString")
	assert.Contains(t, err.Error(), "400")
}

func TestDeleteAllReturnsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "deletedCount": 7})
	}))
	defer srv.Close()

	count, err := New(srv.URL).DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
