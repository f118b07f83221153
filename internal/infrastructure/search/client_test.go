package search_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteogram/meteogram/internal/infrastructure/search"
)

func TestSearch_SerperResults(t *testing.T) {
	serper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"organic": [
				{"title": "Go", "link": "https://go.dev", "snippet": "The Go programming language"},
				{"title": "Go wiki", "link": "https://wiki.example", "snippet": "Community wiki"}
			]
		}`))
	}))
	defer serper.Close()

	client := search.NewClient(serper.URL, "http://unused.invalid", "test-key")
	results, err := client.Search(context.Background(), "golang", 5)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].Link)
}

func TestSearch_AnswerBoxFirst(t *testing.T) {
	serper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"answerBox": {"title": "Population of Tokyo", "answer": "about 14 million"},
			"organic": [{"title": "Tokyo", "link": "https://example.com", "snippet": "city"}]
		}`))
	}))
	defer serper.Close()

	client := search.NewClient(serper.URL, "http://unused.invalid", "test-key")
	results, err := client.Search(context.Background(), "tokyo population", 5)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "about 14 million", results[0].Snippet)
}

func TestSearch_FallsBackToDuckDuckGo(t *testing.T) {
	serper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer serper.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Heading": "Go (programming language)",
			"AbstractText": "Go is a statically typed language.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Go",
			"RelatedTopics": []
		}`))
	}))
	defer ddg.Close()

	client := search.NewClient(serper.URL, ddg.URL, "test-key")
	results, err := client.Search(context.Background(), "golang", 5)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Go (programming language)", results[0].Title)
	assert.Contains(t, results[0].Snippet, "statically typed")
}

func TestSearch_NoKeySkipsSerper(t *testing.T) {
	serperCalled := false
	serper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serperCalled = true
	}))
	defer serper.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"RelatedTopics": [{"Text": "Result", "FirstURL": "https://example.com"}]}`))
	}))
	defer ddg.Close()

	client := search.NewClient(serper.URL, ddg.URL, "")
	results, err := client.Search(context.Background(), "anything", 5)
	require.NoError(t, err)

	assert.False(t, serperCalled)
	require.Len(t, results, 1)
}
