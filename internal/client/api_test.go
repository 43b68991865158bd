package client

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Lelo88/book-management-api/internal/books"
	"github.com/Lelo88/book-management-api/internal/images"
)

var pngCover = &Cover{Filename: "dune.png", Data: []byte("\x89PNG\r\n\x1a\nfake-png")}

func ptr[T any](value T) *T {
	return &value
}

// newTestAPI levanta el handler real sobre memoria y disco temporal.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	store := images.NewLocalStore(t.TempDir(), "Book-Management", "http://images.test")
	service := books.NewService(books.NewMemoryRepository(), store, logger)

	router := chi.NewRouter()
	books.RegisterRoutes(router, books.NewHandler(service, logger))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func duneFields() Fields {
	return Fields{
		Title:       ptr("Dune"),
		Author:      ptr("Frank Herbert"),
		Category:    ptr("Sci-Fi"),
		PublishYear: ptr(1965),
		ISBNNum:     ptr(int64(9780441172719)),
		Price:       ptr(9.99),
	}
}

func TestClient_Lifecycle(t *testing.T) {
	server := newTestAPI(t)
	api := New(server.URL+"/", server.Client())
	ctx := context.Background()

	list, err := api.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	created, err := api.Add(ctx, duneFields(), pngCover)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Dune", created.Title)
	require.Equal(t, 1965, *created.PublishYear)
	require.Equal(t, int64(9780441172719), *created.ISBNNum)
	require.Equal(t, 9.99, *created.Price)
	require.Contains(t, created.CoverImage, "http://images.test/uploads/Book-Management/")
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	fetched, err := api.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, fetched)

	updated, err := api.Update(ctx, created.ID, Fields{Price: ptr(12.5)}, nil)
	require.NoError(t, err)
	require.Equal(t, 12.5, *updated.Price)
	require.Equal(t, "Dune", updated.Title)
	require.Equal(t, created.CoverImage, updated.CoverImage)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	list, err = api.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := api.Delete(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, deleted.ID)

	_, err = api.Get(ctx, created.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, books.MessageNotFound, apiErr.Message)
}

func TestClient_AddWithoutCover(t *testing.T) {
	server := newTestAPI(t)
	api := New(server.URL, server.Client())

	_, err := api.Add(context.Background(), duneFields(), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, books.MessageImageMissing, apiErr.Message)
}

func TestClient_AddValidationError(t *testing.T) {
	server := newTestAPI(t)
	api := New(server.URL, server.Client())

	fields := duneFields()
	fields.Title = nil

	_, err := api.Add(context.Background(), fields, pngCover)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Contains(t, apiErr.Message, "title")
	require.Contains(t, apiErr.Error(), "api: 400")
}

func TestClient_NonEnvelopeResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	_, err := New(server.URL, server.Client()).List(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_RequestPaths(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":200,"error":false,"message":"ok","result":{"_id":"a b"}}`))
	}))
	defer server.Close()

	api := New(server.URL+"/", server.Client())
	ctx := context.Background()

	_, err := api.Get(ctx, "a b")
	require.NoError(t, err)
	_, err = api.Delete(ctx, "a b")
	require.NoError(t, err)
	_, err = api.Update(ctx, "a b", Fields{}, nil)
	require.NoError(t, err)

	require.Equal(t, []string{
		"GET /api/book/a%20b",
		"DELETE /api/book/a%20b",
		"PUT /api/book/a%20b",
	}, seen)
}
