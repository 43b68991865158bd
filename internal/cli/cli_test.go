package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Lelo88/book-management-api/internal/books"
	"github.com/Lelo88/book-management-api/internal/client"
	"github.com/Lelo88/book-management-api/internal/images"
)

func newTestServer(t *testing.T) *httptest.Server {
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

// runCLI ejecuta bookctl contra server y devuelve stdout.
func runCLI(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand(func(baseURL string) client.BookAPI {
		return client.New(baseURL, server.Client())
	})
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append([]string{"--api", server.URL}, args...))

	err := root.Execute()
	return out.String(), err
}

func writeCover(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dune.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake-png"), 0o600))
	return path
}

func listRecords(t *testing.T, server *httptest.Server, args ...string) []record {
	t.Helper()

	out, err := runCLI(t, server, append([]string{"list", "-o", "json"}, args...)...)
	require.NoError(t, err)

	var records []record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	return records
}

func TestCommandStructure(t *testing.T) {
	root := NewRootCommand(nil)

	for _, name := range []string{"list", "get", "add", "update", "delete", "ls", "rm"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			require.NotEqual(t, root, cmd)
			require.NotEmpty(t, cmd.Short)
		})
	}
}

func TestAPIFlagDefaultsFromEnv(t *testing.T) {
	t.Setenv("BOOKCTL_API", "http://books.internal:9000")

	root := NewRootCommand(nil)

	require.Equal(t, "http://books.internal:9000", root.PersistentFlags().Lookup("api").DefValue)
}

func TestBookLifecycle(t *testing.T) {
	server := newTestServer(t)
	cover := writeCover(t)

	out, err := runCLI(t, server, "add",
		"--title", "Dune", "--author", "Frank Herbert", "--category", "Sci-Fi",
		"--year", "1965", "--isbn", "9780441172719", "--price", "9.99", "--cover", cover)
	require.NoError(t, err)
	require.Contains(t, out, "Book added")

	_, err = runCLI(t, server, "add", "--title", "Emma", "--author", "Jane Austen",
		"--category", "Classic", "--year", "1815", "--price", "4.5", "--cover", cover)
	require.NoError(t, err)

	records := listRecords(t, server)
	require.Len(t, records, 2)
	require.Equal(t, "Dune", records[0].Title)
	require.Equal(t, int64(9780441172719), *records[0].ISBNNum)
	dune := records[0].ID

	records = listRecords(t, server, "--sort", "price_asc")
	require.Equal(t, "Emma", records[0].Title)

	records = listRecords(t, server, "--category", "Classic")
	require.Len(t, records, 1)
	require.Equal(t, "Jane Austen", records[0].Author)

	out, err = runCLI(t, server, "list")
	require.NoError(t, err)
	require.Contains(t, out, "Title")
	require.Contains(t, out, "Frank Herbert")
	require.Contains(t, out, "9.99")

	out, err = runCLI(t, server, "list", "--search", "tolkien")
	require.NoError(t, err)
	require.Contains(t, out, "No books found")

	out, err = runCLI(t, server, "get", dune)
	require.NoError(t, err)
	require.Contains(t, out, "Frank Herbert")
	require.Contains(t, out, "9780441172719")

	out, err = runCLI(t, server, "update", dune, "--price", "12.5")
	require.NoError(t, err)
	require.Contains(t, out, "Book updated")

	out, err = runCLI(t, server, "get", dune, "-o", "yaml")
	require.NoError(t, err)
	var fetched record
	require.NoError(t, yaml.Unmarshal([]byte(out), &fetched))
	require.Equal(t, 12.5, *fetched.Price)
	require.Equal(t, "Dune", fetched.Title)
	require.Equal(t, 1965, *fetched.PublishYear)

	out, err = runCLI(t, server, "delete", dune)
	require.NoError(t, err)
	require.Contains(t, out, "Book deleted")

	_, err = runCLI(t, server, "get", dune)
	require.ErrorContains(t, err, books.MessageNotFound)

	require.Len(t, listRecords(t, server), 1)
}

func TestListYAMLOutput(t *testing.T) {
	server := newTestServer(t)
	_, err := runCLI(t, server, "add", "--title", "Dune", "--author", "Frank Herbert", "--cover", writeCover(t))
	require.NoError(t, err)

	out, err := runCLI(t, server, "list", "-o", "yaml")

	require.NoError(t, err)
	require.Contains(t, out, "title: Dune")
	require.Contains(t, out, "author: Frank Herbert")
	require.NotContains(t, out, "price")
}

func TestAddErrors(t *testing.T) {
	server := newTestServer(t)

	_, err := runCLI(t, server, "add", "--title", "Dune", "--author", "Frank Herbert")
	require.ErrorContains(t, err, books.MessageImageMissing)

	_, err = runCLI(t, server, "add", "--title", "Dune", "--cover", filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorContains(t, err, "read cover")

	_, err = runCLI(t, server, "add", "--author", "Frank Herbert", "--isbn", "123", "--cover", writeCover(t))
	require.ErrorContains(t, err, "title")
	require.ErrorContains(t, err, "isbn_num")
}

func TestInvalidFlags(t *testing.T) {
	server := newTestServer(t)

	_, err := runCLI(t, server, "list", "-o", "xml")
	require.ErrorContains(t, err, "unsupported output")

	_, err = runCLI(t, server, "list", "--sort", "rating")
	require.ErrorContains(t, err, "unsupported sort")

	_, err = runCLI(t, server, "get")
	require.Error(t, err)
}
