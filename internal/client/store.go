package client

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Lelo88/book-management-api/internal/books"
)

// State es la proyección local del catálogo. Se reemplaza entera en cada fetch.
type State struct {
	Books   []books.Book
	Loading bool
	Err     string
}

// Action es cualquier evento que el Store sabe reducir.
type Action interface {
	apply(state State) State
}

type FetchStarted struct{}

type BooksLoaded struct{ Books []books.Book }

type FetchFailed struct{ Err string }

type BookAdded struct{ Book books.Book }

type BookUpdated struct{ Book books.Book }

type BookRemoved struct{ ID string }

type MutationFailed struct{ Err string }

func (FetchStarted) apply(state State) State {
	state.Loading = true
	state.Err = ""
	return state
}

func (action BooksLoaded) apply(state State) State {
	state.Loading = false
	state.Books = append([]books.Book{}, action.Books...)
	return state
}

func (action FetchFailed) apply(state State) State {
	state.Loading = false
	state.Err = action.Err
	return state
}

func (action BookAdded) apply(state State) State {
	state.Books = append(append([]books.Book{}, state.Books...), action.Book)
	return state
}

// Sólo reemplaza si el libro ya estaba en la lista.
func (action BookUpdated) apply(state State) State {
	next := append([]books.Book{}, state.Books...)
	for i := range next {
		if next[i].ID == action.Book.ID {
			next[i] = action.Book
			break
		}
	}
	state.Books = next
	return state
}

func (action BookRemoved) apply(state State) State {
	next := make([]books.Book, 0, len(state.Books))
	for _, book := range state.Books {
		if book.ID != action.ID {
			next = append(next, book)
		}
	}
	state.Books = next
	return state
}

func (action MutationFailed) apply(state State) State {
	state.Err = action.Err
	return state
}

// Store guarda el estado y avisa a los suscriptores después de cada acción.
type Store struct {
	api BookAPI

	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

// NewStore crea un Store vacío sobre api.
func NewStore(api BookAPI) *Store {
	return &Store{
		api:       api,
		state:     State{Books: []books.Book{}},
		listeners: make(map[int]func(State)),
	}
}

// Dispatch aplica la acción y notifica fuera del lock.
func (store *Store) Dispatch(action Action) {
	store.mu.Lock()
	store.state = action.apply(store.state)
	snapshot := store.snapshotLocked()
	listeners := make([]func(State), 0, len(store.listeners))
	for _, listener := range store.listeners {
		listeners = append(listeners, listener)
	}
	store.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// Subscribe registra listener y devuelve la función para darlo de baja.
func (store *Store) Subscribe(listener func(State)) func() {
	store.mu.Lock()
	defer store.mu.Unlock()

	id := store.nextID
	store.nextID++
	store.listeners[id] = listener

	return func() {
		store.mu.Lock()
		defer store.mu.Unlock()
		delete(store.listeners, id)
	}
}

// State devuelve una copia del estado actual.
func (store *Store) State() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.snapshotLocked()
}

func (store *Store) snapshotLocked() State {
	snapshot := store.state
	snapshot.Books = append([]books.Book{}, store.state.Books...)
	return snapshot
}

// FetchBooks reemplaza la lista con lo que devuelve el servidor.
func (store *Store) FetchBooks(ctx context.Context) ([]books.Book, error) {
	store.Dispatch(FetchStarted{})

	list, err := store.api.List(ctx)
	if err != nil {
		store.Dispatch(FetchFailed{Err: errorMessage(err, "Failed to fetch books")})
		return nil, err
	}

	store.Dispatch(BooksLoaded{Books: list})
	return list, nil
}

func (store *Store) AddBook(ctx context.Context, fields Fields, cover *Cover) (books.Book, error) {
	book, err := store.api.Add(ctx, fields, cover)
	if err != nil {
		store.Dispatch(MutationFailed{Err: errorMessage(err, "Failed to add book")})
		return books.Book{}, err
	}

	store.Dispatch(BookAdded{Book: book})
	return book, nil
}

func (store *Store) UpdateBook(ctx context.Context, id string, fields Fields, cover *Cover) (books.Book, error) {
	book, err := store.api.Update(ctx, id, fields, cover)
	if err != nil {
		store.Dispatch(MutationFailed{Err: errorMessage(err, "Failed to update book")})
		return books.Book{}, err
	}

	store.Dispatch(BookUpdated{Book: book})
	return book, nil
}

func (store *Store) DeleteBook(ctx context.Context, id string) error {
	if _, err := store.api.Delete(ctx, id); err != nil {
		store.Dispatch(MutationFailed{Err: errorMessage(err, "Failed to delete book")})
		return err
	}

	store.Dispatch(BookRemoved{ID: id})
	return nil
}

// errorMessage usa el mensaje del servidor si lo hay.
func errorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func (store *Store) Books() []books.Book {
	return store.State().Books
}

func (store *Store) Loading() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.Loading
}

func (store *Store) Err() string {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.Err
}

// Find busca por id en el estado local.
func (store *Store) Find(id string) (books.Book, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, book := range store.state.Books {
		if book.ID == id {
			return book, true
		}
	}
	return books.Book{}, false
}

// Categories devuelve las categorías no vacías en orden de aparición.
func (store *Store) Categories() []string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, book := range store.state.Books {
		if book.Category == "" || seen[book.Category] {
			continue
		}
		seen[book.Category] = true
		categories = append(categories, book.Category)
	}
	return categories
}

// Criterios de orden para Visible.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortTitle     = "title"
)

// Filter describe la vista: búsqueda libre, categoría ("" o "all" = todas) y orden.
type Filter struct {
	Search   string
	Category string
	Sort     string
}

// Visible filtra y ordena sobre el estado local, sin tocar el servidor.
func (store *Store) Visible(filter Filter) []books.Book {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	category := strings.TrimSpace(filter.Category)
	if category == "all" {
		category = ""
	}

	visible := []books.Book{}
	for _, book := range store.Books() {
		if search != "" && !matches(book, search) {
			continue
		}
		if category != "" && book.Category != category {
			continue
		}
		visible = append(visible, book)
	}

	sort.SliceStable(visible, lessFor(filter.Sort, visible))
	return visible
}

func matches(book books.Book, search string) bool {
	return strings.Contains(strings.ToLower(book.Title), search) ||
		strings.Contains(strings.ToLower(book.Author), search) ||
		strings.Contains(strings.ToLower(book.Category), search)
}

// lessFor arma el comparador; los valores ausentes van al final.
func lessFor(sortBy string, list []books.Book) func(i, j int) bool {
	switch sortBy {
	case SortPriceAsc:
		return func(i, j int) bool {
			return lessOptional(list[i].Price, list[j].Price, false)
		}
	case SortPriceDesc:
		return func(i, j int) bool {
			return lessOptional(list[i].Price, list[j].Price, true)
		}
	case SortTitle:
		return func(i, j int) bool {
			return strings.ToLower(list[i].Title) < strings.ToLower(list[j].Title)
		}
	default:
		return func(i, j int) bool {
			return lessOptional(list[i].PublishYear, list[j].PublishYear, true)
		}
	}
}

func lessOptional[T int | float64](a, b *T, descending bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	case descending:
		return *a > *b
	default:
		return *a < *b
	}
}
