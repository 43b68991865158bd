package books

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository guarda libros en memoria. Se usa con STORAGE_DRIVER=memory
// y en tests end-to-end.
type MemoryRepository struct {
	mu    sync.RWMutex
	books map[string]Book
	order []string
	newID func() string
}

// NewMemoryRepository crea un repositorio vacío.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		books: make(map[string]Book),
		newID: uuid.NewString,
	}
}

func (repository *MemoryRepository) Create(ctx context.Context, book Book) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	book.ID = repository.newID()
	if _, exists := repository.books[book.ID]; exists || book.ID == "" {
		return Book{}, ErrorCreationFailed
	}

	repository.books[book.ID] = cloneBook(book)
	repository.order = append(repository.order, book.ID)
	return cloneBook(book), nil
}

func (repository *MemoryRepository) ListAll(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repository.mu.RLock()
	defer repository.mu.RUnlock()

	books := make([]Book, 0, len(repository.order))
	for _, id := range repository.order {
		books = append(books, cloneBook(repository.books[id]))
	}
	return books, nil
}

func (repository *MemoryRepository) GetByID(ctx context.Context, id string) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	repository.mu.RLock()
	defer repository.mu.RUnlock()

	book, found := repository.books[id]
	if !found {
		return Book{}, ErrorNotFound
	}
	return cloneBook(book), nil
}

func (repository *MemoryRepository) UpdateByID(ctx context.Context, id string, patch BookPatch) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	book, found := repository.books[id]
	if !found {
		return Book{}, ErrorNotFound
	}

	book = applyPatch(book, patch)
	repository.books[id] = book
	return cloneBook(book), nil
}

func (repository *MemoryRepository) DeleteByID(ctx context.Context, id string) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	book, found := repository.books[id]
	if !found {
		return Book{}, ErrorNotFound
	}

	delete(repository.books, id)
	for i, current := range repository.order {
		if current == id {
			repository.order = append(repository.order[:i], repository.order[i+1:]...)
			break
		}
	}
	return book, nil
}

// Ping permite usar el repositorio en memoria detrás de /ready.
func (repository *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func applyPatch(book Book, patch BookPatch) Book {
	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.Category != nil {
		book.Category = *patch.Category
	}
	if patch.PublishYear != nil {
		book.PublishYear = patch.PublishYear
	}
	if patch.ISBNNum != nil {
		book.ISBNNum = patch.ISBNNum
	}
	if patch.Price != nil {
		book.Price = patch.Price
	}
	if patch.CoverImage != nil {
		book.CoverImage = *patch.CoverImage
	}
	book.UpdatedAt = patch.UpdatedAt
	return cloneBook(book)
}

// cloneBook copia los punteros para que nadie mute el estado guardado.
func cloneBook(book Book) Book {
	if book.PublishYear != nil {
		year := *book.PublishYear
		book.PublishYear = &year
	}
	if book.ISBNNum != nil {
		isbn := *book.ISBNNum
		book.ISBNNum = &isbn
	}
	if book.Price != nil {
		price := *book.Price
		book.Price = &price
	}
	return book
}
