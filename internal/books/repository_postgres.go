package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB es el subconjunto de pgxpool.Pool que usa el repositorio.
// Permite testear con fakes sin levantar Postgres.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository accede a la tabla books.
// Contiene SQL y mapeo DB → modelo.
type PostgresRepository struct {
	database DB
}

// NewPostgresRepository crea un repositorio de libros sobre Postgres.
func NewPostgresRepository(database DB) *PostgresRepository {
	return &PostgresRepository{database: database}
}

const bookColumns = `id::text, title, author, category, publish_year, isbn_num, price, cover_image, created_at, updated_at`

// Create inserta el libro y devuelve el registro persistido (con id).
func (repository *PostgresRepository) Create(ctx context.Context, book Book) (Book, error) {
	const query = `
		INSERT INTO books (title, author, category, publish_year, isbn_num, price, cover_image, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), $8, $9)
		RETURNING ` + bookColumns + `;
	`

	created, err := scanBook(repository.database.QueryRow(ctx, query,
		book.Title, book.Author, book.Category, book.PublishYear, book.ISBNNum, book.Price,
		book.CoverImage, book.CreatedAt, book.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrorCreationFailed
		}
		return Book{}, fmt.Errorf("insert book: %w", err)
	}

	return created, nil
}

// ListAll devuelve todos los libros en orden de alta.
func (repository *PostgresRepository) ListAll(ctx context.Context) ([]Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books ORDER BY seq;`

	rows, err := repository.database.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return books, nil
}

// GetByID busca un libro. Un id que no es UUID no puede existir en la tabla.
func (repository *PostgresRepository) GetByID(ctx context.Context, id string) (Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, ErrorNotFound
	}

	const query = `SELECT ` + bookColumns + ` FROM books WHERE id = $1;`

	return repository.one(repository.database.QueryRow(ctx, query, id), "get book")
}

// UpdateByID aplica el patch; los campos nil conservan su valor vía COALESCE.
func (repository *PostgresRepository) UpdateByID(ctx context.Context, id string, patch BookPatch) (Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, ErrorNotFound
	}

	const query = `
		UPDATE books SET
			title        = COALESCE($2, title),
			author       = COALESCE($3, author),
			category     = COALESCE($4, category),
			publish_year = COALESCE($5, publish_year),
			isbn_num     = COALESCE($6, isbn_num),
			price        = COALESCE($7, price),
			cover_image  = COALESCE($8, cover_image),
			updated_at   = $9
		WHERE id = $1
		RETURNING ` + bookColumns + `;
	`

	row := repository.database.QueryRow(ctx, query,
		id, patch.Title, patch.Author, patch.Category, patch.PublishYear, patch.ISBNNum, patch.Price,
		patch.CoverImage, patch.UpdatedAt,
	)
	return repository.one(row, "update book")
}

// DeleteByID borra el libro y devuelve cómo estaba.
func (repository *PostgresRepository) DeleteByID(ctx context.Context, id string) (Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, ErrorNotFound
	}

	const query = `DELETE FROM books WHERE id = $1 RETURNING ` + bookColumns + `;`

	return repository.one(repository.database.QueryRow(ctx, query, id), "delete book")
}

func (repository *PostgresRepository) one(row pgx.Row, operation string) (Book, error) {
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrorNotFound
		}
		return Book{}, fmt.Errorf("%s: %w", operation, err)
	}
	return book, nil
}

// scanBook mapea una fila (columnas de bookColumns) a Book.
func scanBook(row pgx.Row) (Book, error) {
	var (
		book       Book
		category   *string
		coverImage *string
	)

	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &category, &book.PublishYear, &book.ISBNNum,
		&book.Price, &coverImage, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return Book{}, err
	}

	book.Category = valueOrEmpty(category)
	book.CoverImage = valueOrEmpty(coverImage)
	return book, nil
}
