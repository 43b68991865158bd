package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Lelo88/book-management-api/internal/books"
	"github.com/Lelo88/book-management-api/internal/ui"
)

// Formatos de salida para -o.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// record es la forma de un libro en json/yaml; los ausentes se omiten.
type record struct {
	ID          string   `json:"_id" yaml:"_id"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Author      string   `json:"author,omitempty" yaml:"author,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	PublishYear *int     `json:"publish_year,omitempty" yaml:"publish_year,omitempty"`
	ISBNNum     *int64   `json:"isbn_num,omitempty" yaml:"isbn_num,omitempty"`
	Price       *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	CoverImage  string   `json:"cover_image,omitempty" yaml:"cover_image,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func toRecord(book books.Book) record {
	return record{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Category:    book.Category,
		PublishYear: book.PublishYear,
		ISBNNum:     book.ISBNNum,
		Price:       book.Price,
		CoverImage:  book.CoverImage,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
}

func validOutput(format string) error {
	switch format {
	case OutputTable, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output %q (table, json, yaml)", format)
	}
}

// writeStructured escribe value en json o yaml.
func writeStructured(out io.Writer, format string, value any) error {
	if format == OutputYAML {
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeBooks(out io.Writer, format string, list []books.Book) error {
	if format != OutputTable {
		records := make([]record, 0, len(list))
		for _, book := range list {
			records = append(records, toRecord(book))
		}
		return writeStructured(out, format, records)
	}

	if len(list) == 0 {
		_, err := fmt.Fprintln(out, ui.FormatWarning("No books found"))
		return err
	}

	table := ui.NewTable(
		ui.Column{Header: "ID", Max: 36},
		ui.Column{Header: "Title", Max: 32},
		ui.Column{Header: "Author", Max: 24},
		ui.Column{Header: "Category", Max: 16},
		ui.Column{Header: "Year", Align: ui.AlignRight},
		ui.Column{Header: "Price", Align: ui.AlignRight},
	)
	for _, book := range list {
		table.AddRow(book.ID, book.Title, book.Author, book.Category, optionalInt(book.PublishYear), optionalPrice(book.Price))
	}

	_, err := fmt.Fprint(out, table.Render())
	return err
}

func writeBook(out io.Writer, format string, book books.Book) error {
	if format != OutputTable {
		return writeStructured(out, format, toRecord(book))
	}

	lines := []string{
		ui.FormatTitle(book.Title),
		ui.KeyValue("ID", book.ID),
		ui.KeyValue("Author", book.Author),
		ui.KeyValue("Category", book.Category),
		ui.KeyValue("Published", optionalInt(book.PublishYear)),
		ui.KeyValue("ISBN", optionalInt64(book.ISBNNum)),
		ui.KeyValue("Price", optionalPrice(book.Price)),
		ui.KeyValue("Cover", book.CoverImage),
		ui.KeyValue("Created", book.CreatedAt),
		ui.KeyValue("Updated", book.UpdatedAt),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func optionalInt(value *int) string {
	if value == nil {
		return "-"
	}
	return strconv.Itoa(*value)
}

func optionalInt64(value *int64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatInt(*value, 10)
}

func optionalPrice(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}
