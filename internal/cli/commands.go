package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lelo88/book-management-api/internal/client"
	"github.com/Lelo88/book-management-api/internal/ui"
)

func (state *app) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), state.timeout)
}

func newListCommand(state *app) *cobra.Command {
	var (
		filter client.Filter
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List books",
		Long: `List every book in the catalog. Search, category and sort run locally
over the full listing, like the web client does.

Examples:
  bookctl list
  bookctl list --search herbert --sort price_asc
  bookctl list --category Sci-Fi -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			if err := validSort(filter.Sort); err != nil {
				return err
			}

			ctx, cancel := state.requestContext(cmd)
			defer cancel()

			store := client.NewStore(state.api)
			if _, err := store.FetchBooks(ctx); err != nil {
				return err
			}

			return writeBooks(cmd.OutOrStdout(), output, store.Visible(filter))
		},
	}

	cmd.Flags().StringVar(&filter.Search, "search", "", "Match title, author or category (case-insensitive)")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only books in this category")
	cmd.Flags().StringVar(&filter.Sort, "sort", client.SortNewest, "Sort by newest, price_asc, price_desc or title")
	cmd.Flags().StringVarP(&output, "output", "o", OutputTable, "Output format: table, json or yaml")

	return cmd
}

func validSort(sortBy string) error {
	switch sortBy {
	case client.SortNewest, client.SortPriceAsc, client.SortPriceDesc, client.SortTitle:
		return nil
	default:
		return fmt.Errorf("unsupported sort %q", sortBy)
	}
}

func newGetCommand(state *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}

			ctx, cancel := state.requestContext(cmd)
			defer cancel()

			book, err := state.api.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return writeBook(cmd.OutOrStdout(), output, book)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", OutputTable, "Output format: table, json or yaml")
	return cmd
}

// bookFlags son los flags comunes de add y update.
type bookFlags struct {
	title       string
	author      string
	category    string
	publishYear int
	isbn        int64
	price       float64
	cover       string
}

func (flags *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.title, "title", "", "Book title")
	cmd.Flags().StringVar(&flags.author, "author", "", "Book author")
	cmd.Flags().StringVar(&flags.category, "category", "", "Category")
	cmd.Flags().IntVar(&flags.publishYear, "year", 0, "Publish year")
	cmd.Flags().Int64Var(&flags.isbn, "isbn", 0, "ISBN (10 or 13 digits)")
	cmd.Flags().Float64Var(&flags.price, "price", 0, "Price")
	cmd.Flags().StringVar(&flags.cover, "cover", "", "Path to the cover image")
}

// fields sólo incluye los flags que el usuario pasó.
func (flags *bookFlags) fields(cmd *cobra.Command) client.Fields {
	changed := cmd.Flags().Changed
	var fields client.Fields

	if changed("title") {
		fields.Title = &flags.title
	}
	if changed("author") {
		fields.Author = &flags.author
	}
	if changed("category") {
		fields.Category = &flags.category
	}
	if changed("year") {
		fields.PublishYear = &flags.publishYear
	}
	if changed("isbn") {
		fields.ISBNNum = &flags.isbn
	}
	if changed("price") {
		fields.Price = &flags.price
	}
	return fields
}

func (flags *bookFlags) readCover() (*client.Cover, error) {
	path := strings.TrimSpace(flags.cover)
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}
	return &client.Cover{Filename: filepath.Base(path), Data: data}, nil
}

func newAddCommand(state *app) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book (a cover image is required)",
		Long: `Add a book to the catalog.

Example:
  bookctl add --title Dune --author "Frank Herbert" --year 1965 --cover ./dune.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cover, err := flags.readCover()
			if err != nil {
				return err
			}

			ctx, cancel := state.requestContext(cmd)
			defer cancel()

			book, err := client.NewStore(state.api).AddBook(ctx, flags.fields(cmd), cover)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess("Book added: "+book.ID))
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

func newUpdateCommand(state *app) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a book; a new --cover replaces the old image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cover, err := flags.readCover()
			if err != nil {
				return err
			}

			ctx, cancel := state.requestContext(cmd)
			defer cancel()

			book, err := client.NewStore(state.api).UpdateBook(ctx, args[0], flags.fields(cmd), cover)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess("Book updated: "+book.ID))
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

func newDeleteCommand(state *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a book",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := state.requestContext(cmd)
			defer cancel()

			if err := client.NewStore(state.api).DeleteBook(ctx, args[0]); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess("Book deleted: "+args[0]))
			return err
		},
	}
}
