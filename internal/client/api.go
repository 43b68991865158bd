package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Lelo88/book-management-api/internal/books"
)

// APIError es un sobre con error:true (o una respuesta que no es sobre).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Fields son los campos de formulario de alta y edición; nil = no enviado.
type Fields struct {
	Title       *string
	Author      *string
	Category    *string
	PublishYear *int
	ISBNNum     *int64
	Price       *float64
}

// Cover es el archivo de portada que viaja como parte "cover_image".
type Cover struct {
	Filename string
	Data     []byte
}

// BookAPI es lo que el Store necesita del backend.
type BookAPI interface {
	List(ctx context.Context) ([]books.Book, error)
	Get(ctx context.Context, id string) (books.Book, error)
	Add(ctx context.Context, fields Fields, cover *Cover) (books.Book, error)
	Update(ctx context.Context, id string, fields Fields, cover *Cover) (books.Book, error)
	Delete(ctx context.Context, id string) (books.Book, error)
}

// Client habla con /api/book.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New crea un cliente contra baseURL (por ejemplo http://localhost:8000).
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) List(ctx context.Context) ([]books.Book, error) {
	var list []books.Book
	if err := c.do(ctx, http.MethodGet, c.collectionURL(), nil, "", &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []books.Book{}
	}
	return list, nil
}

func (c *Client) Get(ctx context.Context, id string) (books.Book, error) {
	var book books.Book
	err := c.do(ctx, http.MethodGet, c.bookURL(id), nil, "", &book)
	return book, err
}

func (c *Client) Add(ctx context.Context, fields Fields, cover *Cover) (books.Book, error) {
	body, contentType, err := multipartBody(fields, cover)
	if err != nil {
		return books.Book{}, err
	}

	var book books.Book
	err = c.do(ctx, http.MethodPost, c.collectionURL(), body, contentType, &book)
	return book, err
}

func (c *Client) Update(ctx context.Context, id string, fields Fields, cover *Cover) (books.Book, error) {
	body, contentType, err := multipartBody(fields, cover)
	if err != nil {
		return books.Book{}, err
	}

	var book books.Book
	err = c.do(ctx, http.MethodPut, c.bookURL(id), body, contentType, &book)
	return book, err
}

func (c *Client) Delete(ctx context.Context, id string) (books.Book, error) {
	var book books.Book
	err := c.do(ctx, http.MethodDelete, c.bookURL(id), nil, "", &book)
	return book, err
}

func (c *Client) collectionURL() string {
	return c.baseURL + books.BasePath + "/"
}

func (c *Client) bookURL(id string) string {
	return c.baseURL + books.BasePath + "/" + url.PathEscape(id)
}

// do manda el request y desarma el sobre; result se decodifica sólo si hay éxito.
func (c *Client) do(ctx context.Context, method, target string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// Algo que no es nuestra API (proxy, HTML de error).
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if env.Error || resp.StatusCode >= http.StatusBadRequest {
		status := env.Status
		if status == 0 {
			status = resp.StatusCode
		}
		return &APIError{Status: status, Message: env.Message}
	}

	if result == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// multipartBody arma el formulario como lo espera el handler de libros.
func multipartBody(fields Fields, cover *Cover) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	values := []struct {
		name  string
		value *string
	}{
		{"title", fields.Title},
		{"author", fields.Author},
		{"category", fields.Category},
	}
	for _, field := range values {
		if field.value == nil {
			continue
		}
		if err := writer.WriteField(field.name, *field.value); err != nil {
			return nil, "", err
		}
	}

	if fields.PublishYear != nil {
		if err := writer.WriteField("publish_year", strconv.Itoa(*fields.PublishYear)); err != nil {
			return nil, "", err
		}
	}
	if fields.ISBNNum != nil {
		if err := writer.WriteField("isbn_num", strconv.FormatInt(*fields.ISBNNum, 10)); err != nil {
			return nil, "", err
		}
	}
	if fields.Price != nil {
		if err := writer.WriteField("price", strconv.FormatFloat(*fields.Price, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
	}

	if cover != nil {
		part, err := writer.CreateFormFile("cover_image", cover.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(cover.Data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
