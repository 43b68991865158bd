package books

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoCollection es el subconjunto de *mongo.Collection que usa el repositorio.
type mongoCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult
	FindOneAndDelete(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOneAndDeleteOptions]) *mongo.SingleResult
}

// bookDocument es la forma del documento en la colección Book.
type bookDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Author      string        `bson:"author"`
	Category    string        `bson:"category,omitempty"`
	PublishYear *int          `bson:"publish_year,omitempty"`
	ISBNNum     *int64        `bson:"isbn_num,omitempty"`
	Price       *float64      `bson:"price,omitempty"`
	CoverImage  string        `bson:"cover_image,omitempty"`
	CreatedAt   string        `bson:"created_at"`
	UpdatedAt   string        `bson:"updated_at"`
}

func documentFromBook(book Book) bookDocument {
	return bookDocument{
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

func (document bookDocument) book() Book {
	return Book{
		ID:          document.ID.Hex(),
		Title:       document.Title,
		Author:      document.Author,
		Category:    document.Category,
		PublishYear: document.PublishYear,
		ISBNNum:     document.ISBNNum,
		Price:       document.Price,
		CoverImage:  document.CoverImage,
		CreatedAt:   document.CreatedAt,
		UpdatedAt:   document.UpdatedAt,
	}
}

// MongoRepository guarda libros como documentos de MongoDB.
type MongoRepository struct {
	collection mongoCollection
}

// NewMongoRepository crea el repositorio sobre una colección (normalmente "Book").
func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{collection: collection}
}

func (repository *MongoRepository) Create(ctx context.Context, book Book) (Book, error) {
	document := documentFromBook(book)

	result, err := repository.collection.InsertOne(ctx, document)
	if err != nil {
		return Book{}, fmt.Errorf("insert book: %w", err)
	}

	id, ok := result.InsertedID.(bson.ObjectID)
	if !ok || id.IsZero() {
		return Book{}, ErrorCreationFailed
	}

	document.ID = id
	return document.book(), nil
}

func (repository *MongoRepository) ListAll(ctx context.Context) ([]Book, error) {
	cursor, err := repository.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	var documents []bookDocument
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	books := make([]Book, 0, len(documents))
	for _, document := range documents {
		books = append(books, document.book())
	}
	return books, nil
}

func (repository *MongoRepository) GetByID(ctx context.Context, id string) (Book, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrorNotFound
	}

	return decodeOne(repository.collection.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}), "get book")
}

// UpdateByID hace $set solo de los campos presentes y devuelve el documento ya actualizado.
func (repository *MongoRepository) UpdateByID(ctx context.Context, id string, patch BookPatch) (Book, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrorNotFound
	}

	update := bson.D{{Key: "$set", Value: setFields(patch)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	return decodeOne(repository.collection.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: objectID}}, update, opts), "update book")
}

func (repository *MongoRepository) DeleteByID(ctx context.Context, id string) (Book, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrorNotFound
	}

	return decodeOne(repository.collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: objectID}}), "delete book")
}

func setFields(patch BookPatch) bson.D {
	fields := bson.D{}
	if patch.Title != nil {
		fields = append(fields, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Author != nil {
		fields = append(fields, bson.E{Key: "author", Value: *patch.Author})
	}
	if patch.Category != nil {
		fields = append(fields, bson.E{Key: "category", Value: *patch.Category})
	}
	if patch.PublishYear != nil {
		fields = append(fields, bson.E{Key: "publish_year", Value: *patch.PublishYear})
	}
	if patch.ISBNNum != nil {
		fields = append(fields, bson.E{Key: "isbn_num", Value: *patch.ISBNNum})
	}
	if patch.Price != nil {
		fields = append(fields, bson.E{Key: "price", Value: *patch.Price})
	}
	if patch.CoverImage != nil {
		fields = append(fields, bson.E{Key: "cover_image", Value: *patch.CoverImage})
	}
	return append(fields, bson.E{Key: "updated_at", Value: patch.UpdatedAt})
}

func decodeOne(result *mongo.SingleResult, operation string) (Book, error) {
	var document bookDocument
	if err := result.Decode(&document); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, ErrorNotFound
		}
		return Book{}, fmt.Errorf("%s: %w", operation, err)
	}
	return document.book(), nil
}
