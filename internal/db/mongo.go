package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type mongoClient interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

var (
	connectMongo = func(uri string) (*mongo.Client, error) {
		return mongo.Connect(options.Client().ApplyURI(uri))
	}
	pingMongo = func(ctx context.Context, client mongoClient) error {
		return client.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, client mongoClient) error {
		return client.Disconnect(ctx)
	}
)

// NewMongoClient conecta a MongoDB y hace un ping al primario.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := connectMongo(uri)
	if err != nil {
		return nil, fmt.Errorf("db: connect mongo: %w", err)
	}

	if err := pingMongo(ctx, client); err != nil {
		_ = disconnectMongo(ctx, client)
		return nil, fmt.Errorf("db: ping mongo: %w", err)
	}

	return client, nil
}

// MongoPinger adapta el cliente al chequeo de /ready.
type MongoPinger struct {
	Client mongoClient
}

// Ping verifica que el primario responda.
func (pinger MongoPinger) Ping(ctx context.Context) error {
	return pingMongo(ctx, pinger.Client)
}
