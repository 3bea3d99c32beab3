package chat

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/pribylovaa/go-resume-portfolio/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultCollection = "chat_messages"
	defaultDBName     = "portfolio"
)

// Mongo — история в MongoDB: один документ на реплику.
type Mongo struct {
	client   *mongodriver.Client
	messages *mongodriver.Collection
}

// NewMongo подключается к MongoDB, проверяет соединение и создаёт индексы.
// Имя базы берётся из пути URI.
func NewMongo(ctx context.Context, uri, collection string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	if collection == "" {
		collection = defaultCollection
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	m := &Mongo{
		client:   cli,
		messages: cli.Database(databaseFromURI(uri)).Collection(collection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes: выборка последних реплик сессии — session_id + created_at(desc).
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.messages.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("session_created_desc"),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

func (m *Mongo) Append(ctx context.Context, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	docs := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		docs = append(docs, msg)
	}

	if _, err := m.messages.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongo append: %w", err)
	}

	return nil
}

// Recent читает последние limit реплик (limit <= 0 — все) и возвращает их
// в хронологическом порядке.
func (m *Mongo) Recent(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.messages.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.ChatMessage, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}

	slices.Reverse(out)

	return out, nil
}

func (m *Mongo) Clear(ctx context.Context, sessionID string) error {
	if _, err := m.messages.DeleteMany(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("mongo clear: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы из пути URI или возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}
