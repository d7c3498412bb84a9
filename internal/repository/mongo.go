package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

// Collection names.
const (
	collSessions          = "sessions"
	collCompletions       = "ai_completions"
	collTranscriptions    = "transcriptions"
	collSttTranscriptions = "stt_transcriptions"
)

// MongoStore implements Store using MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

// document pairs a domain record with its object id.
type document[T any] struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Body T                  `bson:",inline"`
}

// NewMongoStore connects to uri and prepares the database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := &MongoStore{client: client, db: client.Database(database)}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string]string{
		collSessions:          "updated_at",
		collCompletions:       "created_at",
		collTranscriptions:    "created_at",
		collSttTranscriptions: "created_at",
	}
	for coll, field := range indexes {
		_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("%s.%s: %w", coll, field, err)
		}
	}
	return nil
}

// Ping checks the database connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", domain.ErrInvalidID, id)
	}
	return oid, nil
}

func insertDocument[T any](ctx context.Context, coll *mongo.Collection, body T) (string, error) {
	doc := document[T]{ID: primitive.NewObjectID(), Body: body}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

func findDocument[T any](ctx context.Context, coll *mongo.Collection, id string) (*document[T], error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc document[T]
	err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func listDocuments[T any](ctx context.Context, coll *mongo.Collection, sortField string, limit int) ([]document[T], error) {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []document[T]
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func updateDocument(ctx context.Context, coll *mongo.Collection, id string, update bson.M) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	result, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func deleteDocument(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	result, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (s *MongoStore) countDocuments(ctx context.Context, coll string) (int64, error) {
	return s.db.Collection(coll).CountDocuments(ctx, bson.M{})
}

func (s *MongoStore) sessions() *mongo.Collection { return s.db.Collection(collSessions) }

// InsertSession stores a new session and returns its id.
func (s *MongoStore) InsertSession(ctx context.Context, session *domain.Session) (string, error) {
	body := *session
	if body.Messages == nil {
		body.Messages = []domain.Message{}
	}
	return insertDocument(ctx, s.sessions(), body)
}

// FindSession retrieves a session by id.
func (s *MongoStore) FindSession(ctx context.Context, id string) (*domain.Session, error) {
	doc, err := findDocument[domain.Session](ctx, s.sessions(), id)
	if err != nil || doc == nil {
		return nil, err
	}
	return sessionFromDocument(doc), nil
}

// ListSessions lists sessions, most recently updated first.
func (s *MongoStore) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	docs, err := listDocuments[domain.Session](ctx, s.sessions(), "updated_at", limit)
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.Session, 0, len(docs))
	for i := range docs {
		sessions = append(sessions, *sessionFromDocument(&docs[i]))
	}
	return sessions, nil
}

func sessionFromDocument(doc *document[domain.Session]) *domain.Session {
	session := doc.Body
	session.ID = doc.ID.Hex()
	if session.Messages == nil {
		session.Messages = []domain.Message{}
	}
	return &session
}

// CountSessions returns the number of stored sessions.
func (s *MongoStore) CountSessions(ctx context.Context) (int64, error) {
	return s.countDocuments(ctx, collSessions)
}

// PushSessionMessage appends a message with $push so concurrent appends are never lost.
func (s *MongoStore) PushSessionMessage(ctx context.Context, id string, message domain.Message, updatedAt time.Time) (bool, error) {
	return updateDocument(ctx, s.sessions(), id, bson.M{
		"$push": bson.M{"messages": message},
		"$set":  bson.M{"updated_at": updatedAt},
	})
}

// SetSessionTitle updates the title and updated_at of a session.
func (s *MongoStore) SetSessionTitle(ctx context.Context, id, title string, updatedAt time.Time) (bool, error) {
	return updateDocument(ctx, s.sessions(), id, bson.M{
		"$set": bson.M{"title": title, "updated_at": updatedAt},
	})
}

// DeleteSession removes a session.
func (s *MongoStore) DeleteSession(ctx context.Context, id string) (bool, error) {
	return deleteDocument(ctx, s.sessions(), id)
}

// InsertCompletion stores an AI completion record.
func (s *MongoStore) InsertCompletion(ctx context.Context, completion *domain.AICompletion) (string, error) {
	return insertDocument(ctx, s.db.Collection(collCompletions), *completion)
}

// FindCompletion retrieves an AI completion record.
func (s *MongoStore) FindCompletion(ctx context.Context, id string) (*domain.AICompletion, error) {
	doc, err := findDocument[domain.AICompletion](ctx, s.db.Collection(collCompletions), id)
	if err != nil || doc == nil {
		return nil, err
	}
	c := doc.Body
	c.ID = doc.ID.Hex()
	return &c, nil
}

// ListCompletions lists AI completion records, newest first.
func (s *MongoStore) ListCompletions(ctx context.Context, limit int) ([]domain.AICompletion, error) {
	docs, err := listDocuments[domain.AICompletion](ctx, s.db.Collection(collCompletions), "created_at", limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AICompletion, 0, len(docs))
	for _, doc := range docs {
		c := doc.Body
		c.ID = doc.ID.Hex()
		out = append(out, c)
	}
	return out, nil
}

// CountCompletions returns the number of AI completion records.
func (s *MongoStore) CountCompletions(ctx context.Context) (int64, error) {
	return s.countDocuments(ctx, collCompletions)
}

// InsertTranscription stores a transcription.
func (s *MongoStore) InsertTranscription(ctx context.Context, t *domain.Transcription) (string, error) {
	return insertDocument(ctx, s.db.Collection(collTranscriptions), *t)
}

// FindTranscription retrieves a transcription.
func (s *MongoStore) FindTranscription(ctx context.Context, id string) (*domain.Transcription, error) {
	doc, err := findDocument[domain.Transcription](ctx, s.db.Collection(collTranscriptions), id)
	if err != nil || doc == nil {
		return nil, err
	}
	t := doc.Body
	t.ID = doc.ID.Hex()
	return &t, nil
}

// ListTranscriptions lists transcriptions, newest first.
func (s *MongoStore) ListTranscriptions(ctx context.Context, limit int) ([]domain.Transcription, error) {
	docs, err := listDocuments[domain.Transcription](ctx, s.db.Collection(collTranscriptions), "created_at", limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transcription, 0, len(docs))
	for _, doc := range docs {
		t := doc.Body
		t.ID = doc.ID.Hex()
		out = append(out, t)
	}
	return out, nil
}

// CountTranscriptions returns the number of transcriptions.
func (s *MongoStore) CountTranscriptions(ctx context.Context) (int64, error) {
	return s.countDocuments(ctx, collTranscriptions)
}

// DeleteTranscription removes a transcription.
func (s *MongoStore) DeleteTranscription(ctx context.Context, id string) (bool, error) {
	return deleteDocument(ctx, s.db.Collection(collTranscriptions), id)
}

// SetTranscriptionAIResponse attaches an AI response to a transcription.
func (s *MongoStore) SetTranscriptionAIResponse(ctx context.Context, id, aiResponse string, updatedAt time.Time) (bool, error) {
	return updateDocument(ctx, s.db.Collection(collTranscriptions), id, bson.M{
		"$set": bson.M{"ai_response": aiResponse, "updated_at": updatedAt},
	})
}

// InsertSttTranscription stores a speech-to-text result.
func (s *MongoStore) InsertSttTranscription(ctx context.Context, t *domain.SttTranscription) (string, error) {
	return insertDocument(ctx, s.db.Collection(collSttTranscriptions), *t)
}

// FindSttTranscription retrieves a speech-to-text result.
func (s *MongoStore) FindSttTranscription(ctx context.Context, id string) (*domain.SttTranscription, error) {
	doc, err := findDocument[domain.SttTranscription](ctx, s.db.Collection(collSttTranscriptions), id)
	if err != nil || doc == nil {
		return nil, err
	}
	t := doc.Body
	t.ID = doc.ID.Hex()
	return &t, nil
}

// ListSttTranscriptions lists speech-to-text results, newest first.
func (s *MongoStore) ListSttTranscriptions(ctx context.Context, limit int) ([]domain.SttTranscription, error) {
	docs, err := listDocuments[domain.SttTranscription](ctx, s.db.Collection(collSttTranscriptions), "created_at", limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SttTranscription, 0, len(docs))
	for _, doc := range docs {
		t := doc.Body
		t.ID = doc.ID.Hex()
		out = append(out, t)
	}
	return out, nil
}

// CountSttTranscriptions returns the number of speech-to-text results.
func (s *MongoStore) CountSttTranscriptions(ctx context.Context) (int64, error) {
	return s.countDocuments(ctx, collSttTranscriptions)
}

// DeleteSttTranscription removes a speech-to-text result.
func (s *MongoStore) DeleteSttTranscription(ctx context.Context, id string) (bool, error) {
	return deleteDocument(ctx, s.db.Collection(collSttTranscriptions), id)
}
