package history

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/logger"
)

const defaultFirestoreCollection = "chat_histories"

// FirestoreStore keeps one document per message in a per-session
// subcollection: <collection>/<sessionID>/messages/<auto-id>. A monotonic
// seq field (append-time nanos) preserves insertion order across reads.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

type firestoreMessage struct {
	MessageID string            `firestore:"message_id"`
	SessionID string            `firestore:"session_id"`
	Role      string            `firestore:"role"`
	Content   string            `firestore:"content"`
	Metadata  map[string]string `firestore:"metadata,omitempty"`
	CreatedAt time.Time         `firestore:"created_at"`
	Seq       int64             `firestore:"seq"`
}

// NewFirestoreStore connects to the configured Firestore project.
func NewFirestoreStore(ctx context.Context, cfg config.FirestoreConfig) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("history: firestore client: %w", err)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultFirestoreCollection
	}
	logger.L.Info("firestore history store initialized", "project", cfg.ProjectID, "collection", collection)
	return &FirestoreStore{client: client, collection: collection}, nil
}

func (s *FirestoreStore) messagesRef(sessionID string) *firestore.CollectionRef {
	return s.client.Collection(s.collection).Doc(sessionID).Collection("messages")
}

// AddMessage writes msg as a new document in the session's subcollection.
func (s *FirestoreStore) AddMessage(ctx context.Context, msg Message) error {
	rec := firestoreMessage{
		MessageID: msg.ID,
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  msg.Metadata,
		CreatedAt: msg.CreatedAt,
		Seq:       time.Now().UnixNano(),
	}
	if _, _, err := s.messagesRef(msg.SessionID).Add(ctx, rec); err != nil {
		return fmt.Errorf("history: firestore add: %w", err)
	}
	return nil
}

// Messages reads the session's documents ordered by seq.
func (s *FirestoreStore) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	iter := s.messagesRef(sessionID).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()
	var out []Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("history: firestore read: %w", err)
		}
		var rec firestoreMessage
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("history: firestore decode: %w", err)
		}
		out = append(out, Message{
			ID:        rec.MessageID,
			SessionID: rec.SessionID,
			Role:      rec.Role,
			Content:   rec.Content,
			Metadata:  rec.Metadata,
			CreatedAt: rec.CreatedAt,
		})
	}
	return out, nil
}

// Search is not available: Firestore has no native full-text queries, and
// emulating one client-side would hide a full collection scan.
func (s *FirestoreStore) Search(ctx context.Context, sessionID, query string) ([]Message, error) {
	return nil, ErrSearchUnsupported
}

// Clear deletes every message document of the session via a BulkWriter.
// Delete only reports enqueue failures; the server-side outcome of each
// write surfaces through its job after End, so every job must be checked.
func (s *FirestoreStore) Clear(ctx context.Context, sessionID string) error {
	iter := s.messagesRef(sessionID).Documents(ctx)
	defer iter.Stop()
	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("history: firestore clear scan: %w", err)
		}
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			return fmt.Errorf("history: firestore clear delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("history: firestore clear flush: %w", err)
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
