package pending

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/traino/session-bridge/internal/crypto"
	"github.com/traino/session-bridge/internal/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Ensure FirestoreStore implements the Store interface
var _ Store = (*FirestoreStore)(nil)

// FirestoreStore is the durable registry backend for deployments that
// cannot afford to drop pending sessions on restart. Session tokens are
// encrypted before leaving process memory.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	ttl        time.Duration
	encryptor  crypto.Encryptor
}

// pendingSessionDoc is the Firestore document layout
type pendingSessionDoc struct {
	SessionToken string `firestore:"session_token"` // encrypted
	CreatedAt    int64  `firestore:"created_at"`    // Unix timestamp
	ExpiresAt    int64  `firestore:"expires_at"`    // Unix timestamp
}

// NewFirestoreStore creates a Firestore-backed pending session store
func NewFirestoreStore(ctx context.Context, projectID, database, collection string, ttl time.Duration, encryptor crypto.Encryptor) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}
	if database == "" {
		database = "(default)"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return nil, fmt.Errorf("creating Firestore client: %w", err)
	}

	log.LogInfoWithFields("pending", "Firestore pending session store ready", map[string]any{
		"project":    projectID,
		"database":   database,
		"collection": collection,
	})

	return &FirestoreStore{
		client:     client,
		collection: collection,
		ttl:        ttl,
		encryptor:  encryptor,
	}, nil
}

// Store inserts or overwrites the entry for authCode with a fresh expiry
func (s *FirestoreStore) Store(ctx context.Context, authCode, sessionToken string) error {
	encrypted, err := s.encryptor.Encrypt(sessionToken)
	if err != nil {
		return fmt.Errorf("encrypting session token: %w", err)
	}

	now := time.Now()
	doc := pendingSessionDoc{
		SessionToken: encrypted,
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Add(s.ttl).Unix(),
	}

	if _, err := s.client.Collection(s.collection).Doc(authCode).Set(ctx, doc); err != nil {
		return fmt.Errorf("storing pending session: %w", err)
	}
	return nil
}

// Consume retrieves and deletes the entry for authCode. The read and
// delete run in one Firestore transaction so concurrent consumers cannot
// both succeed. An expired entry is deleted inside the same transaction
// and reported as not found.
func (s *FirestoreStore) Consume(ctx context.Context, authCode string) (string, error) {
	ref := s.client.Collection(s.collection).Doc(authCode)

	var encrypted string
	var expired bool

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrCodeNotFound
			}
			return fmt.Errorf("getting pending session: %w", err)
		}

		var sessionDoc pendingSessionDoc
		if err := doc.DataTo(&sessionDoc); err != nil {
			return fmt.Errorf("unmarshaling pending session: %w", err)
		}

		// Delete regardless of expiry: expired entries are garbage,
		// valid ones are single-use. The delete must commit either way,
		// so expiry is signalled through the flag, not an error.
		expired = time.Now().Unix() > sessionDoc.ExpiresAt
		encrypted = sessionDoc.SessionToken
		return tx.Delete(ref)
	})
	if err != nil {
		return "", err
	}
	if expired {
		return "", ErrCodeNotFound
	}

	sessionToken, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting session token: %w", err)
	}
	return sessionToken, nil
}

// CleanupExpired removes all entries past their expiry using batched deletes
func (s *FirestoreStore) CleanupExpired(ctx context.Context) (int, error) {
	now := time.Now().Unix()
	iter := s.client.Collection(s.collection).
		Where("expires_at", "<=", now).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	batch := s.client.Batch()
	batchSize := 0
	const maxBatchSize = 500 // Firestore batch write limit

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, fmt.Errorf("iterating expired pending sessions: %w", err)
		}

		batch.Delete(doc.Ref)
		batchSize++
		count++

		if batchSize >= maxBatchSize {
			if _, err := batch.Commit(ctx); err != nil {
				return count, fmt.Errorf("committing batch: %w", err)
			}
			batch = s.client.Batch()
			batchSize = 0
		}
	}

	if batchSize > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return count, fmt.Errorf("committing final batch: %w", err)
		}
	}

	return count, nil
}

// Close releases the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
