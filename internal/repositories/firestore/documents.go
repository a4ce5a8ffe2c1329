package firestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	pfirestore "github.com/sobri3195/WarungWA/internal/platform/firestore"
)

// The helpers below route document operations through the transaction stored
// on the context when a unit of work is active, and fall back to direct client
// calls otherwise. Reads inside a transaction must happen before any buffered
// write; callers sequence their operations accordingly.

func getDoc(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	if tx := pfirestore.TransactionFrom(ctx); tx != nil {
		return tx.Get(ref)
	}
	return ref.Get(ctx)
}

func createDoc(ctx context.Context, ref *firestore.DocumentRef, data any) error {
	if tx := pfirestore.TransactionFrom(ctx); tx != nil {
		return tx.Create(ref, data)
	}
	_, err := ref.Create(ctx, data)
	return err
}

func setDoc(ctx context.Context, ref *firestore.DocumentRef, data any) error {
	if tx := pfirestore.TransactionFrom(ctx); tx != nil {
		return tx.Set(ref, data)
	}
	_, err := ref.Set(ctx, data)
	return err
}

func deleteDoc(ctx context.Context, ref *firestore.DocumentRef) error {
	if tx := pfirestore.TransactionFrom(ctx); tx != nil {
		return tx.Delete(ref)
	}
	_, err := ref.Delete(ctx, firestore.Exists)
	return err
}

func queryDocs(ctx context.Context, query firestore.Query) ([]*firestore.DocumentSnapshot, error) {
	var iter *firestore.DocumentIterator
	if tx := pfirestore.TransactionFrom(ctx); tx != nil {
		iter = tx.Documents(query)
	} else {
		iter = query.Documents(ctx)
	}
	defer iter.Stop()

	var docs []*firestore.DocumentSnapshot
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Cursor tokens pin list pagination to a (timestamp, document id) pair so
// pages stay stable under concurrent inserts.
func encodeCursorToken(ts time.Time, docID string) string {
	raw := fmt.Sprintf("%s|%s", ts.UTC().Format(time.RFC3339Nano), docID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursorToken(token string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return time.Time{}, "", errors.New("invalid page token")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token: %w", err)
	}
	return ts, parts[1], nil
}
