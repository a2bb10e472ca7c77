package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is a Store backed by Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore wraps a Firestore client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, map[string]any(doc))
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, f.wrap(err, "get", collection, id)
	}
	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}
	return Document(data), nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, doc Document) error {
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, map[string]any(doc)); err != nil {
		return f.wrap(err, "set", collection, id)
	}
	return nil
}

func (f *Firestore) Merge(ctx context.Context, collection, id string, fields Document) error {
	updates := make([]firestore.Update, 0, len(fields))
	for key, val := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{key}, Value: val})
	}
	// Update fails with NotFound when the document does not exist.
	if _, err := f.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return f.wrap(err, "merge", collection, id)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return f.wrap(err, "delete", collection, id)
	}
	return nil
}

func (f *Firestore) Scan(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	dir := firestore.Asc
	if q.Descending {
		dir = firestore.Desc
	}
	query := f.client.Collection(collection).Query
	if q.OrderBy == "" {
		query = query.OrderBy(firestore.DocumentID, dir)
		if q.StartAfter != "" {
			query = query.StartAfter(q.StartAfter)
		}
	} else {
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
	}
	snapshots := make([]Snapshot, 0, len(docs))
	for _, d := range docs {
		snapshots = append(snapshots, Snapshot{ID: d.Ref.ID, Data: Document(d.Data())})
	}
	return snapshots, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) wrap(err error, op, collection, id string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return fmt.Errorf("failed to %s %s/%s: %w", op, collection, id, err)
}
