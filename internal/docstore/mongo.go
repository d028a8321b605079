package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Store on a MongoDB database. Documents live in the
// collection named after the innermost collection segment of their path,
// keyed by the full path, with the parent collection path denormalized for
// queries. Batches commit inside a session transaction, so preconditions
// reject the whole batch.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo wraps an existing database handle.
func NewMongo(client *mongo.Client, db *mongo.Database) *Mongo {
	return &Mongo{client: client, db: db}
}

type mongoDoc struct {
	Path      string    `bson:"_id"`
	Parent    string    `bson:"parent"`
	Doc       Document  `bson:"doc"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *mongoDoc) snapshot(id string) *Snapshot {
	return &Snapshot{
		Path:       d.Path,
		ID:         id,
		Data:       d.Doc,
		CreateTime: d.CreatedAt,
		UpdateTime: d.UpdatedAt,
	}
}

func (s *Mongo) Get(ctx context.Context, path string) (*Snapshot, error) {
	_, id, collection, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	var rec mongoDoc
	err = s.db.Collection(collection).FindOne(ctx, bson.M{"_id": path}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return rec.snapshot(id), nil
}

func (s *Mongo) Create(ctx context.Context, path string, doc Document) error {
	parent, _, collection, err := splitDocPath(path)
	if err != nil {
		return err
	}
	return s.insert(ctx, collection, parent, path, doc)
}

func (s *Mongo) insert(ctx context.Context, collection, parent, path string, doc Document) error {
	now := time.Now()
	_, err := s.db.Collection(collection).InsertOne(ctx, mongoDoc{
		Path:      path,
		Parent:    parent,
		Doc:       doc,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
		}
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

func (s *Mongo) Update(ctx context.Context, path string, patch Document, pre Precondition) error {
	_, _, collection, err := splitDocPath(path)
	if err != nil {
		return err
	}
	return s.applyUpdate(ctx, collection, path, patch, pre)
}

func (s *Mongo) applyUpdate(ctx context.Context, collection, path string, patch Document, pre Precondition) error {
	filter := bson.M{"_id": path}
	if pre.conditional {
		filter["updatedAt"] = pre.lastUpdated
	}
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range patch {
		set["doc."+k] = v
	}
	coll := s.db.Collection(collection)
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	if res.MatchedCount == 0 {
		if err := coll.FindOne(ctx, bson.M{"_id": path}).Err(); err == mongo.ErrNoDocuments {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: %s", ErrFailedPrecondition, path)
	}
	return nil
}

func (s *Mongo) Query(ctx context.Context, collectionPath string, q Query) ([]*Snapshot, error) {
	collection, err := splitCollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"parent": collectionPath}
	if q.Field != "" {
		filter["doc."+q.Field] = q.Equals
	}
	opts := options.Find()
	if q.OrderBy != "" {
		opts.SetSort(bson.D{{Key: "doc." + q.OrderBy, Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collectionPath, err)
	}
	defer cursor.Close(ctx)

	var snapshots []*Snapshot
	for cursor.Next(ctx) {
		var rec mongoDoc
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("query %s: decode: %w", collectionPath, err)
		}
		_, id, _, err := splitDocPath(rec.Path)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, rec.snapshot(id))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", collectionPath, err)
	}
	return snapshots, nil
}

type mongoOp struct {
	update bool
	path   string
	doc    Document
	pre    Precondition
}

type mongoBatch struct {
	store *Mongo
	ops   []mongoOp
}

func (s *Mongo) Batch() Batch {
	return &mongoBatch{store: s}
}

func (b *mongoBatch) Create(path string, doc Document) {
	b.ops = append(b.ops, mongoOp{path: path, doc: doc})
}

func (b *mongoBatch) Update(path string, patch Document, pre Precondition) {
	b.ops = append(b.ops, mongoOp{update: true, path: path, doc: patch, pre: pre})
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	session, err := b.store.client.StartSession()
	if err != nil {
		return fmt.Errorf("batch: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		for _, op := range b.ops {
			parent, _, collection, err := splitDocPath(op.path)
			if err != nil {
				return nil, err
			}
			if op.update {
				err = b.store.applyUpdate(sc, collection, op.path, op.doc, op.pre)
			} else {
				err = b.store.insert(sc, collection, parent, op.path, op.doc)
			}
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
