package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is a mutex-guarded in-memory Store with the same semantics as the
// Mongo implementation. It backs unit tests and local development.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*memoryDoc
}

type memoryDoc struct {
	parent     string
	data       Document
	createTime time.Time
	updateTime time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*memoryDoc)}
}

func (s *Memory) Get(ctx context.Context, path string) (*Snapshot, error) {
	_, id, _, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return &Snapshot{
		Path:       path,
		ID:         id,
		Data:       cloneDocument(d.data),
		CreateTime: d.createTime,
		UpdateTime: d.updateTime,
	}, nil
}

func (s *Memory) Create(ctx context.Context, path string, doc Document) error {
	parent, _, _, err := splitDocPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(parent, path, doc)
}

func (s *Memory) createLocked(parent, path string, doc Document) error {
	if _, ok := s.docs[path]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	now := time.Now()
	s.docs[path] = &memoryDoc{
		parent:     parent,
		data:       cloneDocument(doc),
		createTime: now,
		updateTime: now,
	}
	return nil
}

func (s *Memory) Update(ctx context.Context, path string, patch Document, pre Precondition) error {
	if _, _, _, err := splitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUpdateLocked(path, pre); err != nil {
		return err
	}
	s.updateLocked(path, patch)
	return nil
}

func (s *Memory) checkUpdateLocked(path string, pre Precondition) error {
	d, ok := s.docs[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if pre.conditional && !d.updateTime.Equal(pre.lastUpdated) {
		return fmt.Errorf("%w: %s", ErrFailedPrecondition, path)
	}
	return nil
}

func (s *Memory) updateLocked(path string, patch Document) {
	d := s.docs[path]
	for k, v := range patch {
		d.data[k] = cloneValue(v)
	}
	now := time.Now()
	if !now.After(d.updateTime) {
		now = d.updateTime.Add(time.Nanosecond)
	}
	d.updateTime = now
}

func (s *Memory) Query(ctx context.Context, collectionPath string, q Query) ([]*Snapshot, error) {
	if _, err := splitCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshots []*Snapshot
	for path, d := range s.docs {
		if d.parent != collectionPath {
			continue
		}
		if q.Field != "" && !valuesEqual(d.data[q.Field], q.Equals) {
			continue
		}
		_, id, _, err := splitDocPath(path)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &Snapshot{
			Path:       path,
			ID:         id,
			Data:       cloneDocument(d.data),
			CreateTime: d.createTime,
			UpdateTime: d.updateTime,
		})
	}
	if q.OrderBy != "" {
		sort.Slice(snapshots, func(i, j int) bool {
			return lessValue(snapshots[i].Data[q.OrderBy], snapshots[j].Data[q.OrderBy])
		})
	}
	if q.Limit > 0 && len(snapshots) > q.Limit {
		snapshots = snapshots[:q.Limit]
	}
	return snapshots, nil
}

type memoryOp struct {
	update bool
	path   string
	doc    Document
	pre    Precondition
}

type memoryBatch struct {
	store *Memory
	ops   []memoryOp
}

func (s *Memory) Batch() Batch {
	return &memoryBatch{store: s}
}

func (b *memoryBatch) Create(path string, doc Document) {
	b.ops = append(b.ops, memoryOp{path: path, doc: cloneDocument(doc)})
}

func (b *memoryBatch) Update(path string, patch Document, pre Precondition) {
	b.ops = append(b.ops, memoryOp{update: true, path: path, doc: cloneDocument(patch), pre: pre})
}

// Commit validates every queued op before applying any, under one lock, so
// the batch is all-or-nothing.
func (b *memoryBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	parents := make([]string, len(b.ops))
	staged := make(map[string]bool, len(b.ops))
	for i, op := range b.ops {
		parent, _, _, err := splitDocPath(op.path)
		if err != nil {
			return err
		}
		parents[i] = parent
		if op.update {
			if err := b.store.checkUpdateLocked(op.path, op.pre); err != nil {
				return err
			}
		} else {
			if _, ok := b.store.docs[op.path]; ok || staged[op.path] {
				return fmt.Errorf("%w: %s", ErrAlreadyExists, op.path)
			}
			staged[op.path] = true
		}
	}
	for i, op := range b.ops {
		if op.update {
			b.store.updateLocked(op.path, op.doc)
		} else {
			_ = b.store.createLocked(parents[i], op.path, op.doc)
		}
	}
	return nil
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

func lessValue(a, b any) bool {
	switch at := a.(type) {
	case time.Time:
		if bt, ok := b.(time.Time); ok {
			return at.Before(bt)
		}
	case string:
		if bs, ok := b.(string); ok {
			return at < bs
		}
	case int:
		if bi, ok := b.(int); ok {
			return at < bi
		}
	case int64:
		if bi, ok := b.(int64); ok {
			return at < bi
		}
	case float64:
		if bf, ok := b.(float64); ok {
			return at < bf
		}
	}
	return false
}
