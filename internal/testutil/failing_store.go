package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/crawl/internal/db"
	"github.com/alexanderramin/crawl/internal/domain"
)

// nodeStore mirrors repository.NodeStore; testutil cannot import repository
// because repository tests import testutil.
type nodeStore interface {
	FetchAll(ctx context.Context) ([]*domain.Node, error)
	Get(ctx context.Context, id string) (*domain.Node, error)
	Insert(ctx context.Context, n *domain.Node) error
	Update(ctx context.Context, id string, patch domain.NodePatch) error
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
}

// Call records one store call made through a FailingStore.
type Call struct {
	Op string
	ID string
}

// FailingStore wraps a store and injects errors. FailOn is consulted before
// every call with the operation name (fetch, get, insert, update, delete,
// deleteBatch) and the node id; a non-nil result fails the call without
// reaching the inner store.
type FailingStore struct {
	Inner  nodeStore
	FailOn func(op, id string) error
	// Delay is slept before each write, to widen race windows.
	Delay time.Duration

	mu    sync.Mutex
	calls []Call
}

func NewFailingStore(inner nodeStore) *FailingStore {
	return &FailingStore{Inner: inner}
}

// FailWrite makes every write to id fail with err.
func (s *FailingStore) FailWrite(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailOn = func(op, target string) error {
		if op != "fetch" && op != "get" && target == id {
			return err
		}
		return nil
	}
}

// Calls returns the calls seen so far.
func (s *FailingStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Writes counts recorded insert, update and delete calls.
func (s *FailingStore) Writes() int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op != "fetch" && c.Op != "get" {
			n++
		}
	}
	return n
}

func (s *FailingStore) before(op, id string, write bool) error {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: op, ID: id})
	fail := s.FailOn
	s.mu.Unlock()
	if write && s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	if fail != nil {
		return fail(op, id)
	}
	return nil
}

func (s *FailingStore) FetchAll(ctx context.Context) ([]*domain.Node, error) {
	if err := s.before("fetch", "", false); err != nil {
		return nil, err
	}
	return s.Inner.FetchAll(ctx)
}

func (s *FailingStore) Get(ctx context.Context, id string) (*domain.Node, error) {
	if err := s.before("get", id, false); err != nil {
		return nil, err
	}
	return s.Inner.Get(ctx, id)
}

func (s *FailingStore) Insert(ctx context.Context, n *domain.Node) error {
	if err := s.before("insert", n.ID, true); err != nil {
		return err
	}
	return s.Inner.Insert(ctx, n)
}

func (s *FailingStore) Update(ctx context.Context, id string, patch domain.NodePatch) error {
	if err := s.before("update", id, true); err != nil {
		return err
	}
	return s.Inner.Update(ctx, id, patch)
}

func (s *FailingStore) Delete(ctx context.Context, id string) error {
	if err := s.before("delete", id, true); err != nil {
		return err
	}
	return s.Inner.Delete(ctx, id)
}

func (s *FailingStore) DeleteBatch(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.before("deleteBatch", id, true); err != nil {
			return err
		}
	}
	return s.Inner.DeleteBatch(ctx, ids)
}

// FailOnNthExecUoW is a UnitOfWork that fails the Nth ExecContext call
// (counting from 1) inside a transaction. Reads pass through.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.count.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
