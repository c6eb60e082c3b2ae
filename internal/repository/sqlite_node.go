package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/crawl/internal/db"
	"github.com/alexanderramin/crawl/internal/domain"
)

// nodeColumns is the canonical SELECT column list for nodes.
const nodeColumns = `id, type, name, active, parent_id, order_index, schedule, created_at, updated_at`

// SQLiteNodeStore implements NodeStore on the nodes table.
type SQLiteNodeStore struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteNodeStore creates a store. uow groups DeleteBatch into one
// transaction; pass nil for a store that already runs inside one.
func NewSQLiteNodeStore(q db.DBTX, uow db.UnitOfWork) *SQLiteNodeStore {
	return &SQLiteNodeStore{db: q, uow: uow}
}

func (s *SQLiteNodeStore) FetchAll(ctx context.Context) ([]*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes ORDER BY parent_id, order_index, name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return nodes, nil
}

func (s *SQLiteNodeStore) Get(ctx context.Context, id string) (*domain.Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}
	return n, nil
}

func (s *SQLiteNodeStore) Insert(ctx context.Context, n *domain.Node) error {
	sched, err := scheduleToValue(n.Schedule)
	if err != nil {
		return fmt.Errorf("encoding schedule: %w", err)
	}
	created, updated := n.CreatedAt, n.UpdatedAt
	if created.IsZero() {
		created = nowUTC()
	}
	if updated.IsZero() {
		updated = created
	}

	query := `INSERT INTO nodes (` + nodeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		n.ID,
		string(n.Type),
		n.Name,
		boolToInt(n.Active),
		n.ParentID, // *string: nil becomes SQL NULL
		n.Order,
		sched,
		created.UTC().Format(timeLayout),
		updated.UTC().Format(timeLayout),
	)
	if err != nil {
		if sentinel := classifySQLiteErr(err); sentinel != nil {
			return fmt.Errorf("inserting node %s: %w", n.ID, sentinel)
		}
		return fmt.Errorf("inserting node %s: %w", n.ID, err)
	}
	return nil
}

func (s *SQLiteNodeStore) Update(ctx context.Context, id string, patch domain.NodePatch) error {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, boolToInt(*patch.Active))
	}
	if patch.Order != nil {
		sets = append(sets, "order_index = ?")
		args = append(args, *patch.Order)
	}
	if patch.Parent != nil {
		sets = append(sets, "parent_id = ?")
		args = append(args, patch.Parent.ID)
	}
	if patch.Schedule != nil {
		sched, err := scheduleToValue(patch.Schedule.Value)
		if err != nil {
			return fmt.Errorf("encoding schedule: %w", err)
		}
		sets = append(sets, "schedule = ?")
		args = append(args, sched)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, nowUTC().Format(timeLayout), id)

	res, err := s.db.ExecContext(ctx, `UPDATE nodes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if sentinel := classifySQLiteErr(err); sentinel != nil {
			return fmt.Errorf("updating node %s: %w", id, sentinel)
		}
		return fmt.Errorf("updating node %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteNodeStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteNodeStore) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	run := func(ctx context.Context, q db.DBTX) error {
		for _, id := range ids {
			if _, err := q.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
				return fmt.Errorf("deleting node %s: %w", id, err)
			}
		}
		return nil
	}
	if s.uow == nil {
		return run(ctx, s.db)
	}
	return s.uow.WithinTx(ctx, run)
}

// Revision implements RevisionSource.
func (s *SQLiteNodeStore) Revision(ctx context.Context) (int64, error) {
	return db.Revision(ctx, s.db)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*domain.Node, error) {
	var n domain.Node
	var typeStr, createdAtStr, updatedAtStr string
	var active int
	var parentID, sched sql.NullString

	if err := row.Scan(
		&n.ID, &typeStr, &n.Name, &active, &parentID, &n.Order, &sched,
		&createdAtStr, &updatedAtStr,
	); err != nil {
		return nil, err
	}
	return populateNode(&n, typeStr, active, parentID, sched, createdAtStr, updatedAtStr)
}

// populateNode fills in parsed fields after scanning raw columns.
func populateNode(
	n *domain.Node,
	typeStr string,
	active int,
	parentID, sched sql.NullString,
	createdAtStr, updatedAtStr string,
) (*domain.Node, error) {
	n.Type = domain.NodeType(typeStr)
	n.Active = intToBool(active)
	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	if n.Type == domain.TypeItem {
		n.Schedule = scheduleFromColumn(sched)
	}

	var err error
	if n.CreatedAt, err = time.Parse(timeLayout, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if n.UpdatedAt, err = time.Parse(timeLayout, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return n, nil
}
