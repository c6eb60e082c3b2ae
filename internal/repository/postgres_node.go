package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/schedule"
)

// ChangeChannel is the NOTIFY channel raised on every write to crawl_nodes.
const ChangeChannel = "crawl_nodes_changed"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS crawl_nodes (
		id          text PRIMARY KEY,
		type        text NOT NULL
		            CHECK (type IN ('folder','bucket','itemFolder','item','templateFolder','template')),
		name        text NOT NULL,
		active      boolean NOT NULL DEFAULT true,
		parent_id   text REFERENCES crawl_nodes(id) ON DELETE CASCADE,
		order_index integer NOT NULL DEFAULT 0,
		schedule    jsonb,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS crawl_nodes_parent_idx ON crawl_nodes(parent_id)`,
	`CREATE TABLE IF NOT EXISTS crawl_revision (
		id       integer PRIMARY KEY CHECK (id = 1),
		revision bigint NOT NULL DEFAULT 0
	)`,
	`INSERT INTO crawl_revision (id, revision) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
	`CREATE OR REPLACE FUNCTION crawl_nodes_touch() RETURNS trigger AS $$
	BEGIN
		UPDATE crawl_revision SET revision = revision + 1 WHERE id = 1;
		PERFORM pg_notify('` + ChangeChannel + `', TG_OP);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS crawl_nodes_touch ON crawl_nodes`,
	`CREATE TRIGGER crawl_nodes_touch AFTER INSERT OR UPDATE OR DELETE ON crawl_nodes
		FOR EACH STATEMENT EXECUTE FUNCTION crawl_nodes_touch()`,
}

const pgNodeColumns = `id, type, name, active, parent_id, order_index, schedule, created_at, updated_at`

// PostgresNodeStore implements NodeStore on a shared Postgres database, so
// several operators can edit one catalog.
type PostgresNodeStore struct {
	pool *pgxpool.Pool
}

// NewPostgresNodeStore connects to dsn and ensures the schema exists.
func NewPostgresNodeStore(ctx context.Context, dsn string) (*PostgresNodeStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := &PostgresNodeStore{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates tables, the revision counter and the notify trigger.
func (s *PostgresNodeStore) EnsureSchema(ctx context.Context) error {
	for i, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema %d: %w", i, err)
		}
	}
	return nil
}

func (s *PostgresNodeStore) Close() {
	s.pool.Close()
}

func (s *PostgresNodeStore) FetchAll(ctx context.Context) ([]*domain.Node, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgNodeColumns+` FROM crawl_nodes ORDER BY parent_id NULLS FIRST, order_index, name`)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.Node
	for rows.Next() {
		n, err := scanPGNode(rows)
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

func (s *PostgresNodeStore) Get(ctx context.Context, id string) (*domain.Node, error) {
	n, err := scanPGNode(s.pool.QueryRow(ctx, `SELECT `+pgNodeColumns+` FROM crawl_nodes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}
	return n, nil
}

func (s *PostgresNodeStore) Insert(ctx context.Context, n *domain.Node) error {
	sched, err := scheduleToValue(n.Schedule)
	if err != nil {
		return fmt.Errorf("encoding schedule: %w", err)
	}
	created := n.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}
	updated := n.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO crawl_nodes (`+pgNodeColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)`,
		n.ID, string(n.Type), n.Name, n.Active, n.ParentID, n.Order, sched, created, updated)
	if err != nil {
		return fmt.Errorf("inserting node %s: %w", n.ID, classifyPGErr(err))
	}
	return nil
}

func (s *PostgresNodeStore) Update(ctx context.Context, id string, patch domain.NodePatch) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	if patch.Order != nil {
		add("order_index", *patch.Order)
	}
	if patch.Parent != nil {
		add("parent_id", patch.Parent.ID)
	}
	if patch.Schedule != nil {
		sched, err := scheduleToValue(patch.Schedule.Value)
		if err != nil {
			return fmt.Errorf("encoding schedule: %w", err)
		}
		args = append(args, sched)
		sets = append(sets, fmt.Sprintf("schedule = $%d::jsonb", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE crawl_nodes SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return fmt.Errorf("updating node %s: %w", id, classifyPGErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresNodeStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crawl_nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresNodeStore) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM crawl_nodes WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("deleting %d nodes: %w", len(ids), err)
	}
	return nil
}

// Revision implements RevisionSource.
func (s *PostgresNodeStore) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := s.pool.QueryRow(ctx, `SELECT revision FROM crawl_revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, fmt.Errorf("reading catalog revision: %w", err)
	}
	return rev, nil
}

// Listen blocks until ctx is done, calling fn for every change notification
// raised by any writer, this process included.
func (s *PostgresNodeStore) Listen(ctx context.Context, fn func(op string)) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return fmt.Errorf("listening on %s: %w", ChangeChannel, err)
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("waiting for notification: %w", err)
		}
		fn(n.Payload)
	}
}

func scanPGNode(row pgx.Row) (*domain.Node, error) {
	var n domain.Node
	var typeStr string
	var sched []byte
	var created, updated time.Time
	if err := row.Scan(&n.ID, &typeStr, &n.Name, &n.Active, &n.ParentID, &n.Order, &sched, &created, &updated); err != nil {
		return nil, err
	}
	n.Type = domain.NodeType(typeStr)
	if n.Type == domain.TypeItem {
		n.Schedule = schedule.Decode(sched)
	}
	n.CreatedAt, n.UpdatedAt = created.UTC(), updated.UTC()
	return &n, nil
}

// classifyPGErr maps constraint violations to the package sentinels.
func classifyPGErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w: %s", ErrParentMissing, pgErr.Message)
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Message)
		}
	}
	return err
}
