package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/schedule"
)

// nodeRecord is the on-disk JSON form of a node.
type nodeRecord struct {
	ID        string          `json:"id"`
	Type      domain.NodeType `json:"type"`
	Name      string          `json:"name"`
	Active    bool            `json:"active"`
	ParentID  *string         `json:"parentId,omitempty"`
	Order     int             `json:"order"`
	Schedule  json.RawMessage `json:"schedule,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toRecord(n *domain.Node) (*nodeRecord, error) {
	rec := &nodeRecord{
		ID: n.ID, Type: n.Type, Name: n.Name, Active: n.Active, ParentID: n.ParentID,
		Order: n.Order, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt,
	}
	if n.Schedule != nil {
		raw, err := schedule.Encode(n.Schedule)
		if err != nil {
			return nil, err
		}
		rec.Schedule = raw
	}
	return rec, nil
}

func (r *nodeRecord) node() *domain.Node {
	n := &domain.Node{
		ID: r.ID, Type: r.Type, Name: r.Name, Active: r.Active, ParentID: r.ParentID,
		Order: r.Order, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.Type == domain.TypeItem {
		n.Schedule = schedule.Decode(r.Schedule)
	}
	return n
}

// DiskvNodeStore keeps one JSON file per node under a base directory,
// sharded by the first two characters of the id. It enforces the same
// parent and cascade rules as the SQL stores.
type DiskvNodeStore struct {
	mu       sync.Mutex
	d        *diskv.Diskv
	basePath string
	logger   *slog.Logger
}

// NewDiskvNodeStore opens (or creates) a store rooted at basePath.
func NewDiskvNodeStore(basePath string, logger *slog.Logger) *DiskvNodeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiskvNodeStore{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      1024 * 1024,
		}),
		basePath: basePath,
		logger:   logger,
	}
}

// BasePath is the directory the store writes to.
func (s *DiskvNodeStore) BasePath() string {
	return s.basePath
}

func keyToPath(key string) *diskv.PathKey {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return &diskv.PathKey{Path: []string{"nodes", shard}, FileName: key + ".json"}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.TrimSuffix(pk.FileName, ".json")
}

func (s *DiskvNodeStore) read(key string) (*domain.Node, error) {
	raw, err := s.d.Read(key)
	if err != nil {
		return nil, err
	}
	var rec nodeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding node %s: %w", key, err)
	}
	if rec.ID == "" {
		rec.ID = key
	}
	return rec.node(), nil
}

func (s *DiskvNodeStore) write(n *domain.Node) error {
	rec, err := toRecord(n)
	if err != nil {
		return fmt.Errorf("encoding schedule: %w", err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding node %s: %w", n.ID, err)
	}
	return s.d.Write(n.ID, raw)
}

// all loads every readable node. Unreadable files are logged and skipped.
func (s *DiskvNodeStore) all(ctx context.Context) []*domain.Node {
	var nodes []*domain.Node
	for key := range s.d.Keys(ctx.Done()) {
		n, err := s.read(key)
		if err != nil {
			s.logger.Warn("skipping unreadable node", "key", key, "error", err)
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].ParentKey() != nodes[j].ParentKey() {
			return nodes[i].ParentKey() < nodes[j].ParentKey()
		}
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

func (s *DiskvNodeStore) FetchAll(ctx context.Context) ([]*domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := s.all(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *DiskvNodeStore) Get(ctx context.Context, id string) (*domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(id) {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return s.read(id)
}

func (s *DiskvNodeStore) Insert(ctx context.Context, n *domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.Has(n.ID) {
		return fmt.Errorf("inserting node %s: %w", n.ID, ErrDuplicate)
	}
	if n.ParentID != nil && !s.d.Has(*n.ParentID) {
		return fmt.Errorf("inserting node %s: %w", n.ID, ErrParentMissing)
	}
	c := n.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = nowUTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if err := s.write(c); err != nil {
		return fmt.Errorf("inserting node %s: %w", n.ID, err)
	}
	return nil
}

func (s *DiskvNodeStore) Update(ctx context.Context, id string, patch domain.NodePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(id) {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if patch.IsZero() {
		return nil
	}
	if patch.Parent != nil && patch.Parent.ID != nil && !s.d.Has(*patch.Parent.ID) {
		return fmt.Errorf("updating node %s: %w", id, ErrParentMissing)
	}
	n, err := s.read(id)
	if err != nil {
		return err
	}
	patch.Apply(n)
	n.UpdatedAt = nowUTC()
	if err := s.write(n); err != nil {
		return fmt.Errorf("updating node %s: %w", id, err)
	}
	return nil
}

func (s *DiskvNodeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(id) {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return s.eraseSubtrees(ctx, []string{id})
}

func (s *DiskvNodeStore) DeleteBatch(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eraseSubtrees(ctx, ids)
}

// eraseSubtrees removes the given nodes and everything below them.
func (s *DiskvNodeStore) eraseSubtrees(ctx context.Context, ids []string) error {
	children := make(map[string][]string)
	for _, n := range s.all(ctx) {
		if pk := n.ParentKey(); pk != "" {
			children[pk] = append(children[pk], n.ID)
		}
	}
	doomed := make(map[string]bool)
	var collect func(id string)
	collect = func(id string) {
		if doomed[id] {
			return
		}
		doomed[id] = true
		for _, c := range children[id] {
			collect(c)
		}
	}
	for _, id := range ids {
		collect(id)
	}
	for id := range doomed {
		if !s.d.Has(id) {
			continue
		}
		if err := s.d.Erase(id); err != nil {
			return fmt.Errorf("deleting node %s: %w", id, err)
		}
	}
	return nil
}
