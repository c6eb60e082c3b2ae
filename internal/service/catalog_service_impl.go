package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/repository"
	"github.com/alexanderramin/crawl/internal/schedule"
	"github.com/alexanderramin/crawl/internal/tree"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDebounce         = 1500 * time.Millisecond
	DefaultWriteConcurrency = 8
)

// CatalogOptions tunes a catalog service. Zero values take defaults.
type CatalogOptions struct {
	Debounce         time.Duration
	WriteConcurrency int
	Now              func() time.Time
	NewID            func() string
}

func (o CatalogOptions) withDefaults() CatalogOptions {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.WriteConcurrency <= 0 {
		o.WriteConcurrency = DefaultWriteConcurrency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
	return o
}

type catalogService struct {
	store    repository.NodeStore
	opts     CatalogOptions
	observer UseCaseObserver

	// op serializes operations end to end, persistence included.
	op sync.Mutex

	mu        sync.RWMutex
	forest    *tree.Forest
	clip      *tree.Clipboard
	lastLocal time.Time
}

func NewCatalogService(store repository.NodeStore, opts CatalogOptions, observers ...UseCaseObserver) CatalogService {
	return &catalogService{
		store:    store,
		opts:     opts.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
		forest:   tree.New(),
	}
}

func (s *catalogService) Load(ctx context.Context) (err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		s.observe(ctx, "catalog.load", startedAt, fields, err)
	}()

	s.op.Lock()
	defer s.op.Unlock()

	f, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.setForest(f)
	fields["nodes"] = f.Len()
	if orphans := f.Orphans(); len(orphans) > 0 {
		fields["orphans"] = len(orphans)
	}
	return nil
}

func (s *catalogService) Refresh(ctx context.Context) (changed bool, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		fields["changed"] = changed
		s.observe(ctx, "catalog.refresh", startedAt, fields, err)
	}()

	s.op.Lock()
	defer s.op.Unlock()
	return s.refreshLocked(ctx)
}

func (s *catalogService) refreshLocked(ctx context.Context) (bool, error) {
	f, err := s.fetch(ctx)
	if err != nil {
		return false, err
	}
	changed := !tree.SameStructure(s.Forest(), f)
	s.setForest(f)
	return changed, nil
}

func (s *catalogService) ExternalChange(ctx context.Context) (changed bool, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		fields["changed"] = changed
		s.observe(ctx, "catalog.external_change", startedAt, fields, err)
	}()

	if !s.op.TryLock() {
		fields["skipped"] = "in_flight"
		return false, nil
	}
	defer s.op.Unlock()

	s.mu.RLock()
	last := s.lastLocal
	s.mu.RUnlock()
	if !last.IsZero() && s.opts.Now().Sub(last) < s.opts.Debounce {
		fields["skipped"] = "debounced"
		return false, nil
	}
	return s.refreshLocked(ctx)
}

// Forest returns the current snapshot. Snapshots are never mutated; every
// operation swaps in a new one.
func (s *catalogService) Forest() *tree.Forest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest
}

func (s *catalogService) Rows() []tree.Row {
	return tree.FlattenWithPaths(s.Forest())
}

// VisibleRows hides, when hideInactive is set, every row whose node or any
// ancestor is switched off or outside its schedule at now.
func (s *catalogService) VisibleRows(now time.Time, hideInactive bool) []tree.Row {
	rows := s.Rows()
	if !hideInactive {
		return rows
	}
	live := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		ok := r.Node.LiveAt(now)
		if ok && r.Node.ParentID != nil {
			ok = live[*r.Node.ParentID]
		}
		live[r.Node.ID] = ok
		if ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *catalogService) Create(ctx context.Context, n *domain.Node) (Outcome, error) {
	return s.apply(ctx, "catalog.create", map[string]any{"type": string(n.Type)}, func(f *tree.Forest) (*tree.Plan, error) {
		n := n.Clone()
		if n.ID == "" {
			n.ID = s.opts.NewID()
		}
		return tree.PlanCreate(f, n)
	})
}

func (s *catalogService) Rename(ctx context.Context, id, name string) (Outcome, error) {
	return s.apply(ctx, "catalog.rename", nil, func(f *tree.Forest) (*tree.Plan, error) {
		return tree.PlanRename(f, id, name)
	})
}

func (s *catalogService) SetActive(ctx context.Context, id string, active bool) (Outcome, error) {
	return s.apply(ctx, "catalog.set_active", map[string]any{"active": active}, func(f *tree.Forest) (*tree.Plan, error) {
		n, ok := f.Node(id)
		if ok && n.Active == active {
			return &tree.Plan{Forest: f, NodeID: id, Name: n.Name}, nil
		}
		return tree.PlanUpdate(f, id, domain.NodePatch{Active: domain.BoolPtr(active)})
	})
}

// SetSchedule replaces an item's schedule wholesale; nil clears it. Authoring
// warnings are returned with the outcome, never as errors.
func (s *catalogService) SetSchedule(ctx context.Context, id string, sched *schedule.Schedule) (Outcome, error) {
	out, err := s.apply(ctx, "catalog.set_schedule", nil, func(f *tree.Forest) (*tree.Plan, error) {
		return tree.PlanUpdate(f, id, domain.NodePatch{Schedule: &domain.ScheduleChange{Value: sched}})
	})
	if err == nil && out.Applied {
		out.Warnings = sched.Warnings()
	}
	return out, err
}

func (s *catalogService) Delete(ctx context.Context, id string) (Outcome, error) {
	return s.apply(ctx, "catalog.delete", nil, func(f *tree.Forest) (*tree.Plan, error) {
		return tree.PlanDelete(f, id)
	})
}

func (s *catalogService) Move(ctx context.Context, id, overID string, pos tree.Position) (Outcome, error) {
	fields := map[string]any{"over": overID, "position": pos.String()}
	return s.apply(ctx, "catalog.move", fields, func(f *tree.Forest) (*tree.Plan, error) {
		return tree.Relocate(f, id, overID, pos)
	})
}

func (s *catalogService) MoveMany(ctx context.Context, ids []string, overID string, pos tree.Position) (Outcome, error) {
	fields := map[string]any{"over": overID, "position": pos.String(), "dragged": len(ids)}
	return s.apply(ctx, "catalog.move_many", fields, func(f *tree.Forest) (*tree.Plan, error) {
		return tree.RelocateMany(f, ids, overID, pos)
	})
}

func (s *catalogService) Graft(ctx context.Context, parentID string, subtrees []*tree.TreeNode) (Outcome, error) {
	fields := map[string]any{"parent": parentID, "nodes": tree.Count(subtrees)}
	return s.apply(ctx, "catalog.graft", fields, func(f *tree.Forest) (*tree.Plan, error) {
		return tree.PlanGraft(f, parentID, subtrees, s.opts.NewID)
	})
}

func (s *catalogService) Copy(id string) error {
	return s.setClipboard(id, tree.Copy)
}

func (s *catalogService) Cut(id string) error {
	return s.setClipboard(id, tree.Cut)
}

func (s *catalogService) setClipboard(id string, mode tree.ClipMode) error {
	if _, ok := s.Forest().Node(id); !ok {
		return fmt.Errorf("node %s: %w", id, repository.ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clip = &tree.Clipboard{NodeID: id, Mode: mode}
	return nil
}

func (s *catalogService) Clipboard() (tree.Clipboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.clip == nil {
		return tree.Clipboard{}, false
	}
	return *s.clip, true
}

func (s *catalogService) ClearClipboard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clip = nil
}

func (s *catalogService) Paste(ctx context.Context, target string) (Outcome, error) {
	clip, ok := s.Clipboard()
	if !ok {
		return Outcome{Reason: "clipboard is empty"}, nil
	}
	fields := map[string]any{"source": clip.NodeID, "mode": clip.Mode.String(), "target": target}
	out, err := s.apply(ctx, "catalog.paste", fields, func(f *tree.Forest) (*tree.Plan, error) {
		if _, ok := f.Node(clip.NodeID); !ok {
			return nil, fmt.Errorf("%w: clipboard source %s no longer exists", tree.ErrIllegalMove, clip.NodeID)
		}
		return tree.PlanPaste(f, clip.NodeID, target, clip.Mode, s.opts.NewID)
	})
	if err == nil && out.Applied && clip.Mode == tree.Cut {
		s.ClearClipboard()
	}
	return out, err
}

// apply runs one operation: plan against the current forest, swap the
// planned forest in, persist, then adopt a fresh read of the store. An
// illegal gesture yields an unapplied outcome and a nil error. A failed
// write is recovered by the refetch and reported in Outcome.PersistErr; the
// error return is reserved for bad input and for a refetch that fails.
func (s *catalogService) apply(ctx context.Context, name string, fields map[string]any, plan func(*tree.Forest) (*tree.Plan, error)) (out Outcome, err error) {
	startedAt := time.Now()
	if fields == nil {
		fields = map[string]any{}
	}
	defer func() {
		if out.NodeID != "" {
			fields["node_id"] = out.NodeID
		}
		fields["applied"] = out.Applied
		if out.Reconciled {
			fields["reconciled"] = true
		}
		if out.Reason != "" {
			fields["reason"] = out.Reason
		}
		if out.PersistErr != nil {
			fields["persist_error"] = out.PersistErr.Error()
		}
		s.observe(ctx, name, startedAt, fields, err)
	}()

	s.op.Lock()
	defer s.op.Unlock()

	p, err := plan(s.Forest())
	if err != nil {
		if errors.Is(err, tree.ErrIllegalMove) {
			out.Reason = err.Error()
			return out, nil
		}
		return out, err
	}
	out.NodeID, out.Name = p.NodeID, p.Name
	if p.Empty() {
		return out, nil
	}
	fields["writes"] = p.Writes()

	s.setForest(p.Forest)
	s.markLocal()
	out.Applied = true

	persistErr := s.persist(ctx, p)
	s.markLocal()

	fresh, err := s.fetch(ctx)
	if err != nil {
		if persistErr != nil {
			return out, errors.Join(persistErr, err)
		}
		return out, err
	}
	if persistErr != nil {
		out.PersistErr = persistErr
		out.Reconciled = true
	} else if !tree.SameStructure(p.Forest, fresh) {
		out.Reconciled = true
	}
	s.setForest(fresh)
	if n, ok := fresh.Node(out.NodeID); ok {
		out.Name = n.Name
	}
	return out, nil
}

// persist writes a plan. Insert levels go one after another so parents
// exist before their children; within a level, and for the patches and the
// batch delete, calls run concurrently.
func (s *catalogService) persist(ctx context.Context, p *tree.Plan) error {
	now := s.opts.Now().UTC()
	for _, level := range p.Inserts {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.WriteConcurrency)
		for _, n := range level {
			n.CreatedAt, n.UpdatedAt = now, now
			g.Go(func() error {
				if err := s.store.Insert(gctx, n); err != nil {
					return fmt.Errorf("inserting %s: %w", n.ID, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.WriteConcurrency)
	for _, patch := range p.Patches {
		g.Go(func() error {
			if err := s.store.Update(gctx, patch.NodeID, patch.Fields); err != nil {
				return fmt.Errorf("updating %s: %w", patch.NodeID, err)
			}
			return nil
		})
	}
	if len(p.Deletes) > 0 {
		g.Go(func() error {
			if err := s.store.DeleteBatch(gctx, p.Deletes); err != nil {
				return fmt.Errorf("deleting %d nodes: %w", len(p.Deletes), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *catalogService) fetch(ctx context.Context) (*tree.Forest, error) {
	nodes, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	return tree.BuildTree(nodes), nil
}

func (s *catalogService) setForest(f *tree.Forest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest = f
}

func (s *catalogService) markLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLocal = s.opts.Now()
}

func (s *catalogService) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
