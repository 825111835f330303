package ordering

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"cms/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Direction int

const (
	Up Direction = iota + 1
	Down
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, NewValidationError("direction", "must be 'up' or 'down'")
}

// Orderable is implemented by every model kept in an ordered collection
type Orderable interface {
	GetID() string
	GetOrder() int
	SetOrder(order int)
	OrderScope() Scope
}

// Collection describes how one model is stored. Column names are trusted constants.
type Collection struct {
	Name             string
	New              func() Orderable
	IDColumn         string // defaults to "id"
	OrderColumn      string
	VisibilityColumn string // empty when the model has no visibility flag
	CaptionColumn    string // empty when the model has no caption
	MaxCaptionLength int
	// CacheKeys lists the rendered views that must be refreshed after a mutation in scope
	CacheKeys func(scope Scope) []string
}

func (c *Collection) idColumn() string {
	if c.IDColumn == "" {
		return "id"
	}
	return c.IDColumn
}

// Authorizer returns a non-nil error when the caller in ctx may not mutate the collection
type Authorizer func(ctx context.Context) error

// Invalidator receives the cache keys affected by a successful mutation
type Invalidator interface {
	Invalidate(keys ...string)
}

type InvalidatorFunc func(keys ...string)

func (f InvalidatorFunc) Invalidate(keys ...string) {
	f(keys...)
}

// Position is the (id, order) pair of one item
type Position struct {
	ID    string
	Order int
}

type positionRow struct {
	ItemID    string
	ItemOrder int
}

type Manager struct {
	db          *gorm.DB
	collection  Collection
	authorize   Authorizer
	invalidator Invalidator
}

// NewManager binds a collection to a database. A nil authorizer allows every caller
// (used by the seed command); a nil invalidator discards notifications.
func NewManager(db *gorm.DB, collection Collection, authorize Authorizer, invalidator Invalidator) *Manager {
	return &Manager{
		db:          db,
		collection:  collection,
		authorize:   authorize,
		invalidator: invalidator,
	}
}

func (m *Manager) Collection() Collection {
	return m.collection
}

// Append stores item at the end of its scope: max(order)+1, or 1 for an empty scope
func (m *Manager) Append(ctx context.Context, item Orderable) error {
	if err := m.checkAccess(ctx); err != nil {
		return err
	}
	scope := item.OrderScope()
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := m.nextOrder(tx, scope)
		if err != nil {
			return err
		}
		item.SetOrder(next)
		return tx.Create(item).Error
	})
	if err != nil {
		return m.fail("append", err)
	}
	m.invalidate(scope)
	return nil
}

// MoveAdjacent swaps the order of item id with its immediate neighbour in the given
// direction. Moving the first item up or the last item down is a no-op (false, nil).
func (m *Manager) MoveAdjacent(ctx context.Context, id string, direction Direction) (bool, error) {
	if err := m.checkAccess(ctx); err != nil {
		return false, err
	}
	if direction != Up && direction != Down {
		return false, NewValidationError("direction", "must be 'up' or 'down'")
	}
	col := m.collection.OrderColumn
	moved := false
	var scope Scope
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := m.load(tx, id)
		if err != nil {
			return err
		}
		scope = current.OrderScope()

		neighbor := m.collection.New()
		q := scope.apply(forUpdate(tx).Model(neighbor))
		if direction == Up {
			q = q.Where(col+" < ?", current.GetOrder()).Order(col + " DESC")
		} else {
			q = q.Where(col+" > ?", current.GetOrder()).Order(col + " ASC")
		}
		if err = q.Take(neighbor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err = m.swap(tx, current, neighbor); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return false, m.fail("move", err)
	}
	if moved {
		m.invalidate(scope)
	}
	return moved, nil
}

// Remove deletes item id. Siblings keep their order values (gaps are allowed).
// Removing an id that does not exist returns ErrNotFound.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.checkAccess(ctx); err != nil {
		return err
	}
	var scope Scope
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := m.load(tx, id)
		if err != nil {
			return err
		}
		scope = item.OrderScope()
		return tx.Delete(item).Error
	})
	if err != nil {
		return m.fail("remove", err)
	}
	m.invalidate(scope)
	return nil
}

func (m *Manager) SetVisibility(ctx context.Context, id string, active bool) error {
	if err := m.checkAccess(ctx); err != nil {
		return err
	}
	if m.collection.VisibilityColumn == "" {
		return NewValidationError("isActive", m.collection.Name+" has no visibility flag")
	}
	var scope Scope
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := m.load(tx, id)
		if err != nil {
			return err
		}
		scope = item.OrderScope()
		return m.update(tx, id, m.collection.VisibilityColumn, active)
	})
	if err != nil {
		return m.fail("set visibility", err)
	}
	m.invalidate(scope)
	return nil
}

// ReconcileBatch applies a client-side edit of a whole scope in one transaction:
// removedIDs are deleted, every id in orderedIDs gets its index as order, then
// captions are written. orderedIDs and removedIDs together must name every item
// of the scope exactly once.
func (m *Manager) ReconcileBatch(ctx context.Context, scope Scope, orderedIDs, removedIDs []string, captions map[string]string) error {
	if err := m.checkAccess(ctx); err != nil {
		return err
	}
	if verr := m.validateBatch(orderedIDs, removedIDs, captions); !verr.Empty() {
		return verr
	}
	col := m.collection.OrderColumn
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := m.positions(forUpdate(tx), scope)
		if err != nil {
			return err
		}
		existing := make(map[string]int, len(current))
		for _, p := range current {
			existing[p.ID] = p.Order
		}
		verr := &ValidationError{}
		for _, id := range orderedIDs {
			if _, ok := existing[id]; !ok {
				verr.Add("orderedIds", "unknown item "+id)
			}
		}
		for _, id := range removedIDs {
			if _, ok := existing[id]; !ok {
				verr.Add("removedIds", "unknown item "+id)
			}
		}
		if len(orderedIDs)+len(removedIDs) != len(existing) {
			verr.Add("orderedIds", "must list every item of the collection")
		}
		if !verr.Empty() {
			return verr
		}

		if len(removedIDs) > 0 {
			if err = tx.Where(m.collection.idColumn()+" IN ?", removedIDs).Delete(m.collection.New()).Error; err != nil {
				return err
			}
		}
		// Park changed rows on negative values first so that no intermediate
		// state holds the same order twice.
		changed := []string{}
		for i, id := range orderedIDs {
			if existing[id] != i {
				changed = append(changed, id)
				if err = m.update(tx, id, col, parked(existing[id])); err != nil {
					return err
				}
			}
		}
		for i, id := range orderedIDs {
			if existing[id] != i {
				if err = m.update(tx, id, col, i); err != nil {
					return err
				}
			}
		}
		for id, caption := range captions {
			if err = m.update(tx, id, m.collection.CaptionColumn, strings.TrimSpace(caption)); err != nil {
				return err
			}
		}
		if len(changed) > 0 {
			logger.L().Debug("reordered",
				zap.String("collection", m.collection.Name),
				zap.String("scope", scope.Key()),
				zap.Strings("ids", changed))
		}
		return nil
	})
	if err != nil {
		return m.fail("reconcile", err)
	}
	m.invalidate(scope)
	return nil
}

// Save loads item id, lets mutate edit it inside the transaction tx and writes
// every field back. When mutate changes the scope the item is appended at the end of
// its new scope; items left behind keep their order values. An error returned by
// mutate aborts the transaction.
func (m *Manager) Save(ctx context.Context, id string, mutate func(tx *gorm.DB, item Orderable) error) (Orderable, error) {
	if err := m.checkAccess(ctx); err != nil {
		return nil, err
	}
	var from, to Scope
	var saved Orderable
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := m.load(tx, id)
		if err != nil {
			return err
		}
		from = item.OrderScope()
		if err = mutate(tx, item); err != nil {
			return err
		}
		to = item.OrderScope()
		if from.Key() != to.Key() {
			next, err := m.nextOrder(tx, to)
			if err != nil {
				return err
			}
			item.SetOrder(next)
		}
		if err = tx.Save(item).Error; err != nil {
			return err
		}
		saved = item
		return nil
	})
	if err != nil {
		return nil, m.fail("save", err)
	}
	m.invalidate(from)
	if from.Key() != to.Key() {
		m.invalidate(to)
	}
	return saved, nil
}

// List loads the items of scope into dest (a pointer to a slice of the model) in order
func (m *Manager) List(ctx context.Context, scope Scope, onlyActive bool, dest any) error {
	q := scope.apply(m.db.WithContext(ctx).Model(m.collection.New()))
	if onlyActive && m.collection.VisibilityColumn != "" {
		q = q.Where(m.collection.VisibilityColumn+" = ?", true)
	}
	if err := q.Order(m.collection.OrderColumn + " ASC").Find(dest).Error; err != nil {
		return m.fail("list", err)
	}
	return nil
}

// Positions returns the (id, order) pairs of scope in ascending order
func (m *Manager) Positions(ctx context.Context, scope Scope) ([]Position, error) {
	result, err := m.positions(m.db.WithContext(ctx), scope)
	if err != nil {
		return nil, m.fail("positions", err)
	}
	return result, nil
}

func (m *Manager) positions(tx *gorm.DB, scope Scope) ([]Position, error) {
	rows := []positionRow{}
	col := m.collection.OrderColumn
	err := scope.apply(tx.Model(m.collection.New())).
		Select(m.collection.idColumn() + " AS item_id, " + col + " AS item_order").
		Order(col + " ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]Position, 0, len(rows))
	for _, r := range rows {
		result = append(result, Position{ID: r.ItemID, Order: r.ItemOrder})
	}
	return result, nil
}

func (m *Manager) validateBatch(orderedIDs, removedIDs []string, captions map[string]string) *ValidationError {
	verr := &ValidationError{}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			verr.Add("orderedIds", "duplicate item "+id)
		}
		seen[id] = true
	}
	removed := make(map[string]bool, len(removedIDs))
	for _, id := range removedIDs {
		if seen[id] {
			verr.Add("removedIds", "item "+id+" is both kept and removed")
		}
		if removed[id] {
			verr.Add("removedIds", "duplicate item "+id)
		}
		removed[id] = true
	}
	if len(captions) > 0 && m.collection.CaptionColumn == "" {
		verr.Add("captions", m.collection.Name+" has no captions")
		return verr
	}
	for id, caption := range captions {
		if !seen[id] {
			verr.Add("captions", "caption for item "+id+" which is not kept")
		}
		if limit := m.collection.MaxCaptionLength; limit > 0 && utf8.RuneCountInString(strings.TrimSpace(caption)) > limit {
			verr.Add("captions", "caption too long")
		}
	}
	return verr
}

func (m *Manager) nextOrder(tx *gorm.DB, scope Scope) (int, error) {
	var maxOrder int
	err := scope.apply(forUpdate(tx).Model(m.collection.New())).
		Select("COALESCE(MAX(" + m.collection.OrderColumn + "), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}

func (m *Manager) load(tx *gorm.DB, id string) (Orderable, error) {
	item := m.collection.New()
	err := forUpdate(tx).Where(m.collection.idColumn()+" = ?", id).Take(item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// forUpdate locks the rows a mutation reads until it commits. SQLite drops the
// clause and serializes writers itself.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// swap exchanges the order values of a and b. a is parked first because the
// store may enforce uniqueness of order within the scope.
func (m *Manager) swap(tx *gorm.DB, a, b Orderable) error {
	col := m.collection.OrderColumn
	aOrder, bOrder := a.GetOrder(), b.GetOrder()
	if err := m.update(tx, a.GetID(), col, parked(aOrder)); err != nil {
		return err
	}
	if err := m.update(tx, b.GetID(), col, aOrder); err != nil {
		return err
	}
	if err := m.update(tx, a.GetID(), col, bOrder); err != nil {
		return err
	}
	a.SetOrder(bOrder)
	b.SetOrder(aOrder)
	return nil
}

func (m *Manager) update(tx *gorm.DB, id, column string, value any) error {
	return tx.Model(m.collection.New()).
		Where(m.collection.idColumn()+" = ?", id).
		Update(column, value).Error
}

// parked maps a non-negative order to a unique negative placeholder
func parked(order int) int {
	return -order - 1
}

func (m *Manager) checkAccess(ctx context.Context) error {
	if m.authorize == nil {
		return nil
	}
	if err := m.authorize(ctx); err != nil {
		logger.L().Debug("access denied",
			zap.String("collection", m.collection.Name),
			zap.Error(err))
		return ErrPermissionDenied
	}
	return nil
}

func (m *Manager) invalidate(scope Scope) {
	if m.invalidator == nil || m.collection.CacheKeys == nil {
		return
	}
	m.invalidator.Invalidate(m.collection.CacheKeys(scope)...)
}

func (m *Manager) fail(op string, err error) error {
	if isDomainError(err) {
		return err
	}
	logger.L().Error("ordered collection storage failure",
		zap.String("collection", m.collection.Name),
		zap.String("op", op),
		zap.Error(err))
	return &StorageError{Op: op, Err: err}
}
