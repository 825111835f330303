package ordering

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testSlide struct {
	ID       string `gorm:"primaryKey"`
	Title    string
	Order    int `gorm:"column:sort_order;uniqueIndex"`
	IsActive bool
}

func (s *testSlide) GetID() string { return s.ID }
func (s *testSlide) GetOrder() int { return s.Order }
func (s *testSlide) SetOrder(o int) { s.Order = o }
func (s *testSlide) OrderScope() Scope { return Scope{} }

type testImage struct {
	ID       string `gorm:"primaryKey"`
	AlbumID  string `gorm:"uniqueIndex:uniq_test_image_position,priority:1"`
	Caption  string
	Position int `gorm:"uniqueIndex:uniq_test_image_position,priority:2"`
}

func (i *testImage) GetID() string { return i.ID }
func (i *testImage) GetOrder() int { return i.Position }
func (i *testImage) SetOrder(o int) { i.Position = o }
func (i *testImage) OrderScope() Scope { return Scope{"album_id": i.AlbumID} }

var (
	slideCollection = Collection{
		Name:             "test slides",
		New:              func() Orderable { return &testSlide{} },
		OrderColumn:      "sort_order",
		VisibilityColumn: "is_active",
		CacheKeys:        func(Scope) []string { return []string{"home"} },
	}
	imageCollection = Collection{
		Name:             "test images",
		New:              func() Orderable { return &testImage{} },
		OrderColumn:      "position",
		CaptionColumn:    "caption",
		MaxCaptionLength: 10,
		CacheKeys:        func(s Scope) []string { return []string{"album/" + s.Get("album_id")} },
	}
)

type recorder struct {
	calls [][]string
}

func (r *recorder) Invalidate(keys ...string) {
	r.calls = append(r.calls, keys)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ordering.db")), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testSlide{}, &testImage{}))
	return db
}

func allow(context.Context) error { return nil }

func appendSlides(t *testing.T, m *Manager, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, m.Append(context.Background(), &testSlide{ID: id, Title: id, IsActive: true}))
	}
}

func orderOf(t *testing.T, m *Manager, scope Scope) map[string]int {
	t.Helper()
	positions, err := m.Positions(context.Background(), scope)
	require.NoError(t, err)
	result := map[string]int{}
	for _, p := range positions {
		result[p.ID] = p.Order
	}
	return result
}

func sequence(t *testing.T, m *Manager, scope Scope) []string {
	t.Helper()
	positions, err := m.Positions(context.Background(), scope)
	require.NoError(t, err)
	ids := []string{}
	for _, p := range positions {
		ids = append(ids, p.ID)
	}
	return ids
}

func assertNoDuplicateOrders(t *testing.T, m *Manager, scope Scope) {
	t.Helper()
	seen := map[int]string{}
	for id, order := range orderOf(t, m, scope) {
		if other, ok := seen[order]; ok {
			t.Fatalf("items %s and %s share order %d", other, id, order)
		}
		seen[order] = id
	}
}

func TestAppend(t *testing.T) {
	db := openTestDB(t)
	rec := &recorder{}
	m := NewManager(db, slideCollection, allow, rec)

	first := &testSlide{ID: "A", Title: "first"}
	require.NoError(t, m.Append(context.Background(), first))
	assert.Equal(t, 1, first.Order)

	second := &testSlide{ID: "B", Title: "second"}
	require.NoError(t, m.Append(context.Background(), second))
	assert.Equal(t, 2, second.Order)

	assert.Equal(t, map[string]int{"A": 1, "B": 2}, orderOf(t, m, Scope{}))
	assert.Len(t, rec.calls, 2)
	assert.Equal(t, []string{"home"}, rec.calls[0])
}

func TestAppend_ScopesAreIndependent(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, imageCollection, allow, nil)
	ctx := context.Background()

	require.NoError(t, m.Append(ctx, &testImage{ID: "a1", AlbumID: "x"}))
	require.NoError(t, m.Append(ctx, &testImage{ID: "a2", AlbumID: "x"}))
	other := &testImage{ID: "b1", AlbumID: "y"}
	require.NoError(t, m.Append(ctx, other))

	assert.Equal(t, 1, other.Position)
	assert.Equal(t, map[string]int{"a1": 1, "a2": 2}, orderOf(t, m, Scope{"album_id": "x"}))
}

func TestAppend_AfterGap(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A", "B", "C")
	require.NoError(t, m.Remove(context.Background(), "C"))

	d := &testSlide{ID: "D"}
	require.NoError(t, m.Append(context.Background(), d))
	assert.Equal(t, 3, d.Order)
}

func TestMoveAdjacent(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		direction Direction
		wantMoved bool
		want      map[string]int
	}{
		{
			name:      "middle up swaps with previous",
			id:        "B",
			direction: Up,
			wantMoved: true,
			want:      map[string]int{"A": 2, "B": 1, "C": 3},
		},
		{
			name:      "middle down swaps with next",
			id:        "B",
			direction: Down,
			wantMoved: true,
			want:      map[string]int{"A": 1, "B": 3, "C": 2},
		},
		{
			name:      "first up is a no-op",
			id:        "A",
			direction: Up,
			want:      map[string]int{"A": 1, "B": 2, "C": 3},
		},
		{
			name:      "last down is a no-op",
			id:        "C",
			direction: Down,
			want:      map[string]int{"A": 1, "B": 2, "C": 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			m := NewManager(db, slideCollection, allow, nil)
			appendSlides(t, m, "A", "B", "C")

			rec := &recorder{}
			m.invalidator = rec
			moved, err := m.MoveAdjacent(context.Background(), tt.id, tt.direction)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMoved, moved)
			assert.Equal(t, tt.want, orderOf(t, m, Scope{}))
			if tt.wantMoved {
				assert.Len(t, rec.calls, 1)
			} else {
				assert.Empty(t, rec.calls)
			}
		})
	}
}

func TestMoveAdjacent_SkipsGaps(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A", "B", "C", "D")
	require.NoError(t, m.Remove(context.Background(), "B"))
	require.NoError(t, m.Remove(context.Background(), "C"))

	moved, err := m.MoveAdjacent(context.Background(), "D", Up)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, map[string]int{"A": 4, "D": 1}, orderOf(t, m, Scope{}))
}

func TestMoveAdjacent_StaysInScope(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, imageCollection, allow, nil)
	ctx := context.Background()
	require.NoError(t, m.Append(ctx, &testImage{ID: "y1", AlbumID: "y"}))
	require.NoError(t, m.Append(ctx, &testImage{ID: "x1", AlbumID: "x"}))
	require.NoError(t, m.Append(ctx, &testImage{ID: "x2", AlbumID: "x"}))

	// y1 has order 1 in its own album, x1 must not see it as a neighbour
	moved, err := m.MoveAdjacent(ctx, "x1", Up)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = m.MoveAdjacent(ctx, "x2", Up)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"x2", "x1"}, sequence(t, m, Scope{"album_id": "x"}))
	assert.Equal(t, map[string]int{"y1": 1}, orderOf(t, m, Scope{"album_id": "y"}))
}

func TestMoveAdjacent_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A", "B", "C", "D")
	before := orderOf(t, m, Scope{})

	for _, id := range []string{"B", "C", "D"} {
		_, err := m.MoveAdjacent(context.Background(), id, Up)
		require.NoError(t, err)
		_, err = m.MoveAdjacent(context.Background(), id, Down)
		require.NoError(t, err)
		assert.Equal(t, before, orderOf(t, m, Scope{}), id)
	}
}

func TestMoveAdjacent_NotFound(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A")

	_, err := m.MoveAdjacent(context.Background(), "missing", Up)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveAdjacent_InvalidDirection(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)

	_, err := m.MoveAdjacent(context.Background(), "A", Direction(7))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "direction")
}

func TestMoveAdjacent_RandomMovesKeepOrdersUnique(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	ids := []string{"A", "B", "C", "D", "E", "F"}
	appendSlides(t, m, ids...)

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 60; i++ {
		direction := Up
		if rnd.Intn(2) == 0 {
			direction = Down
		}
		_, err := m.MoveAdjacent(context.Background(), ids[rnd.Intn(len(ids))], direction)
		require.NoError(t, err)
		assertNoDuplicateOrders(t, m, Scope{})
	}
	assert.Len(t, orderOf(t, m, Scope{}), len(ids))
}

func TestMoveAdjacent_RollsBackOnFailure(t *testing.T) {
	// The swap issues three updates: park target, move neighbour, place target.
	for _, failAt := range []int{1, 2, 3} {
		db := openTestDB(t)
		m := NewManager(db, slideCollection, allow, nil)
		appendSlides(t, m, "A", "B", "C")
		before := orderOf(t, m, Scope{})

		updates := 0
		injected := errors.New("injected failure")
		require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail", func(tx *gorm.DB) {
			updates++
			if updates == failAt {
				_ = tx.AddError(injected)
			}
		}))
		rec := &recorder{}
		m.invalidator = rec

		moved, err := m.MoveAdjacent(context.Background(), "B", Up)
		assert.False(t, moved)
		var serr *StorageError
		require.ErrorAs(t, err, &serr)
		assert.ErrorIs(t, err, injected)
		assert.Equal(t, "storage error during move", err.Error())

		assert.Equal(t, before, orderOf(t, m, Scope{}), "fail at update %d", failAt)
		assert.Empty(t, rec.calls)
	}
}

func TestMoveAdjacent_CancelledContext(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A", "B")
	before := orderOf(t, m, Scope{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.MoveAdjacent(ctx, "B", Up)
	require.Error(t, err)
	assert.Equal(t, before, orderOf(t, m, Scope{}))
}

func TestPermissionDenied(t *testing.T) {
	db := openTestDB(t)
	seed := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, seed, "A", "B")

	statements := 0
	count := func(*gorm.DB) { statements++ }
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:count", count))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:count", count))
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:count", count))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:count", count))

	rec := &recorder{}
	deny := func(context.Context) error { return errors.New("role AUTHOR not allowed") }
	m := NewManager(db, slideCollection, deny, rec)
	ctx := context.Background()

	_, err := m.MoveAdjacent(ctx, "B", Up)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, m.Append(ctx, &testSlide{ID: "C"}), ErrPermissionDenied)
	assert.ErrorIs(t, m.Remove(ctx, "A"), ErrPermissionDenied)
	assert.ErrorIs(t, m.SetVisibility(ctx, "A", false), ErrPermissionDenied)
	assert.ErrorIs(t, m.ReconcileBatch(ctx, Scope{}, []string{"B", "A"}, nil, nil), ErrPermissionDenied)

	assert.Zero(t, statements)
	assert.Empty(t, rec.calls)
}

func TestRemove(t *testing.T) {
	db := openTestDB(t)
	rec := &recorder{}
	m := NewManager(db, slideCollection, allow, rec)
	appendSlides(t, m, "A", "B", "C")
	rec.calls = nil

	require.NoError(t, m.Remove(context.Background(), "B"))
	assert.Equal(t, map[string]int{"A": 1, "C": 3}, orderOf(t, m, Scope{}))
	assert.Len(t, rec.calls, 1)

	err := m.Remove(context.Background(), "B")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, rec.calls, 1)
}

func TestSetVisibility(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A", "B")

	require.NoError(t, m.SetVisibility(context.Background(), "A", false))
	var active []testSlide
	require.NoError(t, m.List(context.Background(), Scope{}, true, &active))
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].ID)
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, orderOf(t, m, Scope{}))

	var all []testSlide
	require.NoError(t, m.List(context.Background(), Scope{}, false, &all))
	assert.Len(t, all, 2)

	assert.ErrorIs(t, m.SetVisibility(context.Background(), "missing", true), ErrNotFound)
}

func TestSetVisibility_NoFlag(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, imageCollection, allow, nil)

	err := m.SetVisibility(context.Background(), "x", true)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func appendImages(t *testing.T, m *Manager, album string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, m.Append(context.Background(), &testImage{ID: id, AlbumID: album}))
	}
}

func TestReconcileBatch(t *testing.T) {
	db := openTestDB(t)
	rec := &recorder{}
	m := NewManager(db, imageCollection, allow, rec)
	appendImages(t, m, "x", "i1", "i2", "i3", "i4")
	appendImages(t, m, "y", "j1")
	rec.calls = nil
	scope := Scope{"album_id": "x"}

	err := m.ReconcileBatch(context.Background(), scope,
		[]string{"i4", "i1", "i3"},
		[]string{"i2"},
		map[string]string{"i4": "  cover  ", "i3": "sunset"})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"i4": 0, "i1": 1, "i3": 2}, orderOf(t, m, scope))
	assert.Equal(t, map[string]int{"j1": 1}, orderOf(t, m, Scope{"album_id": "y"}))

	var images []testImage
	require.NoError(t, m.List(context.Background(), scope, false, &images))
	require.Len(t, images, 3)
	assert.Equal(t, "cover", images[0].Caption)
	assert.Equal(t, "", images[1].Caption)
	assert.Equal(t, "sunset", images[2].Caption)

	assert.Equal(t, [][]string{{"album/x"}}, rec.calls)
}

func TestReconcileBatch_Idempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, imageCollection, allow, nil)
	appendImages(t, m, "x", "i1", "i2", "i3")
	scope := Scope{"album_id": "x"}

	current := sequence(t, m, scope)
	require.NoError(t, m.ReconcileBatch(context.Background(), scope, current, nil, nil))
	once := orderOf(t, m, scope)
	require.NoError(t, m.ReconcileBatch(context.Background(), scope, current, nil, nil))
	assert.Equal(t, once, orderOf(t, m, scope))
	assert.Equal(t, current, sequence(t, m, scope))
}

func TestReconcileBatch_Validation(t *testing.T) {
	tests := []struct {
		name     string
		ordered  []string
		removed  []string
		captions map[string]string
		field    string
	}{
		{"duplicate ordered", []string{"i1", "i1", "i2"}, nil, nil, "orderedIds"},
		{"kept and removed", []string{"i1", "i2"}, []string{"i2"}, nil, "removedIds"},
		{"unknown ordered", []string{"i1", "i2", "zz"}, nil, nil, "orderedIds"},
		{"unknown removed", []string{"i1"}, []string{"i2", "zz"}, nil, "removedIds"},
		{"incomplete", []string{"i1"}, nil, nil, "orderedIds"},
		{"caption for removed", []string{"i1"}, []string{"i2"}, map[string]string{"i2": "x"}, "captions"},
		{"caption too long", []string{"i1", "i2"}, nil, map[string]string{"i1": "much too long caption"}, "captions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			m := NewManager(db, imageCollection, allow, nil)
			appendImages(t, m, "x", "i1", "i2")
			scope := Scope{"album_id": "x"}
			before := orderOf(t, m, scope)

			err := m.ReconcileBatch(context.Background(), scope, tt.ordered, tt.removed, tt.captions)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, before, orderOf(t, m, scope))
		})
	}
}

func TestReconcileBatch_NoCaptionColumn(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A")

	err := m.ReconcileBatch(context.Background(), Scope{}, []string{"A"}, nil, map[string]string{"A": "x"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "captions")
}

func TestReconcileBatch_RollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, imageCollection, allow, nil)
	appendImages(t, m, "x", "i1", "i2", "i3")
	scope := Scope{"album_id": "x"}
	before := orderOf(t, m, scope)

	updates := 0
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail", func(tx *gorm.DB) {
		updates++
		if updates == 4 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	err := m.ReconcileBatch(context.Background(), scope, []string{"i3", "i2"}, []string{"i1"}, nil)
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, before, orderOf(t, m, scope))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" UP ")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	d, err = ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, Down, d)

	_, err = ParseDirection("left")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSave(t *testing.T) {
	db := openTestDB(t)
	rec := &recorder{}
	m := NewManager(db, imageCollection, allow, rec)
	appendImages(t, m, "x", "x1", "x2", "x3")
	appendImages(t, m, "y", "y1")
	rec.calls = nil

	saved, err := m.Save(context.Background(), "x2", func(_ *gorm.DB, item Orderable) error {
		item.(*testImage).AlbumID = "y"
		item.(*testImage).Caption = "moved"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.GetOrder())
	assert.Equal(t, map[string]int{"x1": 1, "x3": 3}, orderOf(t, m, Scope{"album_id": "x"}))
	assert.Equal(t, []string{"y1", "x2"}, sequence(t, m, Scope{"album_id": "y"}))
	assert.Equal(t, [][]string{{"album/x"}, {"album/y"}}, rec.calls)

	// same scope: fields change, order stays
	rec.calls = nil
	_, err = m.Save(context.Background(), "x1", func(_ *gorm.DB, item Orderable) error {
		item.(*testImage).Caption = "first"
		return nil
	})
	require.NoError(t, err)
	image := testImage{}
	require.NoError(t, db.Take(&image, "id = ?", "x1").Error)
	assert.Equal(t, "first", image.Caption)
	assert.Equal(t, map[string]int{"x1": 1, "x3": 3}, orderOf(t, m, Scope{"album_id": "x"}))
	assert.Equal(t, [][]string{{"album/x"}}, rec.calls)

	_, err = m.Save(context.Background(), "missing", func(*gorm.DB, Orderable) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	rec.calls = nil
	_, err = m.Save(context.Background(), "x1", func(_ *gorm.DB, item Orderable) error {
		item.(*testImage).Caption = "rejected"
		return NewValidationError("caption", "nope")
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.NoError(t, db.Take(&image, "id = ?", "x1").Error)
	assert.Equal(t, "first", image.Caption)
	assert.Empty(t, rec.calls)
}

func TestSave_RollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, imageCollection, allow, nil)
	appendImages(t, m, "x", "x1")
	appendImages(t, m, "y", "y1")

	// the max(position) read of the new scope fails after the fields were edited
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("test:fail", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("connection reset"))
	}))
	_, err := m.Save(context.Background(), "x1", func(_ *gorm.DB, item Orderable) error {
		item.(*testImage).AlbumID = "y"
		item.(*testImage).Caption = "edited"
		return nil
	})
	var serr *StorageError
	require.ErrorAs(t, err, &serr)

	image := testImage{}
	require.NoError(t, db.Take(&image, "id = ?", "x1").Error)
	assert.Equal(t, "x", image.AlbumID)
	assert.Empty(t, image.Caption)
}

func TestMutationsLockTheRowsTheyRead(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db, slideCollection, allow, nil)
	appendSlides(t, m, "A", "B", "C")

	reads, unlocked := 0, 0
	check := func(tx *gorm.DB) {
		reads++
		if _, ok := tx.Statement.Clauses["FOR"]; !ok {
			unlocked++
		}
	}
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:lock", check))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("test:lock", check))

	ctx := context.Background()
	moved, err := m.MoveAdjacent(ctx, "C", Up)
	require.NoError(t, err)
	require.True(t, moved)
	require.NoError(t, m.Append(ctx, &testSlide{ID: "D"}))
	require.NoError(t, m.ReconcileBatch(ctx, Scope{}, []string{"D", "C", "B", "A"}, nil, nil))
	_, err = m.Save(ctx, "A", func(_ *gorm.DB, item Orderable) error {
		item.(*testSlide).Title = "renamed"
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, m.SetVisibility(ctx, "B", false))
	require.NoError(t, m.Remove(ctx, "D"))

	assert.Positive(t, reads)
	assert.Zero(t, unlocked)
}
