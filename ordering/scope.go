package ordering

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Scope selects the siblings sharing one ordering sequence, as column -> value.
// An empty scope is the whole table; a nil value matches NULL.
type Scope map[string]any

func (s Scope) columns() []string {
	cols := make([]string, 0, len(s))
	for col := range s {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func (s Scope) apply(tx *gorm.DB) *gorm.DB {
	for _, col := range s.columns() {
		v := s[col]
		if isNil(v) {
			tx = tx.Where(col + " IS NULL")
			continue
		}
		tx = tx.Where(col+" = ?", deref(v))
	}
	return tx
}

// Key is a stable textual form of the scope, e.g. "album_id=42" or "menu=main;parent_id=null"
func (s Scope) Key() string {
	parts := make([]string, 0, len(s))
	for _, col := range s.columns() {
		v := s[col]
		if isNil(v) {
			parts = append(parts, col+"=null")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", col, deref(v)))
	}
	return strings.Join(parts, ";")
}

// Get returns the scope value of col as a string ("" for NULL or missing)
func (s Scope) Get(col string) string {
	v, ok := s[col]
	if !ok || isNil(v) {
		return ""
	}
	return fmt.Sprint(deref(v))
}

func isNil(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case *string:
		return p == nil
	case *uint64:
		return p == nil
	case *int64:
		return p == nil
	}
	return false
}

func deref(v any) any {
	switch p := v.(type) {
	case *string:
		return *p
	case *uint64:
		return *p
	case *int64:
		return *p
	}
	return v
}
