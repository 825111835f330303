package ordering

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeKey(t *testing.T) {
	parent := "p1"
	var noParent *string
	tests := []struct {
		name  string
		scope Scope
		want  string
	}{
		{"global", Scope{}, ""},
		{"nil scope", nil, ""},
		{"single", Scope{"album_id": "42"}, "album_id=42"},
		{"sorted columns", Scope{"parent_id": &parent, "menu": "main"}, "menu=main;parent_id=p1"},
		{"null pointer", Scope{"menu": "footer", "parent_id": noParent}, "menu=footer;parent_id=null"},
		{"explicit nil", Scope{"parent_id": nil}, "parent_id=null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Key())
		})
	}
}

func TestScopeGet(t *testing.T) {
	parent := "p1"
	s := Scope{"menu": "main", "parent_id": &parent, "other": nil}
	assert.Equal(t, "main", s.Get("menu"))
	assert.Equal(t, "p1", s.Get("parent_id"))
	assert.Equal(t, "", s.Get("other"))
	assert.Equal(t, "", s.Get("missing"))
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError("title", "too short").
		Add("buttonUrl", "invalid URL").
		Add("title", "ignored second message")

	assert.Equal(t, "too short", verr.Fields["title"])
	assert.Equal(t, "validation failed: buttonUrl: invalid URL, title: too short", verr.Error())
	assert.False(t, verr.Empty())

	var empty *ValidationError
	assert.True(t, empty.Empty())
	assert.True(t, (&ValidationError{}).Empty())
}

func TestStorageErrorHidesCause(t *testing.T) {
	cause := errors.New("Error 1062: Duplicate entry 'secret' for key")
	err := fmt.Errorf("saving slide: %w", &StorageError{Op: "append", Err: cause})

	assert.Equal(t, "saving slide: storage error during append", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "secret")
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, isDomainError(ErrNotFound))
	assert.True(t, isDomainError(fmt.Errorf("wrapped: %w", ErrPermissionDenied)))
	assert.True(t, isDomainError(NewValidationError("a", "b")))
	assert.True(t, isDomainError(&StorageError{Op: "x", Err: errors.New("y")}))
	assert.False(t, isDomainError(errors.New("driver: bad connection")))
}
