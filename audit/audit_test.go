package audit

import (
	"cms/db/dbtest"
	"cms/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndList(t *testing.T) {
	tx := dbtest.Open(t)
	require.NoError(t, models.Migrate(tx))
	user := models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	require.NoError(t, tx.Create(&user).Error)
	ctx := context.Background()

	require.NoError(t, Write(ctx, tx, Entry{
		User:     &user,
		Action:   ActionCreate,
		Entity:   "HeroSlide",
		EntityID: "s1",
		Metadata: map[string]string{"title": "Welcome"},
	}))
	require.NoError(t, Write(ctx, tx, Entry{Action: ActionDelete, Entity: "HeroSlide", EntityID: "s2"}))
	require.NoError(t, Write(ctx, tx, Entry{User: &user, Action: ActionCreate, Entity: "Album", EntityID: "a1"}))

	all, err := List(ctx, tx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.Equal(t, "a1", all[0].EntityID)

	slides, err := List(ctx, tx, Filter{Entity: "HeroSlide"})
	require.NoError(t, err)
	assert.Len(t, slides, 2)

	byUser, err := List(ctx, tx, Filter{UserID: user.ID})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	one, err := List(ctx, tx, Filter{Entity: "HeroSlide", EntityID: "s1"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.JSONEq(t, `{"title":"Welcome"}`, one[0].Metadata)
	require.NotNil(t, one[0].UserID)
	assert.Equal(t, user.ID, *one[0].UserID)
}
