package handlers

import (
	"cms/models"
	"cms/storage"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func albumEnv(t *testing.T) *testEnv {
	env := newTestEnv(t)
	managers := models.ContentManagers
	env.auth.GET("/album/get", AlbumGet, managers...)
	env.auth.GET("/album/list", AlbumList, managers...)
	env.auth.POST("/album/create", AlbumCreate, managers...)
	env.auth.POST("/album/delete", AlbumDelete, managers...)
	env.auth.POST("/album/add", AlbumAddImages, managers...)
	env.auth.POST("/album/images", AlbumImagesSave, managers...)
	return env
}

func createMedia(t *testing.T, env *testEnv, names ...string) []string {
	bucket := storage.Bucket{Name: "test"}
	require.NoError(t, env.tx.Create(&bucket).Error)
	ids := []string{}
	for _, name := range names {
		m := models.Media{BucketID: bucket.ID, Name: name, MimeType: "image/jpeg", Width: 10, Height: 10}
		require.NoError(t, env.tx.Create(&m).Error)
		ids = append(ids, m.ID)
	}
	return ids
}

type albumResponse struct {
	ID     string           `json:"id"`
	Slug   string           `json:"slug"`
	Images []AlbumImageInfo `json:"images"`
}

func TestAlbumImagesEditing(t *testing.T) {
	env := albumEnv(t)
	_, session := env.user("editor", models.RoleEditor)
	media := createMedia(t, env, "a.jpg", "b.jpg", "c.jpg")

	w := env.do(http.MethodPost, "/album/create", gin.H{"title": "Summer Trip 2024"}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	album := decode[AlbumInfo](t, w)
	assert.Equal(t, "summer-trip-2024", album.Slug)
	assert.Equal(t, models.StatusDraft, album.Status)

	w = env.do(http.MethodPost, "/album/create", gin.H{"title": "Summer trip 2024!"}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "slug")

	w = env.do(http.MethodPost, "/album/add", gin.H{"albumId": album.ID, "mediaIds": media}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/album/get?id="+album.ID, nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	images := decode[albumResponse](t, w).Images
	require.Len(t, images, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{images[0].Position, images[1].Position, images[2].Position})
	a, b, c := images[0].ID, images[1].ID, images[2].ID

	env.inv.reset()
	w = env.do(http.MethodPost, "/album/images", gin.H{
		"albumId":    album.ID,
		"orderedIds": []string{c, a},
		"removedIds": []string{b},
		"captions":   gin.H{a: "  at the beach "},
	}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	images = decode[albumResponse](t, w).Images
	require.Len(t, images, 2)
	assert.Equal(t, c, images[0].ID)
	assert.Equal(t, 0, images[0].Position)
	assert.Equal(t, a, images[1].ID)
	assert.Equal(t, 1, images[1].Position)
	assert.Equal(t, "at the beach", images[1].Caption)
	assert.Equal(t, "/media/"+media[2], images[0].URL)
	assert.Contains(t, env.inv.keys, models.AlbumCacheKey(album.ID))
	assert.Contains(t, env.inv.keys, models.CacheKeyAlbums)

	// leaving an image out is rejected and changes nothing
	w = env.do(http.MethodPost, "/album/images", gin.H{"albumId": album.ID, "orderedIds": []string{a}}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "orderedIds")

	long := make([]byte, models.MaxCaptionLength+1)
	for i := range long {
		long[i] = 'x'
	}
	w = env.do(http.MethodPost, "/album/images", gin.H{
		"albumId":    album.ID,
		"orderedIds": []string{a, c},
		"captions":   gin.H{a: string(long)},
	}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "captions")

	w = env.do(http.MethodGet, "/album/list", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]AlbumInfo](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ImageCount)
	assert.Equal(t, "/media/"+media[2]+"/thumb", list[0].CoverURL)

	w = env.do(http.MethodPost, "/album/delete", gin.H{"id": album.ID}, session)
	require.Equal(t, http.StatusOK, w.Code)
	var count int64
	require.NoError(t, env.tx.Model(&models.AlbumImage{}).Count(&count).Error)
	assert.Zero(t, count)

	w = env.do(http.MethodPost, "/album/delete", gin.H{"id": album.ID}, session)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlbumAddUnknownMedia(t *testing.T) {
	env := albumEnv(t)
	_, session := env.user("editor", models.RoleEditor)

	w := env.do(http.MethodPost, "/album/add", gin.H{"albumId": "missing", "mediaIds": []string{"x"}}, session)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// an empty edit of an unknown album is not a silent success
	inv := len(env.inv.keys)
	w = env.do(http.MethodPost, "/album/images", gin.H{"albumId": "missing", "orderedIds": []string{}}, session)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, env.inv.keys, inv)

	w = env.do(http.MethodPost, "/album/create", gin.H{"title": "Album"}, session)
	require.Equal(t, http.StatusOK, w.Code)
	album := decode[AlbumInfo](t, w)
	w = env.do(http.MethodPost, "/album/add", gin.H{"albumId": album.ID, "mediaIds": []string{"x"}}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "mediaIds")
}
