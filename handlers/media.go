package handlers

import (
	"bytes"
	"cms/audit"
	"cms/db"
	"cms/logger"
	"cms/media"
	"cms/models"
	"cms/ordering"
	"cms/storage"
	"cms/utils"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const mediaEntity = "Media"

type MediaInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	MimeType   string  `json:"mimeType"`
	Alt        string  `json:"alt"`
	Size       int64   `json:"size"`
	Width      uint16  `json:"width"`
	Height     uint16  `json:"height"`
	URL        string  `json:"url"`
	ThumbURL   string  `json:"thumbUrl,omitempty"`
	CreatedAt  int64   `json:"createdAt"`
	IsImage    bool    `json:"isImage"`
	UploadedBy *uint64 `json:"uploadedBy"`
}

func NewMediaInfo(m *models.Media) MediaInfo {
	info := MediaInfo{
		ID:         m.ID,
		Name:       m.Name,
		MimeType:   m.MimeType,
		Alt:        m.Alt,
		Size:       m.Size,
		Width:      m.Width,
		Height:     m.Height,
		URL:        m.URL(),
		CreatedAt:  m.CreatedAt,
		IsImage:    m.IsImage(),
		UploadedBy: m.UserID,
	}
	if m.ThumbSize > 0 {
		info.ThumbURL = m.ThumbURL()
	}
	return info
}

func MediaUpload(c *gin.Context, user *models.User) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, ordering.NewValidationError("file", "is required"))
		return
	}
	reader, err := file.Open()
	if err != nil {
		respondError(c, ordering.NewValidationError("file", "cannot be read"))
		return
	}
	defer reader.Close()

	ctx := c.Request.Context()
	m, err := media.Store(ctx, db.Instance, storage.GetDefaultStorage(), media.Upload{
		Name:   file.Filename,
		Alt:    c.PostForm("alt"),
		Reader: reader,
		User:   user,
	})
	if err != nil {
		var verr *ordering.ValidationError
		if errors.As(err, &verr) {
			respondError(c, err)
			return
		}
		logger.L().Error("media upload", zap.String("name", file.Filename), zap.Error(err))
		respondError(c, &ordering.StorageError{Op: "upload", Err: err})
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionCreate, Entity: mediaEntity, EntityID: m.ID,
		Metadata: gin.H{"name": m.Name, "size": m.Size},
	})
	c.JSON(http.StatusOK, NewMediaInfo(&m))
}

func MediaList(c *gin.Context, user *models.User) {
	skip := queryInt(c, "skip", 0, 0, 1<<30)
	take := queryInt(c, "take", 40, 1, 200)
	page, err := media.List(c.Request.Context(), db.Instance, c.Query("images") == "1", skip, take)
	if err != nil {
		dbError(c, "media list", err)
		return
	}
	items := make([]MediaInfo, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewMediaInfo(&page.Items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": page.Total})
}

// MediaDelete removes media together with the album images showing it
func MediaDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	albumIDs := []string{}
	err := db.Instance.WithContext(ctx).Model(&models.AlbumImage{}).
		Distinct("album_id").
		Where("media_id = ?", r.ID).
		Pluck("album_id", &albumIDs).Error
	if err != nil {
		dbError(c, "media albums", err)
		return
	}
	m, err := media.Delete(ctx, db.Instance, r.ID)
	if errors.Is(err, ordering.ErrNotFound) {
		respondError(c, err)
		return
	}
	if err != nil {
		dbError(c, "media delete", err)
		return
	}
	keys := []string{models.CacheKeyHome, models.CacheKeyHeroDashboard, models.CacheKeyAlbums, models.CacheKeyArticles}
	for _, id := range albumIDs {
		keys = append(keys, models.AlbumCacheKey(id))
	}
	invalidator.Invalidate(keys...)
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionDelete, Entity: mediaEntity, EntityID: m.ID,
		Metadata: gin.H{"name": m.Name},
	})
	c.JSON(http.StatusOK, OKResponse)
}

// MediaServe is public: /media/:id, /media/:id/thumb and /media/:id/thumb?size=N
func MediaServe(c *gin.Context) {
	m := models.Media{}
	if err := db.Instance.WithContext(c.Request.Context()).Take(&m, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	store := storage.StorageFrom(m.BucketID)
	if store == nil {
		logger.L().Error("media bucket missing", zap.String("media", m.ID), zap.Uint64("bucket", m.BucketID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	thumb := c.Param("variant") == "thumb" && m.ThumbSize > 0
	c.Header("cache-control", "public, max-age=604800")
	if !thumb {
		c.Header("content-type", m.MimeType)
		store.Serve(m.GetPath(), c.Request, c.Writer)
		return
	}
	c.Header("content-type", "image/jpeg")
	size, _ := strconv.ParseUint(c.Query("size"), 10, 16)
	if size == 0 {
		store.Serve(m.GetThumbPath(), c.Request, c.Writer)
		return
	}
	var buf, out bytes.Buffer
	if _, err := store.Load(m.GetThumbPath(), &buf); err != nil {
		logger.L().Error("thumb load", zap.String("media", m.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	if _, err := utils.CreateThumb(uint(size), &buf, &out); err != nil {
		logger.L().Error("thumb resize", zap.String("media", m.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", out.Bytes())
}
