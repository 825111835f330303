package handlers

import (
	"cms/audit"
	"cms/auth"
	"cms/db"
	"cms/models"
	"cms/ordering"
	"cms/utils"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const albumEntity = "Album"

func albumImages() *ordering.Manager {
	return ordering.NewManager(db.Instance, models.AlbumImages, auth.RequireRole(models.ContentManagers...), invalidator)
}

type AlbumRequest struct {
	ID          string               `json:"id"`
	Title       string               `json:"title" binding:"required,max=200"`
	Slug        string               `json:"slug" binding:"max=200"`
	Description string               `json:"description" binding:"max=1000"`
	Status      models.PublishStatus `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
}

type AlbumInfo struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	Status      models.PublishStatus `json:"status"`
	Subtitle    string               `json:"subtitle"`
	ImageCount  int64                `json:"imageCount"`
	CoverURL    string               `json:"coverUrl"`
}

type AlbumImageInfo struct {
	ID       string `json:"id"`
	MediaID  string `json:"mediaId"`
	URL      string `json:"url"`
	ThumbURL string `json:"thumbUrl"`
	Caption  string `json:"caption"`
	Position int    `json:"position"`
	Width    uint16 `json:"width"`
	Height   uint16 `json:"height"`
}

func NewAlbumImageInfo(i *models.AlbumImage) AlbumImageInfo {
	return AlbumImageInfo{
		ID:       i.ID,
		MediaID:  i.MediaID,
		URL:      i.Media.URL(),
		ThumbURL: i.Media.ThumbURL(),
		Caption:  i.Caption,
		Position: i.Position,
		Width:    i.Media.Width,
		Height:   i.Media.Height,
	}
}

// LoadAlbumImages returns the images of album in display order with their media
func LoadAlbumImages(tx *gorm.DB, albumID string) ([]AlbumImageInfo, error) {
	images := []models.AlbumImage{}
	err := tx.Preload("Media").
		Where("album_id = ?", albumID).
		Order("position ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	result := make([]AlbumImageInfo, 0, len(images))
	for i := range images {
		result = append(result, NewAlbumImageInfo(&images[i]))
	}
	return result, nil
}

// ListAlbums returns albums newest first with their image count and cover
func ListAlbums(tx *gorm.DB, onlyPublished bool) ([]AlbumInfo, error) {
	q := tx.Model(&models.Album{})
	if onlyPublished {
		q = q.Where("status = ?", models.StatusPublished)
	}
	albums := []models.Album{}
	if err := q.Order("created_at DESC").Find(&albums).Error; err != nil {
		return nil, err
	}
	result := make([]AlbumInfo, 0, len(albums))
	for _, a := range albums {
		info := AlbumInfo{
			ID:          a.ID,
			Title:       a.Title,
			Slug:        a.Slug,
			Description: a.Description,
			Status:      a.Status,
		}
		cover := models.AlbumImage{}
		err := tx.Preload("Media").Where("album_id = ?", a.ID).Order("position ASC").Take(&cover).Error
		if err == nil {
			info.CoverURL = cover.Media.ThumbURL()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		var minDate, maxDate int64
		row := tx.Model(&models.AlbumImage{}).
			Select("count(*), coalesce(min(created_at), 0), coalesce(max(created_at), 0)").
			Where("album_id = ?", a.ID).Row()
		if err = row.Scan(&info.ImageCount, &minDate, &maxDate); err != nil {
			return nil, err
		}
		info.Subtitle = utils.DateRange(minDate, maxDate)
		result = append(result, info)
	}
	return result, nil
}

func AlbumList(c *gin.Context, user *models.User) {
	result, err := ListAlbums(db.Instance.WithContext(c.Request.Context()), false)
	if err != nil {
		dbError(c, "album list", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func AlbumGet(c *gin.Context, user *models.User) {
	album := models.Album{}
	tx := db.Instance.WithContext(c.Request.Context())
	if err := tx.Take(&album, "id = ?", c.Query("id")).Error; err != nil {
		dbError(c, "album get", err)
		return
	}
	images, err := LoadAlbumImages(tx, album.ID)
	if err != nil {
		dbError(c, "album images", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          album.ID,
		"title":       album.Title,
		"slug":        album.Slug,
		"description": album.Description,
		"status":      album.Status,
		"images":      images,
	})
}

func (r *AlbumRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Slug = utils.Slugify(r.Slug)
	if r.Slug == "" {
		r.Slug = utils.Slugify(r.Title)
	}
	if r.Status == "" {
		r.Status = models.StatusDraft
	}
}

func slugTaken(tx *gorm.DB, model any, slug, exceptID string) (bool, error) {
	var count int64
	err := tx.Model(model).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error
	return count > 0, err
}

func AlbumCreate(c *gin.Context, user *models.User) {
	r := AlbumRequest{}
	if !bindJSON(c, &r) {
		return
	}
	r.normalize()
	if r.Slug == "" {
		respondError(c, ordering.NewValidationError("slug", "is required"))
		return
	}
	ctx := c.Request.Context()
	tx := db.Instance.WithContext(ctx)
	if taken, err := slugTaken(tx, &models.Album{}, r.Slug, ""); err != nil {
		dbError(c, "album slug", err)
		return
	} else if taken {
		respondError(c, ordering.NewValidationError("slug", "is already used"))
		return
	}
	album := models.Album{
		Title:       r.Title,
		Slug:        r.Slug,
		Description: r.Description,
		Status:      r.Status,
		CreatedByID: &user.ID,
	}
	if err := tx.Create(&album).Error; err != nil {
		dbError(c, "album create", err)
		return
	}
	invalidator.Invalidate(models.CacheKeyAlbums)
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionCreate, Entity: albumEntity, EntityID: album.ID, Metadata: gin.H{"title": album.Title}})
	c.JSON(http.StatusOK, AlbumInfo{ID: album.ID, Title: album.Title, Slug: album.Slug, Description: album.Description, Status: album.Status})
}

func AlbumSave(c *gin.Context, user *models.User) {
	r := AlbumRequest{}
	if !bindJSON(c, &r) {
		return
	}
	r.normalize()
	ctx := c.Request.Context()
	tx := db.Instance.WithContext(ctx)
	album := models.Album{}
	if err := tx.Take(&album, "id = ?", r.ID).Error; err != nil {
		dbError(c, "album load", err)
		return
	}
	if taken, err := slugTaken(tx, &models.Album{}, r.Slug, album.ID); err != nil {
		dbError(c, "album slug", err)
		return
	} else if taken {
		respondError(c, ordering.NewValidationError("slug", "is already used"))
		return
	}
	album.Title = r.Title
	album.Slug = r.Slug
	album.Description = r.Description
	album.Status = r.Status
	if err := tx.Model(&album).Select("title", "slug", "description", "status").Updates(&album).Error; err != nil {
		dbError(c, "album save", err)
		return
	}
	invalidator.Invalidate(models.CacheKeyAlbums, models.AlbumCacheKey(album.ID))
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionUpdate, Entity: albumEntity, EntityID: album.ID, Metadata: gin.H{"title": album.Title}})
	c.JSON(http.StatusOK, OKResponse)
}

func AlbumDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	err := db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", r.ID).Delete(&models.AlbumImage{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Album{}, "id = ?", r.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ordering.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ordering.ErrNotFound) {
		respondError(c, err)
		return
	}
	if err != nil {
		dbError(c, "album delete", err)
		return
	}
	invalidator.Invalidate(models.CacheKeyAlbums, models.AlbumCacheKey(r.ID))
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionDelete, Entity: albumEntity, EntityID: r.ID})
	c.JSON(http.StatusOK, OKResponse)
}

// albumExists returns ordering.ErrNotFound for an unknown album id
func albumExists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&models.Album{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ordering.ErrNotFound
	}
	return nil
}

type AlbumAddImagesRequest struct {
	AlbumID  string   `json:"albumId" binding:"required"`
	MediaIDs []string `json:"mediaIds" binding:"required,min=1"`
}

// AlbumAddImages appends each media to the end of the album in the given order
func AlbumAddImages(c *gin.Context, user *models.User) {
	r := AlbumAddImagesRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	tx := db.Instance.WithContext(ctx)
	if err := albumExists(tx, r.AlbumID); err != nil {
		respondError(c, err)
		return
	}
	var count int64
	if err := tx.Model(&models.Media{}).Where("id IN ?", r.MediaIDs).Count(&count).Error; err != nil {
		dbError(c, "media check", err)
		return
	}
	if int(count) != len(r.MediaIDs) {
		respondError(c, ordering.NewValidationError("mediaIds", "unknown media"))
		return
	}
	manager := albumImages()
	added := []AlbumImageInfo{}
	for _, mediaID := range r.MediaIDs {
		image := models.AlbumImage{AlbumID: r.AlbumID, MediaID: mediaID}
		if err := manager.Append(ctx, &image); err != nil {
			respondError(c, err)
			return
		}
		added = append(added, AlbumImageInfo{ID: image.ID, MediaID: mediaID, Position: image.Position})
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "added": added})
}

type AlbumImagesSaveRequest struct {
	AlbumID    string            `json:"albumId" binding:"required"`
	OrderedIDs []string          `json:"orderedIds"`
	RemovedIDs []string          `json:"removedIds"`
	Captions   map[string]string `json:"captions"`
}

// AlbumImagesSave applies the album editor state in one transaction
func AlbumImagesSave(c *gin.Context, user *models.User) {
	r := AlbumImagesSaveRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	if err := albumExists(db.Instance.WithContext(ctx), r.AlbumID); err != nil {
		respondError(c, err)
		return
	}
	scope := ordering.Scope{"album_id": r.AlbumID}
	if err := albumImages().ReconcileBatch(ctx, scope, r.OrderedIDs, r.RemovedIDs, r.Captions); err != nil {
		respondError(c, err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionReorder, Entity: albumEntity, EntityID: r.AlbumID,
		Metadata: gin.H{"kept": len(r.OrderedIDs), "removed": len(r.RemovedIDs)},
	})
	images, err := LoadAlbumImages(db.Instance.WithContext(ctx), r.AlbumID)
	if err != nil {
		dbError(c, "album images", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "images": images})
}
