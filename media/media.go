// Package media stores uploaded files in a storage bucket and keeps their Media rows
package media

import (
	"bytes"
	"cms/config"
	"cms/logger"
	"cms/models"
	"cms/ordering"
	"cms/storage"
	"cms/utils"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNoStorage = errors.New("no storage bucket available")

var allowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/avif",
	"application/pdf",
}

type Upload struct {
	Name   string
	Alt    string
	Reader io.Reader
	User   *models.User
}

func maxUploadBytes() int64 {
	return int64(config.MAX_UPLOAD_MB) << 20
}

// Store saves the file (and a JPEG thumbnail for decodable images) into store and
// records it. Stored files are removed again when the row cannot be written.
func Store(ctx context.Context, tx *gorm.DB, store storage.StorageAPI, upload Upload) (models.Media, error) {
	if store == nil {
		return models.Media{}, ErrNoStorage
	}
	limit := maxUploadBytes()
	data, err := io.ReadAll(io.LimitReader(upload.Reader, limit+1))
	if err != nil {
		return models.Media{}, err
	}
	if len(data) == 0 {
		return models.Media{}, ordering.NewValidationError("file", "file is empty")
	}
	if int64(len(data)) > limit {
		return models.Media{}, ordering.NewValidationError("file", "file is too large")
	}
	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), allowedTypes...) {
		return models.Media{}, ordering.NewValidationError("file", "unsupported file type "+detected.String())
	}

	name := filepath.Base(strings.TrimSpace(upload.Name))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	if filepath.Ext(name) == "" {
		name += detected.Extension()
	}
	m := models.Media{
		ID:       uuid.NewString(),
		BucketID: store.GetBucket().ID,
		Name:     name,
		MimeType: detected.String(),
		Alt:      strings.TrimSpace(upload.Alt),
	}
	if upload.User != nil && upload.User.ID != 0 {
		m.UserID = &upload.User.ID
	}
	if m.Size, err = store.Save(m.GetPath(), bytes.NewReader(data)); err != nil {
		return models.Media{}, err
	}
	saved := []string{m.GetPath()}

	if m.IsImage() {
		var thumb bytes.Buffer
		t, err := utils.CreateThumb(uint(config.THUMB_SIZE), bytes.NewReader(data), &thumb)
		if err != nil {
			// formats the decoder does not know are served without a thumbnail
			logger.L().Debug("no thumbnail", zap.String("media", m.ID), zap.Error(err))
		} else {
			m.Width, m.Height = t.SourceWidth, t.SourceHeight
			m.ThumbWidth, m.ThumbHeight = t.Width, t.Height
			if m.ThumbSize, err = store.Save(m.GetThumbPath(), &thumb); err != nil {
				cleanup(store, saved)
				return models.Media{}, err
			}
			saved = append(saved, m.GetThumbPath())
		}
	}

	if err = tx.WithContext(ctx).Create(&m).Error; err != nil {
		cleanup(store, saved)
		return models.Media{}, err
	}
	return m, nil
}

func cleanup(store storage.StorageAPI, paths []string) {
	for _, p := range paths {
		if err := store.Delete(p); err != nil {
			logger.L().Warn("cannot remove stored file", zap.String("path", p), zap.Error(err))
		}
	}
}

// Delete removes the row and then the stored files. Album images using the media
// are removed with it; hero slides keep their copied image URL.
func Delete(ctx context.Context, tx *gorm.DB, id string) (models.Media, error) {
	m := models.Media{}
	err := tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ordering.ErrNotFound
			}
			return err
		}
		if err := tx.Where("media_id = ?", id).Delete(&models.AlbumImage{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.HeroSlide{}).Where("image_id = ?", id).Update("image_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Article{}).Where("featured_id = ?", id).Update("featured_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		return models.Media{}, err
	}
	if store := storage.StorageFrom(m.BucketID); store != nil {
		paths := []string{m.GetPath()}
		if m.ThumbSize > 0 {
			paths = append(paths, m.GetThumbPath())
		}
		cleanup(store, paths)
	}
	return m, nil
}

type Page struct {
	Items []models.Media `json:"items"`
	Total int64          `json:"total"`
}

// List returns media newest first, optionally only images
func List(ctx context.Context, tx *gorm.DB, onlyImages bool, skip, take int) (Page, error) {
	q := tx.WithContext(ctx).Model(&models.Media{})
	if onlyImages {
		q = q.Where("mime_type LIKE ?", "image/%")
	}
	q = q.Session(&gorm.Session{})
	page := Page{Items: []models.Media{}}
	if err := q.Count(&page.Total).Error; err != nil {
		return page, err
	}
	err := q.Order("created_at DESC").Order("id DESC").Offset(skip).Limit(take).Find(&page.Items).Error
	return page, err
}

// Resolve loads media id, ErrNotFound when it does not exist
func Resolve(ctx context.Context, tx *gorm.DB, id string) (models.Media, error) {
	m := models.Media{}
	err := tx.WithContext(ctx).Take(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, ordering.ErrNotFound
	}
	return m, err
}
