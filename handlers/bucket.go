package handlers

import (
	"cms/audit"
	"cms/db"
	"cms/logger"
	"cms/models"
	"cms/ordering"
	"cms/storage"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BucketRequest struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name" binding:"required,max=200"`
	Type       string `json:"type" binding:"required,oneof=file s3"`
	Path       string `json:"path" binding:"max=500"`
	Endpoint   string `json:"endpoint" binding:"max=300"`
	Region     string `json:"region" binding:"max=50"`
	S3Key      string `json:"s3Key"`
	S3Secret   string `json:"s3Secret"`
	Encryption string `json:"encryption" binding:"max=20"`
}

type BucketInfo struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Path       string `json:"path"`
	Endpoint   string `json:"endpoint"`
	Region     string `json:"region"`
	Encryption string `json:"encryption"`
}

func NewBucketInfo(b *storage.Bucket) BucketInfo {
	info := BucketInfo{
		ID:         b.ID,
		Name:       b.Name,
		Type:       "file",
		Path:       b.Path,
		Endpoint:   b.Endpoint,
		Region:     b.Region,
		Encryption: b.SSEEncryption,
	}
	if b.StorageType == storage.StorageTypeS3 {
		info.Type = "s3"
	}
	return info
}

// hasWriteAccess stores, reads back and deletes a test object
func hasWriteAccess(bucket *storage.Bucket) error {
	store, err := storage.NewStorage(bucket)
	if err != nil {
		return err
	}
	testPath := "tmp/write-check"
	if _, err = store.Save(testPath, strings.NewReader("write-check")); err != nil {
		return err
	}
	var sb strings.Builder
	if _, err = store.Load(testPath, &sb); err != nil {
		return err
	}
	return store.Delete(testPath)
}

func cleanupPath(path string) string {
	for strings.Contains(path, "..") {
		path = strings.ReplaceAll(path, "..", "")
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

func (r *BucketRequest) bucket() (storage.Bucket, *ordering.ValidationError) {
	b := storage.Bucket{
		ID:            r.ID,
		Name:          strings.TrimSpace(r.Name),
		Path:          cleanupPath(strings.TrimSpace(r.Path)),
		Endpoint:      strings.TrimSpace(r.Endpoint),
		Region:        strings.TrimSpace(r.Region),
		SSEEncryption: strings.TrimSpace(r.Encryption),
	}
	verr := &ordering.ValidationError{}
	if b.Name == "" {
		verr.Add("name", "is required")
	}
	switch r.Type {
	case "file":
		b.StorageType = storage.StorageTypeFile
		if b.Path == "" || b.Path[0] != '/' {
			verr.Add("path", "must be absolute and start with /")
		}
	case "s3":
		b.StorageType = storage.StorageTypeS3
		if r.S3Key == "" || r.S3Secret == "" {
			verr.Add("s3Key", "key and secret must be provided")
		}
		if b.Region == "" {
			b.Region = "us-east-1"
		}
		b.AuthDetails = r.S3Key + ":" + r.S3Secret
	}
	return b, verr
}

func BucketList(c *gin.Context, user *models.User) {
	buckets := []storage.Bucket{}
	if err := db.Instance.WithContext(c.Request.Context()).Find(&buckets).Error; err != nil {
		dbError(c, "bucket list", err)
		return
	}
	result := make([]BucketInfo, 0, len(buckets))
	for i := range buckets {
		result = append(result, NewBucketInfo(&buckets[i]))
	}
	c.JSON(http.StatusOK, result)
}

func BucketSave(c *gin.Context, user *models.User) {
	r := BucketRequest{}
	if !bindJSON(c, &r) {
		return
	}
	bucket, verr := r.bucket()
	if !verr.Empty() {
		respondError(c, verr)
		return
	}
	if err := hasWriteAccess(&bucket); err != nil {
		logger.L().Warn("bucket not writable", zap.String("name", bucket.Name), zap.Error(err))
		c.JSON(http.StatusForbidden, Response{"no write access to bucket"})
		return
	}
	ctx := c.Request.Context()
	tx := db.Instance.WithContext(ctx)
	var err error
	if bucket.ID == 0 {
		err = bucket.Create(tx)
	} else {
		err = tx.Save(&bucket).Error
	}
	if err != nil {
		dbError(c, "bucket save", err)
		return
	}
	// reload the storage list so new media can use the bucket
	if err = storage.Init(db.Instance); err != nil {
		dbError(c, "storage init", err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionUpdate, Entity: "Bucket", EntityID: bucket.Name})
	c.JSON(http.StatusOK, NewBucketInfo(&bucket))
}
