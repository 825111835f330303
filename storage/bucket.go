package storage

import (
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"gorm.io/gorm"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

const StorageLocationMedia = "/media"

type Bucket struct {
	ID            uint64 `gorm:"primaryKey"`
	CreatedAt     int64
	UpdatedAt     int64
	Name          string `gorm:"type:varchar(200)"`
	StorageType   StorageType
	Path          string `gorm:"type:varchar(500)"` // Path on a drive or a prefix in a S3 bucket
	Endpoint      string `gorm:"type:varchar(300)"` // S3 compatible endpoint, empty for AWS
	Region        string `gorm:"type:varchar(50)"`
	AuthDetails   string `gorm:"type:varchar(500)"` // In case of S3 bucket - "key:secret"
	SSEEncryption string `gorm:"type:varchar(20)"`
}

func (b *Bucket) Create(tx *gorm.DB) error {
	if err := tx.Create(b).Error; err != nil {
		return err
	}
	if b.StorageType == StorageTypeFile {
		// Pre-create locations on disk
		return os.MkdirAll(b.Path+StorageLocationMedia, 0777)
	}
	return nil
}

// GetRemotePath returns the object key of path inside the bucket prefix
func (b *Bucket) GetRemotePath(path string) string {
	prefix := strings.Trim(b.Path, "/")
	if prefix == "" {
		return strings.TrimLeft(path, "/")
	}
	return prefix + "/" + strings.TrimLeft(path, "/")
}

func (b *Bucket) CreateSVC() *s3.S3 {
	key, secret, _ := strings.Cut(b.AuthDetails, ":")
	cfg := aws.NewConfig().
		WithRegion(b.Region).
		WithCredentials(credentials.NewStaticCredentials(key, secret, ""))
	if b.Endpoint != "" {
		cfg = cfg.WithEndpoint(b.Endpoint).WithS3ForcePathStyle(true)
	}
	sess := session.Must(session.NewSession(cfg))
	return s3.New(sess)
}
