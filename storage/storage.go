package storage

import (
	"cms/config"
	"cms/logger"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StorageAPI interface {
	Save(path string, reader io.Reader) (int64, error)
	Load(path string, writer io.Writer) (int64, error)
	Serve(path string, request *http.Request, writer http.ResponseWriter)
	Delete(path string) error
	GetBucket() *Bucket
}

type Storage struct {
	Bucket Bucket
}

func (s *Storage) GetBucket() *Bucket {
	return &s.Bucket
}

var (
	cachedStorage []StorageAPI
	cachedMutex   sync.RWMutex
)

// Init loads every bucket. When none exists a disk bucket in DEFAULT_BUCKET_DIR is created.
func Init(tx *gorm.DB) error {
	var buckets []Bucket
	if err := tx.Find(&buckets).Error; err != nil {
		return err
	}
	if len(buckets) == 0 {
		bucket := Bucket{
			Name:        "default",
			StorageType: StorageTypeFile,
			Path:        config.DEFAULT_BUCKET_DIR,
		}
		if err := bucket.Create(tx); err != nil {
			return err
		}
		buckets = append(buckets, bucket)
	}
	logger.L().Info("storage buckets found", zap.Int("count", len(buckets)))

	result := make([]StorageAPI, 0, len(buckets))
	for i := range buckets {
		bucket := &buckets[i]
		logger.L().Debug("bucket",
			zap.Uint64("id", bucket.ID),
			zap.String("name", bucket.Name),
			zap.Uint8("type", uint8(bucket.StorageType)))
		store, err := NewStorage(bucket)
		if err != nil {
			return err
		}
		result = append(result, store)
	}
	cachedMutex.Lock()
	cachedStorage = result
	cachedMutex.Unlock()
	return nil
}

// NewStorage returns the implementation matching the bucket type
func NewStorage(bucket *Bucket) (StorageAPI, error) {
	switch bucket.StorageType {
	case StorageTypeFile:
		return NewDiskStorage(bucket), nil
	case StorageTypeS3:
		return NewS3Storage(bucket), nil
	}
	return nil, fmt.Errorf("storage type %d unavailable for bucket %d", bucket.StorageType, bucket.ID)
}

func StorageFrom(bucketID uint64) StorageAPI {
	cachedMutex.RLock()
	defer cachedMutex.RUnlock()
	for _, s := range cachedStorage {
		if s.GetBucket().ID == bucketID {
			return s
		}
	}
	return nil
}

// GetDefaultStorage prefers a disk bucket; nil when Init found nothing usable
func GetDefaultStorage() StorageAPI {
	cachedMutex.RLock()
	defer cachedMutex.RUnlock()
	for _, s := range cachedStorage {
		if s.GetBucket().StorageType == StorageTypeFile {
			return s
		}
	}
	if len(cachedStorage) > 0 {
		return cachedStorage[0]
	}
	return nil
}
