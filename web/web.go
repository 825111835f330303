// Package web serves the public, read-only views of the site. Responses are kept
// in a render cache until a dashboard mutation invalidates them.
package web

import (
	"cms/cache"
	"cms/db"
	"cms/handlers"
	"cms/logger"
	"cms/menu"
	"cms/models"
	"cms/siteconfig"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultTake = 9
	maxTake     = 30
)

var renderCache = cache.New(0)

// Init replaces the render cache, main shares it with the invalidation fanout
func Init(rc *cache.RenderCache) {
	if rc != nil {
		renderCache = rc
	}
}

var errNotFound = errors.New("not found")

func respond[T any](c *gin.Context, key string, load func() (T, error)) {
	result, err := cache.GetOrLoad(renderCache, key, load)
	if errors.Is(err, errNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		logger.L().Error("public view", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, name string, def, min, max int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < min {
		return def
	}
	if v > max {
		return max
	}
	return v
}

type ArticlePage struct {
	Items []handlers.ArticleInfo `json:"items"`
	Total int64                  `json:"total"`
	Skip  int                    `json:"skip"`
	Take  int                    `json:"take"`
}

// PublishedArticles returns published articles, newest publication first
func PublishedArticles(tx *gorm.DB, skip, take int) (ArticlePage, error) {
	page := ArticlePage{Items: []handlers.ArticleInfo{}, Skip: skip, Take: take}
	q := tx.Model(&models.Article{}).Where("status = ?", models.StatusPublished).Session(&gorm.Session{})
	if err := q.Count(&page.Total).Error; err != nil {
		return page, err
	}
	articles := []models.Article{}
	err := q.Preload("Author").Preload("Featured").Preload("Categories").
		Order("published_at DESC").
		Order("created_at DESC").
		Offset(skip).
		Limit(take).
		Find(&articles).Error
	if err != nil {
		return page, err
	}
	for i := range articles {
		page.Items = append(page.Items, handlers.NewArticleInfo(&articles[i], false))
	}
	return page, nil
}

func ArticleListView(c *gin.Context) {
	skip := intQuery(c, "skip", 0, 0, 1<<30)
	take := intQuery(c, "take", defaultTake, 1, maxTake)
	key := models.CacheKeyArticles + "/" + strconv.Itoa(skip) + "/" + strconv.Itoa(take)
	tx := db.Instance.WithContext(c.Request.Context())
	respond(c, key, func() (ArticlePage, error) {
		return PublishedArticles(tx, skip, take)
	})
}

func ArticleView(c *gin.Context) {
	slug := c.Param("slug")
	tx := db.Instance.WithContext(c.Request.Context())
	respond(c, models.ArticleCacheKey(slug), func() (handlers.ArticleInfo, error) {
		a := models.Article{}
		err := tx.Preload("Author").Preload("Featured").Preload("Categories").
			Where("slug = ? AND status = ?", slug, models.StatusPublished).
			Take(&a).Error
		if err != nil {
			return handlers.ArticleInfo{}, err
		}
		return handlers.NewArticleInfo(&a, true), nil
	})
}

func AlbumListView(c *gin.Context) {
	tx := db.Instance.WithContext(c.Request.Context())
	respond(c, models.CacheKeyAlbums, func() ([]handlers.AlbumInfo, error) {
		return handlers.ListAlbums(tx, true)
	})
}

type AlbumDetail struct {
	handlers.AlbumInfo
	Images []handlers.AlbumImageInfo `json:"images"`
}

func AlbumView(c *gin.Context) {
	id := c.Param("id")
	tx := db.Instance.WithContext(c.Request.Context())
	respond(c, models.AlbumCacheKey(id), func() (AlbumDetail, error) {
		album := models.Album{}
		if err := tx.Where("id = ? AND status = ?", id, models.StatusPublished).Take(&album).Error; err != nil {
			return AlbumDetail{}, err
		}
		images, err := handlers.LoadAlbumImages(tx, album.ID)
		if err != nil {
			return AlbumDetail{}, err
		}
		return AlbumDetail{
			AlbumInfo: handlers.AlbumInfo{
				ID:          album.ID,
				Title:       album.Title,
				Slug:        album.Slug,
				Description: album.Description,
				Status:      album.Status,
				ImageCount:  int64(len(images)),
			},
			Images: images,
		}, nil
	})
}

func MenuView(c *gin.Context) {
	name := c.Param("menu")
	tx := db.Instance.WithContext(c.Request.Context())
	respond(c, models.MenuCacheKey(name), func() ([]*menu.Node, error) {
		return handlers.LoadMenuTree(tx, name, true)
	})
}

func SiteConfigView(c *gin.Context) {
	c.JSON(http.StatusOK, siteconfig.Get(c.Request.Context()))
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /dashboard/\n")
}
