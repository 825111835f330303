package handlers

import (
	"cms/audit"
	"cms/db"
	"cms/models"
	"cms/ordering"
	"cms/utils"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const articleEntity = "Article"

type ArticleRequest struct {
	ID          string               `json:"id"`
	Title       string               `json:"title" binding:"required,max=200"`
	Slug        string               `json:"slug" binding:"max=200"`
	Excerpt     string               `json:"excerpt" binding:"max=500"`
	Content     json.RawMessage      `json:"content"`
	Status      models.PublishStatus `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
	FeaturedID  string               `json:"featuredId"`
	CategoryIDs []string             `json:"categoryIds"`
}

type CategoryInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ArticleInfo struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Slug        string               `json:"slug"`
	Excerpt     string               `json:"excerpt"`
	Content     json.RawMessage      `json:"content,omitempty"`
	Status      models.PublishStatus `json:"status"`
	PublishedAt *int64               `json:"publishedAt"`
	CreatedAt   int64                `json:"createdAt"`
	UpdatedAt   int64                `json:"updatedAt"`
	AuthorID    uint64               `json:"authorId"`
	AuthorName  string               `json:"authorName"`
	FeaturedID  *string              `json:"featuredId"`
	FeaturedURL string               `json:"featuredUrl"`
	Categories  []CategoryInfo       `json:"categories"`
}

// NewArticleInfo expects Author, Featured and Categories preloaded. The content
// document is only included when withContent is set.
func NewArticleInfo(a *models.Article, withContent bool) ArticleInfo {
	info := ArticleInfo{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Excerpt:     a.Excerpt,
		Status:      a.Status,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		AuthorID:    a.AuthorID,
		AuthorName:  a.Author.Name,
		FeaturedID:  a.FeaturedID,
		Categories:  make([]CategoryInfo, 0, len(a.Categories)),
	}
	if withContent && json.Valid([]byte(a.Content)) {
		info.Content = json.RawMessage(a.Content)
	}
	if a.Featured != nil {
		info.FeaturedURL = a.Featured.URL()
	}
	for _, c := range a.Categories {
		info.Categories = append(info.Categories, CategoryInfo{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	return info
}

func preloadArticle(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Author").Preload("Featured").Preload("Categories")
}

// canEditArticle: authors only edit their own articles
func canEditArticle(user *models.User, a *models.Article) bool {
	return user.HasRole(models.ContentManagers...) || a.AuthorID == user.ID
}

func (r *ArticleRequest) normalize() *ordering.ValidationError {
	r.Title = strings.TrimSpace(r.Title)
	r.Excerpt = strings.TrimSpace(r.Excerpt)
	r.FeaturedID = strings.TrimSpace(r.FeaturedID)
	r.Slug = utils.Slugify(r.Slug)
	if r.Slug == "" {
		r.Slug = utils.Slugify(r.Title)
	}
	if r.Status == "" {
		r.Status = models.StatusDraft
	}
	verr := &ordering.ValidationError{}
	if r.Title == "" {
		verr.Add("title", "is required")
	}
	if r.Slug == "" {
		verr.Add("slug", "is required")
	}
	if len(r.Content) > 0 && !json.Valid(r.Content) {
		verr.Add("content", "must be a JSON document")
	}
	return verr
}

func (r *ArticleRequest) content() string {
	if len(r.Content) == 0 {
		return "{}"
	}
	return string(r.Content)
}

// applyArticle copies the request into a and stores it together with its categories
func applyArticle(tx *gorm.DB, r *ArticleRequest, a *models.Article) error {
	if taken, err := slugTaken(tx, &models.Article{}, r.Slug, a.ID); err != nil {
		return err
	} else if taken {
		return ordering.NewValidationError("slug", "is already used")
	}
	a.FeaturedID = nil
	if r.FeaturedID != "" {
		var count int64
		if err := tx.Model(&models.Media{}).Where("id = ?", r.FeaturedID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ordering.NewValidationError("featuredId", "media not found")
		}
		a.FeaturedID = &r.FeaturedID
	}
	categories := []models.Category{}
	if len(r.CategoryIDs) > 0 {
		if err := tx.Where("id IN ?", r.CategoryIDs).Find(&categories).Error; err != nil {
			return err
		}
		if len(categories) != len(r.CategoryIDs) {
			return ordering.NewValidationError("categoryIds", "unknown category")
		}
	}
	a.Title = r.Title
	a.Slug = r.Slug
	a.Excerpt = r.Excerpt
	a.Content = r.content()
	if r.Status == models.StatusPublished && a.PublishedAt == nil {
		now := time.Now().Unix()
		a.PublishedAt = &now
	}
	a.Status = r.Status
	a.Featured = nil
	a.Categories = nil
	if a.CreatedAt == 0 {
		if err := tx.Omit(clause.Associations).Create(a).Error; err != nil {
			return err
		}
	} else {
		err := tx.Model(a).
			Select("title", "slug", "excerpt", "content", "status", "published_at", "featured_id").
			Updates(a).Error
		if err != nil {
			return err
		}
	}
	if len(categories) == 0 {
		return tx.Model(a).Association("Categories").Clear()
	}
	return tx.Model(a).Association("Categories").Replace(&categories)
}

func articleError(c *gin.Context, op string, err error) {
	var verr *ordering.ValidationError
	if errors.As(err, &verr) || errors.Is(err, ordering.ErrNotFound) || errors.Is(err, ordering.ErrPermissionDenied) {
		respondError(c, err)
		return
	}
	dbError(c, op, err)
}

func invalidateArticle(slugs ...string) {
	keys := []string{models.CacheKeyHome, models.CacheKeyArticles}
	for _, s := range slugs {
		keys = append(keys, models.ArticleCacheKey(s))
	}
	invalidator.Invalidate(keys...)
}

// ArticleList shows every article to content managers and only their own to authors
func ArticleList(c *gin.Context, user *models.User) {
	q := db.Instance.WithContext(c.Request.Context()).Model(&models.Article{})
	if !user.HasRole(models.ContentManagers...) {
		q = q.Where("author_id = ?", user.ID)
	}
	if status := models.PublishStatus(c.Query("status")); status.Valid() {
		q = q.Where("status = ?", status)
	}
	articles := []models.Article{}
	if err := preloadArticle(q).Order("created_at DESC").Find(&articles).Error; err != nil {
		dbError(c, "article list", err)
		return
	}
	result := make([]ArticleInfo, 0, len(articles))
	for i := range articles {
		result = append(result, NewArticleInfo(&articles[i], false))
	}
	c.JSON(http.StatusOK, result)
}

func ArticleGet(c *gin.Context, user *models.User) {
	a := models.Article{}
	if err := preloadArticle(db.Instance.WithContext(c.Request.Context())).Take(&a, "articles.id = ?", c.Query("id")).Error; err != nil {
		dbError(c, "article get", err)
		return
	}
	if !canEditArticle(user, &a) {
		respondError(c, ordering.ErrPermissionDenied)
		return
	}
	c.JSON(http.StatusOK, NewArticleInfo(&a, true))
}

func ArticleCreate(c *gin.Context, user *models.User) {
	r := ArticleRequest{}
	if !bindJSON(c, &r) {
		return
	}
	if verr := r.normalize(); !verr.Empty() {
		respondError(c, verr)
		return
	}
	if r.Status == models.StatusPublished && !user.CanPublishArticles() {
		respondError(c, ordering.ErrPermissionDenied)
		return
	}
	ctx := c.Request.Context()
	a := models.Article{AuthorID: user.ID}
	err := db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyArticle(tx, &r, &a)
	})
	if err != nil {
		articleError(c, "article create", err)
		return
	}
	if a.Status == models.StatusPublished {
		invalidateArticle(a.Slug)
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionCreate, Entity: articleEntity, EntityID: a.ID,
		Metadata: gin.H{"title": a.Title, "status": a.Status},
	})
	c.JSON(http.StatusOK, gin.H{"error": "", "id": a.ID, "slug": a.Slug})
}

func ArticleSave(c *gin.Context, user *models.User) {
	r := ArticleRequest{}
	if !bindJSON(c, &r) {
		return
	}
	if verr := r.normalize(); !verr.Empty() {
		respondError(c, verr)
		return
	}
	ctx := c.Request.Context()
	a := models.Article{}
	var oldSlug string
	var oldStatus models.PublishStatus
	err := db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&a, "id = ?", r.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ordering.ErrNotFound
			}
			return err
		}
		if !canEditArticle(user, &a) {
			return ordering.ErrPermissionDenied
		}
		if r.Status != a.Status && !user.CanPublishArticles() {
			return ordering.ErrPermissionDenied
		}
		oldSlug, oldStatus = a.Slug, a.Status
		return applyArticle(tx, &r, &a)
	})
	if err != nil {
		articleError(c, "article save", err)
		return
	}
	if oldStatus == models.StatusPublished || a.Status == models.StatusPublished {
		invalidateArticle(oldSlug, a.Slug)
	}
	action := audit.ActionUpdate
	if oldStatus != a.Status {
		action = audit.ActionPublish
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: action, Entity: articleEntity, EntityID: a.ID,
		Metadata: gin.H{"title": a.Title, "status": a.Status},
	})
	c.JSON(http.StatusOK, gin.H{"error": "", "id": a.ID, "slug": a.Slug})
}

func ArticleDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	a := models.Article{}
	err := db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&a, "id = ?", r.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ordering.ErrNotFound
			}
			return err
		}
		if !canEditArticle(user, &a) {
			return ordering.ErrPermissionDenied
		}
		if a.Status == models.StatusPublished && !user.CanPublishArticles() {
			return ordering.ErrPermissionDenied
		}
		if err := tx.Model(&a).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Delete(&a).Error
	})
	if err != nil {
		articleError(c, "article delete", err)
		return
	}
	if a.Status == models.StatusPublished {
		invalidateArticle(a.Slug)
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionDelete, Entity: articleEntity, EntityID: a.ID,
		Metadata: gin.H{"title": a.Title},
	})
	c.JSON(http.StatusOK, OKResponse)
}

func CategoryList(c *gin.Context, user *models.User) {
	categories := []models.Category{}
	if err := db.Instance.WithContext(c.Request.Context()).Order("name").Find(&categories).Error; err != nil {
		dbError(c, "category list", err)
		return
	}
	result := make([]CategoryInfo, 0, len(categories))
	for _, cat := range categories {
		result = append(result, CategoryInfo{ID: cat.ID, Name: cat.Name, Slug: cat.Slug})
	}
	c.JSON(http.StatusOK, result)
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func CategoryCreate(c *gin.Context, user *models.User) {
	r := CategoryRequest{}
	if !bindJSON(c, &r) {
		return
	}
	cat := models.Category{Name: strings.TrimSpace(r.Name), Slug: utils.Slugify(r.Name)}
	if cat.Slug == "" {
		respondError(c, ordering.NewValidationError("name", "is invalid"))
		return
	}
	tx := db.Instance.WithContext(c.Request.Context())
	if taken, err := slugTaken(tx, &models.Category{}, cat.Slug, ""); err != nil {
		dbError(c, "category slug", err)
		return
	} else if taken {
		respondError(c, ordering.NewValidationError("name", "already exists"))
		return
	}
	if err := tx.Create(&cat).Error; err != nil {
		dbError(c, "category create", err)
		return
	}
	c.JSON(http.StatusOK, CategoryInfo{ID: cat.ID, Name: cat.Name, Slug: cat.Slug})
}
