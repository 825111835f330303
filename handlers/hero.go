package handlers

import (
	"cms/audit"
	"cms/auth"
	"cms/db"
	"cms/media"
	"cms/models"
	"cms/ordering"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const heroEntity = "HeroSlide"

func heroSlides() *ordering.Manager {
	return ordering.NewManager(db.Instance, models.HeroSlides, auth.RequireRole(models.ContentManagers...), invalidator)
}

type HeroSlideRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title" binding:"min=8"`
	Subtitle    string `json:"subtitle" binding:"max=160"`
	Description string `json:"description" binding:"max=600"`
	ButtonLabel string `json:"buttonLabel" binding:"max=80"`
	ButtonURL   string `json:"buttonUrl" binding:"omitempty,http_url"`
	ImageID     string `json:"imageId"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,http_url"`
	IsActive    *bool  `json:"isActive"`
}

type HeroSlideInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	ButtonLabel string  `json:"buttonLabel"`
	ButtonURL   string  `json:"buttonUrl"`
	ImageID     *string `json:"imageId"`
	ImageURL    string  `json:"imageUrl"`
	IsActive    bool    `json:"isActive"`
	Order       int     `json:"order"`
}

func NewHeroSlideInfo(s *models.HeroSlide) HeroSlideInfo {
	return HeroSlideInfo{
		ID:          s.ID,
		Title:       s.Title,
		Subtitle:    s.Subtitle,
		Description: s.Description,
		ButtonLabel: s.ButtonLabel,
		ButtonURL:   s.ButtonURL,
		ImageID:     s.ImageID,
		ImageURL:    s.ImageURL,
		IsActive:    s.IsActive,
		Order:       s.Order,
	}
}

func (r *HeroSlideRequest) trim() {
	r.Title = strings.TrimSpace(r.Title)
	r.Subtitle = strings.TrimSpace(r.Subtitle)
	r.Description = strings.TrimSpace(r.Description)
	r.ButtonLabel = strings.TrimSpace(r.ButtonLabel)
	r.ButtonURL = strings.TrimSpace(r.ButtonURL)
	r.ImageID = strings.TrimSpace(r.ImageID)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
}

// resolveImage turns an image reference into (id, url). A media id wins over an
// explicit URL; fallback is used when neither is given.
func resolveImage(ctx context.Context, imageID, explicitURL, fallback string) (*string, string, error) {
	if imageID == "" {
		if explicitURL == "" {
			explicitURL = fallback
		}
		return nil, explicitURL, nil
	}
	m, err := media.Resolve(ctx, db.Instance, imageID)
	if errors.Is(err, ordering.ErrNotFound) {
		return nil, "", ordering.NewValidationError("imageId", "media not found")
	}
	if err != nil {
		return nil, "", err
	}
	return &m.ID, m.URL(), nil
}

func HeroSlideList(c *gin.Context, user *models.User) {
	slides := []models.HeroSlide{}
	if err := heroSlides().List(c.Request.Context(), ordering.Scope{}, false, &slides); err != nil {
		respondError(c, err)
		return
	}
	result := make([]HeroSlideInfo, 0, len(slides))
	for i := range slides {
		result = append(result, NewHeroSlideInfo(&slides[i]))
	}
	c.JSON(http.StatusOK, result)
}

func HeroSlideGet(c *gin.Context, user *models.User) {
	slide := models.HeroSlide{}
	if err := db.Instance.Take(&slide, "id = ?", c.Query("id")).Error; err != nil {
		dbError(c, "hero slide get", err)
		return
	}
	c.JSON(http.StatusOK, NewHeroSlideInfo(&slide))
}

func HeroSlideCreate(c *gin.Context, user *models.User) {
	r := HeroSlideRequest{}
	if !bindTrimmedJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	imageID, imageURL, err := resolveImage(ctx, r.ImageID, r.ImageURL, "")
	if err != nil {
		respondError(c, err)
		return
	}
	slide := models.HeroSlide{
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		ButtonLabel: r.ButtonLabel,
		ButtonURL:   r.ButtonURL,
		ImageID:     imageID,
		ImageURL:    imageURL,
		IsActive:    r.IsActive == nil || *r.IsActive,
	}
	if err = heroSlides().Append(ctx, &slide); err != nil {
		respondError(c, err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionCreate, Entity: heroEntity, EntityID: slide.ID,
		Metadata: gin.H{"title": slide.Title},
	})
	c.JSON(http.StatusOK, NewHeroSlideInfo(&slide))
}

func HeroSlideSave(c *gin.Context, user *models.User) {
	r := HeroSlideRequest{}
	if !bindTrimmedJSON(c, &r) {
		return
	}
	if r.ID == "" {
		respondError(c, ordering.NewValidationError("id", "is required"))
		return
	}
	ctx := c.Request.Context()
	if err := auth.RequireRole(models.ContentManagers...)(ctx); err != nil {
		respondError(c, ordering.ErrPermissionDenied)
		return
	}
	slide := models.HeroSlide{}
	if err := db.Instance.Take(&slide, "id = ?", r.ID).Error; err != nil {
		dbError(c, "hero slide load", err)
		return
	}
	imageID, imageURL, err := resolveImage(ctx, r.ImageID, r.ImageURL, slide.ImageURL)
	if err != nil {
		respondError(c, err)
		return
	}
	slide.Title = r.Title
	slide.Subtitle = r.Subtitle
	slide.Description = r.Description
	slide.ButtonLabel = r.ButtonLabel
	slide.ButtonURL = r.ButtonURL
	slide.ImageID = imageID
	slide.ImageURL = imageURL
	if r.IsActive != nil {
		slide.IsActive = *r.IsActive
	}
	err = db.Instance.Model(&slide).
		Select("title", "subtitle", "description", "button_label", "button_url", "image_id", "image_url", "is_active").
		Updates(&slide).Error
	if err != nil {
		dbError(c, "hero slide save", err)
		return
	}
	invalidator.Invalidate(models.HeroSlides.CacheKeys(slide.OrderScope())...)
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionUpdate, Entity: heroEntity, EntityID: slide.ID,
		Metadata: gin.H{"title": slide.Title},
	})
	c.JSON(http.StatusOK, NewHeroSlideInfo(&slide))
}

func HeroSlideDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	if err := heroSlides().Remove(ctx, r.ID); err != nil {
		respondError(c, err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionDelete, Entity: heroEntity, EntityID: r.ID})
	c.JSON(http.StatusOK, OKResponse)
}

func HeroSlideToggle(c *gin.Context, user *models.User) {
	r := ToggleRequest{}
	if !bindJSON(c, &r) {
		return
	}
	if err := heroSlides().SetVisibility(c.Request.Context(), r.ID, *r.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func HeroSlideMove(c *gin.Context, user *models.User) {
	r := MoveRequest{}
	if !bindJSON(c, &r) {
		return
	}
	direction, err := ordering.ParseDirection(r.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	moved, err := heroSlides().MoveAdjacent(c.Request.Context(), r.ID, direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "moved": moved})
}
