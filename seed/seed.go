// Package seed fills an empty database with an administrator and starter content.
// Every step is skipped when its data already exists, so running it twice is harmless.
package seed

import (
	"cms/config"
	"cms/logger"
	"cms/models"
	"cms/ordering"
	"cms/siteconfig"
	"cms/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minSeedPasswordLength = 12

// AdminPassword returns the configured seed password, or a generated one when it
// is missing or shorter than 12 characters
func AdminPassword() (password string, generated bool) {
	password = strings.TrimSpace(config.SEED_ADMIN_PASSWORD)
	if len(password) >= minSeedPasswordLength {
		return password, false
	}
	return utils.RandPassword(22), true
}

var categories = []models.Category{
	{Name: "Career", Slug: "career"},
	{Name: "Marketing", Slug: "marketing"},
	{Name: "Strategy", Slug: "strategy"},
}

var menuItems = []models.MenuItem{
	{Menu: models.MenuMain, Title: "Home", URL: "/"},
	{Menu: models.MenuMain, Title: "Blog", URL: "/articles"},
	{Menu: models.MenuMain, Title: "Albums", URL: "/albums"},
	{Menu: models.MenuMain, Title: "About", URL: "/about"},
	{Menu: models.MenuMain, Title: "Contact", URL: "/contact"},
	{Menu: models.MenuFooter, Title: "Contact us", URL: "/contact"},
}

var heroSlides = []models.HeroSlide{
	{
		Title:       "Globally-recognized marketing and social media keynote speaker",
		Subtitle:    "Sedulur Personal Blog",
		Description: "Helping brands and creative talent grow through content strategy, community building and memorable digital experiences.",
		ButtonLabel: "Download Free Ebook",
		ButtonURL:   "/contact",
		ImageURL:    "/images/hero/portrait-primary.svg",
	},
	{
		Title:       "Business consultant and best-selling author",
		Subtitle:    "Humane strategy",
		Description: "Lessons from real world experiments, market research and cross industry collaboration.",
		ButtonLabel: "See Projects",
		ButtonURL:   "/articles",
		ImageURL:    "/images/hero/portrait-secondary.svg",
	},
}

// Run seeds tx
func Run(ctx context.Context, tx *gorm.DB) error {
	tx = tx.WithContext(ctx)
	admin, err := seedAdmin(tx)
	if err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err = seedCategories(tx); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	if err = seedMenus(ctx, tx); err != nil {
		return fmt.Errorf("menus: %w", err)
	}
	if err = seedHeroSlides(ctx, tx); err != nil {
		return fmt.Errorf("hero slides: %w", err)
	}
	if err = seedArticle(tx, admin); err != nil {
		return fmt.Errorf("article: %w", err)
	}
	if err = seedSiteConfig(ctx, tx); err != nil {
		return fmt.Errorf("site config: %w", err)
	}
	logger.L().Info("seed complete")
	return nil
}

func seedAdmin(tx *gorm.DB) (models.User, error) {
	email := models.NormalizeEmail(config.SEED_ADMIN_EMAIL)
	admin := models.User{}
	err := tx.Take(&admin, "email = ?", email).Error
	if err == nil {
		logger.L().Info("admin exists", zap.String("email", email))
		return admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return admin, err
	}
	password, generated := AdminPassword()
	if generated {
		logger.L().Warn("generated temporary admin password, store it securely and rotate it",
			zap.String("email", email),
			zap.String("password", password))
	}
	if admin, err = models.UserCreate(tx, "Administrator", email, password, models.RoleAdmin, nil); err != nil {
		return admin, err
	}
	now := time.Now().Unix()
	admin.EmailVerifiedAt = &now
	admin.ActivationToken = ""
	admin.ActivationExpires = 0
	admin.CanPublish = true
	admin.Bio = "Main editor of the site."
	err = tx.Model(&admin).
		Select("email_verified_at", "activation_token", "activation_expires", "can_publish", "bio").
		Updates(&admin).Error
	return admin, err
}

func seedCategories(tx *gorm.DB) error {
	for _, c := range categories {
		var count int64
		if err := tx.Model(&models.Category{}).Where("slug = ?", c.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		category := c
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedMenus adds the starter items of every menu that is still empty
func seedMenus(ctx context.Context, tx *gorm.DB) error {
	manager := ordering.NewManager(tx, models.MenuItems, nil, nil)
	empty := map[string]bool{}
	for _, name := range models.DefaultMenus {
		var count int64
		if err := tx.Model(&models.MenuItem{}).Where("menu = ?", name).Count(&count).Error; err != nil {
			return err
		}
		empty[name] = count == 0
	}
	for _, m := range menuItems {
		if !empty[m.Menu] {
			continue
		}
		item := m
		item.IsActive = true
		if err := manager.Append(ctx, &item); err != nil {
			return err
		}
	}
	return nil
}

func seedHeroSlides(ctx context.Context, tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&models.HeroSlide{}).Count(&count).Error; err != nil || count > 0 {
		return err
	}
	manager := ordering.NewManager(tx, models.HeroSlides, nil, nil)
	for _, s := range heroSlides {
		slide := s
		slide.IsActive = true
		if err := manager.Append(ctx, &slide); err != nil {
			return err
		}
	}
	return nil
}

const welcomeContent = `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"This is the first article of the blog."}]}]}`

func seedArticle(tx *gorm.DB, author models.User) error {
	var count int64
	if err := tx.Model(&models.Article{}).Count(&count).Error; err != nil || count > 0 {
		return err
	}
	now := time.Now().Unix()
	article := models.Article{
		Title:       "Welcome to the blog",
		Slug:        "welcome-to-the-blog",
		Excerpt:     "A short introduction to what will be written here.",
		Content:     welcomeContent,
		Status:      models.StatusPublished,
		PublishedAt: &now,
		AuthorID:    author.ID,
	}
	if err := tx.Omit("Author", "Featured", "Categories").Create(&article).Error; err != nil {
		return err
	}
	category := models.Category{}
	if err := tx.Take(&category, "slug = ?", categories[0].Slug).Error; err != nil {
		return err
	}
	return tx.Model(&article).Association("Categories").Append(&category)
}

func seedSiteConfig(ctx context.Context, tx *gorm.DB) error {
	values, err := siteconfig.Load(ctx, tx)
	if err != nil || values != nil {
		return err
	}
	d := siteconfig.Defaults
	values = &siteconfig.Values{
		SiteName:     d.Name,
		Tagline:      d.Tagline,
		LogoURL:      d.LogoURL,
		IconURL:      d.IconURL,
		SiteURL:      d.URL,
		ContactEmail: d.ContactEmail,
		Social: map[string]*string{
			"facebook":  &d.Links.Facebook,
			"instagram": &d.Links.Instagram,
			"twitter":   &d.Links.Twitter,
			"youtube":   &d.Links.Youtube,
		},
	}
	values.Metadata.Title = d.Metadata.Title
	values.Metadata.Description = d.Metadata.Description
	values.Metadata.Keywords = d.Metadata.Keywords
	return siteconfig.Save(ctx, tx, *values)
}
