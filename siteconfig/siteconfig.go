// Package siteconfig resolves the "general" site settings stored in the database,
// merged over built-in defaults and cached for the whole process.
package siteconfig

import (
	"cms/logger"
	"cms/models"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	GeneralKey = "general"
	CacheKey   = "site-config"
)

type Links struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
}

type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Config is the resolved configuration served to clients
type Config struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Tagline      string   `json:"tagline"`
	LogoURL      string   `json:"logoUrl"`
	IconURL      string   `json:"iconUrl"`
	ContactEmail string   `json:"contactEmail"`
	URL          string   `json:"url"`
	OgImage      string   `json:"ogImage"`
	Links        Links    `json:"links"`
	Metadata     Metadata `json:"metadata"`
}

// Values is what the settings form stores. Nil pointers keep the default; an
// empty social link removes the default link.
type Values struct {
	SiteName     string             `json:"siteName"`
	Tagline      string             `json:"tagline"`
	LogoURL      string             `json:"logoUrl"`
	IconURL      string             `json:"iconUrl"`
	SiteURL      string             `json:"siteUrl"`
	ContactEmail string             `json:"contactEmail" binding:"omitempty,email"`
	Social       map[string]*string `json:"social"`
	Metadata     struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Keywords    []string `json:"keywords"`
	} `json:"metadata"`
}

var Defaults = Config{
	Name:         "Sedulur Personal Blog",
	Description:  "Career notes, marketing strategy and creative insights, written personally.",
	Tagline:      "Marketing. Strategy. Humanity.",
	LogoURL:      "/branding/logo-mark.svg",
	IconURL:      "/default-favicon.ico",
	ContactEmail: "hello@sedulur.blog",
	URL:          "https://sedulur.blog",
	OgImage:      "/branding/og-default.svg",
	Links: Links{
		Facebook:  "https://facebook.com/sedulur",
		Instagram: "https://instagram.com/sedulur",
		Twitter:   "https://twitter.com/sedulur",
		Youtube:   "https://youtube.com/@sedulur",
	},
	Metadata: Metadata{
		Title:       "Sedulur Personal Blog",
		Description: "Career notes, marketing strategy and creative insights, written personally.",
		Keywords:    []string{"blog", "marketing", "strategy"},
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func socialLink(social map[string]*string, key, fallback string) string {
	if v, ok := social[key]; ok {
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	}
	return fallback
}

// Merge applies stored values over the defaults
func Merge(values *Values) Config {
	result := Defaults
	result.Metadata.Keywords = append([]string{}, Defaults.Metadata.Keywords...)
	if values == nil {
		return result
	}
	result.Name = firstNonEmpty(values.SiteName, Defaults.Name)
	result.Tagline = firstNonEmpty(values.Tagline, Defaults.Tagline)
	result.Description = firstNonEmpty(values.Metadata.Description, values.Tagline, Defaults.Description)
	result.LogoURL = firstNonEmpty(values.LogoURL, Defaults.LogoURL)
	result.IconURL = firstNonEmpty(values.IconURL, Defaults.IconURL)
	result.URL = firstNonEmpty(values.SiteURL, Defaults.URL)
	result.ContactEmail = firstNonEmpty(values.ContactEmail, Defaults.ContactEmail)
	result.Links = Links{
		Facebook:  socialLink(values.Social, "facebook", Defaults.Links.Facebook),
		Instagram: socialLink(values.Social, "instagram", Defaults.Links.Instagram),
		Twitter:   socialLink(values.Social, "twitter", Defaults.Links.Twitter),
		Youtube:   socialLink(values.Social, "youtube", Defaults.Links.Youtube),
	}
	result.Metadata.Title = firstNonEmpty(values.Metadata.Title, Defaults.Metadata.Title, result.Name)
	result.Metadata.Description = firstNonEmpty(values.Metadata.Description, Defaults.Metadata.Description, result.Description)
	keywords := []string{}
	for _, k := range values.Metadata.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) > 0 {
		result.Metadata.Keywords = keywords
	}
	return result
}

var (
	mu     sync.RWMutex
	cached *Config
	source *gorm.DB
)

// Init binds the cache to a database and drops whatever was cached before
func Init(tx *gorm.DB) {
	mu.Lock()
	defer mu.Unlock()
	source = tx
	cached = nil
}

// Invalidate forgets the cached configuration when keys is empty or names
// CacheKey; the next Get reloads it
func Invalidate(keys ...string) {
	if len(keys) > 0 && !slices.Contains(keys, CacheKey) {
		return
	}
	mu.Lock()
	cached = nil
	mu.Unlock()
}

// Get returns the resolved configuration. Database failures fall back to the
// defaults and are not cached.
func Get(ctx context.Context) Config {
	mu.RLock()
	if cached != nil {
		c := *cached
		mu.RUnlock()
		return c
	}
	tx := source
	mu.RUnlock()

	if tx == nil {
		return Merge(nil)
	}
	values, err := Load(ctx, tx)
	if err != nil {
		logger.L().Warn("site config unavailable, using defaults", zap.Error(err))
		return Merge(nil)
	}
	resolved := Merge(values)
	mu.Lock()
	cached = &resolved
	mu.Unlock()
	return resolved
}

// Load reads the stored values, nil when nothing was saved yet
func Load(ctx context.Context, tx *gorm.DB) (*Values, error) {
	row := models.SiteConfig{}
	err := tx.WithContext(ctx).Take(&row, "`key` = ?", GeneralKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	values := Values{}
	if err = json.Unmarshal([]byte(row.Value), &values); err != nil {
		return nil, err
	}
	return &values, nil
}

// Save stores values and invalidates the cache
func Save(ctx context.Context, tx *gorm.DB, values Values) error {
	b, err := json.Marshal(values)
	if err != nil {
		return err
	}
	row := models.SiteConfig{Key: GeneralKey, Value: string(b)}
	if err = tx.WithContext(ctx).Save(&row).Error; err != nil {
		return err
	}
	Invalidate()
	return nil
}
