package models

import "cms/ordering"

// Cache keys of rendered views. Album and menu keys are prefixes followed by the
// album id or menu name.
const (
	CacheKeyHome           = "home"
	CacheKeyHeroDashboard  = "dashboard/hero-slider"
	CacheKeyAlbums         = "albums"
	CacheKeyAlbumPrefix    = "album/"
	CacheKeyMenuPrefix     = "menu/"
	CacheKeyArticles       = "articles"
	CacheKeyArticlePrefix  = "article/"
	CacheKeyMenusDashboard = "dashboard/menus"
)

func AlbumCacheKey(albumID string) string {
	return CacheKeyAlbumPrefix + albumID
}

func MenuCacheKey(menu string) string {
	return CacheKeyMenuPrefix + menu
}

func ArticleCacheKey(slug string) string {
	return CacheKeyArticlePrefix + slug
}

var (
	HeroSlides = ordering.Collection{
		Name:             "hero slide",
		New:              func() ordering.Orderable { return &HeroSlide{} },
		OrderColumn:      "sort_order",
		VisibilityColumn: "is_active",
		CacheKeys: func(ordering.Scope) []string {
			return []string{CacheKeyHome, CacheKeyHeroDashboard}
		},
	}

	AlbumImages = ordering.Collection{
		Name:             "album image",
		New:              func() ordering.Orderable { return &AlbumImage{} },
		OrderColumn:      "position",
		CaptionColumn:    "caption",
		MaxCaptionLength: MaxCaptionLength,
		CacheKeys: func(scope ordering.Scope) []string {
			return []string{CacheKeyAlbums, AlbumCacheKey(scope.Get("album_id"))}
		},
	}

	MenuItems = ordering.Collection{
		Name:             "menu item",
		New:              func() ordering.Orderable { return &MenuItem{} },
		OrderColumn:      "sort_order",
		VisibilityColumn: "is_active",
		CacheKeys: func(scope ordering.Scope) []string {
			// the homepage renders the main menu as well
			return []string{CacheKeyHome, CacheKeyMenusDashboard, MenuCacheKey(scope.Get("menu"))}
		},
	}
)
