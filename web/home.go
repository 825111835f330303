package web

import (
	"cms/db"
	"cms/handlers"
	"cms/menu"
	"cms/models"
	"cms/siteconfig"
	"context"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Home struct {
	Site     siteconfig.Config        `json:"site"`
	Slides   []handlers.HeroSlideInfo `json:"slides"`
	Articles []handlers.ArticleInfo   `json:"articles"`
	Menu     []*menu.Node             `json:"menu"`
}

// LoadHome assembles the homepage from independent queries run concurrently
func LoadHome(ctx context.Context, tx *gorm.DB) (Home, error) {
	home := Home{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		home.Site = siteconfig.Get(ctx)
		return nil
	})
	g.Go(func() error {
		slides := []models.HeroSlide{}
		err := tx.WithContext(ctx).
			Where("is_active = ?", true).
			Order("sort_order ASC").
			Find(&slides).Error
		if err != nil {
			return err
		}
		home.Slides = make([]handlers.HeroSlideInfo, 0, len(slides))
		for i := range slides {
			home.Slides = append(home.Slides, handlers.NewHeroSlideInfo(&slides[i]))
		}
		return nil
	})
	g.Go(func() error {
		page, err := PublishedArticles(tx.WithContext(ctx), 0, defaultTake)
		home.Articles = page.Items
		return err
	})
	g.Go(func() error {
		tree, err := handlers.LoadMenuTree(tx.WithContext(ctx), models.MenuMain, true)
		home.Menu = tree
		return err
	})
	if err := g.Wait(); err != nil {
		return Home{}, err
	}
	return home, nil
}

// HomeView counts every request as a page view, cached or not
func HomeView(c *gin.Context) {
	logPageView(c, "/")
	ctx := c.Request.Context()
	respond(c, models.CacheKeyHome, func() (Home, error) {
		return LoadHome(ctx, db.Instance)
	})
}
