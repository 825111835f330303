package handlers

import (
	"cms/db"
	"cms/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const recentArticlesCount = 5

type RecentArticle struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Slug      string               `json:"slug"`
	Status    models.PublishStatus `json:"status"`
	UpdatedAt int64                `json:"updatedAt"`
}

type DashboardStatsInfo struct {
	PublishedArticles int64           `json:"publishedArticles"`
	DraftArticles     int64           `json:"draftArticles"`
	ActiveSlides      int64           `json:"activeSlides"`
	TotalSlides       int64           `json:"totalSlides"`
	MonthlyVisitors   int64           `json:"monthlyVisitors"` // distinct addresses since the 1st
	RecentArticles    []RecentArticle `json:"recentArticles"`
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// DashboardStats returns the overview counters, each read by its own query
func DashboardStats(c *gin.Context, user *models.User) {
	stats := DashboardStatsInfo{RecentArticles: []RecentArticle{}}
	g, ctx := errgroup.WithContext(c.Request.Context())
	count := func(dest *int64, model any, query string, args ...any) {
		g.Go(func() error {
			q := db.Instance.WithContext(ctx).Model(model)
			if query != "" {
				q = q.Where(query, args...)
			}
			return q.Count(dest).Error
		})
	}
	count(&stats.PublishedArticles, &models.Article{}, "status = ?", models.StatusPublished)
	count(&stats.DraftArticles, &models.Article{}, "status <> ?", models.StatusPublished)
	count(&stats.ActiveSlides, &models.HeroSlide{}, "is_active = ?", true)
	count(&stats.TotalSlides, &models.HeroSlide{}, "")
	g.Go(func() (err error) {
		since := startOfMonth(time.Now()).Unix()
		stats.MonthlyVisitors, err = models.UniqueVisitorsSince(db.Instance.WithContext(ctx), since)
		return
	})
	g.Go(func() error {
		articles := []models.Article{}
		err := db.Instance.WithContext(ctx).
			Select("id", "title", "slug", "status", "updated_at").
			Order("updated_at DESC").
			Limit(recentArticlesCount).
			Find(&articles).Error
		if err != nil {
			return err
		}
		for _, a := range articles {
			stats.RecentArticles = append(stats.RecentArticles, RecentArticle{
				ID:        a.ID,
				Title:     a.Title,
				Slug:      a.Slug,
				Status:    a.Status,
				UpdatedAt: a.UpdatedAt,
			})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		dbError(c, "dashboard stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
