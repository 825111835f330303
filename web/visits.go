package web

import (
	"cms/db"
	"cms/logger"
	"cms/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// logPageView records a view of path. A failure is logged and never reaches the visitor.
func logPageView(c *gin.Context, path string) {
	scheme := "https"
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	} else if c.Request.TLS == nil {
		scheme = "http"
	}
	url := ""
	if c.Request.Host != "" {
		url = scheme + "://" + c.Request.Host + path
	}
	visit := models.NewVisitLog(path, url, c.Request.Referer(), c.ClientIP(), c.Request.UserAgent())
	if err := db.Instance.WithContext(c.Request.Context()).Create(&visit).Error; err != nil {
		logger.L().Warn("page view not recorded", zap.String("path", path), zap.Error(err))
	}
}
