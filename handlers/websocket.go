package handlers

import (
	"cms/live"
	"cms/models"

	"github.com/gin-gonic/gin"
)

// LiveHandler upgrades the request to the dashboard invalidation feed
func LiveHandler(hub *live.Hub) func(c *gin.Context, user *models.User) {
	return func(c *gin.Context, user *models.User) {
		hub.Serve(c.Writer, c.Request, user.ID)
	}
}
