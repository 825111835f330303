package handlers

import (
	"cms/audit"
	"cms/db"
	"cms/models"
	"cms/siteconfig"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SettingsGet returns the stored form values and the resolved configuration
func SettingsGet(c *gin.Context, user *models.User) {
	ctx := c.Request.Context()
	values, err := siteconfig.Load(ctx, db.Instance)
	if err != nil {
		dbError(c, "settings load", err)
		return
	}
	if values == nil {
		values = &siteconfig.Values{}
	}
	c.JSON(http.StatusOK, gin.H{"values": values, "resolved": siteconfig.Get(ctx)})
}

func SettingsSave(c *gin.Context, user *models.User) {
	values := siteconfig.Values{}
	if !bindJSON(c, &values) {
		return
	}
	ctx := c.Request.Context()
	if err := siteconfig.Save(ctx, db.Instance, values); err != nil {
		dbError(c, "settings save", err)
		return
	}
	invalidator.Invalidate(models.CacheKeyHome, siteconfig.CacheKey)
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionUpdate, Entity: "SiteConfig", EntityID: siteconfig.GeneralKey})
	c.JSON(http.StatusOK, gin.H{"error": "", "resolved": siteconfig.Get(ctx)})
}
