package handlers

import (
	"cms/audit"
	"cms/db"
	"cms/models"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AuditLogInfo struct {
	ID        uint64          `json:"id"`
	CreatedAt int64           `json:"createdAt"`
	UserID    *uint64         `json:"userId"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entityId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

func AuditList(c *gin.Context, user *models.User) {
	filter := audit.Filter{
		Entity:   c.Query("entity"),
		EntityID: c.Query("entityId"),
		Limit:    queryInt(c, "limit", 100, 1, 200),
	}
	filter.UserID, _ = strconv.ParseUint(c.Query("userId"), 10, 64)
	rows, err := audit.List(c.Request.Context(), db.Instance, filter)
	if err != nil {
		dbError(c, "audit list", err)
		return
	}
	result := make([]AuditLogInfo, 0, len(rows))
	for _, r := range rows {
		info := AuditLogInfo{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			UserID:    r.UserID,
			Action:    r.Action,
			Entity:    r.Entity,
			EntityID:  r.EntityID,
		}
		if r.Metadata != "" && json.Valid([]byte(r.Metadata)) {
			info.Metadata = json.RawMessage(r.Metadata)
		}
		result = append(result, info)
	}
	c.JSON(http.StatusOK, result)
}
