package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const CacheNoCache = 0

// CacheRouter sets the cache-control header of every response of a route group.
// Handlers may still override it, e.g. for media files.
type CacheRouter struct {
	CacheTime int  // seconds, CacheNoCache disables caching
	Private   bool // dashboard responses must not be stored by shared caches
}

func (cr *CacheRouter) headerValue() string {
	if cr.CacheTime <= CacheNoCache {
		return "no-cache"
	}
	scope := "public"
	if cr.Private {
		scope = "private"
	}
	return scope + ", max-age=" + strconv.Itoa(cr.CacheTime)
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	value := cr.headerValue()
	return func(c *gin.Context) {
		c.Header("cache-control", value)
		c.Next()
	}
}
