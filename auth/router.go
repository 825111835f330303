package auth

import (
	"cms/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

// User is authenticated and posseses one of the required roles
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper class that adds auth checks + User pre-loading. The user is
// also attached to the request context for code that only sees a context.Context.
type Router struct {
	Base gin.IRoutes
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc, required []models.Role) {
	session := LoadSession(c)
	user := session.User()
	if user.ID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	if !user.HasRole(required...) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}
	c.Request = c.Request.WithContext(WithUser(c.Request.Context(), &user))
	handler(c, &user)
}

func (cr *Router) handle(method, path string, handler HandlerFunc, required []models.Role) {
	cr.Base.Handle(method, path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

func (cr *Router) POST(path string, handler HandlerFunc, required ...models.Role) {
	cr.handle(http.MethodPost, path, handler, required)
}

func (cr *Router) GET(path string, handler HandlerFunc, required ...models.Role) {
	cr.handle(http.MethodGet, path, handler, required)
}

func (cr *Router) PUT(path string, handler HandlerFunc, required ...models.Role) {
	cr.handle(http.MethodPut, path, handler, required)
}

func (cr *Router) DELETE(path string, handler HandlerFunc, required ...models.Role) {
	cr.handle(http.MethodDelete, path, handler, required)
}
