package handlers

import (
	"cms/models"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userEnv(t *testing.T) *testEnv {
	env := newTestEnv(t)
	env.router.POST("/user/login", UserLogin)
	env.router.POST("/user/logout", UserLogout)
	env.router.GET("/user/status", UserStatus)
	env.router.POST("/user/activate", UserActivate)
	env.auth.GET("/user/list", UserList, models.RoleAdmin)
	env.auth.POST("/user/create", UserCreate, models.RoleAdmin)
	env.auth.POST("/user/save", UserSave, models.RoleAdmin)
	env.auth.POST("/user/delete", UserDelete, models.RoleAdmin)
	env.auth.POST("/user/profile", UserProfile)
	env.auth.POST("/user/theme", UserTheme)
	return env
}

type userResponse struct {
	Error    string   `json:"error"`
	User     UserInfo `json:"user"`
	MailSent bool     `json:"mailSent"`
}

func TestUserInvitation(t *testing.T) {
	env := userEnv(t)
	admin, session := env.user("admin", models.RoleAdmin)

	w := env.do(http.MethodPost, "/user/create", gin.H{"name": "Writer", "email": "Writer@Example.com", "role": "AUTHOR"}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[userResponse](t, w)
	assert.True(t, created.MailSent)
	assert.False(t, created.User.Activated)
	assert.Equal(t, "writer@example.com", created.User.Email)

	stored := models.User{}
	require.NoError(t, env.tx.Take(&stored, created.User.ID).Error)
	require.NotEmpty(t, stored.ActivationToken)
	require.NotNil(t, stored.CreatedByID)
	assert.Equal(t, admin.ID, *stored.CreatedByID)

	require.Len(t, env.mails.sent, 1)
	msg := env.mails.sent[0]
	assert.Equal(t, "writer@example.com", msg.To)
	assert.True(t, strings.Contains(msg.TextBody, stored.ActivationToken))

	w = env.do(http.MethodPost, "/user/create", gin.H{"name": "Again", "email": "writer@example.com", "role": "EDITOR"}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "email")

	w = env.do(http.MethodPost, "/user/create", gin.H{"name": "Bad", "email": "bad@example.com", "role": "OWNER"}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "role")

	// not activated yet
	w = env.do(http.MethodPost, "/user/login", gin.H{"email": "writer@example.com", "password": "a good password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/user/activate", gin.H{"token": stored.ActivationToken, "password": "short"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "password")

	w = env.do(http.MethodPost, "/user/activate", gin.H{"token": stored.ActivationToken, "password": "a good password"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[userResponse](t, w).User.Activated)

	w = env.do(http.MethodPost, "/user/activate", gin.H{"token": stored.ActivationToken, "password": "a good password"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/user/login", gin.H{"email": "WRITER@example.com", "password": "a good password"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = env.do(http.MethodGet, "/user/status", nil, cookies[0])
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Writer", decode[userResponse](t, w).User.Name)

	// authors cannot manage users
	w = env.do(http.MethodGet, "/user/list", nil, cookies[0])
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserAdministration(t *testing.T) {
	env := userEnv(t)
	admin, session := env.user("admin", models.RoleAdmin)
	editor, _ := env.user("editor", models.RoleEditor)

	w := env.do(http.MethodGet, "/user/list", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]UserInfo](t, w), 2)

	w = env.do(http.MethodPost, "/user/save", gin.H{"id": admin.ID, "name": "Admin", "role": "EDITOR"}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "role")

	w = env.do(http.MethodPost, "/user/save", gin.H{"id": editor.ID, "name": "Ed", "role": "AUTHOR", "canPublish": true}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[userResponse](t, w).User
	assert.Equal(t, models.RoleAuthor, saved.Role)
	assert.True(t, saved.CanPublish)

	w = env.do(http.MethodPost, "/user/delete", gin.H{"id": admin.ID}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/user/delete", gin.H{"id": editor.ID}, session)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPost, "/user/delete", gin.H{"id": editor.ID}, session)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/user/profile", gin.H{"name": "Boss", "bio": "Runs the site", "password": "another password"}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored := models.User{}
	require.NoError(t, env.tx.Take(&stored, admin.ID).Error)
	assert.Equal(t, "Boss", stored.Name)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestUserTheme(t *testing.T) {
	env := userEnv(t)
	author, session := env.user("author", models.RoleAuthor)

	w := env.do(http.MethodGet, "/user/status", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ThemeLight, decode[userResponse](t, w).User.Theme)

	w = env.do(http.MethodPost, "/user/theme", gin.H{"theme": "dark"}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"error":"","theme":"DARK"}`, w.Body.String())

	stored := models.User{}
	require.NoError(t, env.tx.Take(&stored, author.ID).Error)
	assert.Equal(t, models.ThemeDark, stored.Theme)

	w = env.do(http.MethodPost, "/user/theme", gin.H{"theme": "sepia"}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).FieldErrors, "theme")

	w = env.do(http.MethodPost, "/user/theme", gin.H{"theme": "dark"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
