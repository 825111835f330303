package handlers

import (
	"bytes"
	"cms/auth"
	"cms/db/dbtest"
	"cms/mail"
	"cms/models"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) Invalidate(keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
}

func (r *keyRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = nil
}

type captureSender struct {
	sent []mail.Message
}

func (s *captureSender) Send(ctx context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

type testEnv struct {
	t      *testing.T
	tx     *gorm.DB
	router *gin.Engine
	auth   *auth.Router
	inv    *keyRecorder
	mails  *captureSender
}

func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	tx := dbtest.Open(t)
	require.NoError(t, models.Migrate(tx))
	env := &testEnv{
		t:     t,
		tx:    tx,
		inv:   &keyRecorder{},
		mails: &captureSender{},
	}
	Init(env.inv, env.mails)

	router := gin.New()
	router.Use(sessions.Sessions("token", cookie.NewStore([]byte("test secret"))))
	router.POST("/test/login/:id", func(c *gin.Context) {
		id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
		user := models.User{}
		if err := tx.Take(&user, id).Error; err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		_ = auth.LoadSession(c).LoginUser(&user)
		c.Status(http.StatusOK)
	})
	env.router = router
	env.auth = &auth.Router{Base: router}
	return env
}

// user creates an activated user with role and returns its session cookie
func (e *testEnv) user(name string, role models.Role) (models.User, *http.Cookie) {
	u := models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(e.t, e.tx.Create(&u).Error)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test/login/"+strconv.FormatUint(u.ID, 10), nil))
	require.Equal(e.t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(e.t, cookies)
	return u, cookies[0]
}

func (e *testEnv) do(method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"fieldErrors"`
}
