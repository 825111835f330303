package utils

import (
	"cms/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorBodyWriter copies the body of failed responses into the debug log
type errorBodyWriter struct {
	gin.ResponseWriter
	path string
}

func (w *errorBodyWriter) Write(b []byte) (int, error) {
	if status := w.Status(); status >= 400 {
		logger.L().Debug("error response",
			zap.Int("status", status),
			zap.String("path", w.path),
			zap.ByteString("body", b))
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware logs error bodies in debug mode. It sees compressed bytes
// when installed after the gzip middleware.
func ErrorLogMiddleware(c *gin.Context) {
	c.Writer = &errorBodyWriter{ResponseWriter: c.Writer, path: c.Request.URL.Path}
	c.Next()
}
