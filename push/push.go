// Package push tells an external frontend which rendered views became stale
package push

import (
	"bytes"
	"cms/config"
	"cms/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	NotificationTypeRevalidate = "revalidate"

	sendTimeout = 5 * time.Second
)

var httpClient = http.Client{Timeout: sendTimeout}

type Notification struct {
	Type string   `json:"type"`
	Keys []string `json:"keys"`
}

type Revalidator struct {
	URL    string
	Secret string
	// Async sends from a goroutine so that a slow frontend never delays the caller
	Async bool
}

// NewRevalidator returns nil when REVALIDATE_URL is not configured
func NewRevalidator() *Revalidator {
	if config.REVALIDATE_URL == "" {
		return nil
	}
	return &Revalidator{
		URL:    config.REVALIDATE_URL,
		Secret: config.REVALIDATE_SECRET,
		Async:  true,
	}
}

func (r *Revalidator) Invalidate(keys ...string) {
	if r == nil || len(keys) == 0 {
		return
	}
	notification := Notification{Type: NotificationTypeRevalidate, Keys: keys}
	if !r.Async {
		_ = r.Send(context.Background(), &notification)
		return
	}
	go func() {
		_ = r.Send(context.Background(), &notification)
	}()
}

func (r *Revalidator) Send(ctx context.Context, notification *Notification) error {
	buf := bytes.Buffer{}
	if err := json.NewEncoder(&buf).Encode(notification); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+r.Secret)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		logger.L().Warn("revalidate request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.L().Warn("revalidate rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("status: %d", resp.StatusCode)
	}
	return nil
}
