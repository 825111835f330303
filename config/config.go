package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS        = "" // e.g. "example.com,example2.com"
	BIND_ADDRESS       = "0.0.0.0:8080"
	APP_URL            = "http://localhost:8080"
	CORS_ORIGINS       = "*"
	TRUSTED_PROXIES    = ""       // addresses allowed to set X-Forwarded-For, e.g. "127.0.0.1,10.0.0.0/8"
	MYSQL_DSN          = ""       // MySQL will be used if this is set
	SQLITE_FILE        = "cms.db" // SQLite will be used if MYSQL_DSN is not configured
	DEBUG_MODE         = true
	SESSION_KEY        = "this is a long key"
	SESSION_MAX_AGE    = 30 * 86400 // seconds
	DEFAULT_BUCKET_DIR = "./uploads"
	THUMB_SIZE         = 480
	MAX_UPLOAD_MB      = 20
	// SMTP is optional. When SMTP_HOST is empty activation emails are only logged.
	SMTP_HOST       = ""
	SMTP_PORT       = 587
	SMTP_USER       = ""
	SMTP_PASSWORD   = ""
	SMTP_FROM_NAME  = "Sedulur Personal Blog"
	SMTP_FROM_EMAIL = "no-reply@sedulur.blog"
	// Optional frontend hook that is told which rendered views became stale
	REVALIDATE_URL    = ""
	REVALIDATE_SECRET = ""
	// Used by the seed command only
	SEED_ADMIN_EMAIL    = "admin@sedulur.blog"
	SEED_ADMIN_PASSWORD = ""
)

func init() {
	Load()
}

// Load (re)reads all settings from the environment
func Load() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("APP_URL", &APP_URL)
	readEnvString("CORS_ORIGINS", &CORS_ORIGINS)
	readEnvString("TRUSTED_PROXIES", &TRUSTED_PROXIES)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvInt("SESSION_MAX_AGE", &SESSION_MAX_AGE)
	readEnvString("DEFAULT_BUCKET_DIR", &DEFAULT_BUCKET_DIR)
	readEnvInt("THUMB_SIZE", &THUMB_SIZE)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
	readEnvString("SMTP_HOST", &SMTP_HOST)
	readEnvInt("SMTP_PORT", &SMTP_PORT)
	readEnvString("SMTP_USER", &SMTP_USER)
	readEnvString("SMTP_PASSWORD", &SMTP_PASSWORD)
	readEnvString("SMTP_FROM_NAME", &SMTP_FROM_NAME)
	readEnvString("SMTP_FROM_EMAIL", &SMTP_FROM_EMAIL)
	readEnvString("REVALIDATE_URL", &REVALIDATE_URL)
	readEnvString("REVALIDATE_SECRET", &REVALIDATE_SECRET)
	readEnvString("SEED_ADMIN_EMAIL", &SEED_ADMIN_EMAIL)
	readEnvString("SEED_ADMIN_PASSWORD", &SEED_ADMIN_PASSWORD)
}

// CorsOrigins splits CORS_ORIGINS into a list
func CorsOrigins() []string {
	return splitList(CORS_ORIGINS)
}

// TrustedProxies splits TRUSTED_PROXIES into a list, empty when no proxy is trusted
func TrustedProxies() []string {
	return splitList(TRUSTED_PROXIES)
}

func splitList(s string) []string {
	result := []string{}
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			result = append(result, o)
		}
	}
	return result
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
