package models

import "strings"

// Theme is the dashboard color scheme a user prefers
type Theme string

const (
	ThemeLight Theme = "LIGHT"
	ThemeDark  Theme = "DARK"
)

func ParseTheme(s string) (Theme, bool) {
	t := Theme(strings.ToUpper(strings.TrimSpace(s)))
	if t == ThemeLight || t == ThemeDark {
		return t, true
	}
	return "", false
}
