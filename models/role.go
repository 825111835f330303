package models

import "strings"

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleAuthor Role = "AUTHOR"
)

var (
	AllRoles = []Role{RoleAdmin, RoleEditor, RoleAuthor}
	// ContentManagers may edit the slider, albums, menus and publish articles
	ContentManagers = []Role{RoleAdmin, RoleEditor}
)

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}
