package handlers

import (
	"cms/audit"
	"cms/auth"
	"cms/db"
	"cms/menu"
	"cms/models"
	"cms/ordering"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const menuEntity = "MenuItem"

var menuNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func menuItems() *ordering.Manager {
	return ordering.NewManager(db.Instance, models.MenuItems, auth.RequireRole(models.ContentManagers...), invalidator)
}

type MenuItemRequest struct {
	ID       string  `json:"id"`
	Menu     string  `json:"menu" binding:"max=50"`
	ParentID *string `json:"parentId"`
	Title    string  `json:"title" binding:"required,max=120"`
	URL      string  `json:"url" binding:"required,max=500"`
	IsActive *bool   `json:"isActive"`
}

type MenuItemInfo struct {
	ID       string  `json:"id"`
	Menu     string  `json:"menu"`
	ParentID *string `json:"parentId"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	IsActive bool    `json:"isActive"`
	Order    int     `json:"order"`
}

func NewMenuItemInfo(m *models.MenuItem) MenuItemInfo {
	return MenuItemInfo{
		ID:       m.ID,
		Menu:     m.Menu,
		ParentID: m.ParentID,
		Title:    m.Title,
		URL:      m.URL,
		IsActive: m.IsActive,
		Order:    m.Order,
	}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validMenuURL admits site-relative paths, fragments and absolute http(s) URLs
func validMenuURL(s string) bool {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "#") {
		return !strings.HasPrefix(s, "//")
	}
	return isAbsoluteURL(s)
}

func (r *MenuItemRequest) validate() *ordering.ValidationError {
	r.Menu = strings.ToLower(strings.TrimSpace(r.Menu))
	r.Title = strings.TrimSpace(r.Title)
	r.URL = strings.TrimSpace(r.URL)
	if r.ParentID != nil && strings.TrimSpace(*r.ParentID) == "" {
		r.ParentID = nil
	}
	verr := &ordering.ValidationError{}
	if r.Title == "" {
		verr.Add("title", "is required")
	}
	if !validMenuURL(r.URL) {
		verr.Add("url", "must be a path or a valid URL")
	}
	return verr
}

// LoadMenuTree returns the tree of menu name. Inactive items and their
// subtrees are left out when onlyActive is set.
func LoadMenuTree(tx *gorm.DB, name string, onlyActive bool) ([]*menu.Node, error) {
	q := tx.Where("menu = ?", name)
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	items := []models.MenuItem{}
	if err := q.Order("sort_order ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return menu.BuildTree(items), nil
}

// MenuList returns the known menu names, the default ones first
func MenuList(c *gin.Context, user *models.User) {
	names := []string{}
	err := db.Instance.WithContext(c.Request.Context()).
		Model(&models.MenuItem{}).
		Distinct("menu").
		Order("menu").
		Pluck("menu", &names).Error
	if err != nil {
		dbError(c, "menu list", err)
		return
	}
	result := slices.Clone(models.DefaultMenus)
	for _, n := range names {
		if !slices.Contains(result, n) {
			result = append(result, n)
		}
	}
	c.JSON(http.StatusOK, result)
}

func MenuTree(c *gin.Context, user *models.User) {
	name := strings.ToLower(strings.TrimSpace(c.Query("menu")))
	if name == "" {
		name = models.MenuMain
	}
	tree, err := LoadMenuTree(db.Instance.WithContext(c.Request.Context()), name, false)
	if err != nil {
		dbError(c, "menu tree", err)
		return
	}
	flat := menu.Flatten(tree)
	options := make([]gin.H, 0, len(flat))
	for _, f := range flat {
		options = append(options, gin.H{"id": f.ID, "label": f.Label(), "depth": f.Depth})
	}
	c.JSON(http.StatusOK, gin.H{"menu": name, "items": tree, "parentOptions": options})
}

// checkParent makes sure parentID is an item of the same menu and not id or one of its descendants
func checkParent(tx *gorm.DB, name string, parentID *string, id string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return ordering.NewValidationError("parentId", "an item cannot be its own parent")
	}
	var count int64
	if err := tx.Model(&models.MenuItem{}).Where("id = ? AND menu = ?", *parentID, name).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ordering.NewValidationError("parentId", "unknown parent item")
	}
	if id == "" {
		return nil
	}
	tree, err := LoadMenuTree(tx, name, false)
	if err != nil {
		return err
	}
	if slices.Contains(menu.Descendants(tree, id), *parentID) {
		return ordering.NewValidationError("parentId", "an item cannot be moved below its own child")
	}
	return nil
}

func MenuItemCreate(c *gin.Context, user *models.User) {
	r := MenuItemRequest{}
	if !bindJSON(c, &r) {
		return
	}
	verr := r.validate()
	if r.Menu == "" {
		r.Menu = models.MenuMain
	}
	if !menuNameRe.MatchString(r.Menu) {
		verr.Add("menu", "may only contain lowercase letters, digits, '-' and '_'")
	}
	if !verr.Empty() {
		respondError(c, verr)
		return
	}
	ctx := c.Request.Context()
	if err := checkParent(db.Instance.WithContext(ctx), r.Menu, r.ParentID, ""); err != nil {
		respondError(c, err)
		return
	}
	item := models.MenuItem{
		Menu:     r.Menu,
		ParentID: r.ParentID,
		Title:    r.Title,
		URL:      r.URL,
		IsActive: r.IsActive == nil || *r.IsActive,
	}
	if err := menuItems().Append(ctx, &item); err != nil {
		respondError(c, err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionCreate, Entity: menuEntity, EntityID: item.ID,
		Metadata: gin.H{"menu": item.Menu, "title": item.Title},
	})
	c.JSON(http.StatusOK, NewMenuItemInfo(&item))
}

// MenuItemSave updates an item. A changed parent moves the item to the end of
// its new siblings in the same transaction; the menu of an item is fixed once created.
func MenuItemSave(c *gin.Context, user *models.User) {
	r := MenuItemRequest{}
	if !bindJSON(c, &r) {
		return
	}
	if r.ID == "" {
		respondError(c, ordering.NewValidationError("id", "is required"))
		return
	}
	if verr := r.validate(); !verr.Empty() {
		respondError(c, verr)
		return
	}
	ctx := c.Request.Context()
	moved := false
	saved, err := menuItems().Save(ctx, r.ID, func(tx *gorm.DB, o ordering.Orderable) error {
		item := o.(*models.MenuItem)
		if err := checkParent(tx, item.Menu, r.ParentID, item.ID); err != nil {
			return err
		}
		moved = (item.ParentID == nil) != (r.ParentID == nil) ||
			(item.ParentID != nil && *item.ParentID != *r.ParentID)
		item.ParentID = r.ParentID
		item.Title = r.Title
		item.URL = r.URL
		if r.IsActive != nil {
			item.IsActive = *r.IsActive
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	item := saved.(*models.MenuItem)
	if moved {
		_ = audit.Write(ctx, db.Instance, audit.Entry{
			User: user, Action: audit.ActionMove, Entity: menuEntity, EntityID: item.ID,
			Metadata: gin.H{"parentId": item.ParentID},
		})
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionUpdate, Entity: menuEntity, EntityID: item.ID,
		Metadata: gin.H{"title": item.Title},
	})
	c.JSON(http.StatusOK, NewMenuItemInfo(item))
}

// MenuItemDelete refuses to delete an item that still has children
func MenuItemDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	var children int64
	if err := db.Instance.WithContext(ctx).Model(&models.MenuItem{}).Where("parent_id = ?", r.ID).Count(&children).Error; err != nil {
		dbError(c, "menu item children", err)
		return
	}
	if children > 0 {
		respondError(c, ordering.NewValidationError("id", "remove or move the sub items first"))
		return
	}
	if err := menuItems().Remove(ctx, r.ID); err != nil {
		respondError(c, err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionDelete, Entity: menuEntity, EntityID: r.ID})
	c.JSON(http.StatusOK, OKResponse)
}

func MenuItemToggle(c *gin.Context, user *models.User) {
	r := ToggleRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	if err := menuItems().SetVisibility(ctx, r.ID, *r.IsActive); err != nil {
		respondError(c, err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionToggle, Entity: menuEntity, EntityID: r.ID,
		Metadata: gin.H{"isActive": *r.IsActive},
	})
	c.JSON(http.StatusOK, OKResponse)
}

func MenuItemMove(c *gin.Context, user *models.User) {
	r := MoveRequest{}
	if !bindJSON(c, &r) {
		return
	}
	direction, err := ordering.ParseDirection(r.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	moved, err := menuItems().MoveAdjacent(c.Request.Context(), r.ID, direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "moved": moved})
}
