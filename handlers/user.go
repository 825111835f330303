package handlers

import (
	"cms/audit"
	"cms/auth"
	"cms/config"
	"cms/db"
	"cms/logger"
	"cms/mail"
	"cms/models"
	"cms/ordering"
	"cms/siteconfig"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const userEntity = "User"

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserActivateRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type UserCreateRequest struct {
	Name       string      `json:"name" binding:"required,max=100"`
	Email      string      `json:"email" binding:"required,email,max=150"`
	Role       models.Role `json:"role" binding:"required,oneof=ADMIN EDITOR AUTHOR"`
	CanPublish bool        `json:"canPublish"`
}

type UserSaveRequest struct {
	ID         uint64      `json:"id" binding:"required"`
	Name       string      `json:"name" binding:"required,max=100"`
	Role       models.Role `json:"role" binding:"required,oneof=ADMIN EDITOR AUTHOR"`
	CanPublish bool        `json:"canPublish"`
	Bio        string      `json:"bio" binding:"max=500"`
}

type ProfileRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Bio      string `json:"bio" binding:"max=500"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

type UserInfo struct {
	ID         uint64       `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Role       models.Role  `json:"role"`
	Bio        string       `json:"bio"`
	CanPublish bool         `json:"canPublish"`
	Theme      models.Theme `json:"theme"`
	Activated  bool         `json:"activated"`
	CreatedAt  int64        `json:"createdAt"`
}

func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Bio:        u.Bio,
		CanPublish: u.CanPublishArticles(),
		Theme:      u.PreferredTheme(),
		Activated:  u.EmailVerifiedAt != nil,
		CreatedAt:  u.CreatedAt,
	}
}

func UserLogin(c *gin.Context) {
	r := UserLoginRequest{}
	if !bindJSON(c, &r) {
		return
	}
	user, err := models.UserLogin(r.Email, r.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err = auth.LoadSession(c).LoginUser(&user); err != nil {
		logger.L().Error("session save", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	_ = audit.Write(c.Request.Context(), db.Instance, audit.Entry{User: &user, Action: audit.ActionLogin, Entity: userEntity, EntityID: user.Email})
	c.JSON(http.StatusOK, gin.H{"error": "", "user": NewUserInfo(&user)})
}

func UserLogout(c *gin.Context) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

// UserStatus reports the signed-in user, if any
func UserStatus(c *gin.Context) {
	user := auth.LoadSession(c).User()
	if user.ID == 0 {
		c.JSON(http.StatusOK, gin.H{"error": "", "user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "user": NewUserInfo(&user)})
}

// UserActivate sets the first password of an invited user and signs them in
func UserActivate(c *gin.Context) {
	r := UserActivateRequest{}
	if !bindJSON(c, &r) {
		return
	}
	user, err := models.UserActivate(strings.TrimSpace(r.Token), r.Password)
	if errors.Is(err, models.ErrInvalidToken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, models.ErrPasswordTooWeak) {
		respondError(c, ordering.NewValidationError("password", err.Error()))
		return
	}
	if err != nil {
		dbError(c, "user activate", err)
		return
	}
	if err = auth.LoadSession(c).LoginUser(&user); err != nil {
		logger.L().Error("session save", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "user": NewUserInfo(&user)})
}

func UserList(c *gin.Context, user *models.User) {
	users := []models.User{}
	if err := db.Instance.WithContext(c.Request.Context()).Order("created_at DESC").Find(&users).Error; err != nil {
		dbError(c, "user list", err)
		return
	}
	result := make([]UserInfo, 0, len(users))
	for i := range users {
		result = append(result, NewUserInfo(&users[i]))
	}
	c.JSON(http.StatusOK, result)
}

// UserCreate invites a new user. The activation link is mailed; the account has
// no password until it is followed.
func UserCreate(c *gin.Context, user *models.User) {
	r := UserCreateRequest{}
	if !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()
	tx := db.Instance.WithContext(ctx)
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", models.NormalizeEmail(r.Email)).Count(&count).Error; err != nil {
		dbError(c, "user email", err)
		return
	}
	if count > 0 {
		respondError(c, ordering.NewValidationError("email", "is already registered"))
		return
	}
	created, err := models.UserCreate(tx, r.Name, r.Email, "", r.Role, &user.ID)
	if err != nil {
		dbError(c, "user create", err)
		return
	}
	if r.CanPublish {
		if err = tx.Model(&created).Update("can_publish", true).Error; err != nil {
			dbError(c, "user create", err)
			return
		}
	}
	err = mail.SendActivation(ctx, mailer, mail.Activation{
		SiteName: siteconfig.Get(ctx).Name,
		AppURL:   config.APP_URL,
		Name:     created.Name,
		Email:    created.Email,
		Token:    created.ActivationToken,
	})
	if err != nil {
		logger.L().Error("activation mail", zap.String("email", created.Email), zap.Error(err))
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionCreate, Entity: userEntity, EntityID: created.Email,
		Metadata: gin.H{"role": created.Role},
	})
	c.JSON(http.StatusOK, gin.H{"error": "", "user": NewUserInfo(&created), "mailSent": err == nil})
}

func UserSave(c *gin.Context, user *models.User) {
	r := UserSaveRequest{}
	if !bindJSON(c, &r) {
		return
	}
	if r.ID == user.ID && r.Role != user.Role {
		respondError(c, ordering.NewValidationError("role", "you cannot change your own role"))
		return
	}
	ctx := c.Request.Context()
	target := models.User{}
	if err := db.Instance.WithContext(ctx).Take(&target, r.ID).Error; err != nil {
		dbError(c, "user load", err)
		return
	}
	target.Name = strings.TrimSpace(r.Name)
	target.Role = r.Role
	target.CanPublish = r.CanPublish
	target.Bio = strings.TrimSpace(r.Bio)
	if err := db.Instance.WithContext(ctx).Model(&target).Select("name", "role", "can_publish", "bio").Updates(&target).Error; err != nil {
		dbError(c, "user save", err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{
		User: user, Action: audit.ActionUpdate, Entity: userEntity, EntityID: target.Email,
		Metadata: gin.H{"role": target.Role, "canPublish": target.CanPublish},
	})
	c.JSON(http.StatusOK, gin.H{"error": "", "user": NewUserInfo(&target)})
}

type UserDeleteRequest struct {
	ID uint64 `json:"id" binding:"required"`
}

func UserDelete(c *gin.Context, user *models.User) {
	r := UserDeleteRequest{}
	if !bindJSON(c, &r) {
		return
	}
	if r.ID == user.ID {
		respondError(c, ordering.NewValidationError("id", "you cannot delete your own account"))
		return
	}
	ctx := c.Request.Context()
	target := models.User{}
	err := db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&target, r.ID).Error; err != nil {
			return err
		}
		var articles int64
		if err := tx.Model(&models.Article{}).Where("author_id = ?", r.ID).Count(&articles).Error; err != nil {
			return err
		}
		if articles > 0 {
			return ordering.NewValidationError("id", "the user still authors articles")
		}
		return tx.Delete(&target).Error
	})
	var verr *ordering.ValidationError
	if errors.As(err, &verr) {
		respondError(c, err)
		return
	}
	if err != nil {
		dbError(c, "user delete", err)
		return
	}
	_ = audit.Write(ctx, db.Instance, audit.Entry{User: user, Action: audit.ActionDelete, Entity: userEntity, EntityID: target.Email})
	c.JSON(http.StatusOK, OKResponse)
}

// UserProfile updates the signed-in user's own name, bio and optionally password
func UserProfile(c *gin.Context, user *models.User) {
	r := ProfileRequest{}
	if !bindJSON(c, &r) {
		return
	}
	user.Name = strings.TrimSpace(r.Name)
	user.Bio = strings.TrimSpace(r.Bio)
	columns := []any{"bio"}
	if r.Password != "" {
		if err := user.SetPassword(r.Password); err != nil {
			respondError(c, ordering.NewValidationError("password", err.Error()))
			return
		}
		columns = append(columns, "password_hash")
	}
	if err := db.Instance.WithContext(c.Request.Context()).Model(user).Select("name", columns...).Updates(user).Error; err != nil {
		dbError(c, "profile save", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "user": NewUserInfo(user)})
}

type ThemeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// UserTheme stores the dashboard theme of the signed-in user
func UserTheme(c *gin.Context, user *models.User) {
	r := ThemeRequest{}
	if !bindJSON(c, &r) {
		return
	}
	theme, ok := models.ParseTheme(r.Theme)
	if !ok {
		respondError(c, ordering.NewValidationError("theme", "must be LIGHT or DARK"))
		return
	}
	if err := db.Instance.WithContext(c.Request.Context()).Model(user).Update("theme", theme).Error; err != nil {
		dbError(c, "theme save", err)
		return
	}
	user.Theme = theme
	c.JSON(http.StatusOK, gin.H{"error": "", "theme": theme})
}
