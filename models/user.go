package models

import (
	"cms/db"
	"cms/utils"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidLogin    = errors.New("invalid email or password")
	ErrInvalidToken    = errors.New("invalid or expired activation token")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters")
)

const (
	MinPasswordLength = 8
	activationTTL     = 7 * 24 * time.Hour
)

type User struct {
	ID                uint64 `gorm:"primaryKey"`
	CreatedAt         int64
	UpdatedAt         int64
	CreatedByID       *uint64
	CreatedBy         *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Name              string `gorm:"type:varchar(100)"`
	Email             string `gorm:"type:varchar(150);index:uniq_email,unique"`
	PasswordHash      string `gorm:"type:varchar(100)"`
	Role              Role   `gorm:"type:varchar(10);not null"`
	Theme             Theme  `gorm:"type:varchar(10)"`
	Bio               string `gorm:"type:varchar(500)"`
	CanPublish        bool   `gorm:"not null"`
	EmailVerifiedAt   *int64
	ActivationToken   string `gorm:"type:varchar(64);index"`
	ActivationExpires int64
}

func hashPassword(plainTextPassword string) (string, error) {
	if len(plainTextPassword) < MinPasswordLength {
		return "", ErrPasswordTooWeak
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	return string(hash), err
}

// UserCreate stores a new, not yet activated user. An empty password leaves the
// account unusable until the activation link is followed.
func UserCreate(tx *gorm.DB, name, email, plainTextPassword string, role Role, createdBy *uint64) (u User, err error) {
	u.Name = strings.TrimSpace(name)
	u.Email = NormalizeEmail(email)
	u.Role = role
	u.Theme = ThemeLight
	u.CreatedByID = createdBy
	if plainTextPassword != "" {
		if u.PasswordHash, err = hashPassword(plainTextPassword); err != nil {
			return User{}, err
		}
	}
	u.ActivationToken = utils.RandBase62(24)
	u.ActivationExpires = time.Now().Add(activationTTL).Unix()
	return u, tx.Create(&u).Error
}

// PreferredTheme is LIGHT until the user picks another one
func (u *User) PreferredTheme() Theme {
	if u.Theme == "" {
		return ThemeLight
	}
	return u.Theme
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) SetPassword(plainTextPassword string) (err error) {
	u.PasswordHash, err = hashPassword(plainTextPassword)
	return
}

func UserLogin(email, plainTextPassword string) (u User, err error) {
	if err = db.Instance.First(&u, "email = ?", NormalizeEmail(email)).Error; err != nil {
		return User{}, ErrInvalidLogin
	}
	if u.PasswordHash == "" || u.EmailVerifiedAt == nil {
		return User{}, ErrInvalidLogin
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plainTextPassword)) != nil {
		return User{}, ErrInvalidLogin
	}
	return u, nil
}

// UserActivate verifies the email behind token and sets the first password
func UserActivate(token, plainTextPassword string) (u User, err error) {
	if token == "" {
		return User{}, ErrInvalidToken
	}
	if err = db.Instance.First(&u, "activation_token = ?", token).Error; err != nil {
		return User{}, ErrInvalidToken
	}
	if u.ActivationExpires < time.Now().Unix() {
		return User{}, ErrInvalidToken
	}
	if err = u.SetPassword(plainTextPassword); err != nil {
		return User{}, err
	}
	now := time.Now().Unix()
	u.EmailVerifiedAt = &now
	u.ActivationToken = ""
	u.ActivationExpires = 0
	err = db.Instance.Model(&u).Select("password_hash", "email_verified_at", "activation_token", "activation_expires").Updates(&u).Error
	return u, err
}

// HasRole reports whether the user holds one of roles. No roles means any signed-in user.
func (u *User) HasRole(roles ...Role) bool {
	if u.ID == 0 {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) CanPublishArticles() bool {
	return u.HasRole(ContentManagers...) || (u.ID != 0 && u.CanPublish)
}
