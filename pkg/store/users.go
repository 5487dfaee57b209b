package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"memobank/pkg/auth"
	"memobank/pkg/domain"
)

// RegisterUser inserts a visitor account. The password is hashed before
// storage; a duplicate email fails with ErrDuplicateKey.
func (c *Catalog) RegisterUser(u domain.User, password string) (int64, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	if u.Role == "" {
		u.Role = domain.RoleVisitor
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	model := userToModel(u)
	if err := c.write(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	}); err != nil {
		return 0, err
	}
	return model.ID, nil
}

// Authenticate checks credentials by re-hashing the supplied password
// against the stored digest. Every attempt, successful or not, appends one
// log entry.
func (c *Catalog) Authenticate(email, password string) (domain.User, bool, error) {
	var model UserModel
	err := c.read(func(db *gorm.DB) error {
		return db.Where("email = ?", email).First(&model).Error
	})
	if err != nil && !isNotFound(err) {
		return domain.User{}, false, err
	}

	ok := err == nil && auth.CheckPassword(password, model.PasswordHash)
	if ok {
		c.AppendLog(fmt.Sprintf("login succeeded: %s", email), &model.ID)
		return userFromModel(model), true, nil
	}
	c.AppendLog(fmt.Sprintf("login failed: %s", email), nil)
	return domain.User{}, false, nil
}

// GetUserByID returns a user by id.
func (c *Catalog) GetUserByID(id int64) (domain.User, bool, error) {
	var model UserModel
	err := c.read(func(db *gorm.DB) error {
		return db.First(&model, "id = ?", id).Error
	})
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmail returns a user by email.
func (c *Catalog) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	err := c.read(func(db *gorm.DB) error {
		return db.Where("email = ?", email).First(&model).Error
	})
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// EmailExists reports whether any account uses this email.
func (c *Catalog) EmailExists(email string) (bool, error) {
	var count int64
	if err := c.read(func(db *gorm.DB) error {
		return db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error
	}); err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdatePassword resets the password of the account with this email.
// Admin accounts are refused: administrators rotate credentials through a
// separate out-of-band path.
func (c *Catalog) UpdatePassword(email, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return c.write(func(tx *gorm.DB) error {
		var model UserModel
		if err := tx.Where("email = ?", email).First(&model).Error; err != nil {
			return err
		}
		if domain.UserRole(model.Role) == domain.RoleAdmin {
			return ErrAdminPasswordReset
		}
		return tx.Model(&UserModel{}).Where("id = ?", model.ID).
			Update("password_hash", hash).Error
	})
}

// EnsureAdmin creates the bootstrap admin account when no admin exists yet.
// Returns true when an account was created.
func (c *Catalog) EnsureAdmin(name, email, password string) (bool, error) {
	var count int64
	if err := c.read(func(db *gorm.DB) error {
		return db.Model(&UserModel{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count).Error
	}); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	model := userToModel(domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err := c.write(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ListUsers returns all accounts ordered by creation time.
func (c *Catalog) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := c.read(func(db *gorm.DB) error {
		return db.Order("created_at ASC").Find(&models).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}
