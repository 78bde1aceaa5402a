package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/password"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// Register creates a user after checking field presence, password length,
// email shape and uniqueness of username and email.
func (s *userService) Register(ctx context.Context, username, email, plain string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || plain == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}
	if len(plain) < password.MinLength {
		return nil, apperrors.ErrPasswordTooShort
	}
	if !emailRegex.MatchString(email) {
		return nil, apperrors.ErrInvalidEmail
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hash, salt, err := password.HashWithNewSalt(plain)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
	}
	if err := db.Create(user).Error; err != nil {
		// A concurrent registration can still win the race between the
		// existence checks and the insert.
		if database.IsDuplicateKey(err) {
			if strings.Contains(strings.ToLower(err.Error()), "email") {
				return nil, apperrors.ErrDuplicateEmail
			}
			return nil, apperrors.ErrDuplicateUsername
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// Authenticate returns the user whose credentials match. Unknown usernames
// and wrong passwords produce the same error.
func (s *userService) Authenticate(ctx context.Context, username, plain string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Hash anyway so both failure paths cost the same.
			password.Hash(plain, "0000000000000000")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !password.Verify(plain, user.Salt, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ChangePassword replaces the password after verifying the current one. A
// fresh salt is generated for the new hash.
func (s *userService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "current and new password are required")
	}
	if len(newPassword) < password.MinLength {
		return apperrors.ErrPasswordTooShort
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(currentPassword, user.Salt, user.PasswordHash) {
		return apperrors.ErrWrongPassword
	}

	return s.storePassword(ctx, user.ID, newPassword)
}

// FindUsername returns the username registered with email.
func (s *userService) FindUsername(ctx context.Context, email string) (string, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// ResetPassword overwrites the password of the account registered with
// email by a random temporary one and returns it. When username is given it
// must match the account too.
func (s *userService) ResetPassword(ctx context.Context, email, username string) (string, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if username != "" && !strings.EqualFold(strings.TrimSpace(username), user.Username) {
		return "", apperrors.ErrUserNotFound
	}

	temporary, err := password.Temporary()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.storePassword(ctx, user.ID, temporary); err != nil {
		return "", err
	}
	return temporary, nil
}

func (s *userService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func (s *userService) storePassword(ctx context.Context, userID uint, plain string) error {
	hash, salt, err := password.HashWithNewSalt(plain)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"password_hash": hash, "salt": salt}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
