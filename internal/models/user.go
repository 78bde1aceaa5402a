package models

// User represents an account holder. Passwords are stored as a salted
// PBKDF2 hash; neither the hash nor the salt is ever serialized.
type User struct {
	Base
	Username     string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	Salt         string `gorm:"size:64;not null" json:"-"`
}
