package models

import "time"

// MemoPriority ranks a memo.
type MemoPriority string

const (
	MemoPriorityLow    MemoPriority = "low"
	MemoPriorityMedium MemoPriority = "medium"
	MemoPriorityHigh   MemoPriority = "high"
)

// MemoVisibility controls who can read a memo.
type MemoVisibility string

const (
	MemoVisibilityPrivate MemoVisibility = "private"
	MemoVisibilityPublic  MemoVisibility = "public"
)

// Memo is a short dated note. Public memos are readable by anyone; only the
// owner may change them.
type Memo struct {
	Base
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Content     string         `gorm:"type:text" json:"content"`
	Date        time.Time      `gorm:"type:date;not null;index" json:"date"`
	Priority    MemoPriority   `gorm:"size:10;not null;default:medium" json:"priority"`
	Visibility  MemoVisibility `gorm:"size:10;not null;default:private;index" json:"visibility"`
	IsCompleted bool           `gorm:"not null;default:false" json:"is_completed"`
}

// OwnerID implements Owned.
func (m *Memo) OwnerID() *uint { return &m.UserID }

// IsValid reports whether p is a known priority.
func (p MemoPriority) IsValid() bool {
	switch p {
	case MemoPriorityLow, MemoPriorityMedium, MemoPriorityHigh:
		return true
	}
	return false
}

// IsValid reports whether v is a known visibility.
func (v MemoVisibility) IsValid() bool {
	return v == MemoVisibilityPrivate || v == MemoVisibilityPublic
}
