package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// memoService handles memo business logic.
type memoService struct {
	db *gorm.DB
}

// NewMemoService creates a new MemoServicer.
func NewMemoService(db *gorm.DB) MemoServicer {
	return &memoService{db: db}
}

func applyMemoFilter(q *gorm.DB, f MemoFilter) (*gorm.DB, error) {
	switch {
	case f.Date != nil:
		day := *f.Date
		next := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
		q = q.Where("date >= ? AND date < ?", models.FormatDate(day), models.FormatDate(next))
	case f.Year != 0 || f.Month != 0:
		start, end, err := monthBounds(f.Year, f.Month)
		if err != nil {
			return nil, err
		}
		q = q.Where("date >= ? AND date < ?", start, end)
	}
	return q, nil
}

// ListMemos returns the user's memos, optionally for one date or month.
func (s *memoService) ListMemos(ctx context.Context, userID uint, filter MemoFilter) ([]models.Memo, error) {
	q, err := applyMemoFilter(s.db.WithContext(ctx).Where("user_id = ?", userID), filter)
	if err != nil {
		return nil, err
	}

	var memos []models.Memo
	if err := q.Order("date DESC, id DESC").Find(&memos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return memos, nil
}

// ListPublicMemos returns every public memo, optionally for one date or month.
func (s *memoService) ListPublicMemos(ctx context.Context, filter MemoFilter) ([]models.Memo, error) {
	q, err := applyMemoFilter(s.db.WithContext(ctx).Where("visibility = ?", models.MemoVisibilityPublic), filter)
	if err != nil {
		return nil, err
	}

	var memos []models.Memo
	if err := q.Order("date DESC, id DESC").Find(&memos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return memos, nil
}

// GetMemo returns a memo owned by the user or any public memo. Anonymous
// callers pass userID 0.
func (s *memoService) GetMemo(ctx context.Context, userID, id uint) (*models.Memo, error) {
	memo, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if memo.Visibility != models.MemoVisibilityPublic && !models.IsOwner(memo, userID) {
		return nil, apperrors.ErrMemoNotFound
	}
	return memo, nil
}

func (s *memoService) find(ctx context.Context, id uint) (*models.Memo, error) {
	var memo models.Memo
	if err := s.db.WithContext(ctx).First(&memo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemoNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &memo, nil
}

// loadForWrite returns a memo the user may change. Public memos of others
// are readable, so changing them is forbidden; private ones look missing.
func (s *memoService) loadForWrite(ctx context.Context, userID, id uint) (*models.Memo, error) {
	memo, err := s.GetMemo(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !models.IsOwner(memo, userID) {
		return nil, apperrors.ErrForbidden
	}
	return memo, nil
}

// CreateMemo creates a memo. Priority defaults to medium and visibility to
// private.
func (s *memoService) CreateMemo(ctx context.Context, userID uint, input MemoInput) (*models.Memo, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "memo title is required")
	}
	if input.Priority == "" {
		input.Priority = models.MemoPriorityMedium
	}
	if input.Visibility == "" {
		input.Visibility = models.MemoVisibilityPrivate
	}
	if !input.Priority.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "priority must be low, medium or high")
	}
	if !input.Visibility.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "visibility must be private or public")
	}
	if input.Date.IsZero() {
		now := time.Now()
		input.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	}

	memo := &models.Memo{
		UserID:     userID,
		Title:      title,
		Content:    input.Content,
		Date:       input.Date,
		Priority:   input.Priority,
		Visibility: input.Visibility,
	}
	if err := s.db.WithContext(ctx).Create(memo).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return memo, nil
}

// UpdateMemo changes the given fields of an owned memo.
func (s *memoService) UpdateMemo(ctx context.Context, userID, id uint, update MemoUpdate) (*models.Memo, error) {
	memo, err := s.loadForWrite(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "memo title cannot be empty")
		}
		updates["title"] = title
	}
	if update.Content != nil {
		updates["content"] = *update.Content
	}
	if update.Date != nil {
		updates["date"] = *update.Date
	}
	if update.Priority != nil {
		if !update.Priority.IsValid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "priority must be low, medium or high")
		}
		updates["priority"] = *update.Priority
	}
	if update.Visibility != nil {
		if !update.Visibility.IsValid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "visibility must be private or public")
		}
		updates["visibility"] = *update.Visibility
	}
	if update.IsCompleted != nil {
		updates["is_completed"] = *update.IsCompleted
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(memo).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.find(ctx, id)
}

// DeleteMemo removes an owned memo.
func (s *memoService) DeleteMemo(ctx context.Context, userID, id uint) error {
	memo, err := s.loadForWrite(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(memo).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ToggleMemo flips the completion flag of an owned memo.
func (s *memoService) ToggleMemo(ctx context.Context, userID, id uint) (*models.Memo, error) {
	memo, err := s.loadForWrite(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(memo).Update("is_completed", !memo.IsCompleted).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.find(ctx, id)
}
