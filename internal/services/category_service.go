package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visibleTo scopes a query to global categories plus those owned by userID.
// Anonymous callers (userID 0) see global categories only.
func visibleTo(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if userID == 0 {
			return db.Where("categories.user_id IS NULL")
		}
		return db.Where("categories.user_id IS NULL OR categories.user_id = ?", userID)
	}
}

// ListCategories returns the categories visible to the user ordered by type,
// then name. categoryType optionally narrows the list.
func (s *categoryService) ListCategories(ctx context.Context, userID uint, categoryType *models.CategoryType) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Model(&models.Category{}).Scopes(visibleTo(userID))
	if categoryType != nil {
		if !categoryType.IsValid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
		}
		q = q.Where("type = ?", *categoryType)
	}

	var categories []models.Category
	if err := q.Order("type ASC, name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryTree returns the visible categories nested under their parents.
// Categories whose parent is not visible are returned as roots.
func (s *categoryService) GetCategoryTree(ctx context.Context, userID uint, categoryType *models.CategoryType) ([]*models.Category, error) {
	categories, err := s.ListCategories(ctx, userID, categoryType)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint]*models.Category, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &categories[i]
	}

	roots := []*models.Category{}
	for i := range categories {
		node := &categories[i]
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok && parent.ID != node.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// GetCategory returns a category visible to the user.
func (s *categoryService) GetCategory(ctx context.Context, userID, id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Scopes(visibleTo(userID)).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateCategory creates a category owned by the user. A child must have its
// parent's type and the tree may not grow beyond MaxCategoryDepth levels.
func (s *categoryService) CreateCategory(ctx context.Context, userID uint, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}

	if input.ParentID != nil {
		parent, err := s.GetCategory(ctx, userID, *input.ParentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrCategoryNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
			}
			return nil, err
		}
		if parent.Type != input.Type {
			return nil, apperrors.ErrCategoryTypeMismatch
		}

		level, err := s.level(ctx, parent)
		if err != nil {
			return nil, err
		}
		if level >= models.MaxCategoryDepth {
			return nil, apperrors.ErrCategoryTooDeep
		}
	}

	category := &models.Category{
		UserID:   &userID,
		Name:     name,
		Type:     input.Type,
		Color:    input.Color,
		ParentID: input.ParentID,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// level returns the 1-based depth of c by walking its parent_id chain.
func (s *categoryService) level(ctx context.Context, c *models.Category) (int, error) {
	level := 1
	seen := map[uint]bool{c.ID: true}
	parentID := c.ParentID
	for parentID != nil {
		if seen[*parentID] || level > models.MaxCategoryDepth {
			break
		}
		seen[*parentID] = true

		var parent models.Category
		err := s.db.WithContext(ctx).Select("id", "parent_id").First(&parent, *parentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		level++
		parentID = parent.ParentID
	}
	return level, nil
}

// loadForWrite returns the category when the user may change it: it is
// global or owned by the user.
func (s *categoryService) loadForWrite(ctx context.Context, userID, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !models.IsOwnerOrShared(&category, userID) {
		return nil, apperrors.ErrForbidden
	}
	return &category, nil
}

// UpdateCategory updates name, color and parent. The type is not
// re-validated against a new parent.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, id uint, update CategoryUpdate) (*models.Category, error) {
	category, err := s.loadForWrite(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		updates["name"] = name
	}
	if update.Color != nil {
		updates["color"] = *update.Color
	}
	switch {
	case update.ClearParent:
		updates["parent_id"] = nil
	case update.ParentID != nil:
		if *update.ParentID == id {
			return nil, apperrors.ErrSelfParentCategory
		}
		parent, err := s.GetCategory(ctx, userID, *update.ParentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrCategoryNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
			}
			return nil, err
		}
		descendants, err := s.DescendantIDs(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		for _, d := range descendants {
			if d == parent.ID {
				return nil, apperrors.WithMessage(apperrors.ErrSelfParentCategory, "A category cannot be moved under its own subcategory")
			}
		}
		updates["parent_id"] = parent.ID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	var updated models.Category
	if err := s.db.WithContext(ctx).First(&updated, id).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &updated, nil
}

// DeleteCategory deletes a global or owned category. Children and
// transactions that reference it are handled by the store's foreign keys,
// which clear the reference.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, id uint) error {
	category, err := s.loadForWrite(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetCategoryUsage counts and sums the transactions referencing a category,
// restricted to the user's own transactions unless userID is Unscoped.
func (s *categoryService) GetCategoryUsage(ctx context.Context, userID, id uint) (*CategoryUsage, error) {
	if userID != Unscoped {
		if _, err := s.GetCategory(ctx, userID, id); err != nil {
			return nil, err
		}
	}

	usageQuery := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("category_id = ?", id)
		if userID != Unscoped {
			q = q.Where("user_id = ?", userID)
		}
		return q
	}

	var totals struct {
		Count int64
		Total decimal.Decimal
	}
	err := usageQuery().
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	usage := &CategoryUsage{
		CategoryID:  id,
		TotalCount:  totals.Count,
		TotalAmount: totals.Total,
	}
	if totals.Count > 0 {
		var latest models.Transaction
		err := usageQuery().
			Select("date").
			Order("date DESC").
			Take(&latest).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err == nil {
			lastUsed := time.Date(latest.Date.Year(), latest.Date.Month(), latest.Date.Day(), 0, 0, 0, 0, time.UTC)
			usage.LastUsed = &lastUsed
		}
	}
	return usage, nil
}

// DescendantIDs returns the ids of every visible category below id.
func (s *categoryService) DescendantIDs(ctx context.Context, userID, id uint) ([]uint, error) {
	var rows []models.Category
	if err := s.db.WithContext(ctx).Scopes(visibleTo(userID)).
		Select("id", "parent_id").
		Where("parent_id IS NOT NULL").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	children := make(map[uint][]uint)
	for _, r := range rows {
		children[*r.ParentID] = append(children[*r.ParentID], r.ID)
	}

	var result []uint
	seen := map[uint]bool{id: true}
	queue := []uint{id}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range children[next] {
			if seen[child] {
				continue
			}
			seen[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result, nil
}
