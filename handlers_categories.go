package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finman/models"
)

type categoryResponse struct {
	ID        uint                   `json:"id"`
	Name      string                 `json:"name"`
	Type      models.TransactionType `json:"type"`
	Icon      string                 `json:"icon"`
	Color     string                 `json:"color"`
	IsSystem  bool                   `json:"isSystem"`
	CreatedAt time.Time              `json:"createdAt"`
}

func categoryToResponse(cat models.Category) categoryResponse {
	return categoryResponse{
		ID:        cat.ID,
		Name:      cat.Name,
		Type:      cat.Type,
		Icon:      cat.Icon,
		Color:     cat.Color,
		IsSystem:  cat.IsSystem,
		CreatedAt: cat.CreatedAt,
	}
}

// listCategoriesHandler returns the system categories plus the caller's own.
func listCategoriesHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var categories []models.Category
	if err := db.Where("is_system = TRUE OR user_id = ?", user.ID).Order("id").Find(&categories).Error; err != nil {
		respondError(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, categoryToResponse(cat))
	}
	c.JSON(http.StatusOK, out)
}

func createCategoryHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required,max=255"`
		Type  string `json:"type" binding:"required,oneof=INCOME EXPENSE"`
		Icon  string `json:"icon" binding:"max=50"`
		Color string `json:"color" binding:"max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	uid := user.ID
	category := models.Category{
		UserID:   &uid,
		Name:     req.Name,
		Type:     models.TransactionType(req.Type),
		Icon:     req.Icon,
		Color:    req.Color,
		IsSystem: false,
	}
	if err := db.Create(&category).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, categoryToResponse(category))
}

// mutableCategoryForUser loads a category and rejects system categories and
// categories owned by somebody else.
func mutableCategoryForUser(user *models.User, id uint) (models.Category, error) {
	var category models.Category
	err := db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Category{}, errNotFound("Category", "id", id)
	}
	if err != nil {
		return models.Category{}, err
	}
	if category.IsSystem {
		return models.Category{}, errValidation("cannot modify a system category")
	}
	if category.UserID == nil || *category.UserID != user.ID {
		return models.Category{}, errForbidden("you can only modify your own categories")
	}
	return category, nil
}

func updateCategoryHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required,max=255"`
		Icon  string `json:"icon" binding:"max=50"`
		Color string `json:"color" binding:"max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	category, err := mutableCategoryForUser(user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	category.Name = req.Name
	category.Icon = req.Icon
	category.Color = req.Color
	if err := db.Model(&category).Updates(map[string]any{"name": req.Name, "icon": req.Icon, "color": req.Color}).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryToResponse(category))
}

func deleteCategoryHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	category, err := mutableCategoryForUser(user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	hasTxs, err := categoryHasActiveTransactions(category.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if hasTxs {
		respondError(c, errConflict("cannot delete category with existing transactions"))
		return
	}
	if err := db.Delete(&category).Error; err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
