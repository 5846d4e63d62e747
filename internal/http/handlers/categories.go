package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexroche/boutique/internal/domain/category"
	"github.com/alexroche/boutique/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

type CategoriesStore interface {
	Create(ctx context.Context, req category.UpsertCategoryRequest) (category.Category, error)
	List(ctx context.Context) ([]category.Category, error)
	GetByID(ctx context.Context, id string) (category.Category, error)
	Update(ctx context.Context, id string, req category.UpsertCategoryRequest) (category.Category, error)
	Delete(ctx context.Context, id string) error
}

type ProductCounter interface {
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

type CategoriesHandler struct {
	repo     CategoriesStore
	products ProductCounter
	log      *slog.Logger
}

func NewCategoriesHandler(repo CategoriesStore, products ProductCounter, log *slog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		repo:     repo,
		products: products,
		log:      log,
	}
}

func (h *CategoriesHandler) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"response": "API is running"})
}

func (h *CategoriesHandler) GetAll(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	categories, err := h.repo.List(cctx)

	if err != nil {
		h.log.ErrorContext(cctx, "category listing failed", "err", err)
		RespondInternal(ctx, "Could not list categories")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": categories,
		"count": len(categories),
	})
}

func (h *CategoriesHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrCategoryNotFound) {
			RespondNotFound(ctx, CodeNotFound, "Category not found")
			return
		}

		h.log.ErrorContext(cctx, "category lookup failed", "err", err)
		RespondInternal(ctx, "Could not load category")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req category.UpsertCategoryRequest

	if !BindJSON(ctx, CodeValidationError, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, req)

	if err != nil {
		h.log.ErrorContext(cctx, "category creation failed", "err", err)
		RespondInternal(ctx, "Could not create category")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"code":     "CATEGORY_CREATED",
		"category": c,
	})
}

func (h *CategoriesHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req category.UpsertCategoryRequest

	if !BindJSON(ctx, CodeValidationError, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	// Tell the caller how many products the rename touches.
	affected, err := h.products.CountByCategory(cctx, id)

	if err != nil {
		h.log.ErrorContext(cctx, "category product count failed", "err", err)
		RespondInternal(ctx, "Could not update category")
		return
	}

	c, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, postgres.ErrCategoryNotFound) {
			RespondNotFound(ctx, CodeNotFound, "Category not found")
			return
		}

		h.log.ErrorContext(cctx, "category update failed", "err", err)
		RespondInternal(ctx, "Could not update category")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":             "CATEGORY_UPDATED",
		"category":         c,
		"productsAffected": affected,
	})
}

func (h *CategoriesHandler) Delete(ctx *gin.Context) {
	var req category.DeleteCategoryRequest

	if !BindJSON(ctx, CodeValidationError, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, req.ID)

	if err != nil {
		if errors.Is(err, postgres.ErrCategoryNotFound) {
			RespondNotFound(ctx, CodeNotFound, "Category not found")
			return
		}

		h.log.ErrorContext(cctx, "category deletion failed", "err", err)
		RespondInternal(ctx, "Could not delete category")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": "CATEGORY_DELETED"})
}
