package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexroche/boutique/internal/cache"
	"github.com/alexroche/boutique/internal/domain/product"
	"github.com/alexroche/boutique/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

const productListCacheKey = "products:list"

type ProductsStore interface {
	Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error)
	List(ctx context.Context) ([]product.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	repo  ProductsStore
	cache *cache.Cache
	log   *slog.Logger
}

// NewProductsHandler wires the catalog handlers. listCache is optional and
// only ever holds the public listing, never per-user data.
func NewProductsHandler(repo ProductsStore, listCache *cache.Cache, log *slog.Logger) *ProductsHandler {
	return &ProductsHandler{
		repo:  repo,
		cache: listCache,
		log:   log,
	}
}

func (h *ProductsHandler) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"response": "API is running"})
}

func (h *ProductsHandler) GetAll(ctx *gin.Context) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(productListCacheKey); ok {
			RespondJSONWithETag(ctx, http.StatusOK, cached)
			return
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	products, err := h.repo.List(cctx)

	if err != nil {
		h.log.ErrorContext(cctx, "product listing failed", "err", err)
		RespondInternal(ctx, "Could not list products")
		return
	}

	payload := gin.H{
		"items": products,
		"count": len(products),
	}

	if h.cache != nil {
		h.cache.Set(productListCacheKey, payload)
	}

	RespondJSONWithETag(ctx, http.StatusOK, payload)
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	var req product.CreateProductRequest

	if !BindJSON(ctx, CodeValidationError, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, req)

	if err != nil {
		h.log.ErrorContext(cctx, "product creation failed", "err", err)
		RespondInternal(ctx, "Could not create product")
		return
	}

	if h.cache != nil {
		h.cache.Delete(productListCacheKey)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"code":    "PRODUCT_CREATED",
		"product": p,
	})
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	var req product.DeleteProductRequest

	if !BindJSON(ctx, CodeValidationError, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, req.ID)

	if err != nil {
		if errors.Is(err, postgres.ErrProductNotFound) {
			RespondNotFound(ctx, CodeNotFound, "Product not found")
			return
		}

		h.log.ErrorContext(cctx, "product deletion failed", "err", err)
		RespondInternal(ctx, "Could not delete product")
		return
	}

	if h.cache != nil {
		h.cache.Delete(productListCacheKey)
	}

	ctx.JSON(http.StatusOK, gin.H{"code": "PRODUCT_DELETED"})
}
