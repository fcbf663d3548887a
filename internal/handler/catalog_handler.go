package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/repository"
	"github.com/GTDGit/repair_api/internal/utils"
)

// CatalogBrowser is the read-only catalog listing the storefront uses.
type CatalogBrowser interface {
	ListActiveBrands(ctx context.Context) ([]models.Brand, error)
	GetBrand(ctx context.Context, id int) (*models.Brand, error)
	ListActiveModelsByBrand(ctx context.Context, brandID int) ([]models.DeviceModel, error)
	GetDeviceModel(ctx context.Context, id int) (*models.DeviceModel, error)
	ListActiveRepairItemsByDeviceType(ctx context.Context, t models.DeviceType) ([]models.RepairItem, error)
}

// CatalogHandler handles catalog browsing requests.
type CatalogHandler struct {
	repo CatalogBrowser
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(repo CatalogBrowser) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// ListBrands returns all active brands.
// GET /v1/catalog/brands
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	brands, err := h.repo.ListActiveBrands(c.Request.Context())
	if err != nil {
		respondError(c, storeError(err))
		return
	}
	if brands == nil {
		brands = []models.Brand{}
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved brands", brands)
}

// ListModels returns the active models of an active brand.
// GET /v1/catalog/brands/:id/models
func (h *CatalogHandler) ListModels(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	brand, err := h.repo.GetBrand(ctx, id)
	if err != nil {
		respondError(c, storeError(err))
		return
	}
	if !brand.IsActive {
		respondError(c, utils.ErrNotFound)
		return
	}

	deviceModels, err := h.repo.ListActiveModelsByBrand(ctx, id)
	if err != nil {
		respondError(c, storeError(err))
		return
	}
	if deviceModels == nil {
		deviceModels = []models.DeviceModel{}
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved models", deviceModels)
}

// ListRepairs returns the active repair items applicable to a model.
// GET /v1/catalog/models/:id/repairs
func (h *CatalogHandler) ListRepairs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	model, err := h.repo.GetDeviceModel(ctx, id)
	if err != nil {
		respondError(c, storeError(err))
		return
	}
	if !model.IsActive {
		respondError(c, utils.ErrNotFound)
		return
	}

	items, err := h.repo.ListActiveRepairItemsByDeviceType(ctx, model.DeviceType)
	if err != nil {
		respondError(c, storeError(err))
		return
	}
	if items == nil {
		items = []models.RepairItem{}
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved repairs", items)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// storeError maps a repository error onto the service taxonomy.
func storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.ErrNotFound
	}
	return errors.Join(utils.ErrUnavailable, err)
}
