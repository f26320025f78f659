// Product HTTP handlers.
//
// This file exposes the public catalog listing:
//   - GET /products   (active products, paginated)
//
// Inactive products never appear here; they are hidden from both the
// storefront and the conversational channel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
	"github.com/AI-Automated-Ecommerce/Backend/internal/utils"
)

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListProductsResponse wraps a page of products and pagination information.
type ListProductsResponse struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// ListProducts godoc
// @ID          listProducts
// @Summary     List active products (paginated)
// @Description Returns a page of the active catalog in name order.
// @Tags        Products
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListProductsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	total, err := repo.CountActiveProducts(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "catalog unavailable")
		return
	}

	items, err := repo.ListActiveProductsPage(ctx, h.db, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "catalog unavailable")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListProductsResponse{
		Products: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
