package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/logging"
	"github.com/graphkart/storefront/internal/models"
	"github.com/graphkart/storefront/internal/service"
	"github.com/graphkart/storefront/internal/transport"
	"github.com/graphkart/storefront/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list_products")

	q := models.ProductQuery{
		SortBy:   c.QueryParam("sortBy"),
		Category: c.QueryParam("category"),
	}
	if raw := c.QueryParam("desc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(l, "list_products_failed", "desc must be a boolean", err)
		}
		q.Desc = desc
	}

	items, err := h.Svc.ListProducts(ctx, q)
	if err != nil {
		return fail(l, "list_products_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) ProductNames(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_names")

	names, err := h.Svc.ProductNames(ctx)
	if err != nil {
		return fail(l, "product_names_failed", err)
	}
	return c.JSON(http.StatusOK, names)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "get_product", "product_id", id)

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

// CreateProduct serves both POST /api/products and the legacy POST /api/products/Add.
func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product_failed", "Product data is required.", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_product_failed", err.Error(), err)
	}

	p, err := h.Svc.CreateProduct(ctx, req, c.QueryParam("categoryName"))
	if err != nil {
		return fail(l, "create_product_failed", err)
	}
	l.Info("product_created", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "delete_product", "product_id", id)

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_failed", err)
	}
	l.Info("product_deleted")
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) AlsoViewed(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "also_viewed", "product_id", id)

	items, err := h.Svc.AlsoViewed(ctx, id, util.ParseIntDefault(c.QueryParam("limit"), 0))
	if err != nil {
		return fail(l, "also_viewed_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_category_failed", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_category_failed", err.Error(), err)
	}

	cat, err := h.Svc.CreateCategory(ctx, req.Name)
	if err != nil {
		return fail(l, "create_category_failed", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list_categories")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_failed", err)
	}
	return c.JSON(http.StatusOK, cats)
}
