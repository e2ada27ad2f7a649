package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/logging"
	authmw "github.com/graphkart/storefront/internal/middleware/auth"
	"github.com/graphkart/storefront/internal/service"
	"github.com/graphkart/storefront/internal/transport"
)

type ActivityHTTP struct {
	Svc *service.ActivityService
}

// bindWishlist reads the body and falls back to query parameters.
func bindWishlist(c echo.Context) (transport.WishlistRequest, error) {
	var req transport.WishlistRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return req, err
		}
	}
	if req.UserName == "" {
		req.UserName = c.QueryParam("userName")
	}
	if req.ProductID == "" {
		req.ProductID = c.QueryParam("productId")
	}
	return req, nil
}

func (h *ActivityHTTP) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add_to_wishlist")

	req, err := bindWishlist(c)
	if err != nil {
		return badRequest(l, "wishlist_add_failed", "invalid body", err)
	}
	if err := h.Svc.AddToWishlist(ctx, req.UserName, req.ProductID); err != nil {
		return fail(l, "wishlist_add_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product added to wishlist."})
}

func (h *ActivityHTTP) GetWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get_wishlist")

	items, err := h.Svc.GetWishlist(ctx, c.QueryParam("userName"))
	if err != nil {
		return fail(l, "wishlist_get_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ActivityHTTP) RemoveFromWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove_from_wishlist")

	req, err := bindWishlist(c)
	if err != nil {
		return badRequest(l, "wishlist_remove_failed", "invalid body", err)
	}
	if err := h.Svc.RemoveFromWishlist(ctx, req.UserName, req.ProductID); err != nil {
		return fail(l, "wishlist_remove_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product removed from wishlist."})
}

func (h *ActivityHTTP) MarkViewed(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "mark_viewed")

	var req transport.ViewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "mark_viewed_failed", "invalid body", err)
	}
	n, err := h.Svc.MarkViewed(ctx, req.Username, req.ProductID)
	if err != nil {
		return fail(l, "mark_viewed_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "View relationship created successfully.", "count": n})
}

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get_cart")

	cart, err := h.Svc.Get(ctx, authmw.Username(c))
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add_to_cart")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_failed", "invalid body", err)
	}
	item, err := h.Svc.Add(ctx, authmw.Username(c), req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart_failed", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) DeleteOne(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_from_cart")

	var req transport.CartItemRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "delete_from_cart_failed", "invalid body", err)
		}
	}
	if req.ProductID == "" {
		req.ProductID = c.QueryParam("productId")
	}

	removed, item, err := h.Svc.RemoveOne(ctx, authmw.Username(c), req.ProductID)
	if err != nil {
		return fail(l, "delete_from_cart_failed", err)
	}
	if removed {
		return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Item removed from cart."})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear_cart")

	if err := h.Svc.Clear(ctx, authmw.Username(c)); err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
