package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/logging"
	authmw "github.com/graphkart/storefront/internal/middleware/auth"
)

// Check reports whether a backing dependency is reachable.
type Check func(ctx context.Context) error

type Deps struct {
	Catalog  *CatalogHTTP
	Auth     *AuthHTTP
	Activity *ActivityHTTP
	Cart     *CartHTTP
	AuthMW   *authmw.Middleware
	Ready    map[string]Check
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	requireAuth, requireAdmin := d.AuthMW.RequireAuth, d.AuthMW.RequireAdmin

	products := e.Group("/api/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/names", d.Catalog.ProductNames)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.GET("/:id/also-viewed", d.Catalog.AlsoViewed)
	products.POST("", d.Catalog.CreateProduct, requireAdmin)
	products.POST("/Add", d.Catalog.CreateProduct, requireAdmin)
	products.DELETE("/:id", d.Catalog.DeleteProduct, requireAdmin)

	products.POST("/wishlist", d.Activity.AddToWishlist)
	products.GET("/wishlist", d.Activity.GetWishlist)
	products.DELETE("/wishlist", d.Activity.RemoveFromWishlist)
	products.POST("/viewed", d.Activity.MarkViewed)

	// registration and verification as the storefront client first shipped them
	products.POST("/register", d.Auth.Register)
	products.GET("/verify", d.Auth.VerifyQuery)

	categories := e.Group("/api/categories")
	categories.GET("", d.Catalog.ListCategories)
	categories.POST("", d.Catalog.CreateCategory, requireAdmin)

	user := e.Group("/api/user")
	user.POST("/register", d.Auth.Register)
	user.POST("/verify", d.Auth.VerifyBody)
	user.GET("/verify", d.Auth.VerifyQuery)
	user.POST("/resend-verification", d.Auth.ResendVerification)
	user.POST("/login", d.Auth.Login)
	user.POST("/refresh", d.Auth.Refresh)
	user.POST("/logout", d.Auth.LogOut)

	cart := e.Group("/api/cart", requireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.DELETE("", d.Cart.ClearCart)
	cart.DELETE("/items", d.Cart.DeleteOne)
}

func (d *Deps) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	l := logging.FromContext(ctx).With("handler", "health_ready")

	status := map[string]string{}
	code := http.StatusOK
	for name, check := range d.Ready {
		if err := check(ctx); err != nil {
			l.Warn("dependency_unready", "dependency", name, "error", err)
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	return c.JSON(code, status)
}
