package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/graphkart/storefront/internal/middleware/auth"
	"github.com/graphkart/storefront/internal/models"
	"github.com/graphkart/storefront/internal/repo"
	"github.com/graphkart/storefront/internal/service"
	"github.com/graphkart/storefront/internal/tokens"
	"github.com/graphkart/storefront/internal/tokenstore"
	"github.com/graphkart/storefront/internal/validate"
)

type captureMailer struct{ token string }

func (m *captureMailer) SendVerification(_ context.Context, _, token string) error {
	m.token = token
	return nil
}

type testEnv struct {
	E      *echo.Echo
	Repo   *repo.MemoryRepo
	Mailer *captureMailer
	Tokens *tokenstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.NewMemoryRepo()
	store, err := tokenstore.Open(context.Background(), "sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mailer := &captureMailer{}
	authSvc := &service.AuthService{
		Users:         r,
		Tokens:        store,
		Mailer:        mailer,
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		AdminEmails:   []string{"admin@example.com"},
	}

	e := echo.New()
	e.Validator = validate.New()
	Register(e, &Deps{
		Catalog:  &CatalogHTTP{Svc: &service.CatalogService{Products: r, Categories: r}},
		Auth:     &AuthHTTP{Svc: authSvc},
		Activity: &ActivityHTTP{Svc: &service.ActivityService{Wishlists: r, Views: r}},
		Cart:     &CartHTTP{Svc: &service.CartService{Carts: r}},
		AuthMW:   authmw.New(authSvc.AccessSecret, authSvc),
		Ready: map[string]Check{
			"graph": func(context.Context) error { return nil },
		},
	})
	return &testEnv{E: e, Repo: r, Mailer: mailer, Tokens: store}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

// login registers, verifies and logs in, returning the auth cookies.
func (env *testEnv) login(t *testing.T, username, email string) []*http.Cookie {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"username": username, "email": email, "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/api/user/verify", map[string]string{"token": env.Mailer.token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	return cookies
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)
	rec := env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"graph": "ok"}, decode[map[string]string](t, rec))
}

func TestReadyReportsFailingDependency(t *testing.T) {
	d := &Deps{Ready: map[string]Check{"graph": func(context.Context) error { return errors.New("down") }}}
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	require.NoError(t, d.ready(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetProduct_UnknownIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts_SortByPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i, price := range []float64{5, 1, 3} {
		require.NoError(t, env.Repo.CreateProduct(ctx, &models.Product{ID: fmt.Sprint(i), Name: "p", Price: price}, "Misc"))
	}

	prices := func(rec *httptest.ResponseRecorder) []float64 {
		var out []float64
		for _, p := range decode[[]models.Product](t, rec) {
			out = append(out, p.Price)
		}
		return out
	}

	rec := env.do(t, http.MethodGet, "/api/products?sortBy=price", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{1, 3, 5}, prices(rec))

	rec = env.do(t, http.MethodGet, "/api/products?sortBy=price&desc=true&category=Misc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{5, 3, 1}, prices(rec))

	rec = env.do(t, http.MethodGet, "/api/products?desc=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchProducts_PageOutOfRange(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products/search?q=lamp&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/products/search?q=lamp&page=9223372036854775807", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"username": "ann", "email": "ann@example.com", "password": "secret"}
	rec := env.do(t, http.MethodPost, "/api/products/register", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgRegistered, decode[map[string]string](t, rec)["message"])

	body["username"] = "ann2"
	body["email"] = "ANN@example.com"
	rec = env.do(t, http.MethodPost, "/api/user/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/user/register", map[string]string{"username": "ann", "email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products/verify", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgTokenMiss, decode[map[string]string](t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/api/products/verify?token=nope", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token.", decode[map[string]string](t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/user/register", map[string]string{"username": "ann", "email": "ann@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/verify?token="+env.Mailer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/products/verify?token="+env.Mailer.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResendVerification_SameAnswerForUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/user/register", map[string]string{"username": "ann", "email": "ann@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	known := env.do(t, http.MethodPost, "/api/user/resend-verification", map[string]string{"email": "ann@example.com"})
	require.Equal(t, http.StatusOK, known.Code)
	unknown := env.do(t, http.MethodPost, "/api/user/resend-verification", map[string]string{"email": "ghost@example.com"})
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestLogin_Statuses(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/user/register", map[string]string{"username": "ann", "email": "ann@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "ann@example.com", "password": "secret"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "ann@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "ann", "ann@example.com")

	var refresh *http.Cookie
	for _, ck := range cookies {
		if ck.Name == tokens.RefreshCookie {
			refresh = ck
		}
	}
	require.NotNil(t, refresh)

	rec := env.do(t, http.MethodPost, "/api/user/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// still accepted right after rotation, for requests already in flight
	rec = env.do(t, http.MethodPost, "/api/user/refresh", nil, refresh)
	assert.Equal(t, http.StatusOK, rec.Code)

	late := time.Now().Add(tokenstore.RotationGrace + time.Second)
	env.Tokens.Clock = func() time.Time { return late }
	rec = env.do(t, http.MethodPost, "/api/user/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/user/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	product := map[string]any{"name": "Lamp", "price": 12.5, "tags": []string{"home"}}

	rec := env.do(t, http.MethodPost, "/api/products", product)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := env.login(t, "ann", "ann@example.com")
	rec = env.do(t, http.MethodPost, "/api/products", product, user...)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := env.login(t, "boss", "admin@example.com")
	rec = env.do(t, http.MethodPost, "/api/products?categoryName=Home", product, admin...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)
	assert.Equal(t, "Home", created.Category)

	rec = env.do(t, http.MethodPost, "/api/products/Add", map[string]any{"name": "", "price": 1}, admin...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Toys"}, admin...)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/categories", nil)
	assert.Equal(t, []models.Category{{Name: "Home"}, {Name: "Toys"}}, decode[[]models.Category](t, rec))

	rec = env.do(t, http.MethodDelete, "/api/products/"+created.ID, nil, admin...)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/products/"+created.ID, nil, admin...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWishlistAndViewed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.Repo.CreateUser(ctx, &models.User{Username: "ann", Email: "ann@example.com"}))
	require.NoError(t, env.Repo.CreateProduct(ctx, &models.Product{ID: "p1", Name: "Lamp"}, ""))

	rec := env.do(t, http.MethodPost, "/api/products/wishlist", map[string]string{"productId": "p1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/products/wishlist", map[string]string{"productId": "nope", "userName": "ann"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/products/wishlist", map[string]string{"productId": "p1", "userName": "ann"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/wishlist?userName=ann", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	rec = env.do(t, http.MethodDelete, "/api/products/wishlist?userName=ann&productId=p1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/products/viewed", map[string]string{"username": "ann"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/products/viewed", map[string]string{"username": "ann", "productId": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])
}

func TestCart(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.Repo.CreateProduct(context.Background(), &models.Product{ID: "p1", Name: "Lamp", Price: 2.5}, ""))

	rec := env.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookies := env.login(t, "ann", "ann@example.com")

	rec = env.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": "p1", "quantity": 2}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/cart", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[models.Cart](t, rec)
	assert.Equal(t, int64(2), cart.Count)
	assert.InDelta(t, 5.0, cart.Total, 0.001)

	rec = env.do(t, http.MethodDelete, "/api/cart/items", map[string]string{"productId": "p1"}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[models.CartItem](t, rec).Quantity)

	rec = env.do(t, http.MethodDelete, "/api/cart", nil, cookies...)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
