package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type staticSource struct {
	records []domain.Record
	err     error
}

func (s *staticSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	return s.records, s.err
}

func catalogRecords() []domain.Record {
	return []domain.Record{
		{ID: "v1", Fields: map[string]any{"nom": "Veste", "prix": json.Number("500"), "categorie": "Vestes"}},
		{ID: "j1", Fields: map[string]any{"nom": "Jean", "prix": json.Number("299.99"), "categorie": "Pantalons"}},
		{ID: "b1", Fields: map[string]any{"nom": "Bonnet", "prix": json.Number("80")}},
	}
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newTestAPI(t *testing.T, source *staticSource) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := service.NewCatalogService(source, service.CatalogOptions{}, nil)
	sessions := service.NewSessionRegistry(storage.NewMemoryAdapter(), "", nil)
	checkout := service.NewCheckoutBuilder("https://wa.me", "212696044246", service.DefaultCheckoutTemplate())

	h := NewHTTPHandler(catalog, sessions, checkout, nil, HTTPOptions{})
	return &apiClient{t: t, router: h.Router()}
}

type decoded struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *apiClient) do(method, path, body string) (int, decoded) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			a.cookie = c
		}
	}

	var resp decoded
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func (a *apiClient) cart(method, path, body string) CartResponse {
	a.t.Helper()
	code, resp := a.do(method, path, body)
	require.Equal(a.t, http.StatusOK, code, resp.Message)

	var cart CartResponse
	require.NoError(a.t, json.Unmarshal(resp.Data, &cart))
	return cart
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t, &staticSource{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListProducts(t *testing.T) {
	api := newTestAPI(t, &staticSource{records: catalogRecords()})

	code, resp := api.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, code)

	var all ProductsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &all))
	assert.Equal(t, "all", all.Category)
	assert.Len(t, all.Products, 3)
	assert.Equal(t, []string{"Autre", "Pantalons", "Vestes"}, all.Categories)

	code, resp = api.do(http.MethodGet, "/api/products?category=Vestes", "")
	require.Equal(t, http.StatusOK, code)

	var vestes ProductsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &vestes))
	require.Len(t, vestes.Products, 1)
	assert.Equal(t, "Veste", vestes.Products[0].Name)
	assert.Len(t, vestes.Categories, 3)
}

func TestListProducts_UnknownCategoryIsEmptyArray(t *testing.T) {
	api := newTestAPI(t, &staticSource{records: catalogRecords()})

	_, resp := api.do(http.MethodGet, "/api/products?category=Chaussures", "")
	assert.Contains(t, string(resp.Data), `"products":[]`)
}

func TestListCategories_SourceDown(t *testing.T) {
	api := newTestAPI(t, &staticSource{err: context.DeadlineExceeded})

	code, resp := api.do(http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestCartFlow(t *testing.T) {
	api := newTestAPI(t, &staticSource{records: catalogRecords()})

	cart := api.cart(http.MethodGet, "/api/cart", "")
	require.NotNil(t, api.cookie, "session cookie issued")
	assert.Empty(t, cart.Items)
	assert.Equal(t, json.Number("0"), cart.Total)
	assert.False(t, cart.PanelOpen)

	api.cart(http.MethodPost, "/api/cart/items", `{"product_id":"v1"}`)
	cart = api.cart(http.MethodPost, "/api/cart/items", `{"product_id":"v1"}`)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, cart.PanelOpen)

	cart = api.cart(http.MethodPost, "/api/cart/items", `{"product_id":"j1"}`)
	assert.Equal(t, json.Number("1299.99"), cart.Total)
	assert.Equal(t, 3, cart.ItemCount)

	cart = api.cart(http.MethodPost, "/api/cart/items/j1/increment", "")
	assert.Equal(t, 2, cart.Items[1].Quantity)

	api.cart(http.MethodPost, "/api/cart/items/j1/decrement", "")
	cart = api.cart(http.MethodPost, "/api/cart/items/j1/decrement", "")
	assert.Equal(t, 1, cart.Items[1].Quantity, "decrement stops at one")

	cart = api.cart(http.MethodPut, "/api/cart/items/v1", `{"quantity":5}`)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart = api.cart(http.MethodPut, "/api/cart/items/v1", `{"quantity":0}`)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "j1", cart.Items[0].Product.ID)

	cart = api.cart(http.MethodDelete, "/api/cart/items/j1", "")
	assert.Empty(t, cart.Items)

	cart = api.cart(http.MethodPost, "/api/cart/close", "")
	assert.False(t, cart.PanelOpen)
	cart = api.cart(http.MethodPost, "/api/cart/open", "")
	assert.True(t, cart.PanelOpen)
}

func TestAddItem_Errors(t *testing.T) {
	api := newTestAPI(t, &staticSource{records: catalogRecords()})

	code, resp := api.do(http.MethodPost, "/api/cart/items", `{"product_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)

	code, _ = api.do(http.MethodPost, "/api/cart/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPut, "/api/cart/items/v1", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSessionsAreIsolated(t *testing.T) {
	alice := newTestAPI(t, &staticSource{records: catalogRecords()})
	alice.cart(http.MethodPost, "/api/cart/items", `{"product_id":"v1"}`)

	bob := &apiClient{t: t, router: alice.router}
	cart := bob.cart(http.MethodGet, "/api/cart", "")
	assert.Empty(t, cart.Items)
	assert.NotEqual(t, alice.cookie.Value, bob.cookie.Value)

	cart = alice.cart(http.MethodGet, "/api/cart", "")
	assert.Len(t, cart.Items, 1)
}

func TestMalformedSessionCookieIsReplaced(t *testing.T) {
	api := newTestAPI(t, &staticSource{records: catalogRecords()})
	api.cookie = &http.Cookie{Name: SessionCookie, Value: "../../etc"}

	api.cart(http.MethodGet, "/api/cart", "")
	assert.NotEqual(t, "../../etc", api.cookie.Value)
	assert.True(t, api.cookie.HttpOnly)
}

func TestSessionCookieIsRenewed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const year = 365 * 24 * time.Hour

	catalog := service.NewCatalogService(&staticSource{records: catalogRecords()}, service.CatalogOptions{}, nil)
	sessions := service.NewSessionRegistry(storage.NewMemoryAdapter(), "", nil)
	checkout := service.NewCheckoutBuilder("https://wa.me", "212696044246", service.DefaultCheckoutTemplate())
	router := NewHTTPHandler(catalog, sessions, checkout, nil, HTTPOptions{SessionMaxAge: year}).Router()
	api := &apiClient{t: t, router: router}

	api.cart(http.MethodPost, "/api/cart/items", `{"product_id":"v1"}`)
	issued := api.cookie
	require.NotNil(t, issued)
	assert.Equal(t, int(year.Seconds()), issued.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: issued.Value})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1, "valid session cookie is re-issued")
	assert.Equal(t, issued.Value, cookies[0].Value)
	assert.Equal(t, int(year.Seconds()), cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	// The request released its session, so a sweep may drop it; the cart comes back from storage.
	assert.Equal(t, 1, sessions.Sweep(0))
	cart := api.cart(http.MethodGet, "/api/cart", "")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, issued.Value, api.cookie.Value)
}

func TestCheckout(t *testing.T) {
	api := newTestAPI(t, &staticSource{records: catalogRecords()})

	code, resp := api.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "cart is empty", resp.Message)

	api.cart(http.MethodPost, "/api/cart/items", `{"product_id":"v1"}`)
	api.cart(http.MethodPost, "/api/cart/items", `{"product_id":"v1"}`)

	code, resp = api.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "full name and location are required", resp.Message)

	code, resp = api.do(http.MethodPatch, "/api/client", `{"full_name":"Ali Ben"}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"full_name":"Ali Ben","location":""}`, string(resp.Data))

	cart := api.cart(http.MethodGet, "/api/cart", "")
	assert.False(t, cart.CheckoutEnabled)

	api.do(http.MethodPatch, "/api/client", `{"location":"Casablanca"}`)
	cart = api.cart(http.MethodGet, "/api/cart", "")
	assert.True(t, cart.CheckoutEnabled)
	assert.Equal(t, "Ali Ben", cart.Client.FullName)

	code, resp = api.do(http.MethodGet, "/api/checkout", "")
	require.Equal(t, http.StatusOK, code)

	var out CheckoutResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Contains(t, out.Payload, "2x Veste (500 DH)")
	assert.Contains(t, out.Payload, "Total : 1000 DH")
	assert.True(t, strings.HasPrefix(out.URL, "https://wa.me/212696044246?text="))
	assert.NotContains(t, out.URL, " ")
}
