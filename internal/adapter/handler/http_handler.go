package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	SessionCookie = "storefront_session"

	cartStoreKey = "cart_store"
)

type HTTPOptions struct {
	SecureCookies bool
	// SessionMaxAge is the cookie lifetime; zero makes it a browser-session cookie.
	SessionMaxAge time.Duration
}

type HTTPHandler struct {
	catalog  *service.CatalogService
	sessions *service.SessionRegistry
	checkout *service.CheckoutBuilder
	logger   *zap.Logger
	opts     HTTPOptions
}

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ProductsResponse struct {
	Category   string           `json:"category"`
	Products   []domain.Product `json:"products"`
	Categories []string         `json:"categories"`
}

type CartResponse struct {
	Items           []domain.CartItem `json:"items"`
	Total           json.Number       `json:"total"`
	ItemCount       int               `json:"item_count"`
	PanelOpen       bool              `json:"panel_open"`
	Client          domain.ClientInfo `json:"client"`
	CheckoutEnabled bool              `json:"checkout_enabled"`
}

type CheckoutResponse struct {
	URL     string `json:"url"`
	Payload string `json:"payload"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type QuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func NewHTTPHandler(
	catalog *service.CatalogService,
	sessions *service.SessionRegistry,
	checkout *service.CheckoutBuilder,
	logger *zap.Logger,
	opts HTTPOptions,
) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		catalog:  catalog,
		sessions: sessions,
		checkout: checkout,
		logger:   logger,
		opts:     opts,
	}
}

func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog)

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.GET("/products", h.ListProducts)
	api.GET("/categories", h.ListCategories)

	visitor := api.Group("", h.session)
	visitor.GET("/cart", h.GetCart)
	visitor.POST("/cart/items", h.AddItem)
	visitor.PUT("/cart/items/:id", h.UpdateQuantity)
	visitor.POST("/cart/items/:id/increment", h.Increment)
	visitor.POST("/cart/items/:id/decrement", h.Decrement)
	visitor.DELETE("/cart/items/:id", h.RemoveItem)
	visitor.POST("/cart/open", h.OpenPanel)
	visitor.POST("/cart/close", h.ClosePanel)
	visitor.PATCH("/client", h.UpdateClient)
	visitor.GET("/checkout", h.Checkout)

	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	category := c.DefaultQuery("category", domain.AllCategories)
	if category == "" {
		category = domain.AllCategories
	}

	all := h.catalog.LoadProducts(c.Request.Context())
	visible := domain.VisibleProducts(all, category)
	if visible == nil {
		visible = []domain.Product{}
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: ProductsResponse{
			Category:   category,
			Products:   visible,
			Categories: domain.AvailableCategories(all),
		},
	})
}

func (h *HTTPHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.catalog.Categories(c.Request.Context())})
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	h.writeCart(c, cartStore(c))
}

func (h *HTTPHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalog.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	store := cartStore(c)
	store.AddToCart(c.Request.Context(), product)
	h.writeCart(c, store)
}

func (h *HTTPHandler) UpdateQuantity(c *gin.Context) {
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, "quantity is required")
		return
	}

	store := cartStore(c)
	store.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	h.writeCart(c, store)
}

func (h *HTTPHandler) Increment(c *gin.Context) {
	store := cartStore(c)
	store.IncrementQuantity(c.Request.Context(), c.Param("id"))
	h.writeCart(c, store)
}

func (h *HTTPHandler) Decrement(c *gin.Context) {
	store := cartStore(c)
	store.DecrementQuantity(c.Request.Context(), c.Param("id"))
	h.writeCart(c, store)
}

func (h *HTTPHandler) RemoveItem(c *gin.Context) {
	store := cartStore(c)
	store.RemoveFromCart(c.Request.Context(), c.Param("id"))
	h.writeCart(c, store)
}

func (h *HTTPHandler) OpenPanel(c *gin.Context) {
	store := cartStore(c)
	store.OpenPanel()
	h.writeCart(c, store)
}

func (h *HTTPHandler) ClosePanel(c *gin.Context) {
	store := cartStore(c)
	store.ClosePanel()
	h.writeCart(c, store)
}

func (h *HTTPHandler) UpdateClient(c *gin.Context) {
	var patch domain.ClientInfoPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	client := cartStore(c).UpdateClientInfo(patch)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: client})
}

func (h *HTTPHandler) Checkout(c *gin.Context) {
	snap := cartStore(c).Snapshot()
	cart := domain.Cart{Items: snap.Items}

	url, err := h.checkout.HandoffURL(cart, snap.Client)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: CheckoutResponse{
			URL:     url,
			Payload: h.checkout.BuildCheckoutPayload(cart, snap.Client),
		},
	})
}

// session attaches the visitor's cart store. A request without a valid session cookie gets
// a new id; every response re-issues the cookie so its expiry slides with visitor activity.
func (h *HTTPHandler) session(c *gin.Context) {
	id, err := c.Cookie(SessionCookie)
	if err == nil {
		if _, perr := uuid.Parse(id); perr != nil {
			err = perr
		}
	}
	if err != nil {
		id = uuid.NewString()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(h.opts.SessionMaxAge.Seconds()), "/", "", h.opts.SecureCookies, true)

	store, release := h.sessions.Acquire(c.Request.Context(), id)
	defer release()

	c.Set(cartStoreKey, store)
	c.Next()
}

func (h *HTTPHandler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()

	h.logger.Debug("http request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
	)
}

func cartStore(c *gin.Context) *service.CartStore {
	return c.MustGet(cartStoreKey).(*service.CartStore)
}

func (h *HTTPHandler) writeCart(c *gin.Context, store *service.CartStore) {
	snap := store.Snapshot()
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: CartResponse{
			Items:           snap.Items,
			Total:           json.Number(snap.Total.String()),
			ItemCount:       snap.ItemCount,
			PanelOpen:       snap.PanelOpen,
			Client:          snap.Client,
			CheckoutEnabled: snap.CheckoutEnabled,
		},
	})
}

func (h *HTTPHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		h.writeError(c, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrEmptyCart):
		h.writeError(c, http.StatusUnprocessableEntity, "cart is empty")
	case errors.Is(err, service.ErrCheckoutDisabled):
		h.writeError(c, http.StatusUnprocessableEntity, "full name and location are required")
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		h.writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *HTTPHandler) writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, APIResponse{Success: false, Message: message})
}
