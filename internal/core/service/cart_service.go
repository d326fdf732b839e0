package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// DefaultCartKey is the storage key carts are written under.
const DefaultCartKey = "cart"

// CartStore owns one visitor's cart. Every mutation writes the full cart to storage as its
// last step; storage failures are logged and never returned.
type CartStore struct {
	storage port.CartStorage
	key     string
	logger  *zap.Logger

	mu     sync.Mutex
	cart   domain.Cart
	open   bool
	client domain.ClientInfo
}

// CartSnapshot is a consistent view of the store for presentation.
type CartSnapshot struct {
	Items           []domain.CartItem
	Total           decimal.Decimal
	ItemCount       int
	PanelOpen       bool
	Client          domain.ClientInfo
	CheckoutEnabled bool
}

func NewCartStore(ctx context.Context, storage port.CartStorage, key string, logger *zap.Logger) *CartStore {
	if key == "" {
		key = DefaultCartKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CartStore{
		storage: storage,
		key:     key,
		logger:  logger.With(zap.String("cart_key", key)),
	}
	s.cart = s.rehydrate(ctx)
	return s
}

func (s *CartStore) rehydrate(ctx context.Context) domain.Cart {
	raw, ok, err := s.storage.Read(ctx, s.key)
	if err != nil {
		s.logger.Warn("read cart", zap.Error(err))
		return domain.Cart{}
	}
	if !ok {
		return domain.Cart{}
	}

	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("parse stored cart", zap.Error(err))
		return domain.Cart{}
	}

	// Stored data is not trusted to uphold the one-item-per-product and positive-quantity rules.
	var cart domain.Cart
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if existing := cart.Quantity(item.Product.ID); existing > 0 {
			cart.SetQuantity(item.Product.ID, existing+item.Quantity)
			continue
		}
		cart.Items = append(cart.Items, item)
	}
	return cart
}

func (s *CartStore) persist(ctx context.Context) {
	items := s.cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("encode cart", zap.Error(err))
		return
	}
	if err := s.storage.Write(ctx, s.key, string(data)); err != nil {
		s.logger.Warn("write cart", zap.Error(err))
	}
}

// AddToCart increments the product's quantity or appends it, and opens the cart panel.
func (s *CartStore) AddToCart(ctx context.Context, product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Add(product)
	s.open = true
	s.persist(ctx)
}

func (s *CartStore) RemoveFromCart(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Remove(productID)
	s.persist(ctx)
}

// UpdateQuantity removes the item when quantity <= 0, otherwise sets it exactly.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.SetQuantity(productID, quantity)
	s.persist(ctx)
}

func (s *CartStore) IncrementQuantity(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q := s.cart.Quantity(productID); q > 0 {
		s.cart.SetQuantity(productID, q+1)
	}
	s.persist(ctx)
}

// DecrementQuantity floors at 1; removal goes through RemoveFromCart.
func (s *CartStore) DecrementQuantity(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q := s.cart.Quantity(productID); q > 0 {
		s.cart.SetQuantity(productID, max(1, q-1))
	}
	s.persist(ctx)
}

func (s *CartStore) ComputeTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

func (s *CartStore) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *CartStore) OpenPanel() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

func (s *CartStore) ClosePanel() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func (s *CartStore) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *CartStore) ClientInfo() domain.ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *CartStore) UpdateClientInfo(patch domain.ClientInfoPatch) domain.ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = s.client.Merge(patch)
	return s.client
}

func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart.Clone()
	return CartSnapshot{
		Items:           cart.Items,
		Total:           cart.Total(),
		ItemCount:       cart.ItemCount(),
		PanelOpen:       s.open,
		Client:          s.client,
		CheckoutEnabled: !cart.IsEmpty() && s.client.Complete(),
	}
}
