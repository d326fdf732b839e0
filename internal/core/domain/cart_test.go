package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func product(id, name string, price int64, category string) Product {
	return Product{
		ID:           id,
		Name:         name,
		Price:        decimal.NewFromInt(price),
		Availability: DefaultAvailability,
		Category:     category,
	}
}

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestCart_AddSameProductIncrements(t *testing.T) {
	var cart Cart
	veste := product("rec1", "Veste", 500, "Vestes")

	for i := 0; i < 5; i++ {
		cart.Add(veste)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", cart.Items[0].Quantity)
	}
}

func TestCart_AddKeepsInsertionOrder(t *testing.T) {
	var cart Cart
	cart.Add(product("b", "B", 1, ""))
	cart.Add(product("a", "A", 1, ""))
	cart.Add(product("b", "B", 1, ""))

	got := []string{cart.Items[0].Product.ID, cart.Items[1].Product.ID}
	if diff := cmp.Diff([]string{"b", "a"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	var cart Cart
	cart.Add(product("a", "A", 10, ""))

	if cart.Remove("missing") {
		t.Error("expected no removal")
	}
	if len(cart.Items) != 1 {
		t.Errorf("expected cart untouched, got %d items", len(cart.Items))
	}
}

func TestCart_SetQuantityNonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -1, -100} {
		var withSet, withRemove Cart
		for _, c := range []*Cart{&withSet, &withRemove} {
			c.Add(product("a", "A", 10, ""))
			c.Add(product("b", "B", 20, ""))
			c.Add(product("b", "B", 20, ""))
		}

		withSet.SetQuantity("b", q)
		withRemove.Remove("b")

		if diff := cmp.Diff(withRemove, withSet, decimalComparer); diff != "" {
			t.Errorf("quantity %d: mismatch (-remove +set):\n%s", q, diff)
		}
	}
}

func TestCart_SetQuantityHasNoUpperBound(t *testing.T) {
	var cart Cart
	cart.Add(product("a", "A", 10, ""))

	cart.SetQuantity("a", 1_000_000)

	if cart.Quantity("a") != 1_000_000 {
		t.Errorf("expected 1000000, got %d", cart.Quantity("a"))
	}
}

func TestCart_TotalIsLinear(t *testing.T) {
	var cart Cart
	cart.Add(product("a", "A", 120, ""))
	cart.SetQuantity("a", 3)
	before := cart.Total()

	p := Product{ID: "b", Price: decimal.RequireFromString("49.90")}
	cart.Add(p)

	if !cart.Total().Sub(before).Equal(p.Price) {
		t.Errorf("expected total to grow by %s, got %s -> %s", p.Price, before, cart.Total())
	}
}

func TestCart_ItemCount(t *testing.T) {
	var cart Cart
	cart.Add(product("a", "A", 1, ""))
	cart.Add(product("a", "A", 1, ""))
	cart.Add(product("b", "B", 1, ""))

	if cart.ItemCount() != 3 {
		t.Errorf("expected 3, got %d", cart.ItemCount())
	}
}

func TestCart_JSONRoundTrip(t *testing.T) {
	var cart Cart
	cart.Add(product("rec1", "Veste", 500, "Vestes"))
	cart.Add(Product{ID: "rec2", Name: "Écharpe", Price: decimal.RequireFromString("89.5"), ImageURL: "https://img/1.jpg", Availability: "Épuisé", Category: "Accessoires"})
	cart.SetQuantity("rec1", 2)

	data, err := json.Marshal(cart.Items)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var items []CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(cart, Cart{Items: items}, decimalComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCart_DecodesBrowserPayload(t *testing.T) {
	raw := `[{"product":{"id":"recA","nom":"Veste","prix":500,"image":"","disponibilite":"Disponible","categorie":"Vestes"},"quantity":2}]`

	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(items) != 1 || items[0].Product.Name != "Veste" || items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if !items[0].Product.Price.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected price 500, got %s", items[0].Product.Price)
	}
}

func TestCart_CloneDoesNotAlias(t *testing.T) {
	var cart Cart
	cart.Add(product("a", "A", 1, ""))

	clone := cart.Clone()
	clone.Items[0].Quantity = 9

	if cart.Items[0].Quantity != 1 {
		t.Errorf("clone mutated original: %d", cart.Items[0].Quantity)
	}
}
