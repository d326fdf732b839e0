package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-faster/errors"

	"github.com/rl1809/storefront/internal/core/domain"
)

var (
	ErrCheckoutDisabled = errors.New("checkout disabled: full name and location are required")
	ErrEmptyCart        = errors.New("cart is empty")
)

// lineBreak is how the messaging deep link expects newlines inside the text parameter.
const lineBreak = "%0A"

type CheckoutTemplate struct {
	Greeting       string `yaml:"greeting"`
	TotalPrefix    string `yaml:"total_prefix"`
	NamePrefix     string `yaml:"name_prefix"`
	LocationPrefix string `yaml:"location_prefix"`
	Currency       string `yaml:"currency"`
}

func DefaultCheckoutTemplate() CheckoutTemplate {
	return CheckoutTemplate{
		Greeting:       "Bonjour, je souhaite commander :",
		TotalPrefix:    "Total : ",
		NamePrefix:     "Mon nom complet : ",
		LocationPrefix: "Ma localisation : ",
		Currency:       "DH",
	}
}

type CheckoutBuilder struct {
	baseURL  string
	phone    string
	template CheckoutTemplate
}

func NewCheckoutBuilder(baseURL, phone string, template CheckoutTemplate) *CheckoutBuilder {
	return &CheckoutBuilder{
		baseURL:  strings.TrimRight(baseURL, "/"),
		phone:    phone,
		template: template,
	}
}

// Lines returns the message one line at a time, unencoded.
func (b *CheckoutBuilder) Lines(cart domain.Cart, client domain.ClientInfo) []string {
	t := b.template
	lines := []string{t.Greeting}

	if cart.IsEmpty() {
		lines = append(lines, "")
	}
	for _, item := range cart.Items {
		lines = append(lines, fmt.Sprintf("- %dx %s (%s %s)",
			item.Quantity, item.Product.Name, item.Product.Price.String(), t.Currency))
	}

	return append(lines,
		fmt.Sprintf("%s%s %s", t.TotalPrefix, cart.Total().String(), t.Currency),
		"",
		t.NamePrefix+client.FullName,
		t.LocationPrefix+client.Location,
	)
}

// BuildCheckoutPayload joins the message lines with encoded line feeds and leaves the rest of
// the text as typed.
func (b *CheckoutBuilder) BuildCheckoutPayload(cart domain.Cart, client domain.ClientInfo) string {
	return strings.Join(b.Lines(cart, client), lineBreak)
}

// CanCheckout gates the handoff: the cart must hold items and both client fields must be set.
func (b *CheckoutBuilder) CanCheckout(cart domain.Cart, client domain.ClientInfo) error {
	if cart.IsEmpty() {
		return ErrEmptyCart
	}
	if !client.Complete() {
		return ErrCheckoutDisabled
	}
	return nil
}

// HandoffURL builds the deep link opening the messaging app with the order pre-filled.
// Every line is query-escaped so names containing '&' or '#' cannot break the link.
func (b *CheckoutBuilder) HandoffURL(cart domain.Cart, client domain.ClientInfo) (string, error) {
	if err := b.CanCheckout(cart, client); err != nil {
		return "", err
	}

	lines := b.Lines(cart, client)
	encoded := make([]string, len(lines))
	for i, line := range lines {
		encoded[i] = strings.ReplaceAll(url.QueryEscape(line), "+", "%20")
	}

	return fmt.Sprintf("%s/%s?text=%s", b.baseURL, b.phone, strings.Join(encoded, lineBreak)), nil
}
