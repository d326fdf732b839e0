package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Field names of a catalog row in the upstream tabular store.
const (
	FieldName         = "nom"
	FieldPrice        = "prix"
	FieldImage        = "image"
	FieldAvailability = "disponibilite"
	FieldCategory     = "categorie"
)

const (
	DefaultAvailability = "Disponible"
	DefaultCategory     = "Autre"
)

// Record is a schema-loose row as returned by a catalog source. Any field may be absent.
type Record struct {
	ID     string
	Fields map[string]any
}

// Product is immutable once loaded. JSON keys match the format carts were historically
// stored with in the browser, so old payloads still rehydrate.
type Product struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	ImageURL     string
	Availability string
	Category     string
}

type productJSON struct {
	ID           string      `json:"id"`
	Name         string      `json:"nom"`
	Price        json.Number `json:"prix"`
	ImageURL     string      `json:"image"`
	Availability string      `json:"disponibilite"`
	Category     string      `json:"categorie"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:           p.ID,
		Name:         p.Name,
		Price:        json.Number(p.Price.String()),
		ImageURL:     p.ImageURL,
		Availability: p.Availability,
		Category:     p.Category,
	})
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var raw productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	price := decimal.Zero
	if raw.Price != "" {
		var err error
		price, err = decimal.NewFromString(raw.Price.String())
		if err != nil {
			return err
		}
	}

	*p = Product{
		ID:           raw.ID,
		Name:         raw.Name,
		Price:        price,
		ImageURL:     raw.ImageURL,
		Availability: raw.Availability,
		Category:     raw.Category,
	}
	return nil
}
