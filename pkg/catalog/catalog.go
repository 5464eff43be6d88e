// Package catalog holds the read-only storefront catalog: services with
// their price sheets, current promotions, and business information.
//
// A default catalog is compiled in. Operators can replace it with a YAML
// file of the same shape.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultDocument []byte

// PriceItem is one line of a service's price sheet. Prices are in rupiah.
type PriceItem struct {
	Name     string `yaml:"name" json:"name"`
	Price    int    `yaml:"price" json:"price"`
	MaxPrice int    `yaml:"max_price,omitempty" json:"max_price,omitempty"`
	Unit     string `yaml:"unit" json:"unit"`
}

// Service is one entry of the storefront menu.
type Service struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	// Price is the display label, PriceValue the starting price.
	Price      string `yaml:"price" json:"price"`
	PriceValue int    `yaml:"price_value" json:"price_value"`

	// Custom services are quoted by hand; clients route them to the
	// contact form instead of ordering directly.
	Custom bool `yaml:"custom,omitempty" json:"custom"`

	Items []PriceItem `yaml:"items,omitempty" json:"items,omitempty"`
}

// Promotion is a standing offer.
type Promotion struct {
	ID              string `yaml:"id" json:"id"`
	Title           string `yaml:"title" json:"title"`
	Description     string `yaml:"description" json:"description"`
	DiscountPercent int    `yaml:"discount_percent,omitempty" json:"discount_percent,omitempty"`
	MinQuantity     int    `yaml:"min_quantity,omitempty" json:"min_quantity,omitempty"`
}

// Business is the shop's contact card.
type Business struct {
	Name    string            `yaml:"name" json:"name"`
	Tagline string            `yaml:"tagline" json:"tagline"`
	Notice  string            `yaml:"notice,omitempty" json:"notice,omitempty"`
	Address string            `yaml:"address" json:"address"`
	Phone   string            `yaml:"phone" json:"phone"`
	Email   string            `yaml:"email" json:"email"`
	Hours   string            `yaml:"hours" json:"hours"`
	Website string            `yaml:"website" json:"website"`
	Payment []string          `yaml:"payment" json:"payment"`
	Social  map[string]string `yaml:"social" json:"social"`
}

// Catalog is the full document.
type Catalog struct {
	Business   Business    `yaml:"business" json:"business"`
	Services   []Service   `yaml:"services" json:"services"`
	Promotions []Promotion `yaml:"promotions" json:"promotions"`
}

// Default returns the compiled-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Load reads a catalog file. An empty path yields Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks identifiers and prices.
func (c *Catalog) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Business.Name) == "" {
		errs = append(errs, errors.New("business.name is required"))
	}

	seen := make(map[string]bool)
	for i, s := range c.Services {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Errorf("services[%d].id is required", i))
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("services[%d].id %q is duplicated", i, s.ID))
		}
		seen[s.ID] = true

		if s.Name == "" {
			errs = append(errs, fmt.Errorf("services[%d].name is required", i))
		}
		if s.PriceValue < 0 {
			errs = append(errs, fmt.Errorf("services[%d].price_value must not be negative", i))
		}
		for j, item := range s.Items {
			if item.Price <= 0 {
				errs = append(errs, fmt.Errorf("services[%d].items[%d].price must be positive", i, j))
			}
			if item.MaxPrice != 0 && item.MaxPrice < item.Price {
				errs = append(errs, fmt.Errorf("services[%d].items[%d].max_price is below price", i, j))
			}
		}
	}

	promoSeen := make(map[string]bool)
	for i, p := range c.Promotions {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("promotions[%d].id is required", i))
		} else if promoSeen[p.ID] {
			errs = append(errs, fmt.Errorf("promotions[%d].id %q is duplicated", i, p.ID))
		}
		promoSeen[p.ID] = true
		if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
			errs = append(errs, fmt.Errorf("promotions[%d].discount_percent must be within 0..100", i))
		}
	}

	return errors.Join(errs...)
}

// Service returns the service with the given ID.
func (c *Catalog) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// FormatRupiah renders an amount the way the shop prints prices
// ("Rp1.000", "Rp500").
func FormatRupiah(amount int) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("Rp")
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}
