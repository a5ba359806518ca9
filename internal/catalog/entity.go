// AngelaMos | 2026
// entity.go

package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID         string    `db:"id"           json:"id"`
	Name       string    `db:"name"         json:"name"`
	ImageURL   string    `db:"image_url"    json:"image_url"`
	DataAIHint string    `db:"data_ai_hint" json:"data_ai_hint"`
	CreatedAt  time.Time `db:"created_at"   json:"created_at"`
}

type Product struct {
	ID              string          `db:"id"               json:"id"`
	Name            string          `db:"name"             json:"name"`
	Description     string          `db:"description"      json:"description"`
	LongDescription string          `db:"long_description" json:"long_description"`
	Price           decimal.Decimal `db:"price"            json:"price"`
	CategoryID      *string         `db:"category_id"      json:"category_id"`
	CategoryName    *string         `db:"category_name"    json:"category_name,omitempty"`
	ImageURLs       ImageURLs       `db:"image_urls"       json:"image_urls"`
	DataAIHint      string          `db:"data_ai_hint"     json:"data_ai_hint"`
	IsFeatured      bool            `db:"is_featured"      json:"is_featured"`
	IsBestSeller    bool            `db:"is_best_seller"   json:"is_best_seller"`
	CreatedAt       time.Time       `db:"created_at"       json:"created_at"`
}

type HeroSlide struct {
	ID          string    `db:"id"            json:"id"`
	Title       string    `db:"title"         json:"title"`
	Subtitle    *string   `db:"subtitle"      json:"subtitle,omitempty"`
	Link        string    `db:"link"          json:"link"`
	ImageURL    string    `db:"image_url"     json:"image_url"`
	ImageAIHint *string   `db:"image_ai_hint" json:"image_ai_hint,omitempty"`
	IsActive    bool      `db:"is_active"     json:"is_active"`
	CreatedAt   time.Time `db:"created_at"    json:"created_at"`
}

// ImageURLs is stored as a jsonb array. A legacy bare URL string is read as
// a one-element list.
type ImageURLs []string

func (u ImageURLs) Value() (driver.Value, error) {
	if u == nil {
		u = ImageURLs{}
	}
	b, err := json.Marshal([]string(u))
	if err != nil {
		return nil, fmt.Errorf("encode image urls: %w", err)
	}
	return string(b), nil
}

func (u *ImageURLs) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*u = ImageURLs{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan image urls: unsupported type %T", src)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		*u = list
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		*u = ImageURLs{single}
		return nil
	}

	return fmt.Errorf("scan image urls: not a json array")
}

// Primary is the image shown on product cards.
func (u ImageURLs) Primary() string {
	if len(u) == 0 {
		return ""
	}
	return u[0]
}
