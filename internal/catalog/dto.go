// AngelaMos | 2026
// dto.go

package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

const ProductsPerPage = 12

type ProductFilter struct {
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Limit      int
	Offset     int
}

type CategoryRequest struct {
	Name       string `json:"name"         validate:"required,max=100"`
	ImageURL   string `json:"image_url"    validate:"required,url,max=2048"`
	DataAIHint string `json:"data_ai_hint" validate:"required,max=100"`
}

// ProductForm is the non-file part of the multipart product form.
type ProductForm struct {
	Name            string `json:"name"             validate:"required,max=200"`
	Description     string `json:"description"      validate:"required,max=500"`
	LongDescription string `json:"long_description" validate:"required,max=10000"`
	Price           string `json:"price"            validate:"required,numeric"`
	CategoryID      string `json:"category_id"      validate:"required,uuid"`
	DataAIHint      string `json:"data_ai_hint"     validate:"required,max=100"`
	IsFeatured      bool   `json:"is_featured"`
	IsBestSeller    bool   `json:"is_best_seller"`
}

type HeroForm struct {
	Title       string `json:"title"         validate:"required,max=200"`
	Subtitle    string `json:"subtitle"      validate:"omitempty,max=500"`
	Link        string `json:"link"          validate:"required,url,max=2048"`
	ImageAIHint string `json:"image_ai_hint" validate:"omitempty,max=100"`
	IsActive    bool   `json:"is_active"`
}

// ProductReview is a review as shown on the product page.
type ProductReview struct {
	ID         string    `json:"id"          db:"id"`
	Rating     int       `json:"rating"      db:"rating"`
	Comment    *string   `json:"comment"     db:"comment"`
	AuthorName *string   `json:"author_name" db:"author_name"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

type ProductDetail struct {
	Product       *Product        `json:"product"`
	Reviews       []ProductReview `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
	Wishlisted    bool            `json:"wishlisted"`
}

type HomeFeed struct {
	Categories  []Category  `json:"categories"`
	Featured    []Product   `json:"featured"`
	BestSellers []Product   `json:"best_sellers"`
	Newest      []Product   `json:"newest"`
	HeroSlides  []HeroSlide `json:"hero_slides"`
	Wishlisted  []string    `json:"wishlisted"`
}
