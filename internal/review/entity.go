// AngelaMos | 2026
// entity.go

package review

import (
	"time"
)

type Review struct {
	ID          string    `db:"id"           json:"id"`
	UserID      string    `db:"user_id"      json:"user_id"`
	ProductID   string    `db:"product_id"   json:"product_id"`
	Rating      int       `db:"rating"       json:"rating"`
	Comment     *string   `db:"comment"      json:"comment"`
	ProductName *string   `db:"product_name" json:"product_name,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}

type SubmitRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=10,max=2000"`
}
