package models

import "time"

// Listing is a part-for-sale post owned by exactly one account.
type Listing struct {
	BaseModel

	OwnerID         string   `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Owner           *Account `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	PrimaryImageURL *string  `gorm:"column:image_url;size:1024" json:"image_url"`
	Title           string   `gorm:"size:200;not null" json:"title"`
	Description     *string  `gorm:"type:text" json:"description"`
	PartType        string   `gorm:"size:120;not null;index" json:"part_type"`
	CarBrand        string   `gorm:"size:80;not null;index" json:"car_brand"`
	CarModel        string   `gorm:"size:80;not null" json:"car_model"`
	CarYear         *int     `json:"car_year"`
	CarColor        string   `gorm:"size:40;not null" json:"car_color"`
	Price           *float64 `json:"price"`
	Currency        *string  `gorm:"size:3" json:"currency"`

	Images []ListingImage `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

func (Listing) TableName() string { return "posts" }

// ListingImage is one gallery entry. The auto-increment ID defines display order.
type ListingImage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID string    `gorm:"column:post_id;type:uuid;not null;index" json:"post_id"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (ListingImage) TableName() string { return "post_images" }

// PriceHistoryEntry records an observed (price, currency) value of a listing.
// Entries are append-only; ID breaks ties between entries sharing a timestamp.
type PriceHistoryEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID string    `gorm:"column:post_id;type:uuid;not null;index" json:"post_id"`
	Price     float64   `gorm:"not null" json:"price"`
	Currency  *string   `gorm:"size:3" json:"currency"`
	ChangedAt time.Time `gorm:"index;not null" json:"changed_at"`
}

func (PriceHistoryEntry) TableName() string { return "price_history" }

// Favorite links an account to a listing it bookmarked.
type Favorite struct {
	AccountID string    `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	ListingID string    `gorm:"column:post_id;type:uuid;primaryKey" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Favorite) TableName() string { return "favorites" }
