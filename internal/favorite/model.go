package favorite

import (
	"estate_marketplace_backend/internal/common"

	"github.com/google/uuid"
)

// CollectionName is the change-stream name of favorite documents.
const CollectionName = "favorites"

// Favorite marks a property as favorited by an account. Its existence is the
// only record of the favorite; duplicates are tolerated and collapsed on read.
type Favorite struct {
	common.BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index" json:"property_id"`
}

func (Favorite) TableName() string { return "favorites" }

// Status is the favorite state of one property for one account.
type Status struct {
	PropertyID uuid.UUID  `json:"property_id"`
	Favorited  bool       `json:"is_favorite"`
	FavoriteID *uuid.UUID `json:"favorite_id,omitempty"`
}
