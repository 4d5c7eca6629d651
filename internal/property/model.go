package property

import (
	"encoding/json"
	"time"

	"estate_marketplace_backend/internal/common"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CollectionName is the change-stream name of property documents.
const CollectionName = "properties"

const (
	ModeRent = "Rent"
	ModeSell = "Sell"

	// FilterAll disables the type filter on listings.
	FilterAll = "All"
)

// Details is the decoded form of Property.Details.
type Details struct {
	Area      float64 `json:"area"`
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
}

type Geolocation struct {
	Lat float64 `json:"lat" binding:"latitude"`
	Lng float64 `json:"lng" binding:"longitude"`
}

// Meta is the decoded form of Property.Meta.
type Meta struct {
	Type        string       `json:"type"`
	Mode        string       `json:"mode"`
	Facilities  []string     `json:"facilities"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
}

// Property is a listing. Details and Meta are stored as JSON text.
type Property struct {
	common.BaseModel
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Address       string         `gorm:"type:varchar(300)" json:"address"`
	Price         int64          `gorm:"not null;default:0;index" json:"price"`
	Rating        float64        `gorm:"not null;default:0" json:"rating"`
	Images        pq.StringArray `gorm:"type:text[]" json:"images"`
	Details       string         `gorm:"type:text" json:"details"`
	Meta          string         `gorm:"type:text" json:"meta"`
	Gallery       pq.StringArray `gorm:"type:text[]" json:"gallery"`
	UserProfileID uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_profile_id"`
	Slug          string         `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
}

func (Property) TableName() string { return "properties" }

// ParsedDetails decodes Details. Malformed text yields the zero value.
func (p *Property) ParsedDetails() Details {
	var d Details
	if p.Details != "" {
		if err := json.Unmarshal([]byte(p.Details), &d); err != nil {
			return Details{}
		}
	}
	return d
}

// ParsedMeta decodes Meta. Malformed text yields the zero value.
func (p *Property) ParsedMeta() Meta {
	var m Meta
	if p.Meta != "" {
		if err := json.Unmarshal([]byte(p.Meta), &m); err != nil {
			return Meta{}
		}
	}
	return m
}

type CreatePropertyRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=5000"`
	Address     string   `json:"address" binding:"required,max=300"`
	Price       int64    `json:"price" binding:"gte=0"`
	Rating      float64  `json:"rating" binding:"gte=0,lte=5"`
	Images      []string `json:"images" binding:"max=20"`
	Gallery     []string `json:"gallery" binding:"max=50"`
	Details     Details  `json:"details"`
	Meta        struct {
		Type        string       `json:"type" binding:"required,max=60"`
		Mode        string       `json:"mode" binding:"required,oneof=Rent Sell"`
		Facilities  []string     `json:"facilities"`
		Geolocation *Geolocation `json:"geolocation"`
	} `json:"meta"`
}

// ListParams narrows a property listing.
type ListParams struct {
	Filter string
	Query  string
	Limit  int
	Offset int
}

// PriceRange bounds a price filter; nil ends are open.
type PriceRange struct {
	Min *int64
	Max *int64
}

// PropertyResponse is the public view of a property with decoded details.
type PropertyResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Price         int64     `json:"price"`
	Rating        float64   `json:"rating"`
	Images        []string  `json:"images"`
	Gallery       []string  `json:"gallery,omitempty"`
	Details       Details   `json:"details"`
	Meta          Meta      `json:"meta"`
	UserProfileID uuid.UUID `json:"user_profile_id"`
	Slug          string    `json:"slug"`
	IsFavorite    bool      `json:"is_favorite"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToPropertyResponse(p *Property) *PropertyResponse {
	if p == nil {
		return nil
	}
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return &PropertyResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Address:       p.Address,
		Price:         p.Price,
		Rating:        p.Rating,
		Images:        images,
		Gallery:       p.Gallery,
		Details:       p.ParsedDetails(),
		Meta:          p.ParsedMeta(),
		UserProfileID: p.UserProfileID,
		Slug:          p.Slug,
		CreatedAt:     p.CreatedAt,
	}
}

func ToPropertyResponses(props []Property) []*PropertyResponse {
	out := make([]*PropertyResponse, 0, len(props))
	for i := range props {
		out = append(out, ToPropertyResponse(&props[i]))
	}
	return out
}
