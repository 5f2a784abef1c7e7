package handler

import "github.com/homestead/marketplace-api/internal/core/domain"

// createPropertyRequest is bound from a multipart form; files travel in the
// repeated "media" part.
type createPropertyRequest struct {
	Title        string  `form:"title"        validate:"required,min=3,max=140"`
	Description  string  `form:"description"  validate:"max=5000"`
	PropertyType string  `form:"propertyType" validate:"required,oneof=house apartment land commercial villa"`
	ListingType  string  `form:"listingType"  validate:"required,oneof=sale rent"`
	Price        float64 `form:"price"        validate:"required,gt=0"`
	Currency     string  `form:"currency"     validate:"required,len=3"`
	Street       string  `form:"street"       validate:"max=200"`
	City         string  `form:"city"         validate:"required,max=100"`
	Region       string  `form:"region"       validate:"max=100"`
	Country      string  `form:"country"      validate:"required,max=100"`
	Bedrooms     int     `form:"bedrooms"     validate:"gte=0"`
	Bathrooms    int     `form:"bathrooms"    validate:"gte=0"`
	AreaSqm      float64 `form:"areaSqm"      validate:"gte=0"`
}

type propertyResponse struct {
	Property *domain.Property `json:"property"`
}

type propertyListResponse struct {
	Items []*domain.Property `json:"items"`
}
