package domain

import "time"

type PropertyType string

const (
	PropertyHouse      PropertyType = "house"
	PropertyApartment  PropertyType = "apartment"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
	PropertyVilla      PropertyType = "villa"
)

type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

type PropertyStatus string

const (
	PropertyActive PropertyStatus = "active"
)

// PropertyAddress is where the listed property is located.
type PropertyAddress struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	Region  string `json:"region,omitempty" bson:"region,omitempty"`
	Country string `json:"country" bson:"country"`
}

// Media is an uploaded image or video stored by the media backend.
type Media struct {
	Key         string `json:"key" bson:"key"`
	URL         string `json:"url" bson:"url"`
	ContentType string `json:"contentType" bson:"contentType"`
	Size        int64  `json:"size" bson:"size"`
}

// Property is a listing owned by exactly one user.
type Property struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	PropertyType PropertyType    `json:"propertyType"`
	ListingType  ListingType     `json:"listingType"`
	Price        float64         `json:"price"`
	Currency     string          `json:"currency"`
	Address      PropertyAddress `json:"address"`
	Bedrooms     int             `json:"bedrooms"`
	Bathrooms    int             `json:"bathrooms"`
	AreaSqm      float64         `json:"areaSqm"`
	Media        []Media         `json:"media"`
	Status       PropertyStatus  `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
