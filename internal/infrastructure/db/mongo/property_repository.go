package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

const collectionProperties = "properties"

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(collectionProperties)}
}

type propertyDoc struct {
	ID           primitive.ObjectID     `bson:"_id"`
	Owner        primitive.ObjectID     `bson:"owner"`
	Title        string                 `bson:"title"`
	Description  string                 `bson:"description,omitempty"`
	PropertyType string                 `bson:"propertyType"`
	ListingType  string                 `bson:"listingType"`
	Price        float64                `bson:"price"`
	Currency     string                 `bson:"currency"`
	Address      domain.PropertyAddress `bson:"address"`
	Bedrooms     int                    `bson:"bedrooms,omitempty"`
	Bathrooms    int                    `bson:"bathrooms,omitempty"`
	AreaSqm      float64                `bson:"areaSqm,omitempty"`
	Media        []domain.Media         `bson:"media"`
	Status       string                 `bson:"status"`
	CreatedAt    time.Time              `bson:"createdAt"`
	UpdatedAt    time.Time              `bson:"updatedAt"`
}

func (d *propertyDoc) toDomain() *domain.Property {
	media := d.Media
	if media == nil {
		media = []domain.Media{}
	}
	return &domain.Property{
		ID:           d.ID.Hex(),
		OwnerID:      d.Owner.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: domain.PropertyType(d.PropertyType),
		ListingType:  domain.ListingType(d.ListingType),
		Price:        d.Price,
		Currency:     d.Currency,
		Address:      d.Address,
		Bedrooms:     d.Bedrooms,
		Bathrooms:    d.Bathrooms,
		AreaSqm:      d.AreaSqm,
		Media:        media,
		Status:       domain.PropertyStatus(d.Status),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func parsePropertyID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrPropertyNotFound
	}
	return oid, nil
}

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) (*domain.Property, error) {
	owner, err := primitive.ObjectIDFromHex(p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("property owner %q: %w", p.OwnerID, domain.ErrUserNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := propertyDoc{
		ID:           primitive.NewObjectID(),
		Owner:        owner,
		Title:        p.Title,
		Description:  p.Description,
		PropertyType: string(p.PropertyType),
		ListingType:  string(p.ListingType),
		Price:        p.Price,
		Currency:     p.Currency,
		Address:      p.Address,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		AreaSqm:      p.AreaSqm,
		Media:        p.Media,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	oid, err := parsePropertyID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc propertyDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []*domain.Property{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"owner": owner})
}

func (r *PropertyRepository) find(ctx context.Context, filter bson.M) ([]*domain.Property, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer cur.Close(ctx)

	out := []*domain.Property{}
	for cur.Next(ctx) {
		var doc propertyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode property: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	oid, err := parsePropertyID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPropertyNotFound
	}
	return nil
}

// DeleteByOwner removes every listing of ownerID and returns what was removed
// so the caller can clean up media.
func (r *PropertyRepository) DeleteByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	removed, err := r.find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return removed, nil
	}
	if _, err := r.col.DeleteMany(ctx, bson.M{"owner": owner}); err != nil {
		return nil, fmt.Errorf("delete properties: %w", err)
	}
	return removed, nil
}

func (r *PropertyRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
