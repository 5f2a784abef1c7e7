package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

const propertiesNS = "marketplace.properties"

func propertyBSON(oid, owner primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "owner", Value: owner},
		{Key: "title", Value: "Sea view flat"},
		{Key: "propertyType", Value: "apartment"},
		{Key: "listingType", Value: "rent"},
		{Key: "price", Value: 1200.0},
		{Key: "currency", Value: "EUR"},
		{Key: "address", Value: bson.D{{Key: "city", Value: "Lisbon"}, {Key: "country", Value: "PT"}}},
		{Key: "status", Value: "active"},
		{Key: "createdAt", Value: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "updatedAt", Value: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestPropertyRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p, err := repo.Create(context.Background(), &domain.Property{
			OwnerID:     primitive.NewObjectID().Hex(),
			Title:       "Sea view flat",
			ListingType: domain.ListingType("rent"),
		})
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(p.ID); err != nil {
			mt.Fatalf("expected object id, got %q", p.ID)
		}
		if p.Media == nil {
			mt.Fatalf("media should be an empty slice")
		}
	})

	mt.Run("bad owner", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		if _, err := repo.Create(context.Background(), &domain.Property{OwnerID: "nope"}); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestPropertyRepository_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("by id", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		oid, owner := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, propertiesNS, mtest.FirstBatch, propertyBSON(oid, owner)))

		p, err := repo.FindByID(context.Background(), oid.Hex())
		if err != nil {
			mt.Fatalf("FindByID: %v", err)
		}
		if p.OwnerID != owner.Hex() || p.Address.City != "Lisbon" || p.Price != 1200 {
			mt.Fatalf("unexpected property: %+v", p)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, propertiesNS, mtest.FirstBatch))
		if _, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrPropertyNotFound) {
			mt.Fatalf("expected ErrPropertyNotFound, got %v", err)
		}
	})

	mt.Run("list by owner", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		owner := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, propertiesNS, mtest.FirstBatch,
			propertyBSON(primitive.NewObjectID(), owner),
			propertyBSON(primitive.NewObjectID(), owner),
		))

		items, err := repo.ListByOwner(context.Background(), owner.Hex())
		if err != nil {
			mt.Fatalf("ListByOwner: %v", err)
		}
		if len(items) != 2 {
			mt.Fatalf("len = %d", len(items))
		}
	})

	mt.Run("malformed owner lists nothing", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		items, err := repo.ListByOwner(context.Background(), "x")
		if err != nil || len(items) != 0 {
			mt.Fatalf("items=%v err=%v", items, err)
		}
	})
}

func TestPropertyRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		if err := repo.Delete(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrPropertyNotFound) {
			mt.Fatalf("expected ErrPropertyNotFound, got %v", err)
		}
	})

	mt.Run("by owner returns removed", func(mt *mtest.T) {
		repo := NewPropertyRepository(mt.DB)
		owner := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, propertiesNS, mtest.FirstBatch, propertyBSON(primitive.NewObjectID(), owner)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		removed, err := repo.DeleteByOwner(context.Background(), owner.Hex())
		if err != nil {
			mt.Fatalf("DeleteByOwner: %v", err)
		}
		if len(removed) != 1 {
			mt.Fatalf("removed = %d", len(removed))
		}
	})
}
