package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDoc struct {
	ID                   primitive.ObjectID `bson:"_id"`
	FullName             string             `bson:"fullName"`
	Email                string             `bson:"email"`
	PhoneNumber          string             `bson:"phoneNumber,omitempty"`
	PasswordHash         string             `bson:"passwordHash,omitempty"`
	ExternalID           string             `bson:"externalId,omitempty"`
	AuthMethod           string             `bson:"authMethod"`
	AccountType          string             `bson:"accountType,omitempty"`
	AccountStatus        string             `bson:"accountStatus"`
	ListingLimit         int                `bson:"listingLimit"`
	ListingCount         int                `bson:"listingCount"`
	LastLogin            time.Time          `bson:"lastLogin,omitempty"`
	ResetPasswordToken   string             `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires time.Time          `bson:"resetPasswordExpires,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		FullName:             u.FullName,
		Email:                domain.NormalizeEmail(u.Email),
		PhoneNumber:          u.PhoneNumber,
		PasswordHash:         u.PasswordHash,
		ExternalID:           u.ExternalID,
		AuthMethod:           string(u.AuthMethod),
		AccountType:          string(u.AccountType),
		AccountStatus:        string(u.AccountStatus),
		ListingLimit:         u.ListingLimit,
		ListingCount:         u.ListingCount,
		LastLogin:            u.LastLogin,
		ResetPasswordToken:   u.ResetPasswordToken,
		ResetPasswordExpires: u.ResetPasswordExpires,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:                   d.ID.Hex(),
		FullName:             d.FullName,
		Email:                d.Email,
		PhoneNumber:          d.PhoneNumber,
		PasswordHash:         d.PasswordHash,
		ExternalID:           d.ExternalID,
		AuthMethod:           domain.AuthMethod(d.AuthMethod),
		AccountType:          domain.AccountType(d.AccountType),
		AccountStatus:        domain.AccountStatus(d.AccountStatus),
		ListingLimit:         d.ListingLimit,
		ListingCount:         d.ListingCount,
		LastLogin:            d.LastLogin.UTC(),
		ResetPasswordToken:   d.ResetPasswordToken,
		ResetPasswordExpires: d.ResetPasswordExpires.UTC(),
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
	}
}

// parseID maps malformed ids to not-found so callers see a single error.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrUserNotFound
	}
	return oid, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"externalId": externalID})
}

// FindByResetToken matches only unexpired stored tokens.
func (r *UserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": now},
	})
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.ValidateCredentials(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toUserDoc(user)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

// Update writes the profile fields. Counters, password and reset state have
// their own targeted updates.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, err := parseID(user.ID)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, oid, bson.M{"$set": bson.M{
		"fullName":     user.FullName,
		"phoneNumber":  user.PhoneNumber,
		"accountType":  string(user.AccountType),
		"listingLimit": user.ListingLimit,
		"updatedAt":    user.UpdatedAt,
	}})
}

// SetPasswordHash stores a new hash and consumes any pending reset token.
func (r *UserRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, oid, bson.M{
		"$set":   bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	})
}

func (r *UserRepository) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, oid, bson.M{"$set": bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": expires,
	}})
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, oid, bson.M{"$set": bson.M{"lastLogin": at}})
}

func (r *UserRepository) IncrementListingCount(ctx context.Context, id string, delta int) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, oid, bson.M{"$inc": bson.M{"listingCount": delta}})
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"accountStatus": string(status), "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List returns one page of users, newest first, and the total count.
func (r *UserRepository) List(ctx context.Context, page, limit int) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	// A page whose offset does not fit in int64 is past the end.
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return []*domain.User{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page-1) * int64(limit)).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	users := make([]*domain.User, 0, limit)
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) updateOne(ctx context.Context, oid primitive.ObjectID, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index, the sparse unique external
// id index and the reset-token lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
