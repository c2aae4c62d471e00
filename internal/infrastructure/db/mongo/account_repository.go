package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/userdesk/admin-console/internal/core/domain"
)

const collectionAccounts = "accounts"

// AccountRepository is the Account Record Store backed by MongoDB.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type mongoAccount struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash"`
	Role         string     `bson:"role"`
	BannedUntil  *time.Time `bson:"banned_until"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	LastSignInAt *time.Time `bson:"last_sign_in_at,omitempty"`
}

func toDocument(a *domain.Account) mongoAccount {
	return mongoAccount{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		BannedUntil:  a.BannedUntil,
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
		LastSignInAt: a.LastSignInAt,
	}
}

func (d mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.NormalizeRole(d.Role),
		BannedUntil:  utcPtr(d.BannedUntil),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		LastSignInAt: utcPtr(d.LastSignInAt),
	}
}

// Create inserts a new account document.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	doc := toDocument(account)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	var doc mongoAccount
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns every account, oldest first.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAccount
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.toDomain())
	}
	return accounts, nil
}

// Update applies the mutation with a single findAndModify so the returned
// document is the state the write produced.
func (r *AccountRepository) Update(ctx context.Context, id string, update domain.AccountUpdate) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Role != nil {
		set["role"] = string(*update.Role)
	}
	if update.Ban != nil {
		if update.Ban.Banned && update.Ban.Until != nil {
			set["banned_until"] = update.Ban.Until.UTC()
		} else {
			set["banned_until"] = nil
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoAccount
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return doc.toDomain(), nil
}

// TouchSignIn records the time of the latest successful sign-in.
func (r *AccountRepository) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_sign_in_at": at.UTC()}})
	if err != nil {
		return fmt.Errorf("touch sign-in: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
