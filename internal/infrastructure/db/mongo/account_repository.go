package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventix/ticketing/internal/core/domain"
)

const (
	collectionUsers     = "users"
	collectionPromotors = "promotors"
)

// AccountRepository stores one account type in its own collection. Users are
// keyed by "username", promotors by "name".
type AccountRepository struct {
	col       *mongo.Collection
	counters  *Counters
	typ       domain.AccountType
	nameField string
}

func NewUserRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		col:       db.Collection(collectionUsers),
		counters:  NewCounters(db),
		typ:       domain.AccountUser,
		nameField: "username",
	}
}

func NewPromotorRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		col:       db.Collection(collectionPromotors),
		counters:  NewCounters(db),
		typ:       domain.AccountPromotor,
		nameField: "name",
	}
}

type mongoAccount struct {
	ID           int64  `bson:"_id"`
	Username     string `bson:"username,omitempty"`
	Name         string `bson:"name,omitempty"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	IsVerified   bool   `bson:"is_verified"`
	RefCode      string `bson:"ref_code,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func (r *AccountRepository) toDoc(a *domain.Account) mongoAccount {
	doc := mongoAccount{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		IsVerified:   a.IsVerified,
		RefCode:      a.RefCode,
		CreatedAt:    a.CreatedAt.Unix(),
		UpdatedAt:    a.UpdatedAt.Unix(),
	}
	if r.typ == domain.AccountPromotor {
		doc.Name = a.Username
	} else {
		doc.Username = a.Username
	}
	return doc
}

func (r *AccountRepository) fromDoc(doc *mongoAccount) *domain.Account {
	name := doc.Username
	if r.typ == domain.AccountPromotor {
		name = doc.Name
	}
	return &domain.Account{
		ID:           doc.ID,
		Type:         r.typ,
		Username:     name,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		IsVerified:   doc.IsVerified,
		RefCode:      doc.RefCode,
		CreatedAt:    unixToTime(doc.CreatedAt),
		UpdatedAt:    unixToTime(doc.UpdatedAt),
	}
}

// Create assigns the next numeric ID and inserts the account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.counters.Next(ctx, r.col.Name())
	if err != nil {
		return nil, err
	}

	created := *account
	created.ID = id
	created.Type = r.typ

	if _, err := r.col.InsertOne(ctx, r.toDoc(&created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert %s: %w", r.typ, err)
	}
	return &created, nil
}

// FindByIdentifier matches identifier against the name field or the email.
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{r.nameField: identifier},
		bson.M{"email": strings.ToLower(identifier)},
	}})
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.typ, err)
	}
	return r.fromDoc(&doc), nil
}

func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{r.nameField: username},
		bson.M{"email": email},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count %s: %w", r.typ, err)
	}
	return n > 0, nil
}

// MarkVerified only ever sets the flag to true.
func (r *AccountRepository) MarkVerified(ctx context.Context, id int64) error {
	return r.update(ctx, id, bson.M{"is_verified": true})
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, bson.M{"password_hash": hash})
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.typ, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) update(ctx context.Context, id int64, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set["updated_at"] = time.Now().UTC().Unix()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s: %w", r.typ, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// EnsureIndexes creates the unique indexes backing the uniqueness invariants.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: r.nameField, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
