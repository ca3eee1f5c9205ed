package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/identity"
	"storefront/models"
	"storefront/store"
)

var (
	oldestFirst = options.Find().SetSort(bson.D{{Key: "created_datetime", Value: 1}, {Key: "_id", Value: 1}})
	newestFirst = options.Find().SetSort(bson.D{{Key: "created_datetime", Value: -1}, {Key: "_id", Value: -1}})
)

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, store.ErrNotFound
	}
	return out, err
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func replaceOne(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, filter any) error {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// items

type itemRepo struct{ c *mongo.Collection }

func (r itemRepo) Get(ctx context.Context, id string) (models.Item, error) {
	return findOne[models.Item](ctx, r.c, bson.M{"_id": id})
}

func (r itemRepo) GetMany(ctx context.Context, ids []string) (map[string]models.Item, error) {
	if len(ids) == 0 {
		return map[string]models.Item{}, nil
	}
	items, err := findAll[models.Item](ctx, r.c, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r itemRepo) List(ctx context.Context) ([]models.Item, error) {
	return findAll[models.Item](ctx, r.c, bson.M{}, oldestFirst)
}

func (r itemRepo) ListByCategory(ctx context.Context, categoryID string) ([]models.Item, error) {
	return findAll[models.Item](ctx, r.c, bson.M{"category_id": categoryID}, oldestFirst)
}

func (r itemRepo) Insert(ctx context.Context, it models.Item) error {
	return insertOne(ctx, r.c, it)
}

func (r itemRepo) Update(ctx context.Context, it models.Item) error {
	return replaceOne(ctx, r.c, it.ID, it)
}

func (r itemRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id})
}

// AdjustStock guards decrements with quantity >= -delta in the same write,
// so two transactions can never both take the last units.
func (r itemRepo) AdjustStock(ctx context.Context, id string, delta int) (models.Item, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_datetime": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var it models.Item
	err := r.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&it)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return models.Item{}, getErr
		}
		return models.Item{}, store.ErrStockConflict
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("adjust stock %s: %w", id, err)
	}
	return it, nil
}

// categories

type categoryRepo struct{ c *mongo.Collection }

func (r categoryRepo) Get(ctx context.Context, id string) (models.Category, error) {
	return findOne[models.Category](ctx, r.c, bson.M{"_id": id})
}

func (r categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	return findAll[models.Category](ctx, r.c, bson.M{}, oldestFirst)
}

func (r categoryRepo) Insert(ctx context.Context, c models.Category) error {
	return insertOne(ctx, r.c, c)
}

func (r categoryRepo) Update(ctx context.Context, c models.Category) error {
	return replaceOne(ctx, r.c, c.ID, c)
}

func (r categoryRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id})
}

// carts

type cartRepo struct{ c *mongo.Collection }

func ownerFilter(owner identity.Owner) bson.M {
	switch owner.Kind() {
	case identity.KindCustomer:
		return bson.M{"customer_id": owner.ID()}
	case identity.KindGuest:
		return bson.M{"guest_user_id": owner.ID()}
	case identity.KindAnonymous:
		return bson.M{"cart_id": owner.ID()}
	}
	return nil
}

func (r cartRepo) Lines(ctx context.Context, owner identity.Owner) ([]models.CartLine, error) {
	if owner.IsZero() {
		return nil, nil
	}
	return findAll[models.CartLine](ctx, r.c, ownerFilter(owner), oldestFirst)
}

func (r cartRepo) Upsert(ctx context.Context, line models.CartLine) error {
	_, err := r.c.ReplaceOne(ctx, bson.M{"_id": line.ID}, line, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("cart %s item %s: %w", line.CartID, line.ItemID, store.ErrDuplicate)
	}
	return err
}

func (r cartRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id})
}

func (r cartRepo) DeleteByOwner(ctx context.Context, owner identity.Owner) (int, error) {
	if owner.IsZero() {
		return 0, nil
	}
	res, err := r.c.DeleteMany(ctx, ownerFilter(owner))
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

// orders

type orderRepo struct{ c *mongo.Collection }

func (r orderRepo) Get(ctx context.Context, id string) (models.Order, error) {
	return findOne[models.Order](ctx, r.c, bson.M{"_id": id})
}

func (r orderRepo) List(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["order_status"] = f.Status
	}
	var owners bson.A
	if f.UserID != "" {
		owners = append(owners, bson.M{"user_id": f.UserID})
	}
	if f.GuestUserID != "" {
		owners = append(owners, bson.M{"guest_user_id": f.GuestUserID})
	}
	if len(owners) > 0 {
		filter["$or"] = owners
	}
	return findAll[models.Order](ctx, r.c, filter, newestFirst)
}

func (r orderRepo) Insert(ctx context.Context, o models.Order) error {
	return insertOne(ctx, r.c, o)
}

func (r orderRepo) Update(ctx context.Context, o models.Order) error {
	return replaceOne(ctx, r.c, o.ID, o)
}

// offline orders

type offlineRepo struct{ c *mongo.Collection }

func (r offlineRepo) Get(ctx context.Context, id string) (models.OfflineOrder, error) {
	return findOne[models.OfflineOrder](ctx, r.c, bson.M{"_id": id})
}

func (r offlineRepo) List(ctx context.Context, returnedOnly bool) ([]models.OfflineOrder, error) {
	filter := bson.M{}
	if returnedOnly {
		filter["is_returned"] = true
	}
	return findAll[models.OfflineOrder](ctx, r.c, filter, newestFirst)
}

func (r offlineRepo) Insert(ctx context.Context, o models.OfflineOrder) error {
	return insertOne(ctx, r.c, o)
}

func (r offlineRepo) Update(ctx context.Context, o models.OfflineOrder) error {
	return replaceOne(ctx, r.c, o.ID, o)
}

// accounts

type accountRepo struct{ db *mongo.Database }

func (r accountRepo) coll(role string) (*mongo.Collection, error) {
	name, ok := accountCollectionName(role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q: %w", role, store.ErrNotFound)
	}
	return r.db.Collection(name), nil
}

func (r accountRepo) Get(ctx context.Context, role, id string) (models.Account, error) {
	c, err := r.coll(role)
	if err != nil {
		return models.Account{}, err
	}
	return findOne[models.Account](ctx, c, bson.M{"_id": id})
}

func (r accountRepo) ByEmail(ctx context.Context, role, email string) (models.Account, error) {
	c, err := r.coll(role)
	if err != nil {
		return models.Account{}, err
	}
	return findOne[models.Account](ctx, c, bson.M{"email": email})
}

func (r accountRepo) List(ctx context.Context, role string) ([]models.Account, error) {
	c, err := r.coll(role)
	if err != nil {
		return nil, err
	}
	return findAll[models.Account](ctx, c, bson.M{}, oldestFirst)
}

func (r accountRepo) Insert(ctx context.Context, a models.Account) error {
	c, err := r.coll(a.Role)
	if err != nil {
		return err
	}
	return insertOne(ctx, c, a)
}

func (r accountRepo) Update(ctx context.Context, a models.Account) error {
	c, err := r.coll(a.Role)
	if err != nil {
		return err
	}
	return replaceOne(ctx, c, a.ID, a)
}

func (r accountRepo) Delete(ctx context.Context, role, id string) error {
	c, err := r.coll(role)
	if err != nil {
		return err
	}
	return deleteOne(ctx, c, bson.M{"_id": id})
}

// guests

type guestRepo struct{ c *mongo.Collection }

func (r guestRepo) Get(ctx context.Context, id string) (models.GuestUser, error) {
	return findOne[models.GuestUser](ctx, r.c, bson.M{"_id": id})
}

func (r guestRepo) ByPhone(ctx context.Context, phone string) (models.GuestUser, error) {
	return findOne[models.GuestUser](ctx, r.c, bson.M{"phone_number": phone})
}

func (r guestRepo) List(ctx context.Context) ([]models.GuestUser, error) {
	return findAll[models.GuestUser](ctx, r.c, bson.M{}, oldestFirst)
}

func (r guestRepo) Insert(ctx context.Context, g models.GuestUser) error {
	return insertOne(ctx, r.c, g)
}

func (r guestRepo) Update(ctx context.Context, g models.GuestUser) error {
	return replaceOne(ctx, r.c, g.ID, g)
}

// addresses

type addressRepo struct{ c *mongo.Collection }

func (r addressRepo) Get(ctx context.Context, id string) (models.Address, error) {
	return findOne[models.Address](ctx, r.c, bson.M{"_id": id})
}

func (r addressRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Address, error) {
	return findAll[models.Address](ctx, r.c, bson.M{"customer_id": customerID}, oldestFirst)
}

func (r addressRepo) Insert(ctx context.Context, a models.Address) error {
	return insertOne(ctx, r.c, a)
}

func (r addressRepo) Update(ctx context.Context, a models.Address) error {
	return replaceOne(ctx, r.c, a.ID, a)
}
