// Package mongostore backs store.Store with MongoDB. Transactions use
// sessions, so the server must run as a replica set.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"

	"storefront/globals"
	"storefront/store"
)

const (
	itemsColl      = "items"
	categoriesColl = "categories"
	cartsColl      = "carts"
	ordersColl     = "orders"
	offlineColl    = "offline_orders"
	customersColl  = "customer_user"
	vendorsColl    = "vendor_user"
	guestsColl     = "guest_user"
	addressesColl  = "addresses"
)

type Store struct {
	Client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the primary and makes sure indexes exist.
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{Client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info("connected to mongo", zap.String("db", dbName))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		cartsColl: {
			{Keys: bson.D{{Key: "cart_id", Value: 1}, {Key: "item_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "guest_user_id", Value: 1}}},
		},
		itemsColl:     {{Keys: bson.D{{Key: "category_id", Value: 1}}}},
		ordersColl:    {{Keys: bson.D{{Key: "order_status", Value: 1}}}, {Keys: bson.D{{Key: "user_id", Value: 1}}}, {Keys: bson.D{{Key: "guest_user_id", Value: 1}}}},
		customersColl: {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		vendorsColl:   {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		guestsColl:    {{Keys: bson.D{{Key: "phone_number", Value: 1}}}},
		addressesColl: {{Keys: bson.D{{Key: "customer_id", Value: 1}}}},
	}
	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// WithTx runs fn in a multi-document transaction. The driver retries fn on
// transient transaction errors, so fn must not have side effects outside the store.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sess, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, &tx{db: s.db})
	}, opts)
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

type tx struct{ db *mongo.Database }

func (t *tx) Items() store.Items           { return itemRepo{t.db.Collection(itemsColl)} }
func (t *tx) Categories() store.Categories { return categoryRepo{t.db.Collection(categoriesColl)} }
func (t *tx) Carts() store.Carts           { return cartRepo{t.db.Collection(cartsColl)} }
func (t *tx) Orders() store.Orders         { return orderRepo{t.db.Collection(ordersColl)} }
func (t *tx) OfflineOrders() store.OfflineOrders {
	return offlineRepo{t.db.Collection(offlineColl)}
}
func (t *tx) Accounts() store.Accounts   { return accountRepo{t.db} }
func (t *tx) Guests() store.Guests       { return guestRepo{t.db.Collection(guestsColl)} }
func (t *tx) Addresses() store.Addresses { return addressRepo{t.db.Collection(addressesColl)} }

func accountCollectionName(role string) (string, bool) {
	switch role {
	case globals.RoleCustomer:
		return customersColl, true
	case globals.RoleVendor:
		return vendorsColl, true
	}
	return "", false
}
