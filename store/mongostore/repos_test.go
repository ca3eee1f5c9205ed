package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"storefront/globals"
	"storefront/identity"
)

func TestOwnerFilter(t *testing.T) {
	assert.Equal(t, bson.M{"customer_id": "c1"}, ownerFilter(identity.Customer("c1")))
	assert.Equal(t, bson.M{"guest_user_id": "g1"}, ownerFilter(identity.Guest("g1")))
	assert.Equal(t, bson.M{"cart_id": "tok"}, ownerFilter(identity.Anonymous("tok")))
	assert.Nil(t, ownerFilter(identity.Owner{}))
}

func TestAccountCollections(t *testing.T) {
	name, ok := accountCollectionName(globals.RoleVendor)
	assert.True(t, ok)
	assert.Equal(t, "vendor_user", name)

	_, ok = accountCollectionName("admin")
	assert.False(t, ok)
}
