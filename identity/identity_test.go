package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/apperr"
)

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name                   string
		customer, guest, token string
		want                   Owner
	}{
		{"customer wins", "c1", "g1", "t1", Customer("c1")},
		{"guest over token", "", "g1", "t1", Guest("g1")},
		{"token only", "", "", "t1", Anonymous("t1")},
		{"whitespace ignored", "  ", "", " t2 ", Anonymous("t2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.customer, tt.guest, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRequiresOneKey(t *testing.T) {
	_, err := Resolve("", "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidIdentity)
}

func TestResolveOrderOwnerRejectsAnonymous(t *testing.T) {
	_, err := ResolveOrderOwner("", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidIdentity)

	o, err := ResolveOrderOwner("", "g9")
	require.NoError(t, err)
	assert.True(t, o.Identified())
	assert.Equal(t, KindGuest, o.Kind())
}

func TestZeroOwner(t *testing.T) {
	var o Owner
	assert.True(t, o.IsZero())
	assert.False(t, o.Identified())
	assert.False(t, Anonymous("tok").Identified())
	assert.Equal(t, "customer:c1", Customer("c1").String())
}
