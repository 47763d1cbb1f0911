package models

import "testing"

func TestIdentityValid(t *testing.T) {
	cases := []struct {
		name     string
		identity Identity
		want     bool
	}{
		{"authenticated", Authenticated(42), true},
		{"anonymous", Anonymous("s1"), true},
		{"zero", Identity{}, false},
		{"both set", Identity{UserID: 42, SessionID: "s1"}, false},
		{"negative user id", Identity{UserID: -1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.identity.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIdentityKey(t *testing.T) {
	if got := Authenticated(42).Key(); got != "user:42" {
		t.Errorf("expected user:42, got %s", got)
	}
	if got := Anonymous("abc").Key(); got != "session:abc" {
		t.Errorf("expected session:abc, got %s", got)
	}
}

func TestCartOwner(t *testing.T) {
	userCart := &Cart{ID: "c1", UserID: 42}
	if owner := userCart.Owner(); !owner.IsAuthenticated() || owner.UserID != 42 {
		t.Errorf("expected authenticated owner 42, got %+v", owner)
	}

	sessionCart := &Cart{ID: "c2", SessionID: "s1"}
	if owner := sessionCart.Owner(); owner.IsAuthenticated() || owner.SessionID != "s1" {
		t.Errorf("expected anonymous owner s1, got %+v", owner)
	}
}

func TestCartItemFor(t *testing.T) {
	c := &Cart{Items: []CartItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}}

	item := c.ItemFor(2)
	if item == nil || item.Quantity != 1 {
		t.Fatalf("expected item for product 2, got %+v", item)
	}

	// Mutations through the pointer land in the cart.
	item.Quantity = 5
	if c.Items[1].Quantity != 5 {
		t.Errorf("expected in-place update, got %d", c.Items[1].Quantity)
	}

	if c.ItemFor(99) != nil {
		t.Error("expected nil for absent product")
	}
}
