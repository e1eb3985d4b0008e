package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminOnly(t *testing.T) {
	assert.NoError(t, adminOnly(&User{Admin: true}))
	assert.ErrorIs(t, adminOnly(&User{}), ErrAuthorizationDenied)
	assert.ErrorIs(t, adminOnly(nil), ErrAuthorizationDenied)
}

func TestSelfOrAdmin(t *testing.T) {
	bob := &User{PublicID: "bob"}
	alice := &User{PublicID: "alice", Admin: true}

	assert.NoError(t, selfOrAdmin(bob, "bob"))
	assert.NoError(t, selfOrAdmin(alice, "bob"))
	assert.NoError(t, selfOrAdmin(alice, "does-not-exist"))
	assert.ErrorIs(t, selfOrAdmin(bob, "alice"), ErrAuthorizationDenied)
	assert.ErrorIs(t, selfOrAdmin(nil, "bob"), ErrAuthorizationDenied)
}
