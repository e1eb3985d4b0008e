package main

import "errors"

var ErrAuthorizationDenied = errors.New("authorization denied")

// adminOnly allows admins and nobody else.
func adminOnly(caller *User) error {
	if caller == nil || !caller.Admin {
		return ErrAuthorizationDenied
	}
	return nil
}

// selfOrAdmin allows an admin, or the user identified by publicID acting on
// their own record.
func selfOrAdmin(caller *User, publicID string) error {
	if caller == nil {
		return ErrAuthorizationDenied
	}
	if caller.Admin || caller.PublicID == publicID {
		return nil
	}
	return ErrAuthorizationDenied
}

// Pets have no policy function: every pet query carries the caller's id as an
// owner filter, so a pet owned by someone else is simply not found.
