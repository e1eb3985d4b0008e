package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ensureAdmin makes sure an admin called name exists, creating it with
// password or promoting an existing user of that name. An existing user's
// password is left alone.
func ensureAdmin(ctx context.Context, db DB, name, password string, log logrus.FieldLogger) error {
	if name == "" || password == "" {
		return nil
	}

	u, err := db.GetUserByName(ctx, name)
	switch {
	case err == nil:
		if u.Admin {
			return nil
		}
		if err := db.PromoteUser(ctx, u.PublicID); err != nil {
			return fmt.Errorf("promote bootstrap admin: %w", err)
		}
		log.WithField("public_id", u.PublicID).Info("promoted bootstrap admin")
		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}
	u, err = db.CreateUser(ctx, uuid.NewString(), name, hashed, true)
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.WithField("public_id", u.PublicID).Info("created bootstrap admin")
	return nil
}
