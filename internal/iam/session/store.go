// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"time"
)

// Store defines the persistence contract for web sessions.
//
// Expiry is delegated to the backing store's TTL mechanism: a session that
// cannot be found is indistinguishable from one that expired, and both
// answer with apperr.Unauthorized.
type Store interface {
	// Save persists the session under its ID with the given TTL, replacing
	// any previous record.
	Save(context context.Context, session *Session, ttl time.Duration) error

	// Find retrieves a session by ID. Missing or expired sessions return
	// apperr.Unauthorized.
	Find(context context.Context, id string) (*Session, error)

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(context context.Context, id string) error
}
