package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// hasuraClaimsKey is the namespace Hasura-style backends put session
// variables under.
const hasuraClaimsKey = "https://hasura.io/jwt/claims"

// ErrTokenInvalid is returned when the stored token cannot identify a user
// anymore; the caller clears it and waits for a fresh login.
var ErrTokenInvalid = errors.New("token invalid or expired")

// User identifies the logged-in backend user.
type User struct {
	ID int64
}

// UserFromToken extracts the user id from a bearer token without verifying
// the signature; the backend is the verifier, the agent only needs the
// identity to build its writes. Expired tokens are rejected locally so the
// run can clear them without a round trip.
func UserFromToken(token string) (*User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
		return nil, fmt.Errorf("%w: expired at %s", ErrTokenInvalid, exp.Time.Format(time.RFC3339))
	}

	if ns, ok := claims[hasuraClaimsKey].(map[string]interface{}); ok {
		if id, ok := claimInt64(ns["x-hasura-user-id"]); ok {
			return &User{ID: id}, nil
		}
	}

	for _, key := range []string{"userId", "id", "sub"} {
		if id, ok := claimInt64(claims[key]); ok {
			return &User{ID: id}, nil
		}
	}

	return nil, fmt.Errorf("%w: no user id claim", ErrTokenInvalid)
}

func claimInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	case float64:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}
