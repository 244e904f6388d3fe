package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"devtime/agent/internal/client"
	"devtime/agent/internal/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gqlCall is one recorded backend operation.
type gqlCall struct {
	token string
	req   client.Request
}

// fakeExecer substitutes the GraphQL client. The handler inspects the
// request and fills out; a nil handler answers every operation with an
// empty response.
type fakeExecer struct {
	calls   []gqlCall
	handler func(req client.Request, out interface{}) error
}

func (f *fakeExecer) Do(ctx context.Context, token string, req client.Request, out interface{}) error {
	f.calls = append(f.calls, gqlCall{token: token, req: req})
	if f.handler != nil {
		return f.handler(req, out)
	}
	return nil
}

// callsTo returns the recorded operations whose query mentions the given
// operation name.
func (f *fakeExecer) callsTo(operation string) []gqlCall {
	var matched []gqlCall
	for _, call := range f.calls {
		if strings.Contains(call.req.Query, operation) {
			matched = append(matched, call)
		}
	}
	return matched
}

// fill unmarshals a handler's canned response into the out value the
// service passed in, going through JSON like the real client does.
func fill(t *testing.T, out interface{}, response interface{}) {
	t.Helper()
	if out == nil {
		return
	}
	raw, err := json.Marshal(response)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func testToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func expiredToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
