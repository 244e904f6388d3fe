package service

import (
	"context"
	"testing"
	"time"

	"devtime/agent/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func catalogResponse() map[string]interface{} {
	return map[string]interface{}{
		"tasks": []map[string]interface{}{
			{
				"id":         42,
				"ticketCode": "TCK-1",
				"taskCode":   "TSK-2",
				"ticket":     map[string]int64{"id": 7},
			},
			{
				"id":         43,
				"ticketCode": "TCK-2",
				"taskCode":   "TSK-9",
				"ticket":     nil,
			},
		},
		"tickets": []map[string]interface{}{
			{"id": 7, "code": "TCK-1"},
		},
	}
}

func TestCatalogGet_FetchesAndMaps(t *testing.T) {
	fake := &fakeExecer{handler: func(req client.Request, out interface{}) error {
		fill(t, out, catalogResponse())
		return nil
	}}
	svc := NewCatalogService(fake, 30*time.Minute, 15*24*time.Hour, zap.NewNop())

	catalog, err := svc.Get(context.Background(), "tok")
	require.NoError(t, err)

	require.Len(t, catalog.Tasks, 2)
	assert.Equal(t, int64(42), catalog.Tasks[0].ID)
	assert.Equal(t, "TCK-1", catalog.Tasks[0].TicketCode)
	assert.Equal(t, "TSK-2", catalog.Tasks[0].TaskCode)
	require.NotNil(t, catalog.Tasks[0].TicketID)
	assert.Equal(t, int64(7), *catalog.Tasks[0].TicketID)
	assert.Nil(t, catalog.Tasks[1].TicketID)

	require.Len(t, catalog.Tickets, 1)
	assert.Equal(t, "TCK-1", catalog.Tickets[0].Code)

	assert.Empty(t, catalog.Projects)
	assert.Empty(t, catalog.Clients)
}

func TestCatalogGet_HorizonVariable(t *testing.T) {
	fake := &fakeExecer{handler: func(req client.Request, out interface{}) error {
		fill(t, out, catalogResponse())
		return nil
	}}
	svc := NewCatalogService(fake, 30*time.Minute, 15*24*time.Hour, zap.NewNop())
	fixed := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.Get(context.Background(), "tok")
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	assert.Equal(t, "2024-03-01T12:00:00Z", fake.calls[0].req.Variables["after"])
}

func TestCatalogGet_CachesWithinRefreshInterval(t *testing.T) {
	fake := &fakeExecer{handler: func(req client.Request, out interface{}) error {
		fill(t, out, catalogResponse())
		return nil
	}}
	svc := NewCatalogService(fake, 30*time.Minute, 15*24*time.Hour, zap.NewNop())

	first, err := svc.Get(context.Background(), "tok")
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), "tok")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, fake.calls, 1)
}

func TestCatalogGet_RefetchesWhenStale(t *testing.T) {
	fake := &fakeExecer{handler: func(req client.Request, out interface{}) error {
		fill(t, out, catalogResponse())
		return nil
	}}
	svc := NewCatalogService(fake, 30*time.Minute, 15*24*time.Hour, zap.NewNop())

	_, err := svc.Get(context.Background(), "tok")
	require.NoError(t, err)

	svc.fetchedAt = svc.fetchedAt.Add(-31 * time.Minute)
	_, err = svc.Get(context.Background(), "tok")
	require.NoError(t, err)

	assert.Len(t, fake.calls, 2)
}

func TestCatalogGet_ErrorKeepsNothingCached(t *testing.T) {
	fake := &fakeExecer{handler: func(req client.Request, out interface{}) error {
		return &client.RequestError{Errors: []client.GraphQLError{{Message: "backend down"}}}
	}}
	svc := NewCatalogService(fake, 30*time.Minute, 15*24*time.Hour, zap.NewNop())

	_, err := svc.Get(context.Background(), "tok")
	require.Error(t, err)
	assert.Nil(t, svc.cached)
}
