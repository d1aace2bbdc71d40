package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/cache"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/events"
	"github.com/fgtintas/referral-service/internal/service"
)

type recordingCache struct {
	cache.Noop
	dropped int
}

func (r *recordingCache) Invalidate(context.Context) error {
	r.dropped++
	return nil
}

func TestStartEventSubscribers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	c := &recordingCache{}
	StartEventSubscribers(dispatcher, service.NewAuditService(dispatcher, zap.NewNop()), c, zap.NewNop())

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:           events.EventCommissionRecorded,
		ProfessionalID: "p1",
		Actor:          events.Actor{ID: "a1", Email: "admin@fgtintas.com.br", Role: domain.RoleAdmin},
		Payload:        events.CommissionRecordedPayload{EntryID: "e1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.dropped)
}

func TestStartEventSubscribersNilDispatcher(t *testing.T) {
	assert.NotPanics(t, func() { StartEventSubscribers(nil, nil, cache.Noop{}, zap.NewNop()) })
}
