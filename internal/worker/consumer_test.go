package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudshield/internal/domain"
	"fraudshield/internal/gateway"
	"fraudshield/internal/queue"
)

type fakeRecorder struct {
	calls []domain.ClassificationRequest
	users []string
	err   error
}

func (f *fakeRecorder) ClassifyAndRecord(_ context.Context, userID string, req domain.ClassificationRequest) (*domain.ClassificationResponse, *domain.Message, error) {
	f.calls = append(f.calls, req)
	f.users = append(f.users, userID)
	if err := gateway.Validate(req); err != nil {
		return nil, nil, err
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	return &domain.ClassificationResponse{RiskScore: 0.4, Label: domain.RiskLow},
		&domain.Message{ID: "m-1", UserID: userID, Label: domain.RiskLow}, nil
}

// replay hands each envelope to the handler and stops at the first error.
type replay struct {
	envs []queue.Envelope
	errs []error
}

func (r *replay) Consume(ctx context.Context, h queue.Handler) error {
	for _, env := range r.envs {
		err := h(ctx, env)
		r.errs = append(r.errs, err)
		if err != nil {
			return nil
		}
	}
	return nil
}

func (r *replay) Close() error { return nil }

func TestConsumer_RecordsEnvelope(t *testing.T) {
	rec := &fakeRecorder{}
	src := &replay{envs: []queue.Envelope{{UserID: "+15550100", Message: "your card is blocked", Channel: "sms"}}}

	require.NoError(t, NewConsumer(src, rec, zerolog.Nop()).Start(context.Background()))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, domain.ChannelSMS, rec.calls[0].Channel)
	assert.Equal(t, "+15550100", rec.users[0])
	assert.Equal(t, []error{nil}, src.errs)
}

func TestConsumer_DropsInvalid(t *testing.T) {
	rec := &fakeRecorder{}
	src := &replay{envs: []queue.Envelope{
		{UserID: "u", Message: "", Channel: domain.ChannelSMS},
		{UserID: "u", Message: "hi", Channel: "pigeon"},
		{UserID: "u", Message: "ok", Channel: domain.ChannelEmail},
	}}

	require.NoError(t, NewConsumer(src, rec, zerolog.Nop()).Start(context.Background()))

	assert.Len(t, rec.calls, 3)
	assert.Equal(t, []error{nil, nil, nil}, src.errs)
}

func TestConsumer_PersistenceErrorRedelivers(t *testing.T) {
	rec := &fakeRecorder{err: &domain.PersistenceError{Op: "save", Err: errors.New("conn reset")}}
	src := &replay{envs: []queue.Envelope{
		{UserID: "u", Message: "a", Channel: domain.ChannelSMS},
		{UserID: "u", Message: "b", Channel: domain.ChannelSMS},
	}}

	require.NoError(t, NewConsumer(src, rec, zerolog.Nop()).Start(context.Background()))

	require.Len(t, src.errs, 1)
	assert.True(t, errors.Is(src.errs[0], domain.ErrPersistence))
}
