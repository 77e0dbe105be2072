package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
		ok   bool
	}{
		{"SMS", ChannelSMS, true},
		{"sms", ChannelSMS, true},
		{" Call ", ChannelCall, true},
		{"email", ChannelEmail, true},
		{"fax", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseChannel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannelValid(t *testing.T) {
	assert.True(t, ChannelSMS.Valid())
	assert.False(t, Channel("sms").Valid())
	assert.False(t, Channel("").Valid())
}

func TestSeverityRank_Order(t *testing.T) {
	assert.Less(t, SeverityRank(RiskHigh), SeverityRank(RiskMedium))
	assert.Less(t, SeverityRank(RiskMedium), SeverityRank(RiskLow))
	assert.Less(t, SeverityRank(RiskLow), SeverityRank(RiskLabel("UNKNOWN")))
}

func TestNewPage(t *testing.T) {
	p := NewPage(nil, 3, 20, 41)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(41), p.TotalItems)

	assert.Equal(t, 0, NewPage(nil, 0, 20, 0).TotalPages)
}

func TestErrors_Is(t *testing.T) {
	var err error = &ValidationError{Field: "message", Reason: "must not be blank"}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, "message: must not be blank", err.Error())

	cause := errors.New("disk full")
	err = fmt.Errorf("gateway: %w", &PersistenceError{Op: "save", Err: cause})
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
}
