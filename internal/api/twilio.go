package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"fraudshield/internal/domain"
	"fraudshield/internal/metrics"
)

// Twilio posts form-encoded fields; JSON bodies with the same field names are
// accepted too.
type smsPayload struct {
	From string `form:"From" json:"From"`
	To   string `form:"To" json:"To"`
	Body string `form:"Body" json:"Body"`
}

type voicePayload struct {
	From         string `form:"From" json:"From"`
	To           string `form:"To" json:"To"`
	SpeechResult string `form:"SpeechResult" json:"SpeechResult"`
}

func (s *Server) smsWebhook(c echo.Context) error {
	var p smsPayload
	if err := c.Bind(&p); err != nil {
		return s.acknowledge(c, "sms", err)
	}
	s.log.Info().Str("from", p.From).Str("to", p.To).Msg("sms webhook received")

	return s.acknowledge(c, "sms", s.recordTelephony(c, p.From, p.Body, domain.ChannelSMS))
}

func (s *Server) voiceWebhook(c echo.Context) error {
	var p voicePayload
	if err := c.Bind(&p); err != nil {
		return s.acknowledge(c, "voice", err)
	}
	s.log.Info().Str("from", p.From).Str("to", p.To).Msg("voice webhook received")

	return s.acknowledge(c, "voice", s.recordTelephony(c, p.From, p.SpeechResult, domain.ChannelCall))
}

// recordTelephony classifies a non-blank transcript under the caller's
// number. Blank transcripts are ignored.
func (s *Server) recordTelephony(c echo.Context, from, text string, channel domain.Channel) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	resp, msg, err := s.svc.ClassifyAndRecord(c.Request().Context(), from,
		domain.ClassificationRequest{Message: text, Channel: channel})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("message_id", msg.ID).
		Str("channel", string(channel)).
		Float64("risk_score", resp.RiskScore).
		Msg("telephony message recorded")
	return nil
}

// acknowledge answers the provider with 200 OK regardless of err, which is
// only logged.
func (s *Server) acknowledge(c echo.Context, webhook string, err error) error {
	if err != nil {
		metrics.WebhookAbsorbed.WithLabelValues(webhook).Inc()
		s.log.Error().Err(err).Str("webhook", webhook).Msg("telephony webhook failed, acknowledging anyway")
	}
	return c.String(http.StatusOK, "OK")
}
