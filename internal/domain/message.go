package domain

import (
	"strings"
	"time"
)

type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Channel   Channel   `json:"channel"`
	Text      string    `json:"text"`
	RiskScore float64   `json:"riskScore"`
	Label     RiskLabel `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelCall  Channel = "CALL"
)

// ParseChannel accepts the channel name in any case.
func ParseChannel(s string) (Channel, bool) {
	switch c := Channel(strings.ToUpper(strings.TrimSpace(s))); c {
	case ChannelEmail, ChannelSMS, ChannelCall:
		return c, true
	}
	return "", false
}

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelCall:
		return true
	}
	return false
}

type RiskLabel string

const (
	RiskLow    RiskLabel = "LOW"
	RiskMedium RiskLabel = "MEDIUM"
	RiskHigh   RiskLabel = "HIGH"
)

func ParseRiskLabel(s string) (RiskLabel, bool) {
	switch l := RiskLabel(strings.ToUpper(strings.TrimSpace(s))); l {
	case RiskLow, RiskMedium, RiskHigh:
		return l, true
	}
	return "", false
}

// SeverityRank is the primary sort key for risk-first retrieval. Lower ranks
// sort first.
func SeverityRank(l RiskLabel) int {
	switch l {
	case RiskHigh:
		return 1
	case RiskMedium:
		return 2
	case RiskLow:
		return 3
	}
	return 4
}

// Verdict is the classifier result before it is returned or persisted.
type Verdict struct {
	RiskScore float64
	Label     RiskLabel
	Fallback  bool
}

func (v Verdict) Response() ClassificationResponse {
	return ClassificationResponse{RiskScore: v.RiskScore, Label: v.Label}
}

type ClassificationRequest struct {
	Message string  `json:"message"`
	Channel Channel `json:"channel"`
}

type ClassificationResponse struct {
	RiskScore float64   `json:"riskScore"`
	Label     RiskLabel `json:"label"`
}

type Page struct {
	Items      []Message `json:"items"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalItems int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}

// NewPage fills in TotalPages from the item total. Items is never nil.
func NewPage(items []Message, page, pageSize int, total int64) *Page {
	if items == nil {
		items = []Message{}
	}
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

type Stats struct {
	UserID        string    `json:"userId"`
	TotalMessages int64     `json:"totalMessages"`
	Since         time.Time `json:"since"`
}
