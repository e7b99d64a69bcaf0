package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/vendo/internal/config"
	obsmetrics "github.com/smallbiznis/vendo/internal/observability/metrics"
	"github.com/smallbiznis/vendo/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Authenticator struct {
	log       *zap.Logger
	secret    string
	tolerance time.Duration
	metrics   *obsmetrics.Metrics
	now       func() time.Time
}

func NewAuthenticator(p Params) domain.Authenticator {
	return &Authenticator{
		log:       p.Log.Named("webhook"),
		secret:    strings.TrimSpace(p.Cfg.StripeWebhookSecret),
		tolerance: p.Cfg.WebhookTolerance,
		metrics:   p.Metrics,
		now:       time.Now,
	}
}

// Authenticate verifies the signature header over the raw payload, enforces
// the freshness window and parses the event. Unrecognized event types return
// an ignored event, not an error.
func (a *Authenticator) Authenticate(ctx context.Context, payload []byte, signatureHeader string) (*domain.Event, error) {
	if a.secret == "" {
		return nil, domain.ErrNotConfigured
	}

	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" {
		a.metrics.RecordWebhookEvent(ctx, "unknown", "invalid_signature")
		return nil, domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		a.metrics.RecordWebhookEvent(ctx, "unknown", "invalid_signature")
		return nil, domain.ErrInvalidSignature
	}

	sentAt, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		a.metrics.RecordWebhookEvent(ctx, "unknown", "invalid_signature")
		return nil, domain.ErrInvalidSignature
	}
	age := a.now().UTC().Sub(time.Unix(sentAt, 0))
	if age > a.tolerance || age < -a.tolerance {
		a.log.Warn("rejected stale webhook", zap.Int64("sent_at", sentAt), zap.Duration("age", age))
		a.metrics.RecordWebhookEvent(ctx, "unknown", "stale")
		return nil, domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.secret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	matched := false
	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		a.metrics.RecordWebhookEvent(ctx, "unknown", "invalid_signature")
		return nil, domain.ErrInvalidSignature
	}

	event, err := a.parse(payload)
	if err != nil {
		a.metrics.RecordWebhookEvent(ctx, "unknown", "malformed")
		return nil, err
	}
	a.metrics.RecordWebhookEvent(ctx, event.Type, "accepted")
	return event, nil
}

type providerEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type providerSession struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

func (a *Authenticator) parse(payload []byte) (*domain.Event, error) {
	var event providerEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrMalformedEvent
	}

	if strings.TrimSpace(event.Type) != domain.EventTypeCheckoutCompleted {
		return &domain.Event{Type: domain.EventTypeIgnored, RawPayload: payload}, nil
	}

	var session providerSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrMalformedEvent
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, domain.ErrMalformedEvent
	}

	buyerID, itemIDs, err := parseMetadata(session.Metadata)
	if err != nil {
		a.log.Warn("completed session with unusable metadata",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return nil, domain.ErrMalformedEvent
	}

	return &domain.Event{
		Type:       domain.EventTypeCheckoutCompleted,
		SessionID:  session.ID,
		BuyerID:    buyerID,
		ItemIDs:    itemIDs,
		RawPayload: payload,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature_header")
	}
	return timestamp, signatures, nil
}

func parseMetadata(metadata map[string]string) (uuid.UUID, []int64, error) {
	buyerID, err := uuid.Parse(strings.TrimSpace(metadata["buyer_id"]))
	if err != nil {
		return uuid.Nil, nil, errors.New("missing_buyer_id")
	}

	raw := strings.TrimSpace(metadata["item_ids"])
	if raw == "" {
		return uuid.Nil, nil, errors.New("missing_item_ids")
	}
	var itemIDs []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return uuid.Nil, nil, errors.New("invalid_item_id")
		}
		itemIDs = append(itemIDs, id)
	}
	return buyerID, itemIDs, nil
}
