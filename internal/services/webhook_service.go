package services

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
	"homease-backend/internal/metrics"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
	"homease-backend/internal/supabase"
)

// WebhookService verifies Stripe callbacks and applies them. Every mutation
// runs in one transaction keyed by the event id, so redelivery is a no-op.
type WebhookService struct {
	store    WebhookStore
	verifier EventVerifier
	logger   *zap.Logger
}

func NewWebhookService(store WebhookStore, verifier EventVerifier, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		store:    store,
		verifier: verifier,
		logger:   logger.Named("webhooks"),
	}
}

func (s *WebhookService) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return s.verifier.ConstructEvent(payload, signature)
}

// Handle dispatches a verified event. It returns payments.ErrMissingData for
// incomplete checkout events and ErrDuplicateEvent for redeliveries. A
// checkout for a lead already sold elsewhere is acknowledged and logged.
func (s *WebhookService) Handle(ctx context.Context, event stripe.Event) error {
	eventType := string(event.Type)
	log := s.logger.With(zap.String("event_id", event.ID), zap.String("type", eventType))

	var applied bool
	var err error

	switch eventType {
	case payments.EventCheckoutCompleted:
		var purchase *models.LeadPurchase
		purchase, err = payments.LeadPurchaseFromEvent(event)
		if err != nil {
			break
		}
		log = log.With(zap.String("lead_id", purchase.LeadID.String()), zap.String("contractor_id", purchase.ContractorID.String()))
		applied, err = s.store.RecordLeadPurchase(ctx, *purchase)

	case payments.EventAccountUpdated:
		var status *payments.AccountStatus
		status, err = payments.AccountStatusFromEvent(event)
		if err != nil {
			break
		}
		if !status.Verified {
			log.Info("connected account not yet fully onboarded", zap.String("account_id", status.AccountID))
			metrics.WebhookEvent(eventType, "ignored")
			return nil
		}
		applied, err = s.store.ApplyAccountUpdate(ctx, event.ID, eventType, status.AccountID, true)

	case payments.EventTransferSucceeded, payments.EventTransferFailed, payments.EventTransferReversed:
		var transferID string
		transferID, err = payments.TransferIDFromEvent(event)
		if err != nil {
			break
		}
		status := models.PaymentFailed
		if eventType == payments.EventTransferSucceeded {
			status = models.PaymentSucceeded
		}
		log = log.With(zap.String("transfer_id", transferID))
		applied, err = s.store.ApplyTransferStatus(ctx, event.ID, eventType, transferID, status)

	case payments.EventChargeSucceeded, payments.EventChargeFailed:
		log.Info("charge event received")
		metrics.WebhookEvent(eventType, "ignored")
		return nil

	default:
		log.Debug("unhandled event type")
		metrics.WebhookEvent(eventType, "ignored")
		return nil
	}

	if errors.Is(err, supabase.ErrLeadConflict) {
		log.Error("paid checkout for a lead owned by another contractor, payment marked refund_due")
		metrics.WebhookEvent(eventType, "conflict")
		return nil
	}
	if err != nil {
		if errors.Is(err, payments.ErrMissingData) {
			log.Warn("event is missing required data")
		} else {
			log.Error("failed to apply event", zap.Error(err))
		}
		metrics.WebhookEvent(eventType, "error")
		return err
	}
	if !applied {
		log.Info("duplicate event ignored")
		metrics.WebhookEvent(eventType, "duplicate")
		return ErrDuplicateEvent
	}

	log.Info("event applied")
	metrics.WebhookEvent(eventType, "applied")
	return nil
}
