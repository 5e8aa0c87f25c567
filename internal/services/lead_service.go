package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
)

// LeadService exposes published projects to contractors and starts lead
// checkouts. Leads only change state through the payment webhook.
type LeadService struct {
	store    LeadStore
	checkout CheckoutProvider
	logger   *zap.Logger
}

func NewLeadService(store LeadStore, checkout CheckoutProvider, logger *zap.Logger) *LeadService {
	return &LeadService{
		store:    store,
		checkout: checkout,
		logger:   logger.Named("leads"),
	}
}

// redact hides homeowner contact details from anyone but the purchaser.
func redact(l *models.LeadListing, viewerID uuid.UUID, role string) {
	if role == models.RoleAdmin {
		return
	}
	if l.Lead.Status == models.LeadPurchased && l.Lead.ContractorID.Valid && l.Lead.ContractorID.UUID == viewerID {
		return
	}
	l.HomeownerEmail = sql.NullString{}
	l.HomeAddress = sql.NullString{}
}

func (s *LeadService) ListAvailable(ctx context.Context, viewerID uuid.UUID, role string, filter models.LeadFilter) ([]models.LeadListing, error) {
	leads, err := s.store.ListAvailableLeads(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range leads {
		redact(&leads[i], viewerID, role)
	}
	return leads, nil
}

func (s *LeadService) Get(ctx context.Context, viewerID uuid.UUID, role string, leadID uuid.UUID) (*models.LeadListing, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, storeErr(err)
	}
	redact(lead, viewerID, role)
	return lead, nil
}

// Checkout opens a payment session for a lead that is still available.
func (s *LeadService) Checkout(ctx context.Context, contractorID, leadID uuid.UUID) (*payments.CheckoutSession, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, storeErr(err)
	}
	if lead.Lead.Status == models.LeadPurchased {
		return nil, ErrLeadUnavailable
	}

	session, err := s.checkout.CreateLeadCheckout(ctx, leadID, contractorID, lead.Lead.LeadCostCents)
	if err != nil {
		s.logger.Error("checkout session failed",
			zap.String("lead_id", leadID.String()),
			zap.String("contractor_id", contractorID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return session, nil
}

// ContractorDashboard summarizes a contractor's marketplace activity.
type ContractorDashboard struct {
	Purchased      []models.LeadListing
	AvailableCount int
}

func (s *LeadService) Dashboard(ctx context.Context, contractorID uuid.UUID) (*ContractorDashboard, error) {
	purchased, err := s.store.ListContractorLeads(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	available, err := s.store.CountAvailableLeads(ctx)
	if err != nil {
		return nil, err
	}
	return &ContractorDashboard{Purchased: purchased, AvailableCount: available}, nil
}
