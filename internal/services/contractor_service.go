package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
	"homease-backend/internal/supabase"
)

// ContractorService manages contractor profiles, Stripe Connect onboarding
// and admin payouts.
type ContractorService struct {
	store   ContractorStore
	connect ConnectProvider
	logger  *zap.Logger
}

func NewContractorService(store ContractorStore, connect ConnectProvider, logger *zap.Logger) *ContractorService {
	return &ContractorService{
		store:   store,
		connect: connect,
		logger:  logger.Named("contractors"),
	}
}

// GetProfile returns the contractor's profile, or an empty one when none has
// been saved yet.
func (s *ContractorService) GetProfile(ctx context.Context, contractorID uuid.UUID) (*models.ContractorProfile, error) {
	p, err := s.store.GetContractorProfile(ctx, contractorID)
	if errors.Is(err, supabase.ErrNotFound) {
		return &models.ContractorProfile{ID: contractorID}, nil
	}
	return p, err
}

// UpdateProfile saves the editable profile fields. Verification and the
// Stripe account are never taken from the request.
func (s *ContractorService) UpdateProfile(ctx context.Context, contractorID uuid.UUID, req models.ContractorProfileRequest) (*models.ContractorProfile, error) {
	return s.store.UpsertContractorProfile(ctx, &models.ContractorProfile{
		ID:             contractorID,
		CompanyName:    nullString(req.CompanyName),
		LicenseNumber:  nullString(req.LicenseNumber),
		ServiceAreas:   req.ServiceAreas,
		Specialties:    req.Specialties,
		Certifications: req.Certifications,
		PhoneNumber:    nullString(req.PhoneNumber),
	})
}

// StartOnboarding creates the contractor's connected account when missing
// and returns a fresh onboarding link.
func (s *ContractorService) StartOnboarding(ctx context.Context, contractorID uuid.UUID) (string, error) {
	contractor, err := s.GetProfile(ctx, contractorID)
	if err != nil {
		return "", err
	}

	log := s.logger.With(zap.String("contractor_id", contractorID.String()))

	accountID := contractor.StripeAccountID.String
	if !contractor.StripeAccountID.Valid || accountID == "" {
		profile, err := s.store.GetProfile(ctx, contractorID)
		if err != nil {
			return "", storeErr(err)
		}
		accountID, err = s.connect.CreateConnectAccount(ctx, contractorID, profile.Email)
		if err != nil {
			log.Error("failed to create connected account", zap.Error(err))
			return "", err
		}
		if err := s.store.SetStripeAccountID(ctx, contractorID, accountID); err != nil {
			log.Error("failed to save connected account", zap.String("account_id", accountID), zap.Error(err))
			return "", err
		}
		log.Info("connected account created", zap.String("account_id", accountID))
	}

	url, err := s.connect.CreateOnboardingLink(ctx, accountID)
	if err != nil {
		log.Error("failed to create onboarding link", zap.Error(err))
		return "", err
	}
	return url, nil
}

type PayoutResult struct {
	TransferID string
	Payment    *models.Payment
}

// Payout transfers amountCents to the contractor for a project and records a
// pending payout payment. The transfer webhook settles its status.
func (s *ContractorService) Payout(ctx context.Context, adminID, projectID, contractorID uuid.UUID, amountCents int64) (*PayoutResult, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Fields: map[string]string{"AmountCents": "gt=0"}}
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, storeErr(err)
	}

	contractor, err := s.store.GetContractorProfile(ctx, contractorID)
	if errors.Is(err, supabase.ErrNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	if !contractor.StripeAccountID.Valid || contractor.StripeAccountID.String == "" {
		return nil, ErrNotConnected
	}

	log := s.logger.With(
		zap.String("project_id", projectID.String()),
		zap.String("contractor_id", contractorID.String()),
	)

	transferID, err := s.connect.CreateTransfer(ctx, projectID, contractorID, contractor.StripeAccountID.String, amountCents)
	if err != nil {
		log.Error("transfer failed", zap.Error(err))
		return nil, err
	}

	payment, err := s.store.CreatePayment(ctx, &models.Payment{
		ProjectID:        uuid.NullUUID{UUID: projectID, Valid: true},
		PayerID:          uuid.NullUUID{UUID: adminID, Valid: true},
		PayeeID:          uuid.NullUUID{UUID: contractorID, Valid: true},
		AmountCents:      amountCents,
		Currency:         payments.Currency,
		StripeTransferID: sql.NullString{String: transferID, Valid: true},
		Status:           models.PaymentPending,
		PaymentType:      models.PaymentTypePayout,
	})
	if err != nil {
		log.Error("transfer created but payout not recorded", zap.String("transfer_id", transferID), zap.Error(err))
		return nil, err
	}

	log.Info("payout created", zap.String("transfer_id", transferID), zap.Int64("amount_cents", amountCents))
	return &PayoutResult{TransferID: transferID, Payment: payment}, nil
}

func (s *ContractorService) RecentPayments(ctx context.Context, limit int) ([]models.Payment, error) {
	return s.store.ListRecentPayments(ctx, limit)
}
