package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"homease-backend/internal/models"
)

const paymentColumns = `id, project_id, payer_id, payee_id, amount_cents, currency, stripe_charge_id,
	stripe_transfer_id, status, payment_type, created_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.ProjectID, &p.PayerID, &p.PayeeID, &p.AmountCents, &p.Currency, &p.StripeChargeID,
		&p.StripeTransferID, &p.Status, &p.PaymentType, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// withWebhookEvent claims eventID in the stripe_webhook_events ledger and runs
// fn in the same transaction. It reports false without calling fn when the
// event was already processed.
func (d *DatabaseClient) withWebhookEvent(ctx context.Context, eventID, eventType string, fn func(tx *sql.Tx) error) (bool, error) {
	applied := false
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO stripe_webhook_events (id, type)
			VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING
		`, eventID, eventType)
		if err != nil {
			return fmt.Errorf("failed to record webhook event: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		if err := fn(tx); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// RecordLeadPurchase applies a completed checkout: the lead becomes
// purchased by the contractor, the project is assigned and one
// lead_purchase payment is written. It reports false for a replayed event.
//
// A lead already sold to another contractor keeps its owner. The payment is
// then recorded as refund_due and ErrLeadConflict is returned after commit.
func (d *DatabaseClient) RecordLeadPurchase(ctx context.Context, p models.LeadPurchase) (bool, error) {
	conflict := false
	applied, err := d.withWebhookEvent(ctx, p.EventID, p.EventType, func(tx *sql.Tx) error {
		var projectID, homeownerID uuid.UUID
		var owner uuid.NullUUID
		err := tx.QueryRowContext(ctx, `
			SELECT pl.project_id, p.homeowner_id, pl.contractor_id
			FROM project_leads pl
			JOIN projects p ON p.id = pl.project_id
			WHERE pl.id = $1
			FOR UPDATE OF pl
		`, p.LeadID).Scan(&projectID, &homeownerID, &owner)
		if err != nil {
			return notFound(err, "lead")
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE project_leads
			SET status = $2, contractor_id = $3, purchased_at = NOW()
			WHERE id = $1 AND status = $4
		`, p.LeadID, models.LeadPurchased, p.ContractorID, models.LeadAvailable)
		if err != nil {
			return fmt.Errorf("failed to mark lead purchased: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to mark lead purchased: %w", err)
		}

		status := models.PaymentSucceeded
		if n == 0 && (!owner.Valid || owner.UUID != p.ContractorID) {
			conflict = true
			status = models.PaymentRefundDue
		} else if _, err := tx.ExecContext(ctx, `
			UPDATE projects
			SET contractor_id = $2
			WHERE id = $1 AND contractor_id IS NULL
		`, projectID, p.ContractorID); err != nil {
			return fmt.Errorf("failed to assign project contractor: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payments (project_id, payer_id, payee_id, amount_cents, currency, stripe_charge_id, status, payment_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (stripe_charge_id) DO NOTHING
		`, projectID, p.ContractorID, homeownerID, p.AmountCents, p.Currency, p.PaymentIntentID,
			status, models.PaymentTypeLeadPurchase); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		return nil
	})
	if err == nil && conflict {
		err = ErrLeadConflict
	}
	return applied, err
}

// ApplyAccountUpdate sets the verification flag of the contractor owning the
// connected account.
func (d *DatabaseClient) ApplyAccountUpdate(ctx context.Context, eventID, eventType, accountID string, verified bool) (bool, error) {
	return d.withWebhookEvent(ctx, eventID, eventType, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE contractor_profiles
			SET is_verified = $2
			WHERE stripe_account_id = $1
		`, accountID, verified); err != nil {
			return fmt.Errorf("failed to update contractor verification: %w", err)
		}
		return nil
	})
}

// ApplyTransferStatus updates the payout payment tied to a transfer.
func (d *DatabaseClient) ApplyTransferStatus(ctx context.Context, eventID, eventType, transferID, status string) (bool, error) {
	return d.withWebhookEvent(ctx, eventID, eventType, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE payments
			SET status = $2
			WHERE stripe_transfer_id = $1
		`, transferID, status); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
		return nil
	})
}

func (d *DatabaseClient) CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	out, err := scanPayment(d.db.QueryRowContext(ctx, `
		INSERT INTO payments (project_id, payer_id, payee_id, amount_cents, currency, stripe_charge_id,
			stripe_transfer_id, status, payment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+paymentColumns,
		p.ProjectID, p.PayerID, p.PayeeID, p.AmountCents, p.Currency, p.StripeChargeID,
		p.StripeTransferID, p.Status, p.PaymentType,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return out, nil
}

func (d *DatabaseClient) ListRecentPayments(ctx context.Context, limit int) ([]models.Payment, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// IsDuplicate reports whether err came from an idempotency collision.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
