package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"homease-backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert collides with an idempotency key.
	ErrDuplicate = errors.New("duplicate record")
	// ErrLeadConflict marks a paid checkout for a lead another contractor owns.
	ErrLeadConflict = errors.New("lead already purchased by another contractor")
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDatabaseClientFromDB(db), nil
}

// NewDatabaseClientFromDB wraps an existing handle.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// inTx runs fn inside a transaction, rolling back on error.
func (d *DatabaseClient) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Profiles

func (d *DatabaseClient) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := d.db.QueryRowContext(ctx, `
		SELECT id, email, role, full_name, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, userID).Scan(&p.ID, &p.Email, &p.Role, &p.FullName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

// CreateProfileWithRole inserts the profile row and its role-specific
// companion row in one transaction.
func (d *DatabaseClient) CreateProfileWithRole(ctx context.Context, userID uuid.UUID, email, fullName, role string) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (id, email, role, full_name)
			VALUES ($1, $2, $3, NULLIF($4, ''))
		`, userID, email, role, fullName); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		switch role {
		case models.RoleHomeowner:
			if _, err := tx.ExecContext(ctx, `INSERT INTO homeowner_profiles (id) VALUES ($1)`, userID); err != nil {
				return fmt.Errorf("failed to create homeowner profile: %w", err)
			}
		case models.RoleContractor:
			if _, err := tx.ExecContext(ctx, `INSERT INTO contractor_profiles (id) VALUES ($1)`, userID); err != nil {
				return fmt.Errorf("failed to create contractor profile: %w", err)
			}
		}
		return nil
	})
}

const contractorColumns = `id, company_name, license_number, service_areas, specialties, certifications,
	phone_number, stripe_account_id, is_verified, rating, created_at, updated_at`

func scanContractor(row rowScanner) (*models.ContractorProfile, error) {
	var c models.ContractorProfile
	err := row.Scan(
		&c.ID, &c.CompanyName, &c.LicenseNumber,
		pq.Array(&c.ServiceAreas), pq.Array(&c.Specialties), pq.Array(&c.Certifications),
		&c.PhoneNumber, &c.StripeAccountID, &c.IsVerified, &c.Rating, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DatabaseClient) GetContractorProfile(ctx context.Context, contractorID uuid.UUID) (*models.ContractorProfile, error) {
	c, err := scanContractor(d.db.QueryRowContext(ctx,
		`SELECT `+contractorColumns+` FROM contractor_profiles WHERE id = $1`, contractorID))
	if err != nil {
		return nil, notFound(err, "contractor profile")
	}
	return c, nil
}

// UpsertContractorProfile writes the contractor-editable fields. The
// verification flag and Stripe account id are left untouched.
func (d *DatabaseClient) UpsertContractorProfile(ctx context.Context, c *models.ContractorProfile) (*models.ContractorProfile, error) {
	out, err := scanContractor(d.db.QueryRowContext(ctx, `
		INSERT INTO contractor_profiles (id, company_name, license_number, service_areas, specialties, certifications, phone_number)
		VALUES ($1, $2, $3, COALESCE($4::text[], '{}'), COALESCE($5::text[], '{}'), COALESCE($6::text[], '{}'), $7)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			license_number = EXCLUDED.license_number,
			service_areas = EXCLUDED.service_areas,
			specialties = EXCLUDED.specialties,
			certifications = EXCLUDED.certifications,
			phone_number = EXCLUDED.phone_number
		RETURNING `+contractorColumns,
		c.ID, c.CompanyName, c.LicenseNumber,
		pq.Array(c.ServiceAreas), pq.Array(c.Specialties), pq.Array(c.Certifications),
		c.PhoneNumber,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert contractor profile: %w", err)
	}
	return out, nil
}

func (d *DatabaseClient) SetStripeAccountID(ctx context.Context, contractorID uuid.UUID, accountID string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE contractor_profiles
		SET stripe_account_id = $2
		WHERE id = $1
	`, contractorID, accountID)
	if err != nil {
		return fmt.Errorf("failed to save stripe account id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contractor profile: %w", ErrNotFound)
	}
	return nil
}
