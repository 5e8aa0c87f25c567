package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"homease-backend/internal/models"
)

const projectColumns = `id, homeowner_id, ar_assessment_id, title, description, estimated_cost,
	budget_estimate_cents, status, contractor_id, created_at, updated_at`

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.HomeownerID, &p.AssessmentID, &p.Title, &p.Description, &p.EstimatedCost,
		&p.BudgetEstimateCents, &p.Status, &p.ContractorID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProjectForAssessment inserts the project derived from an assessment
// and, when the project is published, its available lead. Both writes share
// one transaction. A second call for the same assessment returns the
// existing project and creates nothing.
func (d *DatabaseClient) CreateProjectForAssessment(ctx context.Context, p *models.Project, leadCostCents int64) (*models.Project, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	var out *models.Project
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		created, err := scanProject(tx.QueryRowContext(ctx, `
			INSERT INTO projects (id, homeowner_id, ar_assessment_id, title, description, estimated_cost,
				budget_estimate_cents, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (ar_assessment_id) DO NOTHING
			RETURNING `+projectColumns,
			p.ID, p.HomeownerID, p.AssessmentID, p.Title, p.Description, p.EstimatedCost,
			p.BudgetEstimateCents, p.Status,
		))
		if errors.Is(err, sql.ErrNoRows) {
			existing, err := scanProject(tx.QueryRowContext(ctx,
				`SELECT `+projectColumns+` FROM projects WHERE ar_assessment_id = $1`, p.AssessmentID))
			if err != nil {
				return notFound(err, "project")
			}
			out = existing
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		if created.IsPublished() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO project_leads (project_id, status, lead_cost_cents)
				VALUES ($1, $2, $3)
				ON CONFLICT (project_id) DO NOTHING
			`, created.ID, models.LeadAvailable, leadCostCents); err != nil {
				return fmt.Errorf("failed to create project lead: %w", err)
			}
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	p, err := scanProject(d.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID))
	if err != nil {
		return nil, notFound(err, "project")
	}
	return p, nil
}

func (d *DatabaseClient) GetProjectByAssessment(ctx context.Context, assessmentID uuid.UUID) (*models.Project, error) {
	p, err := scanProject(d.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE ar_assessment_id = $1`, assessmentID))
	if err != nil {
		return nil, notFound(err, "project")
	}
	return p, nil
}

func (d *DatabaseClient) ListProjects(ctx context.Context, homeownerID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE homeowner_id = $1
		ORDER BY created_at DESC
	`, homeownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// PromoteProjectToVisualized marks an open project as visualized once its
// assessment gains an "after" image.
func (d *DatabaseClient) PromoteProjectToVisualized(ctx context.Context, assessmentID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET status = $2
		WHERE ar_assessment_id = $1 AND status = $3
	`, assessmentID, models.ProjectVisualized, models.ProjectOpen)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	return nil
}

// Leads

const leadListingSelect = `
	SELECT pl.id, pl.project_id, pl.contractor_id, pl.status, pl.lead_cost_cents, pl.purchased_at,
		pl.created_at, pl.updated_at,
		p.id, p.homeowner_id, p.ar_assessment_id, p.title, p.description, p.estimated_cost,
		p.budget_estimate_cents, p.status, p.contractor_id, p.created_at, p.updated_at,
		a.room_type, a.image_url, a.visualization_url, pr.email, a.home_address
	FROM project_leads pl
	JOIN projects p ON p.id = pl.project_id
	LEFT JOIN ar_assessments a ON a.id = p.ar_assessment_id
	LEFT JOIN profiles pr ON pr.id = p.homeowner_id`

func scanLeadListing(row rowScanner) (*models.LeadListing, error) {
	var l models.LeadListing
	err := row.Scan(
		&l.Lead.ID, &l.Lead.ProjectID, &l.Lead.ContractorID, &l.Lead.Status, &l.Lead.LeadCostCents,
		&l.Lead.PurchasedAt, &l.Lead.CreatedAt, &l.Lead.UpdatedAt,
		&l.Project.ID, &l.Project.HomeownerID, &l.Project.AssessmentID, &l.Project.Title,
		&l.Project.Description, &l.Project.EstimatedCost, &l.Project.BudgetEstimateCents,
		&l.Project.Status, &l.Project.ContractorID, &l.Project.CreatedAt, &l.Project.UpdatedAt,
		&l.RoomType, &l.ImageURL, &l.VisualizationURL, &l.HomeownerEmail, &l.HomeAddress,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *DatabaseClient) queryLeads(ctx context.Context, query string, args ...any) ([]models.LeadListing, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.LeadListing
	for rows.Next() {
		l, err := scanLeadListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

// ListAvailableLeads returns unpurchased leads matching the filter, newest
// first.
func (d *DatabaseClient) ListAvailableLeads(ctx context.Context, f models.LeadFilter) ([]models.LeadListing, error) {
	where := []string{"pl.status = $1"}
	args := []any{models.LeadAvailable}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where = append(where, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	if f.MinBudgetCents > 0 {
		args = append(args, f.MinBudgetCents)
		where = append(where, fmt.Sprintf("p.budget_estimate_cents >= $%d", len(args)))
	}
	if f.MaxBudgetCents > 0 {
		args = append(args, f.MaxBudgetCents)
		where = append(where, fmt.Sprintf("p.budget_estimate_cents <= $%d", len(args)))
	}
	if f.RoomType != "" {
		args = append(args, f.RoomType)
		where = append(where, fmt.Sprintf("a.room_type = $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := leadListingSelect + `
	WHERE ` + strings.Join(where, " AND ") + `
	ORDER BY pl.created_at DESC
	LIMIT $` + fmt.Sprint(len(args))

	return d.queryLeads(ctx, query, args...)
}

func (d *DatabaseClient) ListContractorLeads(ctx context.Context, contractorID uuid.UUID) ([]models.LeadListing, error) {
	return d.queryLeads(ctx, leadListingSelect+`
	WHERE pl.contractor_id = $1 AND pl.status = $2
	ORDER BY pl.purchased_at DESC`, contractorID, models.LeadPurchased)
}

func (d *DatabaseClient) GetLead(ctx context.Context, leadID uuid.UUID) (*models.LeadListing, error) {
	l, err := scanLeadListing(d.db.QueryRowContext(ctx, leadListingSelect+`
	WHERE pl.id = $1`, leadID))
	if err != nil {
		return nil, notFound(err, "lead")
	}
	return l, nil
}

func (d *DatabaseClient) GetLeadByProject(ctx context.Context, projectID uuid.UUID) (*models.LeadListing, error) {
	l, err := scanLeadListing(d.db.QueryRowContext(ctx, leadListingSelect+`
	WHERE pl.project_id = $1`, projectID))
	if err != nil {
		return nil, notFound(err, "lead")
	}
	return l, nil
}

func (d *DatabaseClient) CountAvailableLeads(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_leads WHERE status = $1`, models.LeadAvailable).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return n, nil
}
