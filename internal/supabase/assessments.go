package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"homease-backend/internal/models"
)

const assessmentColumns = `id, homeowner_id, home_address, room_type, mobility_concerns, assessment_details,
	budget_range, image_url, image_path, ai_analysis, visualization_url, visualization_path,
	visualization_description, status, error_message, submission_key, created_at, updated_at`

func scanAssessment(row rowScanner) (*models.Assessment, error) {
	var a models.Assessment
	var analysis []byte
	err := row.Scan(
		&a.ID, &a.HomeownerID, &a.HomeAddress, &a.RoomType, pq.Array(&a.MobilityConcerns), &a.AssessmentDetails,
		&a.BudgetRange, &a.ImageURL, &a.ImagePath, &analysis, &a.VisualizationURL, &a.VisualizationPath,
		&a.VisualizationDescription, &a.Status, &a.ErrorMessage, &a.SubmissionKey, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(analysis) > 0 {
		a.AIAnalysis = json.RawMessage(analysis)
	}
	return &a, nil
}

// CreateAssessment inserts a new assessment. A row of the same homeowner that
// already carries the submission key makes the insert a no-op and returns
// ErrDuplicate.
func (d *DatabaseClient) CreateAssessment(ctx context.Context, a *models.Assessment) (*models.Assessment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	out, err := scanAssessment(d.db.QueryRowContext(ctx, `
		INSERT INTO ar_assessments (id, homeowner_id, home_address, room_type, mobility_concerns,
			assessment_details, budget_range, status, submission_key)
		VALUES ($1, $2, $3, $4, COALESCE($5::text[], '{}'), $6, $7, $8, $9)
		ON CONFLICT (homeowner_id, submission_key) DO NOTHING
		RETURNING `+assessmentColumns,
		a.ID, a.HomeownerID, a.HomeAddress, a.RoomType, pq.Array(a.MobilityConcerns),
		a.AssessmentDetails, a.BudgetRange, a.Status, a.SubmissionKey,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}
	return out, nil
}

func (d *DatabaseClient) GetAssessment(ctx context.Context, assessmentID uuid.UUID) (*models.Assessment, error) {
	a, err := scanAssessment(d.db.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+` FROM ar_assessments WHERE id = $1`, assessmentID))
	if err != nil {
		return nil, notFound(err, "assessment")
	}
	return a, nil
}

func (d *DatabaseClient) GetAssessmentBySubmissionKey(ctx context.Context, homeownerID uuid.UUID, key string) (*models.Assessment, error) {
	a, err := scanAssessment(d.db.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+` FROM ar_assessments WHERE submission_key = $1 AND homeowner_id = $2`,
		key, homeownerID))
	if err != nil {
		return nil, notFound(err, "assessment")
	}
	return a, nil
}

func (d *DatabaseClient) ListAssessments(ctx context.Context, homeownerID uuid.UUID) ([]models.Assessment, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+assessmentColumns+`
		FROM ar_assessments
		WHERE homeowner_id = $1
		ORDER BY created_at DESC
	`, homeownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []models.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

func (d *DatabaseClient) SetAssessmentImage(ctx context.Context, assessmentID uuid.UUID, url, path string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE ar_assessments
		SET image_url = $2, image_path = $3
		WHERE id = $1
	`, assessmentID, url, path)
	if err != nil {
		return fmt.Errorf("failed to set assessment image: %w", err)
	}
	return nil
}

// SaveAnalysis stores a successful analysis and moves the row to analyzed.
func (d *DatabaseClient) SaveAnalysis(ctx context.Context, assessmentID uuid.UUID, analysis json.RawMessage) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE ar_assessments
		SET ai_analysis = $2, status = $3, error_message = NULL
		WHERE id = $1
	`, assessmentID, []byte(analysis), models.AssessmentAnalyzed)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// MarkAnalysisFailed records a failed analysis: the row goes back to pending
// with the message kept both in ai_analysis and error_message.
func (d *DatabaseClient) MarkAnalysisFailed(ctx context.Context, assessmentID uuid.UUID, message string) error {
	payload, _ := json.Marshal(map[string]string{"error": message})
	_, err := d.db.ExecContext(ctx, `
		UPDATE ar_assessments
		SET ai_analysis = $2, status = $3, error_message = $4
		WHERE id = $1
	`, assessmentID, payload, models.AssessmentPending, message)
	if err != nil {
		return fmt.Errorf("failed to mark analysis failed: %w", err)
	}
	return nil
}

func (d *DatabaseClient) SetVisualization(ctx context.Context, assessmentID uuid.UUID, url, path, description string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE ar_assessments
		SET visualization_url = $2, visualization_path = $3, visualization_description = NULLIF($4, ''), status = $5
		WHERE id = $1
	`, assessmentID, url, path, description, models.AssessmentVisualized)
	if err != nil {
		return fmt.Errorf("failed to set visualization: %w", err)
	}
	return nil
}

// ResolveStuckAssessment moves a row that is still analyzing to pending with
// an error message. Rows in any other status are left alone.
func (d *DatabaseClient) ResolveStuckAssessment(ctx context.Context, assessmentID uuid.UUID, message string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE ar_assessments
		SET status = $2, error_message = $3
		WHERE id = $1 AND status = $4
	`, assessmentID, models.AssessmentPending, message, models.AssessmentAnalyzing)
	if err != nil {
		return fmt.Errorf("failed to resolve assessment status: %w", err)
	}
	return nil
}

func (d *DatabaseClient) DeleteAssessment(ctx context.Context, assessmentID, homeownerID uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM ar_assessments
		WHERE id = $1 AND homeowner_id = $2
	`, assessmentID, homeownerID)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assessment: %w", ErrNotFound)
	}
	return nil
}
