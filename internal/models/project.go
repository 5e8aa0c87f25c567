package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	RoleHomeowner  = "HOMEOWNER"
	RoleContractor = "CONTRACTOR"
	RoleAdmin      = "ADMIN"
)

// Assessment statuses.
const (
	AssessmentPending    = "pending"
	AssessmentAnalyzing  = "analyzing"
	AssessmentAnalyzed   = "analyzed"
	AssessmentVisualized = "visualized"
	AssessmentError      = "error"
)

// Project statuses.
const (
	ProjectDraft      = "draft"
	ProjectOpen       = "open"
	ProjectVisualized = "visualized"
	ProjectMatched    = "matched"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
)

type Profile struct {
	ID        uuid.UUID
	Email     string
	Role      string
	FullName  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

type HomeownerProfile struct {
	ID          uuid.UUID
	Address     sql.NullString
	PhoneNumber sql.NullString
}

type ContractorProfile struct {
	ID              uuid.UUID
	CompanyName     sql.NullString
	LicenseNumber   sql.NullString
	ServiceAreas    []string
	Specialties     []string
	Certifications  []string
	PhoneNumber     sql.NullString
	StripeAccountID sql.NullString
	IsVerified      bool
	Rating          sql.NullFloat64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Assessment struct {
	ID                       uuid.UUID
	HomeownerID              uuid.UUID
	HomeAddress              string
	RoomType                 string
	MobilityConcerns         []string
	AssessmentDetails        string
	BudgetRange              sql.NullString
	ImageURL                 sql.NullString
	ImagePath                sql.NullString
	AIAnalysis               json.RawMessage
	VisualizationURL         sql.NullString
	VisualizationPath        sql.NullString
	VisualizationDescription sql.NullString
	Status                   string
	ErrorMessage             sql.NullString
	SubmissionKey            sql.NullString
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Analysis decodes the stored ai_analysis column. It returns nil when the
// column is empty or holds an error record.
func (a *Assessment) Analysis() *RoomAnalysis {
	if len(a.AIAnalysis) == 0 {
		return nil
	}
	var analysis RoomAnalysis
	if err := json.Unmarshal(a.AIAnalysis, &analysis); err != nil {
		return nil
	}
	if analysis.Summary == "" && len(analysis.Modifications) == 0 && analysis.RoomType == "" {
		return nil
	}
	return &analysis
}

type Project struct {
	ID                  uuid.UUID
	HomeownerID         uuid.UUID
	AssessmentID        uuid.NullUUID
	Title               string
	Description         sql.NullString
	EstimatedCost       sql.NullString
	BudgetEstimateCents sql.NullInt64
	Status              string
	ContractorID        uuid.NullUUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsPublished reports whether the project is visible in the lead marketplace.
func (p *Project) IsPublished() bool {
	return p.Status == ProjectOpen || p.Status == ProjectVisualized
}
