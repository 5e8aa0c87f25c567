package models

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type AssessmentResponse struct {
	ID                       string          `json:"id"`
	HomeownerID              string          `json:"homeowner_id"`
	HomeAddress              string          `json:"home_address"`
	RoomType                 string          `json:"room_type"`
	MobilityConcerns         []string        `json:"mobility_concerns,omitempty"`
	AssessmentDetails        string          `json:"assessment_details"`
	BudgetRange              string          `json:"budget_range,omitempty"`
	ImageURL                 string          `json:"image_url,omitempty"`
	AIAnalysis               json.RawMessage `json:"ai_analysis,omitempty"`
	VisualizationURL         string          `json:"visualization_url,omitempty"`
	VisualizationDescription string          `json:"visualization_description,omitempty"`
	Status                   string          `json:"status"`
	ErrorMessage             string          `json:"error_message,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

func NewAssessmentResponse(a *Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:                       a.ID.String(),
		HomeownerID:              a.HomeownerID.String(),
		HomeAddress:              a.HomeAddress,
		RoomType:                 a.RoomType,
		MobilityConcerns:         a.MobilityConcerns,
		AssessmentDetails:        a.AssessmentDetails,
		BudgetRange:              a.BudgetRange.String,
		ImageURL:                 a.ImageURL.String,
		AIAnalysis:               a.AIAnalysis,
		VisualizationURL:         a.VisualizationURL.String,
		VisualizationDescription: a.VisualizationDescription.String,
		Status:                   a.Status,
		ErrorMessage:             a.ErrorMessage.String,
		CreatedAt:                a.CreatedAt,
		UpdatedAt:                a.UpdatedAt,
	}
}

type ProjectResponse struct {
	ID                  string    `json:"id"`
	HomeownerID         string    `json:"homeowner_id"`
	AssessmentID        string    `json:"ar_assessment_id,omitempty"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	EstimatedCost       string    `json:"estimated_cost,omitempty"`
	BudgetEstimateCents int64     `json:"budget_estimate_cents,omitempty"`
	Status              string    `json:"status"`
	ContractorID        string    `json:"contractor_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func NewProjectResponse(p *Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                  p.ID.String(),
		HomeownerID:         p.HomeownerID.String(),
		Title:               p.Title,
		Description:         p.Description.String,
		EstimatedCost:       p.EstimatedCost.String,
		BudgetEstimateCents: p.BudgetEstimateCents.Int64,
		Status:              p.Status,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.AssessmentID.Valid {
		resp.AssessmentID = p.AssessmentID.UUID.String()
	}
	if p.ContractorID.Valid {
		resp.ContractorID = p.ContractorID.UUID.String()
	}
	return resp
}

type SubmissionResponse struct {
	Assessment AssessmentResponse `json:"assessment"`
	Project    *ProjectResponse   `json:"project,omitempty"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type AssessmentListResponse struct {
	Assessments []AssessmentResponse `json:"assessments"`
}

type LeadResponse struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	LeadCostCents    int64           `json:"lead_cost_cents"`
	PurchasedAt      *time.Time      `json:"purchased_at,omitempty"`
	Project          ProjectResponse `json:"project"`
	RoomType         string          `json:"room_type,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
	VisualizationURL string          `json:"visualization_url,omitempty"`
	// Contact details are only filled in for the purchasing contractor.
	HomeownerEmail string `json:"homeowner_email,omitempty"`
	HomeAddress    string `json:"home_address,omitempty"`
}

func NewLeadResponse(l *LeadListing) LeadResponse {
	resp := LeadResponse{
		ID:               l.Lead.ID.String(),
		Status:           l.Lead.Status,
		LeadCostCents:    l.Lead.LeadCostCents,
		Project:          NewProjectResponse(&l.Project),
		RoomType:         l.RoomType.String,
		ImageURL:         l.ImageURL.String,
		VisualizationURL: l.VisualizationURL.String,
		HomeownerEmail:   l.HomeownerEmail.String,
		HomeAddress:      l.HomeAddress.String,
	}
	if l.Lead.PurchasedAt.Valid {
		t := l.Lead.PurchasedAt.Time
		resp.PurchasedAt = &t
	}
	return resp
}

type LeadListResponse struct {
	Leads []LeadResponse `json:"leads"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type OnboardingResponse struct {
	URL string `json:"url"`
}

type PayoutResponse struct {
	TransferID string `json:"transfer_id"`
	PaymentID  string `json:"payment_id"`
}

type ContractorProfileResponse struct {
	ID              string   `json:"id"`
	CompanyName     string   `json:"company_name,omitempty"`
	LicenseNumber   string   `json:"license_number,omitempty"`
	ServiceAreas    []string `json:"service_areas"`
	Specialties     []string `json:"specialties"`
	Certifications  []string `json:"certifications"`
	PhoneNumber     string   `json:"phone_number,omitempty"`
	IsVerified      bool     `json:"is_verified"`
	StripeConnected bool     `json:"stripe_connected"`
	Rating          float64  `json:"rating,omitempty"`
}

func NewContractorProfileResponse(p *ContractorProfile) ContractorProfileResponse {
	return ContractorProfileResponse{
		ID:              p.ID.String(),
		CompanyName:     p.CompanyName.String,
		LicenseNumber:   p.LicenseNumber.String,
		ServiceAreas:    nonNil(p.ServiceAreas),
		Specialties:     nonNil(p.Specialties),
		Certifications:  nonNil(p.Certifications),
		PhoneNumber:     p.PhoneNumber.String,
		IsVerified:      p.IsVerified,
		StripeConnected: p.StripeAccountID.Valid && p.StripeAccountID.String != "",
		Rating:          p.Rating.Float64,
	}
}

type SessionResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	UserID       string `json:"user_id"`
	Role         string `json:"role,omitempty"`
	Message      string `json:"message,omitempty"`
}

type ARFrameResponse struct {
	Success          bool        `json:"success"`
	Overlays         []AROverlay `json:"overlays,omitempty"`
	Score            *int        `json:"score,omitempty"`
	Summary          string      `json:"summary,omitempty"`
	ADAIssues        []string    `json:"ada_issues,omitempty"`
	Error            string      `json:"error,omitempty"`
	ProcessingTimeMS int64       `json:"processing_time_ms"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
