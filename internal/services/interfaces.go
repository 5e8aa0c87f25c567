package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
	"homease-backend/internal/supabase"
)

// The interfaces below are the slices of the Supabase, Gemini and Stripe
// clients each service depends on.

type AssessmentStore interface {
	CreateAssessment(ctx context.Context, a *models.Assessment) (*models.Assessment, error)
	GetAssessment(ctx context.Context, assessmentID uuid.UUID) (*models.Assessment, error)
	GetAssessmentBySubmissionKey(ctx context.Context, homeownerID uuid.UUID, key string) (*models.Assessment, error)
	ListAssessments(ctx context.Context, homeownerID uuid.UUID) ([]models.Assessment, error)
	SetAssessmentImage(ctx context.Context, assessmentID uuid.UUID, url, path string) error
	SaveAnalysis(ctx context.Context, assessmentID uuid.UUID, analysis json.RawMessage) error
	MarkAnalysisFailed(ctx context.Context, assessmentID uuid.UUID, message string) error
	SetVisualization(ctx context.Context, assessmentID uuid.UUID, url, path, description string) error
	ResolveStuckAssessment(ctx context.Context, assessmentID uuid.UUID, message string) error
	DeleteAssessment(ctx context.Context, assessmentID, homeownerID uuid.UUID) error

	CreateProjectForAssessment(ctx context.Context, p *models.Project, leadCostCents int64) (*models.Project, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	GetProjectByAssessment(ctx context.Context, assessmentID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, homeownerID uuid.UUID) ([]models.Project, error)
	PromoteProjectToVisualized(ctx context.Context, assessmentID uuid.UUID) error
	GetLeadByProject(ctx context.Context, projectID uuid.UUID) (*models.LeadListing, error)
}

type RoomAnalyzer interface {
	AnalyzeRoom(ctx context.Context, image []byte, mimeType, roomType string, concerns []string, opts models.AnalysisOptions) (*models.RoomAnalysis, error)
	GenerateVisualization(ctx context.Context, image []byte, mimeType string, modifications []string) (*models.Visualization, error)
}

type ObjectStore interface {
	Upload(storagePath string, data []byte, contentType string) (string, error)
	Download(storagePath string) ([]byte, error)
	DeleteAssessmentFiles(assessmentID uuid.UUID) error
}

type EventPublisher interface {
	PublishAssessmentEvent(ctx context.Context, assessmentID uuid.UUID, payload map[string]any) error
}

type LeadStore interface {
	ListAvailableLeads(ctx context.Context, f models.LeadFilter) ([]models.LeadListing, error)
	ListContractorLeads(ctx context.Context, contractorID uuid.UUID) ([]models.LeadListing, error)
	GetLead(ctx context.Context, leadID uuid.UUID) (*models.LeadListing, error)
	CountAvailableLeads(ctx context.Context) (int, error)
}

type CheckoutProvider interface {
	CreateLeadCheckout(ctx context.Context, leadID, contractorID uuid.UUID, amountCents int64) (*payments.CheckoutSession, error)
}

type ContractorStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetContractorProfile(ctx context.Context, contractorID uuid.UUID) (*models.ContractorProfile, error)
	UpsertContractorProfile(ctx context.Context, c *models.ContractorProfile) (*models.ContractorProfile, error)
	SetStripeAccountID(ctx context.Context, contractorID uuid.UUID, accountID string) error
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error)
	ListRecentPayments(ctx context.Context, limit int) ([]models.Payment, error)
}

type ConnectProvider interface {
	CreateConnectAccount(ctx context.Context, contractorID uuid.UUID, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID string) (string, error)
	CreateTransfer(ctx context.Context, projectID, contractorID uuid.UUID, accountID string, amountCents int64) (string, error)
}

type WebhookStore interface {
	RecordLeadPurchase(ctx context.Context, p models.LeadPurchase) (bool, error)
	ApplyAccountUpdate(ctx context.Context, eventID, eventType, accountID string, verified bool) (bool, error)
	ApplyTransferStatus(ctx context.Context, eventID, eventType, transferID, status string) (bool, error)
}

type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

type AuthProvider interface {
	SignIn(email, password string) (*supabase.Session, error)
	SignUp(email, password string, metadata map[string]any) (uuid.UUID, *supabase.Session, error)
	ExchangeCode(code, verifier string) (*supabase.Session, error)
	AuthorizeURL(provider string) (string, string, error)
	VerifyEmail(tokenHash, verificationType, redirectTo string) (*supabase.Session, error)
	Refresh(refreshToken string) (*supabase.Session, error)
	SignOut(accessToken string) error
	DeleteUser(userID uuid.UUID) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	CreateProfileWithRole(ctx context.Context, userID uuid.UUID, email, fullName, role string) error
}
