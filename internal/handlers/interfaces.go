package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
	"homease-backend/internal/services"
	"homease-backend/internal/supabase"
)

// The interfaces below are the slices of the services each handler calls.

type AssessmentAPI interface {
	Submit(ctx context.Context, callerID uuid.UUID, sub *models.AssessmentSubmission) (*services.SubmissionResult, error)
	Get(ctx context.Context, callerID uuid.UUID, role string, assessmentID uuid.UUID) (*models.Assessment, error)
	List(ctx context.Context, homeownerID uuid.UUID) ([]models.Assessment, error)
	Delete(ctx context.Context, callerID uuid.UUID, assessmentID uuid.UUID) error
	Visualize(ctx context.Context, callerID uuid.UUID, assessmentID uuid.UUID, modifications []string) (*models.Assessment, error)
	QuickAnalysis(ctx context.Context, req *services.QuickAnalysisRequest) (*models.RoomAnalysis, error)
	ListProjects(ctx context.Context, homeownerID uuid.UUID) ([]models.Project, error)
	ProjectDetail(ctx context.Context, callerID uuid.UUID, role string, projectID uuid.UUID) (*services.ProjectDetail, error)
}

type LeadAPI interface {
	ListAvailable(ctx context.Context, viewerID uuid.UUID, role string, filter models.LeadFilter) ([]models.LeadListing, error)
	Get(ctx context.Context, viewerID uuid.UUID, role string, leadID uuid.UUID) (*models.LeadListing, error)
	Checkout(ctx context.Context, contractorID, leadID uuid.UUID) (*payments.CheckoutSession, error)
	Dashboard(ctx context.Context, contractorID uuid.UUID) (*services.ContractorDashboard, error)
}

type ContractorAPI interface {
	GetProfile(ctx context.Context, contractorID uuid.UUID) (*models.ContractorProfile, error)
	UpdateProfile(ctx context.Context, contractorID uuid.UUID, req models.ContractorProfileRequest) (*models.ContractorProfile, error)
	StartOnboarding(ctx context.Context, contractorID uuid.UUID) (string, error)
	Payout(ctx context.Context, adminID, projectID, contractorID uuid.UUID, amountCents int64) (*services.PayoutResult, error)
	RecentPayments(ctx context.Context, limit int) ([]models.Payment, error)
}

type WebhookAPI interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
	Handle(ctx context.Context, event stripe.Event) error
}

type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*supabase.Session, *models.Profile, error)
	SignUp(ctx context.Context, req models.SignupRequest) (*services.SignUpResult, error)
	StartOAuth(provider string) (string, string, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*supabase.Session, error)
	VerifyEmail(ctx context.Context, tokenHash, verificationType, redirectTo string) (*supabase.Session, error)
	SignOut(accessToken string)
}

// FrameAnalyzer detects accessibility barriers in live camera frames.
type FrameAnalyzer interface {
	DetectBarriers(ctx context.Context, frame []byte, mimeType, roomLabel string) (*models.FrameDetection, error)
	Segment(ctx context.Context, image []byte, mimeType string) (*models.Segmentation, error)
}
