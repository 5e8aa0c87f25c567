package handlers_test

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"homease-backend/internal/config"
	"homease-backend/internal/handlers"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
	"homease-backend/internal/services"
	"homease-backend/internal/supabase"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := handlers.RegisterValidators(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		SupabaseJWTSecret:    "test-secret",
		GeminiAnalysisModel:  "gemini-2.5-flash",
		GeminiImageModel:     "gemini-2.5-flash-image",
		ARMaxFramesPerSecond: 2,
		Environment:          "test",
		BaseURL:              "https://homease.test",
	}
}

// asUser plays the part of the auth middleware.
func asUser(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID.String())
		if role != "" {
			c.Set(middleware.RoleKey, role)
		}
		c.Next()
	}
}

type fakeAssessments struct {
	submitResult *services.SubmissionResult
	submitErr    error
	submitted    *models.AssessmentSubmission
	assessment   *models.Assessment
	getErr       error
	projects     []models.Project
	detail       *services.ProjectDetail
	detailErr    error
	deleted      []uuid.UUID
	quick        *services.QuickAnalysisRequest
}

func (f *fakeAssessments) Submit(_ context.Context, _ uuid.UUID, sub *models.AssessmentSubmission) (*services.SubmissionResult, error) {
	f.submitted = sub
	return f.submitResult, f.submitErr
}

func (f *fakeAssessments) Get(_ context.Context, _ uuid.UUID, _ string, _ uuid.UUID) (*models.Assessment, error) {
	return f.assessment, f.getErr
}

func (f *fakeAssessments) List(_ context.Context, _ uuid.UUID) ([]models.Assessment, error) {
	if f.assessment == nil {
		return nil, nil
	}
	return []models.Assessment{*f.assessment}, nil
}

func (f *fakeAssessments) Delete(_ context.Context, _ uuid.UUID, assessmentID uuid.UUID) error {
	if f.getErr != nil {
		return f.getErr
	}
	f.deleted = append(f.deleted, assessmentID)
	return nil
}

func (f *fakeAssessments) Visualize(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ []string) (*models.Assessment, error) {
	return f.assessment, f.getErr
}

func (f *fakeAssessments) QuickAnalysis(_ context.Context, req *services.QuickAnalysisRequest) (*models.RoomAnalysis, error) {
	f.quick = req
	return &models.RoomAnalysis{}, nil
}

func (f *fakeAssessments) ListProjects(_ context.Context, _ uuid.UUID) ([]models.Project, error) {
	return f.projects, nil
}

func (f *fakeAssessments) ProjectDetail(_ context.Context, _ uuid.UUID, _ string, _ uuid.UUID) (*services.ProjectDetail, error) {
	return f.detail, f.detailErr
}

type fakeLeads struct {
	listings    []models.LeadListing
	filter      models.LeadFilter
	checkout    *payments.CheckoutSession
	checkoutErr error
	dashboard   *services.ContractorDashboard
}

func (f *fakeLeads) ListAvailable(_ context.Context, _ uuid.UUID, _ string, filter models.LeadFilter) ([]models.LeadListing, error) {
	f.filter = filter
	return f.listings, nil
}

func (f *fakeLeads) Get(_ context.Context, _ uuid.UUID, _ string, leadID uuid.UUID) (*models.LeadListing, error) {
	for i := range f.listings {
		if f.listings[i].Lead.ID == leadID {
			return &f.listings[i], nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeLeads) Checkout(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*payments.CheckoutSession, error) {
	return f.checkout, f.checkoutErr
}

func (f *fakeLeads) Dashboard(_ context.Context, _ uuid.UUID) (*services.ContractorDashboard, error) {
	if f.dashboard == nil {
		return &services.ContractorDashboard{}, nil
	}
	return f.dashboard, nil
}

type fakeContractors struct {
	profile   *models.ContractorProfile
	updated   *models.ContractorProfileRequest
	payoutErr error
	payouts   int
	payments  []models.Payment
}

func (f *fakeContractors) GetProfile(_ context.Context, contractorID uuid.UUID) (*models.ContractorProfile, error) {
	if f.profile == nil {
		return &models.ContractorProfile{ID: contractorID}, nil
	}
	return f.profile, nil
}

func (f *fakeContractors) UpdateProfile(_ context.Context, contractorID uuid.UUID, req models.ContractorProfileRequest) (*models.ContractorProfile, error) {
	f.updated = &req
	return &models.ContractorProfile{ID: contractorID}, nil
}

func (f *fakeContractors) StartOnboarding(_ context.Context, _ uuid.UUID) (string, error) {
	return "https://connect.stripe.test/onboarding", nil
}

func (f *fakeContractors) Payout(_ context.Context, _, _, _ uuid.UUID, _ int64) (*services.PayoutResult, error) {
	if f.payoutErr != nil {
		return nil, f.payoutErr
	}
	f.payouts++
	return &services.PayoutResult{TransferID: "tr_1", Payment: &models.Payment{ID: uuid.New()}}, nil
}

func (f *fakeContractors) RecentPayments(_ context.Context, _ int) ([]models.Payment, error) {
	return f.payments, nil
}

type fakeWebhooks struct {
	handleErr error
	handled   []string
}

var errBadSignature = errors.New("signature mismatch")

func (f *fakeWebhooks) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if signature != "valid" {
		return stripe.Event{}, errBadSignature
	}
	return stripe.Event{ID: "evt_1", Type: stripe.EventType(string(payload))}, nil
}

func (f *fakeWebhooks) Handle(_ context.Context, event stripe.Event) error {
	f.handled = append(f.handled, string(event.Type))
	return f.handleErr
}

type fakeAuth struct {
	session   *supabase.Session
	profile   *models.Profile
	signInErr error
	signUp    *services.SignUpResult
	signUpErr error
	signedOut []string

	verifyRedirect string
}

func (f *fakeAuth) SignIn(_ context.Context, _, _ string) (*supabase.Session, *models.Profile, error) {
	return f.session, f.profile, f.signInErr
}

func (f *fakeAuth) SignUp(_ context.Context, _ models.SignupRequest) (*services.SignUpResult, error) {
	return f.signUp, f.signUpErr
}

const fakeVerifier = "pkce-verifier"

func (f *fakeAuth) StartOAuth(provider string) (string, string, error) {
	if provider != "google" {
		return "", "", services.ErrValidation
	}
	return "https://auth.test/authorize?provider=google", fakeVerifier, nil
}

func (f *fakeAuth) ExchangeCode(_ context.Context, code, verifier string) (*supabase.Session, error) {
	if code != "good" || verifier != fakeVerifier {
		return nil, errors.New("invalid code")
	}
	return f.session, nil
}

func (f *fakeAuth) VerifyEmail(_ context.Context, tokenHash, verificationType, redirectTo string) (*supabase.Session, error) {
	f.verifyRedirect = redirectTo
	if tokenHash != "hash" || verificationType != "signup" {
		return nil, errors.New("link expired")
	}
	return f.session, nil
}

func (f *fakeAuth) SignOut(accessToken string) {
	f.signedOut = append(f.signedOut, accessToken)
}

type fakeFrames struct {
	detection *models.FrameDetection
	err       error
	roomLabel string
	mimeType  string
}

func (f *fakeFrames) DetectBarriers(_ context.Context, _ []byte, mimeType, roomLabel string) (*models.FrameDetection, error) {
	f.mimeType = mimeType
	f.roomLabel = roomLabel
	return f.detection, f.err
}

func (f *fakeFrames) Segment(_ context.Context, _ []byte, _ string) (*models.Segmentation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Segmentation{Segments: []models.SegmentationMask{{Label: "doorway", Box2D: []int{0, 0, 500, 500}}}}, nil
}
