package services_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
	"homease-backend/internal/supabase"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		img.Set(x, x%48, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeStore is an in-memory stand-in for the Supabase database client.
type fakeStore struct {
	assessments map[uuid.UUID]*models.Assessment
	projects    map[uuid.UUID]*models.Project
	leads       map[uuid.UUID]*models.LeadListing
	profiles    map[uuid.UUID]*models.Profile
	contractors map[uuid.UUID]*models.ContractorProfile
	payments    []*models.Payment
	events      map[string]bool

	leadPrices []int64

	saveAnalysisErr   error
	markFailedErr     error
	createProfileErr  error
	createPaymentErr  error
	recordPurchaseErr error

	afterCreate func()

	purchases       []models.LeadPurchase
	accountUpdates  []string
	transferUpdates map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assessments:     map[uuid.UUID]*models.Assessment{},
		projects:        map[uuid.UUID]*models.Project{},
		leads:           map[uuid.UUID]*models.LeadListing{},
		profiles:        map[uuid.UUID]*models.Profile{},
		contractors:     map[uuid.UUID]*models.ContractorProfile{},
		events:          map[string]bool{},
		transferUpdates: map[string]string{},
	}
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, supabase.ErrNotFound)
}

func (f *fakeStore) CreateAssessment(_ context.Context, a *models.Assessment) (*models.Assessment, error) {
	if a.SubmissionKey.Valid {
		for _, existing := range f.assessments {
			if existing.HomeownerID == a.HomeownerID && existing.SubmissionKey == a.SubmissionKey {
				return nil, supabase.ErrDuplicate
			}
		}
	}
	out := *a
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	f.assessments[out.ID] = &out
	if f.afterCreate != nil {
		f.afterCreate()
	}
	cp := out
	return &cp, nil
}

func (f *fakeStore) GetAssessment(_ context.Context, id uuid.UUID) (*models.Assessment, error) {
	a, ok := f.assessments[id]
	if !ok {
		return nil, notFound("assessment")
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) GetAssessmentBySubmissionKey(_ context.Context, homeownerID uuid.UUID, key string) (*models.Assessment, error) {
	for _, a := range f.assessments {
		if a.HomeownerID == homeownerID && a.SubmissionKey.String == key {
			cp := *a
			return &cp, nil
		}
	}
	return nil, notFound("assessment")
}

func (f *fakeStore) ListAssessments(_ context.Context, homeownerID uuid.UUID) ([]models.Assessment, error) {
	var out []models.Assessment
	for _, a := range f.assessments {
		if a.HomeownerID == homeownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) SetAssessmentImage(_ context.Context, id uuid.UUID, url, path string) error {
	f.assessments[id].ImageURL = sql.NullString{String: url, Valid: true}
	f.assessments[id].ImagePath = sql.NullString{String: path, Valid: true}
	return nil
}

func (f *fakeStore) SaveAnalysis(_ context.Context, id uuid.UUID, analysis json.RawMessage) error {
	if f.saveAnalysisErr != nil {
		return f.saveAnalysisErr
	}
	f.assessments[id].AIAnalysis = analysis
	f.assessments[id].Status = models.AssessmentAnalyzed
	return nil
}

func (f *fakeStore) MarkAnalysisFailed(_ context.Context, id uuid.UUID, message string) error {
	if f.markFailedErr != nil {
		return f.markFailedErr
	}
	payload, _ := json.Marshal(map[string]string{"error": message})
	f.assessments[id].AIAnalysis = payload
	f.assessments[id].Status = models.AssessmentPending
	f.assessments[id].ErrorMessage = sql.NullString{String: message, Valid: true}
	return nil
}

func (f *fakeStore) SetVisualization(_ context.Context, id uuid.UUID, url, path, description string) error {
	a := f.assessments[id]
	a.VisualizationURL = sql.NullString{String: url, Valid: true}
	a.VisualizationPath = sql.NullString{String: path, Valid: true}
	a.VisualizationDescription = sql.NullString{String: description, Valid: description != ""}
	a.Status = models.AssessmentVisualized
	return nil
}

func (f *fakeStore) ResolveStuckAssessment(_ context.Context, id uuid.UUID, message string) error {
	if a := f.assessments[id]; a.Status == models.AssessmentAnalyzing {
		a.Status = models.AssessmentPending
		a.ErrorMessage = sql.NullString{String: message, Valid: true}
	}
	return nil
}

func (f *fakeStore) DeleteAssessment(_ context.Context, id, homeownerID uuid.UUID) error {
	a, ok := f.assessments[id]
	if !ok || a.HomeownerID != homeownerID {
		return notFound("assessment")
	}
	delete(f.assessments, id)
	return nil
}

func (f *fakeStore) CreateProjectForAssessment(ctx context.Context, p *models.Project, leadCostCents int64) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, existing := range f.projects {
		if existing.AssessmentID == p.AssessmentID {
			cp := *existing
			return &cp, nil
		}
	}
	out := *p
	out.ID = uuid.New()
	f.projects[out.ID] = &out
	if out.IsPublished() {
		f.leadPrices = append(f.leadPrices, leadCostCents)
		leadID := uuid.New()
		f.leads[leadID] = &models.LeadListing{
			Lead:    models.ProjectLead{ID: leadID, ProjectID: out.ID, Status: models.LeadAvailable, LeadCostCents: leadCostCents},
			Project: out,
		}
	}
	cp := out
	return &cp, nil
}

func (f *fakeStore) GetProject(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, notFound("project")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProjectByAssessment(_ context.Context, assessmentID uuid.UUID) (*models.Project, error) {
	for _, p := range f.projects {
		if p.AssessmentID.Valid && p.AssessmentID.UUID == assessmentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, notFound("project")
}

func (f *fakeStore) ListProjects(_ context.Context, homeownerID uuid.UUID) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		if p.HomeownerID == homeownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) PromoteProjectToVisualized(_ context.Context, assessmentID uuid.UUID) error {
	for _, p := range f.projects {
		if p.AssessmentID.UUID == assessmentID && p.Status == models.ProjectOpen {
			p.Status = models.ProjectVisualized
		}
	}
	return nil
}

func (f *fakeStore) GetLeadByProject(_ context.Context, projectID uuid.UUID) (*models.LeadListing, error) {
	for _, l := range f.leads {
		if l.Lead.ProjectID == projectID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, notFound("lead")
}

func (f *fakeStore) ListAvailableLeads(_ context.Context, _ models.LeadFilter) ([]models.LeadListing, error) {
	var out []models.LeadListing
	for _, l := range f.leads {
		if l.Lead.Status == models.LeadAvailable {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListContractorLeads(_ context.Context, contractorID uuid.UUID) ([]models.LeadListing, error) {
	var out []models.LeadListing
	for _, l := range f.leads {
		if l.Lead.ContractorID.UUID == contractorID && l.Lead.Status == models.LeadPurchased {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLead(_ context.Context, id uuid.UUID) (*models.LeadListing, error) {
	l, ok := f.leads[id]
	if !ok {
		return nil, notFound("lead")
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) CountAvailableLeads(ctx context.Context) (int, error) {
	leads, _ := f.ListAvailableLeads(ctx, models.LeadFilter{})
	return len(leads), nil
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, notFound("profile")
	}
	return p, nil
}

func (f *fakeStore) CreateProfileWithRole(_ context.Context, id uuid.UUID, email, fullName, role string) error {
	if f.createProfileErr != nil {
		return f.createProfileErr
	}
	f.profiles[id] = &models.Profile{ID: id, Email: email, Role: role, FullName: sql.NullString{String: fullName, Valid: fullName != ""}}
	return nil
}

func (f *fakeStore) GetContractorProfile(_ context.Context, id uuid.UUID) (*models.ContractorProfile, error) {
	c, ok := f.contractors[id]
	if !ok {
		return nil, notFound("contractor profile")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) UpsertContractorProfile(_ context.Context, c *models.ContractorProfile) (*models.ContractorProfile, error) {
	existing, ok := f.contractors[c.ID]
	out := *c
	if ok {
		out.StripeAccountID = existing.StripeAccountID
		out.IsVerified = existing.IsVerified
	}
	f.contractors[c.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeStore) SetStripeAccountID(_ context.Context, id uuid.UUID, accountID string) error {
	c, ok := f.contractors[id]
	if !ok {
		c = &models.ContractorProfile{ID: id}
		f.contractors[id] = c
	}
	c.StripeAccountID = sql.NullString{String: accountID, Valid: true}
	return nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) (*models.Payment, error) {
	if f.createPaymentErr != nil {
		return nil, f.createPaymentErr
	}
	out := *p
	out.ID = uuid.New()
	f.payments = append(f.payments, &out)
	return &out, nil
}

func (f *fakeStore) ListRecentPayments(_ context.Context, limit int) ([]models.Payment, error) {
	var out []models.Payment
	for i := len(f.payments) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.payments[i])
	}
	return out, nil
}

func (f *fakeStore) claim(eventID string) bool {
	if f.events[eventID] {
		return false
	}
	f.events[eventID] = true
	return true
}

func (f *fakeStore) RecordLeadPurchase(_ context.Context, p models.LeadPurchase) (bool, error) {
	if f.recordPurchaseErr != nil {
		return false, f.recordPurchaseErr
	}
	if !f.claim(p.EventID) {
		return false, nil
	}
	lead, ok := f.leads[p.LeadID]
	if !ok {
		delete(f.events, p.EventID)
		return false, notFound("lead")
	}
	status := models.PaymentSucceeded
	var conflict error
	if lead.Lead.Status == models.LeadPurchased && lead.Lead.ContractorID.UUID != p.ContractorID {
		status = models.PaymentRefundDue
		conflict = supabase.ErrLeadConflict
	} else {
		lead.Lead.Status = models.LeadPurchased
		lead.Lead.ContractorID = uuid.NullUUID{UUID: p.ContractorID, Valid: true}
		f.purchases = append(f.purchases, p)
	}
	f.payments = append(f.payments, &models.Payment{
		ID:             uuid.New(),
		ProjectID:      uuid.NullUUID{UUID: lead.Lead.ProjectID, Valid: true},
		PayerID:        uuid.NullUUID{UUID: p.ContractorID, Valid: true},
		AmountCents:    p.AmountCents,
		Currency:       p.Currency,
		StripeChargeID: sql.NullString{String: p.PaymentIntentID, Valid: true},
		Status:         status,
		PaymentType:    models.PaymentTypeLeadPurchase,
	})
	return true, conflict
}

func (f *fakeStore) ApplyAccountUpdate(_ context.Context, eventID, _ string, accountID string, _ bool) (bool, error) {
	if !f.claim(eventID) {
		return false, nil
	}
	f.accountUpdates = append(f.accountUpdates, accountID)
	return true, nil
}

func (f *fakeStore) ApplyTransferStatus(_ context.Context, eventID, _ string, transferID, status string) (bool, error) {
	if !f.claim(eventID) {
		return false, nil
	}
	f.transferUpdates[transferID] = status
	return true, nil
}

func (f *fakeStore) mutations() int {
	return len(f.events) + len(f.purchases) + len(f.payments)
}

// fakeAI stands in for the Gemini client.
type fakeAI struct {
	analysis     *models.RoomAnalysis
	analyzeErr   error
	vizErr       error
	analyzeCalls int
	vizCalls     int
	vizMods      []string
}

func (f *fakeAI) AnalyzeRoom(ctx context.Context, _ []byte, _ string, roomType string, _ []string, _ models.AnalysisOptions) (*models.RoomAnalysis, error) {
	f.analyzeCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	out := *f.analysis
	if out.RoomType == "" {
		out.RoomType = roomType
	}
	return &out, nil
}

func (f *fakeAI) GenerateVisualization(_ context.Context, _ []byte, _ string, modifications []string) (*models.Visualization, error) {
	f.vizCalls++
	f.vizMods = modifications
	if f.vizErr != nil {
		return nil, f.vizErr
	}
	return &models.Visualization{Image: []byte{0xFF, 0xD8, 0xFF}, MIMEType: "image/jpeg", Description: "after"}, nil
}

// fakeObjects stands in for the storage bucket.
type fakeObjects struct {
	objects   map[string][]byte
	uploadErr error
	deleted   []uuid.UUID
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Upload(path string, data []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[path] = data
	return "https://storage.test/" + path, nil
}

func (f *fakeObjects) Download(path string) ([]byte, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeObjects) DeleteAssessmentFiles(id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	for path := range f.objects {
		if strings.Contains(path, id.String()) {
			delete(f.objects, path)
		}
	}
	return nil
}

type fakePublisher struct {
	statuses []string
}

func (f *fakePublisher) PublishAssessmentEvent(_ context.Context, _ uuid.UUID, payload map[string]any) error {
	if s, ok := payload["status"].(string); ok {
		f.statuses = append(f.statuses, s)
	}
	return nil
}

// fakeStripe implements the checkout, Connect and webhook verifier slices.
type fakeStripe struct {
	checkoutCalls  int
	checkoutAmount int64
	accounts       int
	transfers      []string
	transferErr    error
	event          stripe.Event
	verifyErr      error
}

func (f *fakeStripe) CreateLeadCheckout(_ context.Context, leadID, _ uuid.UUID, amountCents int64) (*payments.CheckoutSession, error) {
	f.checkoutCalls++
	f.checkoutAmount = amountCents
	return &payments.CheckoutSession{ID: "cs_" + leadID.String()[:8], URL: "https://checkout.stripe.test/session"}, nil
}

func (f *fakeStripe) CreateConnectAccount(_ context.Context, _ uuid.UUID, _ string) (string, error) {
	f.accounts++
	return fmt.Sprintf("acct_%d", f.accounts), nil
}

func (f *fakeStripe) CreateOnboardingLink(_ context.Context, accountID string) (string, error) {
	return "https://connect.stripe.test/" + accountID, nil
}

func (f *fakeStripe) CreateTransfer(_ context.Context, _, _ uuid.UUID, accountID string, _ int64) (string, error) {
	if f.transferErr != nil {
		return "", f.transferErr
	}
	id := fmt.Sprintf("tr_%d", len(f.transfers)+1)
	f.transfers = append(f.transfers, accountID)
	return id, nil
}

func (f *fakeStripe) ConstructEvent(_ []byte, _ string) (stripe.Event, error) {
	return f.event, f.verifyErr
}

// fakeAuth stands in for the hosted auth API.
type fakeAuth struct {
	userID    uuid.UUID
	signUpErr error
	deleted   []uuid.UUID
	signedOut []string
}

func (f *fakeAuth) SignIn(email, _ string) (*supabase.Session, error) {
	return &supabase.Session{AccessToken: "access", UserID: f.userID, Email: email}, nil
}

func (f *fakeAuth) SignUp(_, _ string, _ map[string]any) (uuid.UUID, *supabase.Session, error) {
	if f.signUpErr != nil {
		return uuid.Nil, nil, f.signUpErr
	}
	return f.userID, nil, nil
}

func (f *fakeAuth) ExchangeCode(_, _ string) (*supabase.Session, error) {
	return &supabase.Session{AccessToken: "access", UserID: f.userID, Email: "oauth@example.com"}, nil
}

func (f *fakeAuth) AuthorizeURL(provider string) (string, string, error) {
	if provider != "google" {
		return "", "", supabase.ErrUnknownProvider
	}
	return "https://auth.test/authorize?provider=google", "verifier-1", nil
}

func (f *fakeAuth) VerifyEmail(tokenHash, _, _ string) (*supabase.Session, error) {
	if tokenHash != "hash" {
		return nil, errors.New("link expired")
	}
	return &supabase.Session{AccessToken: "access", UserID: f.userID}, nil
}

func (f *fakeAuth) Refresh(refreshToken string) (*supabase.Session, error) {
	return &supabase.Session{AccessToken: "access-" + refreshToken, RefreshToken: "next", UserID: f.userID}, nil
}

func (f *fakeAuth) SignOut(token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func (f *fakeAuth) DeleteUser(id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}
