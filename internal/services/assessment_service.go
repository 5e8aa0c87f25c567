package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/metrics"
	"homease-backend/internal/models"
	"homease-backend/internal/photo"
	"homease-backend/internal/supabase"
)

const stuckMessage = "Assessment processing did not complete"

// AssessmentService runs the homeowner assessment pipeline: store the photo,
// analyze it, visualize the top modifications and publish a project.
type AssessmentService struct {
	store          AssessmentStore
	ai             RoomAnalyzer
	media          *StorageService
	events         EventPublisher
	validate       *validator.Validate
	leadPriceCents int64
	visualizeTopN  int
	logger         *zap.Logger
}

type AssessmentOptions struct {
	LeadPriceCents int64
	VisualizeTopN  int
}

func NewAssessmentService(
	store AssessmentStore,
	ai RoomAnalyzer,
	media *StorageService,
	events EventPublisher,
	validate *validator.Validate,
	opts AssessmentOptions,
	logger *zap.Logger,
) *AssessmentService {
	return &AssessmentService{
		store:          store,
		ai:             ai,
		media:          media,
		events:         events,
		validate:       validate,
		leadPriceCents: opts.LeadPriceCents,
		visualizeTopN:  opts.VisualizeTopN,
		logger:         logger.Named("assessments"),
	}
}

type SubmissionResult struct {
	Assessment *models.Assessment
	Project    *models.Project
	// Replayed is set when the submission key matched an earlier submission.
	Replayed bool
}

// Submit runs the full pipeline for one submission. Only validation,
// authorization and the final project write are reported as errors; every
// other failure is recorded on the assessment row.
func (s *AssessmentService) Submit(ctx context.Context, callerID uuid.UUID, sub *models.AssessmentSubmission) (*SubmissionResult, error) {
	if err := s.validate.Struct(sub); err != nil {
		return nil, newValidationError(err)
	}
	homeownerID, err := uuid.Parse(sub.HomeownerID)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"HomeownerID": "uuid"}}
	}
	if homeownerID != callerID {
		return nil, ErrForbidden
	}

	if sub.SubmissionKey != "" {
		existing, err := s.store.GetAssessmentBySubmissionKey(ctx, homeownerID, sub.SubmissionKey)
		if err == nil {
			return s.replay(ctx, existing)
		}
		if !errors.Is(err, supabase.ErrNotFound) {
			return nil, err
		}
	}

	concerns := sub.MobilityConcerns
	if len(concerns) == 0 {
		concerns = []string{models.DefaultMobilityConcern}
	}

	hasImage := len(sub.Image) > 0
	status := models.AssessmentPending
	if hasImage {
		status = models.AssessmentAnalyzing
	}

	assessment, err := s.store.CreateAssessment(ctx, &models.Assessment{
		HomeownerID:       homeownerID,
		HomeAddress:       sub.HomeAddress,
		RoomType:          sub.RoomType,
		MobilityConcerns:  concerns,
		AssessmentDetails: sub.AssessmentDetails,
		BudgetRange:       nullString(sub.BudgetRange),
		Status:            status,
		SubmissionKey:     nullString(sub.SubmissionKey),
	})
	if errors.Is(err, supabase.ErrDuplicate) {
		existing, err := s.store.GetAssessmentBySubmissionKey(ctx, homeownerID, sub.SubmissionKey)
		if err != nil {
			return nil, err
		}
		return s.replay(ctx, existing)
	}
	if err != nil {
		return nil, err
	}

	// The row exists now; finish the pipeline even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("assessment_id", assessment.ID.String()))
	s.publish(ctx, assessment.ID, supabase.AssessmentStatusPayload(assessment.ID, assessment.Status))

	var analysis *models.RoomAnalysis
	if hasImage {
		analysis = s.process(ctx, assessment, sub, concerns, log)
	}

	project, err := s.createProject(ctx, assessment, analysis)
	if err != nil {
		return nil, err
	}

	metrics.AssessmentCompleted(assessment.Status)
	log.Info("assessment submitted",
		zap.String("status", assessment.Status),
		zap.String("project_id", project.ID.String()),
		zap.String("project_status", project.Status),
	)
	return &SubmissionResult{Assessment: assessment, Project: project}, nil
}

// process runs the image steps and keeps assessment.Status in sync with the
// row. It never leaves the row analyzing.
func (s *AssessmentService) process(ctx context.Context, a *models.Assessment, sub *models.AssessmentSubmission, concerns []string, log *zap.Logger) *models.RoomAnalysis {
	defer func() {
		if a.Status != models.AssessmentAnalyzing {
			return
		}
		if err := s.store.ResolveStuckAssessment(context.WithoutCancel(ctx), a.ID, stuckMessage); err != nil {
			log.Error("failed to resolve stuck assessment", zap.Error(err))
			return
		}
		a.Status = models.AssessmentPending
		a.ErrorMessage = nullString(stuckMessage)
	}()

	img, err := photo.Normalize(sub.Image, sub.ImageMIMEType)
	if err != nil {
		log.Warn("failed to normalize image, using original bytes", zap.Error(err))
		img = photo.Raw(sub.Image, sub.ImageMIMEType)
	}

	if url, path, err := s.media.StoreOriginal(a.ID, img); err != nil {
		log.Warn("failed to upload original image", zap.Error(err))
	} else if err := s.store.SetAssessmentImage(ctx, a.ID, url, path); err != nil {
		log.Warn("failed to record image url", zap.Error(err))
	} else {
		a.ImageURL = nullString(url)
		a.ImagePath = nullString(path)
	}

	start := time.Now()
	analysis, err := s.ai.AnalyzeRoom(ctx, img.Data, img.MIMEType, models.RoomLabel(a.RoomType), concerns, models.AnalysisOptions{
		HomeownerAge:      sub.HomeownerAge,
		BudgetRange:       sub.BudgetRange,
		AdditionalContext: sub.AssessmentDetails,
	})
	metrics.ObserveModelCall("analyze", start, err)
	if err != nil {
		log.Error("room analysis failed", zap.Error(err))
		s.markFailed(ctx, a, err.Error(), log)
		return nil
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		s.markFailed(ctx, a, err.Error(), log)
		return nil
	}
	if err := s.store.SaveAnalysis(ctx, a.ID, raw); err != nil {
		log.Error("failed to save analysis", zap.Error(err))
		return nil
	}
	a.AIAnalysis = raw
	a.Status = models.AssessmentAnalyzed
	s.publish(ctx, a.ID, supabase.AssessmentStatusPayload(a.ID, a.Status))

	names := analysis.TopModificationNames(s.visualizeTopN)
	if len(names) == 0 {
		return analysis
	}
	if err := s.visualize(ctx, a, img, names); err != nil {
		log.Warn("visualization failed, keeping analysis only", zap.Error(err))
	}
	return analysis
}

func (s *AssessmentService) markFailed(ctx context.Context, a *models.Assessment, message string, log *zap.Logger) {
	if err := s.store.MarkAnalysisFailed(ctx, a.ID, message); err != nil {
		log.Error("failed to record analysis failure", zap.Error(err))
		return
	}
	a.Status = models.AssessmentPending
	a.ErrorMessage = nullString(message)
	s.publish(ctx, a.ID, supabase.AssessmentFailedPayload(a.ID, message))
}

// visualize generates, stores and records the "after" image.
func (s *AssessmentService) visualize(ctx context.Context, a *models.Assessment, img *photo.Photo, modifications []string) error {
	start := time.Now()
	viz, err := s.ai.GenerateVisualization(ctx, img.Data, img.MIMEType, modifications)
	metrics.ObserveModelCall("visualize", start, err)
	if err != nil {
		return err
	}

	url, path, err := s.media.StoreVisualization(a.ID, viz)
	if err != nil {
		return err
	}
	if err := s.store.SetVisualization(ctx, a.ID, url, path, viz.Description); err != nil {
		return err
	}

	a.VisualizationURL = nullString(url)
	a.VisualizationPath = nullString(path)
	a.VisualizationDescription = nullString(viz.Description)
	a.Status = models.AssessmentVisualized
	s.publish(ctx, a.ID, supabase.VisualizationReadyPayload(a.ID, url))
	return nil
}

func (s *AssessmentService) createProject(ctx context.Context, a *models.Assessment, analysis *models.RoomAnalysis) (*models.Project, error) {
	project, err := s.store.CreateProjectForAssessment(ctx, BuildProject(a, analysis), s.leadPriceCents)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.publish(ctx, a.ID, supabase.ProjectCreatedPayload(a.ID, project.ID, project.Status))
	return project, nil
}

// replay returns an earlier submission, creating its project if the earlier
// run stopped before that step.
func (s *AssessmentService) replay(ctx context.Context, a *models.Assessment) (*SubmissionResult, error) {
	project, err := s.store.GetProjectByAssessment(ctx, a.ID)
	if errors.Is(err, supabase.ErrNotFound) {
		project, err = s.createProject(ctx, a, a.Analysis())
	}
	if err != nil {
		return nil, err
	}
	return &SubmissionResult{Assessment: a, Project: project, Replayed: true}, nil
}

func (s *AssessmentService) publish(ctx context.Context, assessmentID uuid.UUID, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAssessmentEvent(ctx, assessmentID, payload); err != nil {
		s.logger.Debug("realtime publish failed",
			zap.String("assessment_id", assessmentID.String()),
			zap.Error(err),
		)
	}
}

// BuildProject derives the project row for an assessment. Without an
// analysis the project is a draft; with one it is published.
func BuildProject(a *models.Assessment, analysis *models.RoomAnalysis) *models.Project {
	p := &models.Project{
		HomeownerID:  a.HomeownerID,
		AssessmentID: uuid.NullUUID{UUID: a.ID, Valid: true},
		Title:        fmt.Sprintf("%s accessibility modifications", models.RoomLabel(a.RoomType)),
		Description:  nullString(a.AssessmentDetails),
		Status:       models.ProjectDraft,
	}

	if cents, ok := BudgetBracketCents(a.BudgetRange.String); ok {
		p.BudgetEstimateCents = sql.NullInt64{Int64: cents, Valid: true}
	}

	if analysis == nil {
		return p
	}

	if analysis.Summary != "" {
		p.Description = nullString(analysis.Summary)
	}
	if analysis.EstimatedTotalCost != "" {
		p.EstimatedCost = nullString(analysis.EstimatedTotalCost)
		if cents, ok := CostUpperBoundCents(analysis.EstimatedTotalCost); ok {
			p.BudgetEstimateCents = sql.NullInt64{Int64: cents, Valid: true}
		}
	}

	p.Status = models.ProjectOpen
	if a.Status == models.AssessmentVisualized {
		p.Status = models.ProjectVisualized
	}
	return p
}

var amountPattern = regexp.MustCompile(`\$?\s*(\d[\d,]*(?:\.\d+)?)\s*([kK])?`)

// CostUpperBoundCents parses the upper end of a range like "$2,000-$5,000"
// or "$2k - $5k".
func CostUpperBoundCents(costRange string) (int64, bool) {
	matches := amountPattern.FindAllStringSubmatch(costRange, -1)
	if len(matches) == 0 {
		return 0, false
	}
	last := matches[len(matches)-1]
	value, err := strconv.ParseFloat(strings.ReplaceAll(last[1], ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	if last[2] != "" {
		value *= 1000
	}
	return int64(value*100 + 0.5), true
}

var budgetBracketCents = map[string]int64{
	"under_1000":  100000,
	"1000_5000":   500000,
	"5000_15000":  1500000,
	"15000_50000": 5000000,
	"over_50000":  5000000,
}

// BudgetBracketCents maps a budget bracket to its upper bound. The open
// bracket maps to its lower bound.
func BudgetBracketCents(bracket string) (int64, bool) {
	cents, ok := budgetBracketCents[bracket]
	return cents, ok
}

// Get returns an assessment visible to the caller.
func (s *AssessmentService) Get(ctx context.Context, callerID uuid.UUID, role string, assessmentID uuid.UUID) (*models.Assessment, error) {
	a, err := s.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, storeErr(err)
	}
	if a.HomeownerID == callerID || role == models.RoleAdmin {
		return a, nil
	}
	if role != models.RoleContractor {
		return nil, ErrForbidden
	}
	project, err := s.store.GetProjectByAssessment(ctx, a.ID)
	if errors.Is(err, supabase.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if err := s.requirePurchaser(ctx, project.ID, callerID); err != nil {
		return nil, err
	}
	return a, nil
}

// requirePurchaser allows a contractor that bought the project's lead.
func (s *AssessmentService) requirePurchaser(ctx context.Context, projectID, contractorID uuid.UUID) error {
	lead, err := s.store.GetLeadByProject(ctx, projectID)
	if errors.Is(err, supabase.ErrNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if lead.Lead.Status != models.LeadPurchased || !lead.Lead.ContractorID.Valid || lead.Lead.ContractorID.UUID != contractorID {
		return ErrForbidden
	}
	return nil
}

func (s *AssessmentService) List(ctx context.Context, homeownerID uuid.UUID) ([]models.Assessment, error) {
	return s.store.ListAssessments(ctx, homeownerID)
}

func (s *AssessmentService) ListProjects(ctx context.Context, homeownerID uuid.UUID) ([]models.Project, error) {
	return s.store.ListProjects(ctx, homeownerID)
}

// ProjectDetail is everything the project page shows.
type ProjectDetail struct {
	Project    *models.Project
	Assessment *models.Assessment
	Analysis   *models.RoomAnalysis
	Lead       *models.LeadListing
}

func (s *AssessmentService) ProjectDetail(ctx context.Context, callerID uuid.UUID, role string, projectID uuid.UUID) (*ProjectDetail, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, storeErr(err)
	}
	if project.HomeownerID != callerID && role != models.RoleAdmin {
		if role != models.RoleContractor {
			return nil, ErrForbidden
		}
		if err := s.requirePurchaser(ctx, project.ID, callerID); err != nil {
			return nil, err
		}
	}

	detail := &ProjectDetail{Project: project}
	if project.AssessmentID.Valid {
		a, err := s.store.GetAssessment(ctx, project.AssessmentID.UUID)
		if err != nil && !errors.Is(err, supabase.ErrNotFound) {
			return nil, err
		}
		if a != nil {
			detail.Assessment = a
			detail.Analysis = a.Analysis()
		}
	}

	lead, err := s.store.GetLeadByProject(ctx, projectID)
	if err != nil && !errors.Is(err, supabase.ErrNotFound) {
		return nil, err
	}
	detail.Lead = lead
	return detail, nil
}

// Delete removes the caller's assessment and its stored media.
func (s *AssessmentService) Delete(ctx context.Context, callerID uuid.UUID, assessmentID uuid.UUID) error {
	a, err := s.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return storeErr(err)
	}
	if a.HomeownerID != callerID {
		return ErrForbidden
	}

	s.media.DeleteAssessmentMedia(assessmentID)
	if err := s.store.DeleteAssessment(ctx, assessmentID, callerID); err != nil {
		return storeErr(err)
	}
	s.logger.Info("assessment deleted", zap.String("assessment_id", assessmentID.String()))
	return nil
}

// Visualize regenerates the "after" image of an existing assessment. An empty
// modification list falls back to the analysis' top modifications.
func (s *AssessmentService) Visualize(ctx context.Context, callerID uuid.UUID, assessmentID uuid.UUID, modifications []string) (*models.Assessment, error) {
	a, err := s.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, storeErr(err)
	}
	if a.HomeownerID != callerID {
		return nil, ErrForbidden
	}

	if len(modifications) == 0 {
		if analysis := a.Analysis(); analysis != nil {
			modifications = analysis.TopModificationNames(s.visualizeTopN)
		}
	}
	if len(modifications) == 0 {
		return nil, ErrNoModification
	}

	img, err := s.media.LoadOriginal(a)
	if err != nil {
		return nil, err
	}
	if err := s.visualize(ctx, a, img, modifications); err != nil {
		return nil, err
	}
	if err := s.store.PromoteProjectToVisualized(ctx, a.ID); err != nil {
		s.logger.Warn("failed to promote project", zap.String("assessment_id", a.ID.String()), zap.Error(err))
	}
	return a, nil
}

// QuickAnalysisRequest is an analysis that is not persisted.
type QuickAnalysisRequest struct {
	Image            []byte
	MIMEType         string
	RoomType         string   `validate:"required,room_type"`
	MobilityConcerns []string `validate:"omitempty,dive,mobility_concern"`
	Options          models.AnalysisOptions
}

func (s *AssessmentService) QuickAnalysis(ctx context.Context, req *QuickAnalysisRequest) (*models.RoomAnalysis, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}
	if len(req.Image) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"Image": "required"}}
	}

	concerns := req.MobilityConcerns
	if len(concerns) == 0 {
		concerns = []string{models.DefaultMobilityConcern}
	}

	img, err := photo.Normalize(req.Image, req.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	start := time.Now()
	analysis, err := s.ai.AnalyzeRoom(ctx, img.Data, img.MIMEType, models.RoomLabel(req.RoomType), concerns, req.Options)
	metrics.ObserveModelCall("analyze", start, err)
	return analysis, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
