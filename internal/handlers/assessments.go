package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
	"homease-backend/internal/services"
)

// MaxImageBytes bounds an uploaded room photo.
const MaxImageBytes = 10 << 20

var errImageTooLarge = fmt.Errorf("%w: image exceeds 10MB", services.ErrValidation)

type AssessmentHandler struct {
	assessments AssessmentAPI
	logger      *zap.Logger
}

func NewAssessmentHandler(assessments AssessmentAPI, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		logger:      logger.Named("assessment_handler"),
	}
}

// readImage returns the optional "image" upload of a multipart form.
func readImage(c *gin.Context) (data []byte, filename, mimeType string, err error) {
	fh, err := c.FormFile("image")
	if err != nil {
		// No file part, or not a multipart request at all.
		return nil, "", "", nil
	}
	if fh.Size > MaxImageBytes {
		return nil, "", "", errImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, "", "", errImageTooLarge
	}
	return data, fh.Filename, fh.Header.Get("Content-Type"), nil
}

// bindSubmission reads the assessment form. Validation happens in the
// service so that no row is written for a rejected submission.
func bindSubmission(c *gin.Context) (*models.AssessmentSubmission, error) {
	var sub models.AssessmentSubmission
	if err := c.ShouldBind(&sub); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	if sub.SubmissionKey == "" {
		sub.SubmissionKey = c.GetHeader("Idempotency-Key")
	}

	data, filename, mimeType, err := readImage(c)
	if err != nil {
		return nil, err
	}
	sub.Image = data
	sub.ImageFilename = filename
	sub.ImageMIMEType = mimeType
	return &sub, nil
}

// Submit runs the assessment pipeline for a multipart form post.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sub, err := bindSubmission(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.assessments.Submit(c.Request.Context(), userID, sub)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.SubmissionResponse{Assessment: models.NewAssessmentResponse(result.Assessment)}
	if result.Project != nil {
		p := models.NewProjectResponse(result.Project)
		resp.Project = &p
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func (h *AssessmentHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	assessments, err := h.assessments.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.AssessmentListResponse{Assessments: make([]models.AssessmentResponse, 0, len(assessments))}
	for i := range assessments {
		resp.Assessments = append(resp.Assessments, models.NewAssessmentResponse(&assessments[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssessmentHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	assessmentID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	a, err := h.assessments.Get(c.Request.Context(), userID, middleware.CurrentRole(c), assessmentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewAssessmentResponse(a))
}

func (h *AssessmentHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	assessmentID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.assessments.Delete(c.Request.Context(), userID, assessmentID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Visualize regenerates the "after" image, optionally for an explicit list
// of modifications.
func (h *AssessmentHandler) Visualize(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	assessmentID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.VisualizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	a, err := h.assessments.Visualize(c.Request.Context(), userID, assessmentID, req.Modifications)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewAssessmentResponse(a))
}

// QuickAnalysis analyses an uploaded photo without storing anything.
func (h *AssessmentHandler) QuickAnalysis(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	data, _, mimeType, err := readImage(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	req := &services.QuickAnalysisRequest{
		Image:            data,
		MIMEType:         mimeType,
		RoomType:         c.PostForm("roomType"),
		MobilityConcerns: c.PostFormArray("mobilityConcerns"),
		Options: models.AnalysisOptions{
			BudgetRange:       c.PostForm("budgetRange"),
			AdditionalContext: c.PostForm("assessmentDetails"),
		},
	}
	if age, err := strconv.Atoi(c.PostForm("homeownerAge")); err == nil {
		req.Options.HomeownerAge = age
	}

	analysis, err := h.assessments.QuickAnalysis(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
