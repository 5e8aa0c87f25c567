package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
)

type ProjectsHandler struct {
	assessments AssessmentAPI
	logger      *zap.Logger
}

func NewProjectsHandler(assessments AssessmentAPI, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		assessments: assessments,
		logger:      logger.Named("projects_handler"),
	}
}

type projectDetailResponse struct {
	Project    models.ProjectResponse     `json:"project"`
	Assessment *models.AssessmentResponse `json:"assessment,omitempty"`
	Analysis   *models.RoomAnalysis       `json:"analysis,omitempty"`
	Lead       *models.LeadResponse       `json:"lead,omitempty"`
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	projects, err := h.assessments.ListProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.ProjectListResponse{Projects: make([]models.ProjectResponse, 0, len(projects))}
	for i := range projects {
		resp.Projects = append(resp.Projects, models.NewProjectResponse(&projects[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.assessments.ProjectDetail(c.Request.Context(), userID, middleware.CurrentRole(c), projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := projectDetailResponse{
		Project:  models.NewProjectResponse(detail.Project),
		Analysis: detail.Analysis,
	}
	if detail.Assessment != nil {
		a := models.NewAssessmentResponse(detail.Assessment)
		resp.Assessment = &a
	}
	if detail.Lead != nil {
		l := models.NewLeadResponse(detail.Lead)
		resp.Lead = &l
	}
	c.JSON(http.StatusOK, resp)
}
