package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
	"homease-backend/internal/models"
)

var (
	ErrNoModifications = errors.New("At least one modification must be specified.")
	ErrNoImage         = errors.New("No image generated. The model may have refused or encountered an error.")
	ErrEmptyResponse   = errors.New("empty response from model")
)

// contentGenerator is the subset of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models        contentGenerator
	analysisModel string
	imageModel    string
	logger        *zap.Logger
}

func NewClient(ctx context.Context, apiKey, analysisModel, imageModel string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newClient(gc.Models, analysisModel, imageModel, logger), nil
}

func newClient(models contentGenerator, analysisModel, imageModel string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		models:        models,
		analysisModel: analysisModel,
		imageModel:    imageModel,
		logger:        logger.Named("gemini"),
	}
}

func imageContent(image []byte, mimeType, prompt string) []*genai.Content {
	return []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
}

// AnalyzeRoom asks the analysis model for a structured aging-in-place
// assessment of a room photo.
func (c *Client) AnalyzeRoom(ctx context.Context, image []byte, mimeType, roomType string, concerns []string, opts models.AnalysisOptions) (*models.RoomAnalysis, error) {
	prompt := BuildAnalysisPrompt(roomType, concerns, opts.HomeownerAge, opts.BudgetRange, opts.AdditionalContext)

	resp, err := c.models.GenerateContent(ctx, c.analysisModel, imageContent(image, mimeType, prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.3),
		ResponseMIMEType: "application/json",
		ResponseSchema:   RoomAnalysisSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("room analysis request failed: %w", err)
	}

	analysis, err := parseRoomAnalysis(resp.Text(), roomType)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("room analyzed",
		zap.String("room_type", analysis.RoomType),
		zap.Int("score", analysis.AccessibilityScore),
		zap.Int("modifications", len(analysis.Modifications)),
	)
	return analysis, nil
}

func parseRoomAnalysis(text, roomType string) (*models.RoomAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var analysis models.RoomAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse room analysis: %w", err)
	}
	if analysis.RoomType == "" {
		analysis.RoomType = roomType
	}
	return &analysis, nil
}

// GenerateVisualization asks the image model to redraw the room with the
// given modifications installed.
func (c *Client) GenerateVisualization(ctx context.Context, image []byte, mimeType string, modifications []string) (*models.Visualization, error) {
	if len(modifications) == 0 {
		return nil, ErrNoModifications
	}

	resp, err := c.models.GenerateContent(ctx, c.imageModel, imageContent(image, mimeType, BuildVisualizationPrompt(modifications)), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("visualization request failed: %w", err)
	}

	return extractVisualization(resp)
}

func extractVisualization(resp *genai.GenerateContentResponse) (*models.Visualization, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}

	var viz models.Visualization
	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 && viz.Image == nil {
			viz.Image = part.InlineData.Data
			viz.MIMEType = part.InlineData.MIMEType
		}
		if part.Text != "" {
			text = append(text, part.Text)
		}
	}
	if viz.Image == nil {
		return nil, ErrNoImage
	}
	if viz.MIMEType == "" {
		viz.MIMEType = "image/png"
	}
	viz.Description = strings.Join(text, "\n")
	return &viz, nil
}

// fastThinking disables model thinking for latency-bound frame calls.
func fastThinking() *genai.ThinkingConfig {
	return &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
}

// DetectBarriers runs fast object detection on a single AR frame and
// attaches overlay boxes for the detected objects.
func (c *Client) DetectBarriers(ctx context.Context, frame []byte, mimeType, roomLabel string) (*models.FrameDetection, error) {
	resp, err := c.models.GenerateContent(ctx, c.analysisModel, imageContent(frame, mimeType, DetectionPrompt(roomLabel)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   FrameDetectionSchema,
		ThinkingConfig:   fastThinking(),
	})
	if err != nil {
		return nil, fmt.Errorf("frame detection request failed: %w", err)
	}
	return parseFrameDetection(resp.Text())
}

func parseFrameDetection(text string) (*models.FrameDetection, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var det models.FrameDetection
	if err := json.Unmarshal([]byte(text), &det); err != nil {
		return nil, fmt.Errorf("failed to parse frame detection: %w", err)
	}
	if det.ADAIssues == nil {
		det.ADAIssues = []string{}
	}
	det.Overlays = Overlays(det.Objects)
	return &det, nil
}

// Segment requests contour masks for accessibility-relevant objects.
func (c *Client) Segment(ctx context.Context, image []byte, mimeType string) (*models.Segmentation, error) {
	resp, err := c.models.GenerateContent(ctx, c.analysisModel, imageContent(image, mimeType, segmentationPrompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ThinkingConfig:   fastThinking(),
	})
	if err != nil {
		return nil, fmt.Errorf("segmentation request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var seg models.Segmentation
	if err := json.Unmarshal([]byte(text), &seg); err != nil {
		// Some responses are a bare array of segments.
		var segments []models.SegmentationMask
		if arrErr := json.Unmarshal([]byte(text), &segments); arrErr != nil {
			return nil, fmt.Errorf("failed to parse segmentation: %w", err)
		}
		seg.Segments = segments
	}
	return &seg, nil
}
