package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"homease-backend/internal/config"
	"homease-backend/internal/metrics"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
)

const (
	minFrameLength   = 100
	defaultFrameMIME = "image/jpeg"
	modeDetailed     = "detailed"
)

// ARHandler serves the live AR scanner: one camera frame in, overlay boxes
// out.
type ARHandler struct {
	frames FrameAnalyzer
	cfg    *config.Config
	logger *zap.Logger
}

func NewARHandler(frames FrameAnalyzer, cfg *config.Config, logger *zap.Logger) *ARHandler {
	return &ARHandler{
		frames: frames,
		cfg:    cfg,
		logger: logger.Named("ar"),
	}
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// decodeFrame validates the request and decodes its base64 frame. It writes
// the error response itself and reports whether the caller may continue.
func (h *ARHandler) decodeFrame(c *gin.Context, start time.Time) (*models.ARFrameRequest, []byte, bool) {
	fail := func(status int, message string) {
		metrics.ARFrame("rejected")
		c.JSON(status, models.ARFrameResponse{Success: false, Error: message, ProcessingTimeMS: elapsedMS(start)})
	}

	var req models.ARFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(http.StatusBadRequest, "Invalid JSON body.")
		return nil, nil, false
	}
	if req.Frame == "" {
		fail(http.StatusBadRequest, "Missing frame data. Send base64 encoded image.")
		return nil, nil, false
	}
	if len(req.Frame) < minFrameLength {
		fail(http.StatusBadRequest, "Invalid frame data. Expected base64 encoded image.")
		return nil, nil, false
	}

	if req.UserID != "" {
		userID, ok := middleware.CurrentUserID(c)
		if !ok || userID.String() != req.UserID {
			fail(http.StatusUnauthorized, "Unauthorized")
			return nil, nil, false
		}
	}

	encoded := req.Frame
	if i := strings.Index(encoded, "base64,"); i >= 0 {
		encoded = encoded[i+len("base64,"):]
	}
	frame, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		fail(http.StatusBadRequest, "Invalid frame data. Expected base64 encoded image.")
		return nil, nil, false
	}

	if req.MIMEType == "" {
		req.MIMEType = defaultFrameMIME
	}
	return &req, frame, true
}

// ProcessFrame detects barriers in one frame. Fast mode returns overlays,
// score and summary; detailed mode adds the ADA issue list.
func (h *ARHandler) ProcessFrame(c *gin.Context) {
	start := time.Now()
	req, frame, ok := h.decodeFrame(c, start)
	if !ok {
		return
	}

	log := h.logger.With(zap.String("session_id", req.SessionID), zap.String("mode", req.Mode))

	detection, err := h.frames.DetectBarriers(c.Request.Context(), frame, req.MIMEType, req.RoomLabel)
	if err != nil {
		log.Error("frame processing failed", zap.Error(err))
		metrics.ARFrame("error")
		c.JSON(http.StatusInternalServerError, models.ARFrameResponse{
			Success:          false,
			Error:            err.Error(),
			ProcessingTimeMS: elapsedMS(start),
		})
		return
	}

	score := detection.AccessibilityScore
	resp := models.ARFrameResponse{
		Success:          true,
		Overlays:         detection.Overlays,
		Score:            &score,
		Summary:          detection.FrameSummary,
		ProcessingTimeMS: elapsedMS(start),
	}
	if req.Mode == modeDetailed {
		resp.ADAIssues = detection.ADAIssues
	}

	metrics.ARFrame("ok")
	log.Debug("frame processed", zap.Int("overlays", len(resp.Overlays)), zap.Int64("processing_time_ms", resp.ProcessingTimeMS))
	c.JSON(http.StatusOK, resp)
}

type segmentResponse struct {
	Success          bool                      `json:"success"`
	Segments         []models.SegmentationMask `json:"segments"`
	Segmentation     *models.Segmentation      `json:"segmentation,omitempty"`
	Error            string                    `json:"error,omitempty"`
	ProcessingTimeMS int64                     `json:"processing_time_ms"`
}

// Segment returns segmentation masks for detailed measurement of a frame.
func (h *ARHandler) Segment(c *gin.Context) {
	start := time.Now()
	req, frame, ok := h.decodeFrame(c, start)
	if !ok {
		return
	}

	seg, err := h.frames.Segment(c.Request.Context(), frame, req.MIMEType)
	if err != nil {
		h.logger.Error("segmentation failed", zap.String("session_id", req.SessionID), zap.Error(err))
		metrics.ARFrame("error")
		c.JSON(http.StatusInternalServerError, segmentResponse{Success: false, Error: err.Error(), ProcessingTimeMS: elapsedMS(start)})
		return
	}

	metrics.ARFrame("ok")
	c.JSON(http.StatusOK, segmentResponse{
		Success:          true,
		Segments:         seg.Segments,
		Segmentation:     seg,
		ProcessingTimeMS: elapsedMS(start),
	})
}

// Capabilities describes the endpoint for scanner clients.
func (h *ARHandler) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "homease-ar-assessment",
		"version": "1.0.0",
		"capabilities": []string{
			"barrier_detection",
			"bounding_boxes",
			"ada_compliance_check",
			"accessibility_scoring",
			"segmentation",
			"real_time_overlay",
		},
		"models": gin.H{
			"detection":     h.cfg.GeminiAnalysisModel,
			"segmentation":  h.cfg.GeminiAnalysisModel,
			"visualization": h.cfg.GeminiImageModel,
		},
		"ada_checks": []string{
			`doorway_width (min 32")`,
			`threshold_height (max 0.5")`,
			`hallway_width (min 36")`,
			`grab_bar_height (33-36")`,
			`toilet_clearance (60" turning radius)`,
			`counter_height (max 34")`,
			`switch_height (max 48")`,
			`outlet_height (min 15")`,
		},
		"usage": gin.H{
			"endpoint":     "POST /api/ar-assessment",
			"segmentation": "POST /api/ar-assessment/segment",
			"content_type": "application/json",
			"body": gin.H{
				"frame":      "base64 encoded image (required)",
				"mime_type":  "image/jpeg | image/png | image/webp (optional, default: image/jpeg)",
				"room_label": "bathroom | bedroom | kitchen | etc (optional)",
				"user_id":    "uuid (optional, must match the signed-in user)",
				"session_id": "string (optional, for session tracking)",
				"mode":       "fast | detailed (optional, default: fast)",
			},
		},
		"rate_limits": gin.H{
			"frames_per_second": h.cfg.ARMaxFramesPerSecond,
			"note":              "Poll no faster than the advertised frame rate; excess frames get 429.",
		},
	})
}
