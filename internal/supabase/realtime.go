package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RealtimeClient publishes broadcast messages through the Supabase Realtime
// REST endpoint. Browsers subscribed to the topic receive them directly.
type RealtimeClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	backoffs   []time.Duration
}

func NewRealtimeClient(supabaseURL, apiKey string) *RealtimeClient {
	return &RealtimeClient{
		endpoint: strings.TrimRight(supabaseURL, "/") + "/realtime/v1/api/broadcast",
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		backoffs: []time.Duration{200 * time.Millisecond, 400 * time.Millisecond},
	}
}

type broadcastMessage struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

func (r *RealtimeClient) PublishEvent(ctx context.Context, topic, event string, payload map[string]any) error {
	body, err := json.Marshal(map[string][]broadcastMessage{
		"messages": {{Topic: topic, Event: event, Payload: payload}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast: %w", err)
	}

	return r.retryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("apikey", r.apiKey)
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("failed to broadcast: status %d, body: %s", resp.StatusCode, string(respBody))
		}
		return nil
	})
}

// PublishAssessmentEvent broadcasts on the assessment's own topic.
func (r *RealtimeClient) PublishAssessmentEvent(ctx context.Context, assessmentID uuid.UUID, payload map[string]any) error {
	return r.PublishEvent(ctx, AssessmentTopic(assessmentID), "status", payload)
}

func AssessmentTopic(assessmentID uuid.UUID) string {
	return fmt.Sprintf("assessment:%s", assessmentID)
}

func (r *RealtimeClient) retryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i <= len(r.backoffs); i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i == len(r.backoffs) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoffs[i]):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", len(r.backoffs)+1, lastErr)
}

// Event payloads

func AssessmentStatusPayload(assessmentID uuid.UUID, status string) map[string]any {
	return map[string]any{
		"assessment_id": assessmentID.String(),
		"status":        status,
	}
}

func AssessmentFailedPayload(assessmentID uuid.UUID, errorMsg string) map[string]any {
	return map[string]any{
		"assessment_id": assessmentID.String(),
		"status":        "pending",
		"error":         errorMsg,
	}
}

func VisualizationReadyPayload(assessmentID uuid.UUID, url string) map[string]any {
	return map[string]any{
		"assessment_id":     assessmentID.String(),
		"status":            "visualized",
		"visualization_url": url,
	}
}

func ProjectCreatedPayload(assessmentID, projectID uuid.UUID, status string) map[string]any {
	return map[string]any{
		"assessment_id":  assessmentID.String(),
		"project_id":     projectID.String(),
		"project_status": status,
	}
}
