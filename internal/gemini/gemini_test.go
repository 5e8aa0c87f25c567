package gemini_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
	"homease-backend/internal/gemini"
	"homease-backend/internal/models"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
	calls  int
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	prompt := gemini.BuildAnalysisPrompt("Bathroom", []string{"wheelchair_user", "balance_issues"}, 72, "5000_15000", "recent hip surgery")

	assert.Contains(t, prompt, "Room Type: Bathroom")
	assert.Contains(t, prompt, "Mobility/Accessibility Concerns: wheelchair_user, balance_issues")
	assert.Contains(t, prompt, "Homeowner Age: 72 years old")
	assert.Contains(t, prompt, "Budget Range: 5000_15000")
	assert.Contains(t, prompt, "Additional Context: recent hip surgery")
	assert.Contains(t, prompt, "accessibility score (1-10)")
}

func TestBuildAnalysisPrompt_OmitsOptionalContext(t *testing.T) {
	prompt := gemini.BuildAnalysisPrompt("Kitchen", []string{"general_aging"}, 0, "", "")

	assert.NotContains(t, prompt, "Homeowner Age")
	assert.NotContains(t, prompt, "Budget Range")
	assert.NotContains(t, prompt, "Additional Context")
}

func TestBuildVisualizationPrompt(t *testing.T) {
	prompt := gemini.BuildVisualizationPrompt([]string{"Grab Bar Installation", "Non-slip Flooring"})

	assert.Contains(t, prompt, "- Grab Bar Installation\n- Non-slip Flooring")
	assert.Contains(t, prompt, "33-36 inches")
}

func TestDetectionPrompt_AppendsRoom(t *testing.T) {
	assert.NotContains(t, gemini.DetectionPrompt(""), "The user reports")
	assert.Contains(t, gemini.DetectionPrompt("Bathroom"), "this frame shows a Bathroom.")
}

func TestSchemas_RequireAllAnalysisFields(t *testing.T) {
	for name := range gemini.RoomAnalysisSchema.Properties {
		assert.Contains(t, gemini.RoomAnalysisSchema.Required, name)
	}
	mods := gemini.RoomAnalysisSchema.Properties["modifications"].Items
	assert.Len(t, mods.Required, 10)
	assert.Equal(t, []string{"critical", "high", "medium", "low"}, mods.Properties["priority"].Enum)
	assert.Equal(t, genai.TypeInteger, gemini.FrameDetectionSchema.Properties["accessibility_score"].Type)
}

func TestParseRoomAnalysis_DefaultsRoomType(t *testing.T) {
	analysis, err := gemini.ParseRoomAnalysis(`{"accessibility_score":4,"summary":"ok","modifications":[{"name":"Grab Bar"}]}`, "Bathroom")
	require.NoError(t, err)

	assert.Equal(t, "Bathroom", analysis.RoomType)
	assert.Equal(t, 4, analysis.AccessibilityScore)
	assert.Equal(t, []string{"Grab Bar"}, analysis.TopModificationNames(3))
}

func TestParseRoomAnalysis_Errors(t *testing.T) {
	_, err := gemini.ParseRoomAnalysis("   ", "Bathroom")
	assert.ErrorIs(t, err, gemini.ErrEmptyResponse)

	_, err = gemini.ParseRoomAnalysis("not json", "Bathroom")
	assert.Error(t, err)
}

func TestExtractVisualization(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Added grab bars."},
				{InlineData: &genai.Blob{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}},
			}},
		}},
	}

	viz, err := gemini.ExtractVisualization(resp)
	require.NoError(t, err)
	assert.Equal(t, "image/png", viz.MIMEType)
	assert.Equal(t, "Added grab bars.", viz.Description)
	assert.Len(t, viz.Image, 4)
}

func TestExtractVisualization_NoImage(t *testing.T) {
	_, err := gemini.ExtractVisualization(textResponse("I cannot do that."))
	assert.ErrorIs(t, err, gemini.ErrNoImage)

	_, err = gemini.ExtractVisualization(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, gemini.ErrNoImage)
}

func TestGenerateVisualization_RequiresModifications(t *testing.T) {
	fake := &fakeModels{}
	client := gemini.NewTestClient(fake, "analysis", "image", zap.NewNop())

	_, err := client.GenerateVisualization(context.Background(), []byte("img"), "image/jpeg", nil)
	assert.ErrorIs(t, err, gemini.ErrNoModifications)
	assert.Equal(t, 0, fake.calls)
}

func TestAnalyzeRoom_UsesSchemaAndModel(t *testing.T) {
	fake := &fakeModels{resp: textResponse(`{"room_type":"Bathroom","accessibility_score":6}`)}
	client := gemini.NewTestClient(fake, "gemini-2.5-flash", "image", zap.NewNop())

	analysis, err := client.AnalyzeRoom(context.Background(), []byte("img"), "image/jpeg", "Bathroom", []string{"general_aging"}, models.AnalysisOptions{})
	require.NoError(t, err)

	assert.Equal(t, 6, analysis.AccessibilityScore)
	assert.Equal(t, "gemini-2.5-flash", fake.model)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Same(t, gemini.RoomAnalysisSchema, fake.config.ResponseSchema)
}

func TestAnalyzeRoom_PropagatesError(t *testing.T) {
	fake := &fakeModels{err: errors.New("quota exceeded")}
	client := gemini.NewTestClient(fake, "analysis", "image", nil)

	_, err := client.AnalyzeRoom(context.Background(), []byte("img"), "image/jpeg", "Bathroom", nil, models.AnalysisOptions{})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestDetectBarriers_BuildsOverlays(t *testing.T) {
	fake := &fakeModels{resp: textResponse(`{
		"objects": [
			{"label":"narrow_doorway_28in","box_2d":[100,200,900,400],"confidence":0.9,"accessibility_concern":"Too narrow for a wheelchair","ada_compliant":false},
			{"label":"grab_bar","box_2d":[300,300,350,600],"confidence":0.8,"accessibility_concern":"Installed","ada_compliant":true}
		],
		"accessibility_score": 55,
		"frame_summary": "Bathroom entrance"
	}`)}
	client := gemini.NewTestClient(fake, "analysis", "image", zap.NewNop())

	det, err := client.DetectBarriers(context.Background(), []byte("frame"), "image/jpeg", "")
	require.NoError(t, err)

	require.Len(t, det.Overlays, 2)
	assert.Equal(t, "barrier", det.Overlays[0].Type)
	assert.Equal(t, gemini.SeverityHigh, det.Overlays[0].Severity)
	assert.Equal(t, "#FF6600", det.Overlays[0].Color)
	assert.Contains(t, det.Overlays[0].ADARequirement, `32"`)
	assert.Equal(t, "compliant", det.Overlays[1].Type)
	assert.Equal(t, "#00FF00", det.Overlays[1].Color)
	assert.NotNil(t, det.ADAIssues)
	require.NotNil(t, fake.config.ThinkingConfig)
	assert.Equal(t, int32(0), *fake.config.ThinkingConfig.ThinkingBudget)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		label     string
		compliant bool
		want      string
	}{
		{"blocked_hallway", false, gemini.SeverityCritical},
		{"no_access_ramp", false, gemini.SeverityCritical},
		{"step_threshold_2in", false, gemini.SeverityHigh},
		{"trip_hazard_rug", false, gemini.SeverityHigh},
		{"counter_height_38in", false, gemini.SeverityMedium},
		{"bathtub_edge", false, gemini.SeverityLow},
		{"blocked_hallway", true, gemini.SeverityOK},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := gemini.Severity(models.DetectedObject{Label: tt.label, ADACompliant: tt.compliant})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestADARequirement(t *testing.T) {
	assert.Equal(t, `Max 1/2" height`, gemini.ADARequirement("Step_Threshold"))
	assert.Equal(t, `Max 48" height`, gemini.ADARequirement("light_switch"))
	assert.Empty(t, gemini.ADARequirement("bathtub"))
}

func TestParseFrameDetection_Invalid(t *testing.T) {
	_, err := gemini.ParseFrameDetection("")
	assert.ErrorIs(t, err, gemini.ErrEmptyResponse)

	_, err = gemini.ParseFrameDetection("{")
	assert.Error(t, err)
}
