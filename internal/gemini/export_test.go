package gemini

var (
	NewTestClient        = newClient
	ParseRoomAnalysis    = parseRoomAnalysis
	ExtractVisualization = extractVisualization
	ParseFrameDetection  = parseFrameDetection
)
