package timing

import (
	"fmt"
	"time"

	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/logger"
)

// FormatDuration renders d as hh:mm:ss.
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// LogAIMetrics logs token usage and model time collected since the last
// reset.
func LogAIMetrics(metrics ai.ModelMetrics) {
	logger.Info(
		"AI Metrics",
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"total_tokens", metrics.TotalTokens,
		"duration", FormatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
	)
}

// Track logs the time elapsed between the call and the returned func.
//
//	defer timing.Track("Indexing")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		logger.Info("Processing time", "step", name, "duration", FormatDuration(time.Since(start)))
	}
}
