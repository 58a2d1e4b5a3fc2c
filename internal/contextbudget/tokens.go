// internal/contextbudget/tokens.go
package contextbudget

import (
	"math"

	"hr-assistant/internal/models"
)

// charsPerToken is the estimation ratio: one token per four characters.
const charsPerToken = 4

// messageOverhead is the fixed per-message token cost on top of content.
const messageOverhead = 4

// EstimateTokens approximates the token count of a text as
// ceil(charCount x 0.25).
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / charsPerToken))
}

// EstimateMessage adds the per-message overhead to the content estimate.
func EstimateMessage(m models.Message) int {
	return EstimateTokens(m.Content) + messageOverhead
}

// EstimateMessages sums the estimate over a message list.
func EstimateMessages(msgs []models.Message) int {
	total := 0
	for _, m := range msgs {
		total += EstimateMessage(m)
	}
	return total
}
