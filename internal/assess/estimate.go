package assess

import (
	"math"
	"strings"
	"unicode/utf8"
)

// EstimateTokens is a conservative token count derived from word and character
// statistics. Long average words suggest non-English text and raise the estimate
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}

	avgWordLen := float64(utf8.RuneCountInString(text)) / float64(words)

	factor := 1.0
	if avgWordLen > 6 {
		factor = 1.2
	}

	return int(math.Ceil(float64(words)*1.5*1.3*factor)) + 50
}
