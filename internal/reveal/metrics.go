package reveal

import (
	"fmt"
	"math"
)

// Accuracy is the confidence score shown next to the simulated transcript.
const Accuracy = 95

func FormatElapsed(ticks int) string {
	if ticks < 0 {
		ticks = 0
	}
	return fmt.Sprintf("%d:%02d", ticks/60, ticks%60)
}

// WordsPerMinute treats one tick as one second. Zero elapsed ticks yields 0.
func WordsPerMinute(words, ticks int) int {
	if ticks <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / (float64(ticks) / 60)))
}
