// Package phq9 implements scoring and severity classification for the
// PHQ-9 depression-screening questionnaire. Everything here is pure: the
// rest of the service derives severity from a stored total score and never
// re-sums responses.
package phq9

import "time"

// NumItems is the number of questionnaire items.
const NumItems = 9

// Response bounds for a single item.
const (
	MinResponse = 0
	MaxResponse = 3
)

// MaxScore is the highest attainable total score.
const MaxScore = NumItems * MaxResponse

// Severity labels.
const (
	SeverityMinimal          = "Minimal"
	SeverityMild             = "Mild"
	SeverityModerate         = "Moderate"
	SeverityModeratelySevere = "Moderately Severe"
	SeveritySevere           = "Severe"
	SeverityUnknown          = "Unknown"
)

// Questions holds the nine PHQ-9 item labels, in questionnaire order.
var Questions = [NumItems]string{
	"Little interest or pleasure in doing things",
	"Feeling down, depressed, or hopeless",
	"Trouble falling or staying asleep, or sleeping too much",
	"Feeling tired or having little energy",
	"Poor appetite or overeating",
	"Feeling bad about yourself, or that you are a failure or have let yourself or your family down",
	"Trouble concentrating on things, such as reading or watching television",
	"Moving or speaking slowly, or being fidgety or restless more than usual",
	"Thoughts that you would be better off dead, or of hurting yourself",
}

// answerLabels maps a response value to its qualitative anchor.
var answerLabels = [MaxResponse + 1]string{
	"Never",
	"Several days",
	"More than half the days",
	"Nearly every day",
}

// AnswerLabel returns the qualitative anchor for a response value.
func AnswerLabel(response int) string {
	if response < MinResponse || response > MaxResponse {
		return SeverityUnknown
	}
	return answerLabels[response]
}

// Score sums the nine item responses into a total in [0,27]. Callers are
// expected to have validated the responses first.
func Score(responses []int) int {
	total := 0
	for _, r := range responses {
		total += r
	}
	return total
}

// severityBands is the ordered, closed, non-overlapping band table.
var severityBands = []struct {
	lower, upper int
	label        string
}{
	{0, 4, SeverityMinimal},
	{5, 9, SeverityMild},
	{10, 14, SeverityModerate},
	{15, 19, SeverityModeratelySevere},
	{20, 27, SeveritySevere},
}

// Severity classifies a total score into its severity band. Scores outside
// [0,27] yield SeverityUnknown; with validated input that path is unreachable.
func Severity(total int) string {
	for _, band := range severityBands {
		if total >= band.lower && total <= band.upper {
			return band.label
		}
	}
	return SeverityUnknown
}

// Age computes a patient's age as current year minus birth year. The
// month and day are deliberately ignored to stay compatible with the
// historical convention, even though that can overstate age before the
// birthday.
func Age(dateOfBirth, now time.Time) int {
	return now.Year() - dateOfBirth.Year()
}
