package quiz

import (
	"sort"

	"github.com/certprep/backend/internal/models"
)

// SanitizeAnswerIDs drops identifiers that are not positive integers and
// removes duplicates, preserving first-seen order. Malformed ids are
// filtered silently; the cleaned set may be empty.
func SanitizeAnswerIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Evaluate reports whether the selected answer ids match the question's
// correct answer ids exactly. The match is all-or-nothing: every correct
// answer must be selected and no incorrect one may be. There is no
// partial credit. An empty selection is only correct when the question
// has no correct answers, which well-formed questions never do.
func Evaluate(q *models.Question, selectedIDs []int64) bool {
	correct := q.CorrectAnswerIDs()
	if len(selectedIDs) != len(correct) {
		return false
	}

	selected := append([]int64(nil), selectedIDs...)
	sortIDs(selected)
	sortIDs(correct)

	for i := range correct {
		if selected[i] != correct[i] {
			return false
		}
	}
	return true
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
