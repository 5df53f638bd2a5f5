package game

import "boostd/internal/domain"

// QuizSheet collects the latest answer for each quiz question.
type QuizSheet struct {
	snippets []domain.QuestionSnippet
	answers  map[string]string
}

func NewQuizSheet(snippets []domain.QuestionSnippet) *QuizSheet {
	return &QuizSheet{
		snippets: append([]domain.QuestionSnippet(nil), snippets...),
		answers:  make(map[string]string, len(snippets)),
	}
}

// Answer records answer for snippetID. Unknown snippets are rejected.
func (q *QuizSheet) Answer(snippetID, answer string) bool {
	for _, s := range q.snippets {
		if s.SnippetID == snippetID {
			q.answers[snippetID] = answer
			return true
		}
	}
	return false
}

// Count is the number of questions answered so far.
func (q *QuizSheet) Count() int { return len(q.answers) }

// Responses lists the answers in question order, skipping unanswered ones.
func (q *QuizSheet) Responses() []domain.UserResponse {
	out := make([]domain.UserResponse, 0, len(q.answers))
	for _, s := range q.snippets {
		if a, ok := q.answers[s.SnippetID]; ok {
			out = append(out, domain.UserResponse{SnippetID: s.SnippetID, UserAnswerText: a})
		}
	}
	return out
}
