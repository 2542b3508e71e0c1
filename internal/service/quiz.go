package service

import "time"

// OptionCount is the number of answer options every question must carry.
const OptionCount = 4

// DefaultQuestionCount is how many questions a quiz asks for when not configured.
const DefaultQuestionCount = 5

// SessionKey addresses at most one session. For Telegram it is the chat ID.
type SessionKey int64

type QuizQuestion struct {
	ID          int      `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct_answer_index"`
	Explanation string   `json:"explanation"`
}

// Quiz is one generated quiz instance. It is never modified after StartSession stores it.
type Quiz struct {
	Category  Category
	Title     string
	Questions []QuizQuestion
}

type QuizSession struct {
	ID              string
	Key             SessionKey
	Quiz            Quiz
	CurrentQuestion int
	Score           int
	StartedAt       time.Time
}

// IsExhausted reports whether every question has been answered.
func (s *QuizSession) IsExhausted() bool {
	return s.CurrentQuestion >= len(s.Quiz.Questions)
}

// FinalScore returns the score and the number of questions.
func (s *QuizSession) FinalScore() (int, int) {
	return s.Score, len(s.Quiz.Questions)
}

// ShortID is the prefix of the session ID carried in callback data.
func (s *QuizSession) ShortID() string {
	return ShortSessionID(s.ID)
}

func ShortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Turn is the question a session is waiting on.
type Turn struct {
	SessionID string
	Title     string
	Index     int
	Total     int
	Question  QuizQuestion
}

// Ordinal is the 1-based question number shown to the player.
func (t Turn) Ordinal() int {
	return t.Index + 1
}

// Feedback is the outcome of one answer.
type Feedback struct {
	SessionID     string
	Category      Category
	Title         string
	QuestionIndex int
	Selected      int
	Correct       bool
	CorrectIndex  int
	CorrectText   string
	Explanation   string
	Score         int
	Total         int
	Finished      bool
}

type Summary struct {
	Category Category
	Title    string
	Score    int
	Total    int
	NewBest  bool
	Position int
}

// Percentage of correctly answered questions, rounded down.
func (s Summary) Percentage() int {
	if s.Total == 0 {
		return 0
	}
	return s.Score * 100 / s.Total
}

// MessageRef points at the chat message an answer was given on.
type MessageRef struct {
	MessageID int
	Text      string
}

type Player struct {
	UserID    int64
	Username  string
	FirstName string
}
