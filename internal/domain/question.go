package domain

import "time"

// Question is addressed by one user to a designated expert.
// A nil Answer means the question has not been answered yet.
type Question struct {
	ID         int64
	Text       string
	Answer     *string
	AskedByID  int64
	ExpertID   int64
	CreatedAt  time.Time
	AnsweredAt *time.Time
}

// Answered reports whether the expert has submitted an answer.
func (q Question) Answered() bool {
	return q.Answer != nil
}

// QuestionView is a question joined with the names of its asker and expert.
type QuestionView struct {
	Question
	AskerName  string
	ExpertName string
}
