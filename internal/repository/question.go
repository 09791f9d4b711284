package repository

import (
	"context"
	"time"

	"expert-qa/internal/domain"
)

// QuestionRepository exposes persistence operations for questions.
type QuestionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, question *domain.Question) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Question, error)
	GetView(ctx context.Context, id int64) (*domain.QuestionView, error)
	SetAnswer(ctx context.Context, id int64, answer string, answeredAt time.Time) error
	ListAnswered(ctx context.Context) ([]domain.QuestionView, error)
	ListUnansweredForExpert(ctx context.Context, expertID int64) ([]domain.QuestionView, error)
	List(ctx context.Context) ([]domain.Question, error)
}
