package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"expert-qa/internal/domain"
	"expert-qa/internal/repository"
)

// QuestionService coordinates asking and answering questions.
type QuestionService interface {
	Feed(ctx context.Context) ([]domain.QuestionView, error)
	Get(ctx context.Context, id int64) (*domain.QuestionView, error)
	Ask(ctx context.Context, asker *domain.User, expertID int64, text string) (*domain.Question, error)
	ForExpert(ctx context.Context, expert *domain.User, id int64) (*domain.QuestionView, error)
	Answer(ctx context.Context, expert *domain.User, id int64, text string) error
	Inbox(ctx context.Context, expert *domain.User) ([]domain.QuestionView, error)
}

type questionService struct {
	questions repository.QuestionRepository
	users     repository.UserRepository
	now       func() time.Time
}

func NewQuestionService(questions repository.QuestionRepository, users repository.UserRepository) QuestionService {
	return &questionService{
		questions: questions,
		users:     users,
		now:       time.Now,
	}
}

// Feed returns every answered question in insertion order.
func (s *questionService) Feed(ctx context.Context) ([]domain.QuestionView, error) {
	return s.questions.ListAnswered(ctx)
}

func (s *questionService) Get(ctx context.Context, id int64) (*domain.QuestionView, error) {
	q, err := s.questions.GetView(ctx, id)
	if err != nil {
		return nil, mapQuestionErr(err)
	}
	return q, nil
}

func (s *questionService) Ask(ctx context.Context, asker *domain.User, expertID int64, text string) (*domain.Question, error) {
	if asker == nil {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrQuestionRequired
	}

	expert, err := s.users.GetByID(ctx, expertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotExpert
		}
		return nil, err
	}
	if !expert.Expert {
		return nil, ErrNotExpert
	}

	question := &domain.Question{
		Text:      text,
		AskedByID: asker.ID,
		ExpertID:  expert.ID,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.questions.Create(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// ForExpert loads a question for its designated expert to answer.
func (s *questionService) ForExpert(ctx context.Context, expert *domain.User, id int64) (*domain.QuestionView, error) {
	q, err := s.questions.GetView(ctx, id)
	if err != nil {
		return nil, mapQuestionErr(err)
	}
	if expert == nil || q.ExpertID != expert.ID {
		return nil, ErrForbidden
	}
	return q, nil
}

// Answer stores the answer text, replacing any previous answer.
func (s *questionService) Answer(ctx context.Context, expert *domain.User, id int64, text string) error {
	q, err := s.questions.Get(ctx, id)
	if err != nil {
		return mapQuestionErr(err)
	}
	if expert == nil || q.ExpertID != expert.ID {
		return ErrForbidden
	}
	// stored verbatim; whitespace only counts when deciding blankness
	if strings.TrimSpace(text) == "" {
		return ErrAnswerRequired
	}

	if err := s.questions.SetAnswer(ctx, id, text, s.now()); err != nil {
		return mapQuestionErr(err)
	}
	return nil
}

func (s *questionService) Inbox(ctx context.Context, expert *domain.User) ([]domain.QuestionView, error) {
	if expert == nil {
		return nil, ErrForbidden
	}
	return s.questions.ListUnansweredForExpert(ctx, expert.ID)
}

func mapQuestionErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrQuestionNotFound
	}
	return err
}
