package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"expert-qa/internal/domain"
	"expert-qa/internal/repository"
)

const (
	createQuestionsTableSQLite = `
CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question_text TEXT NOT NULL,
	answer_text TEXT NULL,
	asked_by_id INTEGER NOT NULL REFERENCES users(id),
	expert_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	answered_at DATETIME NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_unanswered ON questions(expert_id) WHERE answer_text IS NULL;
`
	createQuestionsTablePostgres = `
CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	question_text TEXT NOT NULL,
	answer_text TEXT NULL,
	asked_by_id BIGINT NOT NULL REFERENCES users(id),
	expert_id BIGINT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL,
	answered_at TIMESTAMPTZ NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_unanswered ON questions(expert_id) WHERE answer_text IS NULL;
`
	selectQuestionColumns = `
SELECT id, question_text, answer_text, asked_by_id, expert_id, created_at, answered_at
FROM questions`
	selectQuestionViewColumns = `
SELECT q.id, q.question_text, q.answer_text, q.asked_by_id, q.expert_id, q.created_at, q.answered_at,
	askers.name AS asker_name, experts.name AS expert_name
FROM questions q
JOIN users askers ON askers.id = q.asked_by_id
JOIN users experts ON experts.id = q.expert_id`
)

type questionRow struct {
	ID         int64          `db:"id"`
	Text       string         `db:"question_text"`
	Answer     sql.NullString `db:"answer_text"`
	AskedByID  int64          `db:"asked_by_id"`
	ExpertID   int64          `db:"expert_id"`
	CreatedAt  time.Time      `db:"created_at"`
	AnsweredAt sql.NullTime   `db:"answered_at"`
}

func (r questionRow) toDomain() domain.Question {
	q := domain.Question{
		ID:        r.ID,
		Text:      r.Text,
		AskedByID: r.AskedByID,
		ExpertID:  r.ExpertID,
		CreatedAt: r.CreatedAt.Local(),
	}
	if r.Answer.Valid {
		answer := r.Answer.String
		q.Answer = &answer
	}
	if r.AnsweredAt.Valid {
		t := r.AnsweredAt.Time.Local()
		q.AnsweredAt = &t
	}
	return q
}

type questionViewRow struct {
	questionRow
	AskerName  string `db:"asker_name"`
	ExpertName string `db:"expert_name"`
}

func (r questionViewRow) toDomain() domain.QuestionView {
	return domain.QuestionView{
		Question:   r.questionRow.toDomain(),
		AskerName:  r.AskerName,
		ExpertName: r.ExpertName,
	}
}

type QuestionRepository struct {
	db *sqlx.DB
}

func NewQuestionRepository(db *sqlx.DB) repository.QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ddl(r.db, createQuestionsTableSQLite, createQuestionsTablePostgres)); err != nil {
		return fmt.Errorf("create questions table: %w", err)
	}
	return nil
}

func (r *QuestionRepository) Create(ctx context.Context, question *domain.Question) (int64, error) {
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
INSERT INTO questions (question_text, answer_text, asked_by_id, expert_id, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`),
		question.Text,
		nullString(question.Answer),
		question.AskedByID,
		question.ExpertID,
		question.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}

	question.ID = id
	return id, nil
}

func (r *QuestionRepository) Get(ctx context.Context, id int64) (*domain.Question, error) {
	var row questionRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectQuestionColumns+` WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan question: %w", err)
	}
	q := row.toDomain()
	return &q, nil
}

func (r *QuestionRepository) GetView(ctx context.Context, id int64) (*domain.QuestionView, error) {
	var row questionViewRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectQuestionViewColumns+` WHERE q.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan question: %w", err)
	}
	v := row.toDomain()
	return &v, nil
}

func (r *QuestionRepository) SetAnswer(ctx context.Context, id int64, answer string, answeredAt time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
UPDATE questions
SET answer_text = ?, answered_at = ?
WHERE id = ?`),
		answer,
		answeredAt.UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("answer rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("question %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *QuestionRepository) ListAnswered(ctx context.Context) ([]domain.QuestionView, error) {
	return r.listViews(ctx, selectQuestionViewColumns+`
WHERE q.answer_text IS NOT NULL
ORDER BY q.id ASC`)
}

func (r *QuestionRepository) ListUnansweredForExpert(ctx context.Context, expertID int64) ([]domain.QuestionView, error) {
	return r.listViews(ctx, selectQuestionViewColumns+`
WHERE q.answer_text IS NULL AND q.expert_id = ?
ORDER BY q.id ASC`, expertID)
}

func (r *QuestionRepository) List(ctx context.Context) ([]domain.Question, error) {
	var rows []questionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(selectQuestionColumns+` ORDER BY id ASC`)); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}

	questions := make([]domain.Question, len(rows))
	for i := range rows {
		questions[i] = rows[i].toDomain()
	}
	return questions, nil
}

func (r *QuestionRepository) listViews(ctx context.Context, query string, args ...any) ([]domain.QuestionView, error) {
	var rows []questionViewRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}

	views := make([]domain.QuestionView, len(rows))
	for i := range rows {
		views[i] = rows[i].toDomain()
	}
	return views, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
