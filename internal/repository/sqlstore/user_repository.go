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
	createUsersTableSQLite = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	admin BOOLEAN NOT NULL DEFAULT 0,
	expert BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
`
	createUsersTablePostgres = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	admin BOOLEAN NOT NULL DEFAULT FALSE,
	expert BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
`
	selectUserColumns = `SELECT id, name, password, admin, expert, created_at FROM users`
)

type userRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Password  string    `db:"password"`
	Admin     bool      `db:"admin"`
	Expert    bool      `db:"expert"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Name:         r.Name,
		PasswordHash: r.Password,
		Admin:        r.Admin,
		Expert:       r.Expert,
		CreatedAt:    r.CreatedAt.Local(),
	}
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ddl(r.db, createUsersTableSQLite, createUsersTablePostgres)); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
INSERT INTO users (name, password, admin, expert, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`),
		user.Name,
		user.PasswordHash,
		user.Admin,
		user.Expert,
		user.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user %q: %w", user.Name, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE name = ?`, name)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE id = ?`, id)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, selectUserColumns+` ORDER BY id ASC`)
}

func (r *UserRepository) ListExperts(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, selectUserColumns+` WHERE expert = ? ORDER BY name ASC`, true)
}

func (r *UserRepository) SetExpert(ctx context.Context, id int64, expert bool) error {
	return r.setFlag(ctx, `UPDATE users SET expert = ? WHERE id = ?`, expert, id)
}

func (r *UserRepository) SetAdmin(ctx context.Context, id int64, admin bool) error {
	return r.setFlag(ctx, `UPDATE users SET admin = ? WHERE id = ?`, admin, id)
}

func (r *UserRepository) setFlag(ctx context.Context, query string, value bool, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), value, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user update rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user := row.toDomain()
	return &user, nil
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users := make([]domain.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toDomain()
	}
	return users, nil
}
