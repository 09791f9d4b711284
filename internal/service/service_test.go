package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"expert-qa/internal/domain"
	"expert-qa/internal/repository"
	"expert-qa/internal/repository/sqlstore"
)

type fixture struct {
	userRepo  repository.UserRepository
	users     UserService
	questions QuestionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "qa.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	userRepo := sqlstore.NewUserRepository(db)
	questionRepo := sqlstore.NewQuestionRepository(db)
	if err := userRepo.Init(context.Background()); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := questionRepo.Init(context.Background()); err != nil {
		t.Fatalf("init questions: %v", err)
	}

	return &fixture{
		userRepo:  userRepo,
		users:     &userService{users: userRepo, cost: bcrypt.MinCost},
		questions: NewQuestionService(questionRepo, userRepo),
	}
}

func (f *fixture) register(t *testing.T, name string) *domain.User {
	t.Helper()

	u, err := f.users.Register(context.Background(), name, name+"-password")
	if err != nil {
		t.Fatalf("Register(%s) error = %v", name, err)
	}
	return u
}

func (f *fixture) expert(t *testing.T, name string) *domain.User {
	t.Helper()

	u := f.register(t, name)
	if err := f.userRepo.SetExpert(context.Background(), u.ID, true); err != nil {
		t.Fatalf("SetExpert(%s) error = %v", name, err)
	}
	u.Expert = true
	return u
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, "  alice ", "secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Name != "alice" || u.Expert || u.Admin {
		t.Errorf("Register() = %+v", u)
	}
	if u.PasswordHash != "" {
		t.Error("Register() leaked password hash")
	}

	stored, err := f.userRepo.GetByName(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if stored.PasswordHash == "secret" || stored.PasswordHash == "" {
		t.Errorf("stored hash = %q, want bcrypt hash", stored.PasswordHash)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Errorf("stored hash = %q, want bcrypt prefix", stored.PasswordHash)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		wantErr  error
	}{
		{"blank name", "  ", "secret", ErrNameRequired},
		{"blank password", "alice", "   ", ErrPasswordRequired},
		{"password too long", "alice", strings.Repeat("x", 80), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.users.Register(context.Background(), tt.user, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	if _, err := f.users.Register(ctx, "alice", "other"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("Register() duplicate error = %v, want ErrUserAlreadyExists", err)
	}

	all, err := f.users.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("users = %d, want 1", len(all))
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	tests := []struct {
		name     string
		user     string
		password string
		wantErr  error
	}{
		{"valid", "alice", "alice-password", nil},
		{"wrong password", "alice", "nope", ErrInvalidCredentials},
		{"unknown user", "mallory", "alice-password", ErrInvalidCredentials},
		{"empty password", "alice", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := f.users.Authenticate(context.Background(), tt.user, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (u == nil || u.Name != "alice") {
				t.Errorf("Authenticate() = %+v", u)
			}
		})
	}
}

func TestPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.register(t, "root")
	if _, err := f.users.SetAdmin(ctx, "root", true); err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}
	admin.Admin = true
	bob := f.register(t, "bob")

	if err := f.users.Promote(ctx, bob, bob.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Promote() by non-admin error = %v, want ErrForbidden", err)
	}
	if err := f.users.Promote(ctx, nil, bob.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Promote() anonymous error = %v, want ErrForbidden", err)
	}
	if err := f.users.Promote(ctx, admin, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Promote() unknown error = %v, want ErrUserNotFound", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.users.Promote(ctx, admin, bob.ID); err != nil {
			t.Fatalf("Promote() #%d error = %v", i, err)
		}
		got, err := f.users.GetByID(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !got.Expert {
			t.Fatalf("after Promote() #%d expert = false", i)
		}
	}

	experts, err := f.users.ListExperts(ctx)
	if err != nil {
		t.Fatalf("ListExperts() error = %v", err)
	}
	if len(experts) != 1 || experts[0].Name != "bob" {
		t.Errorf("ListExperts() = %+v", experts)
	}
}

func TestSetAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "root")

	for _, admin := range []bool{true, false} {
		got, err := f.users.SetAdmin(ctx, " root ", admin)
		if err != nil {
			t.Fatalf("SetAdmin(%v) error = %v", admin, err)
		}
		if got.Admin != admin || got.PasswordHash != "" {
			t.Errorf("SetAdmin(%v) = %+v", admin, got)
		}
		stored, err := f.userRepo.GetByName(ctx, "root")
		if err != nil {
			t.Fatalf("GetByName() error = %v", err)
		}
		if stored.Admin != admin {
			t.Errorf("stored admin = %v, want %v", stored.Admin, admin)
		}
	}
}

func TestSetAdminUnknownUser(t *testing.T) {
	f := newFixture(t)
	if _, err := f.users.SetAdmin(context.Background(), "ghost", true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SetAdmin() error = %v, want ErrUserNotFound", err)
	}
}

func TestAsk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.expert(t, "bob")
	carol := f.register(t, "carol")

	tests := []struct {
		name     string
		asker    *domain.User
		expertID int64
		text     string
		wantErr  error
	}{
		{"anonymous", nil, bob.ID, "hi?", ErrForbidden},
		{"blank text", alice, bob.ID, "  ", ErrQuestionRequired},
		{"not an expert", alice, carol.ID, "hi?", ErrNotExpert},
		{"unknown expert", alice, 999, "hi?", ErrNotExpert},
		{"valid", alice, bob.ID, "hi?", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := f.questions.Ask(ctx, tt.asker, tt.expertID, tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Ask() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (q.ID == 0 || q.Answered() || q.AskedByID != alice.ID) {
				t.Errorf("Ask() = %+v", q)
			}
		})
	}
}

func TestAskStoresTextVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.expert(t, "bob")

	const text = "  why?\n"
	q, err := f.questions.Ask(ctx, alice, bob.ID, text)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	got, err := f.questions.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Text != text {
		t.Errorf("stored text = %q, want %q", got.Text, text)
	}
}

func TestAnswerFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.expert(t, "bob")
	carol := f.expert(t, "carol")

	q, err := f.questions.Ask(ctx, alice, bob.ID, "Why?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	inbox, err := f.questions.Inbox(ctx, bob)
	if err != nil {
		t.Fatalf("Inbox() error = %v", err)
	}
	if len(inbox) != 1 || inbox[0].ID != q.ID {
		t.Fatalf("Inbox() = %+v", inbox)
	}
	if other, _ := f.questions.Inbox(ctx, carol); len(other) != 0 {
		t.Errorf("carol inbox = %+v, want empty", other)
	}

	if _, err := f.questions.ForExpert(ctx, carol, q.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("ForExpert() wrong expert error = %v, want ErrForbidden", err)
	}
	if err := f.questions.Answer(ctx, carol, q.ID, "Because."); !errors.Is(err, ErrForbidden) {
		t.Errorf("Answer() wrong expert error = %v, want ErrForbidden", err)
	}
	if err := f.questions.Answer(ctx, bob, q.ID, " "); !errors.Is(err, ErrAnswerRequired) {
		t.Errorf("Answer() blank error = %v, want ErrAnswerRequired", err)
	}
	if err := f.questions.Answer(ctx, bob, 999, "x"); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("Answer() unknown error = %v, want ErrQuestionNotFound", err)
	}

	feed, err := f.questions.Feed(ctx)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("Feed() before answer = %+v", feed)
	}

	for _, text := range []string{"Because.", "Because I said so."} {
		if err := f.questions.Answer(ctx, bob, q.ID, text); err != nil {
			t.Fatalf("Answer(%q) error = %v", text, err)
		}
		got, err := f.questions.Get(ctx, q.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Answer == nil || *got.Answer != text {
			t.Errorf("answer = %v, want %q", got.Answer, text)
		}
	}

	feed, err = f.questions.Feed(ctx)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if len(feed) != 1 || feed[0].AskerName != "alice" || feed[0].ExpertName != "bob" {
		t.Fatalf("Feed() = %+v", feed)
	}

	inbox, err = f.questions.Inbox(ctx, bob)
	if err != nil {
		t.Fatalf("Inbox() error = %v", err)
	}
	if len(inbox) != 0 {
		t.Errorf("Inbox() after answer = %+v", inbox)
	}
}

func TestGetUnknownQuestion(t *testing.T) {
	f := newFixture(t)
	if _, err := f.questions.Get(context.Background(), 12); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("Get() error = %v, want ErrQuestionNotFound", err)
	}
}
