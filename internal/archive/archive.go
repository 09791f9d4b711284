// Package archive exports users and questions as a JSON document into
// object storage so the database can be rebuilt elsewhere.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expert-qa/internal/repository"
	"expert-qa/internal/storage"
)

const (
	contentType = "application/json"
	linkTTL     = 15 * time.Minute
)

// Document is the serialized form of an archive.
type Document struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Users       []UserRecord     `json:"users"`
	Questions   []QuestionRecord `json:"questions"`
}

type UserRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password"`
	Expert       bool      `json:"expert"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type QuestionRecord struct {
	ID         int64      `json:"id"`
	Text       string     `json:"question_text"`
	Answer     *string    `json:"answer_text"`
	AskedByID  int64      `json:"asked_by_id"`
	ExpertID   int64      `json:"expert_id"`
	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// Archive describes a stored archive object.
type Archive struct {
	Key          string
	Location     string
	Size         int64
	LastModified *time.Time
	URL          string
}

// Config names the bucket and key prefix archives are written under.
type Config struct {
	Bucket    string
	KeyPrefix string
	Logger    *logrus.Logger
}

// Service builds archive documents and manages them in object storage.
type Service struct {
	users     repository.UserRepository
	questions repository.QuestionRepository
	store     storage.Service
	bucket    string
	prefix    string
	logger    *logrus.Logger
	now       func() time.Time
}

// NewService returns a Service; a missing logger is replaced with a default one.
func NewService(cfg Config, users repository.UserRepository, questions repository.QuestionRepository, store storage.Service) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Service{
		users:     users,
		questions: questions,
		store:     store,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.KeyPrefix, "/"),
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Create snapshots all users and questions and uploads the document.
func (s *Service) Create(ctx context.Context) (Archive, error) {
	doc, err := s.snapshot(ctx)
	if err != nil {
		return Archive{}, err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Archive{}, fmt.Errorf("encode archive: %w", err)
	}

	name := fmt.Sprintf("archive-%s-%s.json", doc.GeneratedAt.Format("20060102T150405Z"), uuid.NewString())
	key := path.Join(s.prefix, name)

	location, err := s.store.Upload(ctx, s.bucket, key, bytes.NewReader(body), contentType)
	if err != nil {
		return Archive{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"location":  location,
		"users":     len(doc.Users),
		"questions": len(doc.Questions),
	}).Info("archive uploaded")

	generated := doc.GeneratedAt
	return Archive{
		Key:          key,
		Location:     location,
		Size:         int64(len(body)),
		LastModified: &generated,
	}, nil
}

// List returns stored archives, newest first, each with a short-lived download URL.
func (s *Service) List(ctx context.Context) ([]Archive, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}

	objects, err := s.store.ListObjects(ctx, s.bucket, prefix)
	if err != nil {
		return nil, err
	}

	archives := make([]Archive, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		url, err := s.store.GetObjectURL(ctx, s.bucket, obj.Key, linkTTL)
		if err != nil {
			s.logger.Warnf("presign archive %s: %v", obj.Key, err)
		}
		archives = append(archives, Archive{
			Key:          obj.Key,
			Location:     fmt.Sprintf("s3://%s/%s", s.bucket, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
			URL:          url,
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Key > archives[j].Key
	})
	return archives, nil
}

func (s *Service) snapshot(ctx context.Context) (*Document, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	questions, err := s.questions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	doc := &Document{
		GeneratedAt: s.now().UTC(),
		Users:       make([]UserRecord, len(users)),
		Questions:   make([]QuestionRecord, len(questions)),
	}
	for i, u := range users {
		doc.Users[i] = UserRecord{
			ID:           u.ID,
			Name:         u.Name,
			PasswordHash: u.PasswordHash,
			Expert:       u.Expert,
			Admin:        u.Admin,
			CreatedAt:    u.CreatedAt.UTC(),
		}
	}
	for i, q := range questions {
		rec := QuestionRecord{
			ID:        q.ID,
			Text:      q.Text,
			Answer:    q.Answer,
			AskedByID: q.AskedByID,
			ExpertID:  q.ExpertID,
			CreatedAt: q.CreatedAt.UTC(),
		}
		if q.AnsweredAt != nil {
			t := q.AnsweredAt.UTC()
			rec.AnsweredAt = &t
		}
		doc.Questions[i] = rec
	}
	return doc, nil
}
