package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/nitesh/blogsmith/internal/db"
	"github.com/nitesh/blogsmith/internal/pipeline"
	"github.com/nitesh/blogsmith/pkg/models"
)

type PostStore interface {
	InsertPost(ctx context.Context, post *models.BlogPost) error
	ListPosts(ctx context.Context) ([]*models.BlogPost, error)
	GetPost(ctx context.Context, id string) (*models.BlogPost, error)
	UpdateSocial(ctx context.Context, id string, social dbtypes.NullJSON) error
	UpdateEmailCampaign(ctx context.Context, id string, campaign dbtypes.NullJSON) error
}

type Service struct {
	repo PostStore
	pipe *pipeline.Pipeline
}

func NewService(repo PostStore, pipe *pipeline.Pipeline) *Service {
	return &Service{repo: repo, pipe: pipe}
}

// CreatePostInput is the full artifact set assembled by the caller across
// the pipeline stages.
type CreatePostInput struct {
	UserID       string
	CompanyID    string
	TitleConcept string
	Structure    models.Structure
	Facts        models.Facts
	Article      string
	Polished     string
	FinalHTML    string
}

// CreatePost derives the metadata summary from the artifacts and inserts one
// row. Resubmitting the same artifacts creates a second row; there is no
// idempotency key.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*models.BlogPost, error) {
	post := &models.BlogPost{
		ID:           uuid.New().String(),
		UserID:       in.UserID,
		CompanyID:    in.CompanyID,
		TitleConcept: in.TitleConcept,
		Structure:    in.Structure,
		Facts:        in.Facts,
		Article:      in.Article,
		Polished:     in.Polished,
		FinalHTML:    in.FinalHTML,
		Metadata: models.PostMetadata{
			Title:             in.Structure.Title,
			Keywords:          in.Structure.Keywords,
			Sections:          in.Structure.Sections,
			ResearchQuestions: in.Structure.ResearchQuestions,
			Facts:             in.Facts,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertPost(ctx, post); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]*models.BlogPost, error) {
	return s.repo.ListPosts(ctx)
}

func (s *Service) GetPost(ctx context.Context, id string) (*models.BlogPost, error) {
	return s.repo.GetPost(ctx, id)
}

// GenerateSocial creates the four-channel bundle for a saved post and writes
// it to the social column only. The post must exist before any provider call
// is made.
func (s *Service) GenerateSocial(ctx context.Context, id, content string) (*models.SocialBundle, error) {
	if _, err := s.repo.GetPost(ctx, id); err != nil {
		return nil, fmt.Errorf("fetch post: %w", err)
	}
	bundle, err := s.pipe.SocialPosts(ctx, content)
	if err != nil {
		return nil, err
	}
	doc, err := dbtypes.NewNullJSON(bundle)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSocial(ctx, id, doc); err != nil {
		return nil, fmt.Errorf("save social posts: %w", err)
	}
	return bundle, nil
}

// GenerateEmailCampaign creates the four-drip campaign for a saved post,
// stamps the generation time and writes the email_campaign column only.
func (s *Service) GenerateEmailCampaign(ctx context.Context, id, content string) (*models.EmailCampaign, error) {
	if _, err := s.repo.GetPost(ctx, id); err != nil {
		return nil, fmt.Errorf("fetch post: %w", err)
	}
	drips, err := s.pipe.EmailDrips(ctx, content)
	if err != nil {
		return nil, err
	}
	campaign := &models.EmailCampaign{
		Drips:       drips,
		GeneratedAt: time.Now().UTC(),
	}
	doc, err := dbtypes.NewNullJSON(campaign)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEmailCampaign(ctx, id, doc); err != nil {
		return nil, fmt.Errorf("save email campaign: %w", err)
	}
	return campaign, nil
}
