package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	dbtypes "github.com/nitesh/blogsmith/internal/db"
	"github.com/nitesh/blogsmith/pkg/models"
)

// ErrNotFound is returned when a referenced row does not exist. Handlers
// surface it as a descriptive error message, not a 404.
var ErrNotFound = errors.New("not found")

type PgStore struct {
	db *sqlx.DB
}

func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: sqlx.NewDb(db, "postgres")}
}

func RunMigrations(db *sql.DB) error {
	initSQL := `
CREATE TABLE IF NOT EXISTS blog_posts(
  id UUID PRIMARY KEY,
  user_id TEXT NOT NULL,
  company_id TEXT NOT NULL,
  title_concept TEXT NOT NULL,
  structure JSONB NOT NULL,
  facts JSONB NOT NULL,
  article TEXT NOT NULL,
  polished TEXT NOT NULL,
  final_html TEXT NOT NULL,
  metadata JSONB NOT NULL,
  social JSONB,
  email_campaign JSONB,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_blog_posts_created ON blog_posts(created_at);
CREATE INDEX IF NOT EXISTS idx_blog_posts_user ON blog_posts(user_id);

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL DEFAULT '',
  stripe_customer_id TEXT,
  subscription_status TEXT NOT NULL DEFAULT 'none'
);

CREATE INDEX IF NOT EXISTS idx_users_stripe_customer ON users(stripe_customer_id);
`
	_, err := db.Exec(initSQL)
	return err
}

const postColumns = `id, user_id, company_id, title_concept, structure, facts, article, polished, final_html, metadata, social, email_campaign, created_at`

// InsertPost writes one assembled artifact set. There is no conflict
// handling: the id is freshly generated by the service, and duplicate
// submissions intentionally create duplicate rows.
func (p *PgStore) InsertPost(ctx context.Context, post *models.BlogPost) error {
	stmt := `
INSERT INTO blog_posts (` + postColumns + `)
VALUES ($1,$2,$3,$4,$5::jsonb,$6::jsonb,$7,$8,$9,$10::jsonb,$11::jsonb,$12::jsonb,$13)
`
	_, err := p.db.ExecContext(ctx, stmt,
		post.ID,
		post.UserID,
		post.CompanyID,
		post.TitleConcept,
		post.Structure,
		post.Facts,
		post.Article,
		post.Polished,
		post.FinalHTML,
		post.Metadata,
		post.Social,
		post.EmailCampaign,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post id=%s: %w", post.ID, err)
	}
	return nil
}

func (p *PgStore) ListPosts(ctx context.Context) ([]*models.BlogPost, error) {
	rows := []*models.BlogPost{}
	query := `SELECT ` + postColumns + ` FROM blog_posts ORDER BY created_at DESC`
	err := p.db.SelectContext(ctx, &rows, query)
	return rows, err
}

func (p *PgStore) GetPost(ctx context.Context, id string) (*models.BlogPost, error) {
	var post models.BlogPost
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE id = $1`
	if err := p.db.GetContext(ctx, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &post, nil
}

// UpdateSocial replaces only the social column of the target row.
func (p *PgStore) UpdateSocial(ctx context.Context, id string, social dbtypes.NullJSON) error {
	return p.updateColumn(ctx, "social", id, social)
}

// UpdateEmailCampaign replaces only the email_campaign column of the target row.
func (p *PgStore) UpdateEmailCampaign(ctx context.Context, id string, campaign dbtypes.NullJSON) error {
	return p.updateColumn(ctx, "email_campaign", id, campaign)
}

func (p *PgStore) updateColumn(ctx context.Context, column, id string, doc dbtypes.NullJSON) error {
	res, err := p.db.ExecContext(ctx, `UPDATE blog_posts SET `+column+` = $1::jsonb WHERE id = $2`, doc, id)
	if err != nil {
		return fmt.Errorf("update %s id=%s: %w", column, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetUserByID implements the user-directory contract.
func (p *PgStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	query := `SELECT id, email, stripe_customer_id, subscription_status FROM users WHERE id = $1`
	if err := p.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// SetStripeCustomerID records the payment-provider customer for a user.
func (p *PgStore) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET stripe_customer_id = $1 WHERE id = $2`, customerID, userID)
	if err != nil {
		return fmt.Errorf("set stripe customer user=%s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// SetSubscriptionStatus updates subscription state, keyed by the
// payment-provider customer id because that is all webhook events carry.
func (p *PgStore) SetSubscriptionStatus(ctx context.Context, customerID, status string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE users SET subscription_status = $1 WHERE stripe_customer_id = $2`, status, customerID)
	if err != nil {
		return fmt.Errorf("set subscription status customer=%s: %w", customerID, err)
	}
	return nil
}
