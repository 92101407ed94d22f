package models

import (
	"database/sql"
	"database/sql/driver"
	"time"

	dbtypes "github.com/nitesh/blogsmith/internal/db"
)

// CompanyProfile carries the brand context that is woven into every prompt.
// CompanyName, Industry and Tagline are required on every request that takes
// a profile; the rest is optional color.
type CompanyProfile struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Tagline     string `json:"tagline"`
	Audience    string `json:"audience,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Structure is the stage-1 artifact: the skeleton of the post. Sections is
// expected to hold exactly five entries (the prompt demands it, nothing
// enforces it) and ResearchQuestions maps each section title to its
// open questions.
type Structure struct {
	Title             string              `json:"title"`
	Hook              string              `json:"hook"`
	Sections          []string            `json:"sections"`
	ResearchQuestions map[string][]string `json:"research_questions"`
	Keywords          []string            `json:"keywords"`
}

// Scan implements sql.Scanner for the jsonb structure column.
func (s *Structure) Scan(src any) error {
	return dbtypes.ScanJSON(s, src)
}

// Value implements driver.Valuer.
func (s Structure) Value() (driver.Value, error) {
	return dbtypes.JSONValue(s)
}

// Facts is the stage-2 artifact: research question mapped to its answer.
type Facts map[string]string

// Scan implements sql.Scanner for the jsonb facts column.
func (f *Facts) Scan(src any) error {
	return dbtypes.ScanJSON(f, src)
}

// Value implements driver.Valuer.
func (f Facts) Value() (driver.Value, error) {
	return dbtypes.JSONValue(f)
}

// Inaccuracy is one flagged claim from the verification stage.
type Inaccuracy struct {
	OriginalText  string   `json:"original_text"`
	Reason        string   `json:"reason"`
	CorrectedText string   `json:"corrected_text"`
	References    []string `json:"references"`
}

// Verification is the stage-4 artifact.
type Verification struct {
	FlaggedInaccuracies []Inaccuracy `json:"flagged_inaccuracies"`
}

// ChannelPost is one social post. Channels carry either hashtags or a link,
// never both.
type ChannelPost struct {
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags,omitempty"`
	Link     string   `json:"link,omitempty"`
}

// SocialBundle is the four-channel social payload generated for a saved post.
type SocialBundle struct {
	LinkedIn  ChannelPost `json:"linkedin"`
	Twitter   ChannelPost `json:"twitter"`
	Facebook  ChannelPost `json:"facebook"`
	Instagram ChannelPost `json:"instagram"`
}

// DripEmail is one email in the four-part campaign sequence.
type DripEmail struct {
	Sequence int    `json:"sequence"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// EmailCampaign aggregates the four drips with their generation timestamp.
type EmailCampaign struct {
	Drips       []DripEmail `json:"drips"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// PostMetadata is the summary derived from the artifacts when a post is
// saved. It exists so the frontend can list posts without pulling the full
// article body apart.
type PostMetadata struct {
	Title             string              `json:"title"`
	Keywords          []string            `json:"keywords"`
	Sections          []string            `json:"sections"`
	ResearchQuestions map[string][]string `json:"research_questions"`
	Facts             Facts               `json:"facts"`
}

// Scan implements sql.Scanner for the jsonb metadata column.
func (m *PostMetadata) Scan(src any) error {
	return dbtypes.ScanJSON(m, src)
}

// Value implements driver.Valuer.
func (m PostMetadata) Value() (driver.Value, error) {
	return dbtypes.JSONValue(m)
}

// BlogPost is the one durable entity: the assembled artifact set saved after
// the caller has run all stages. Social and EmailCampaign start NULL and are
// filled in by the post-processing endpoints.
type BlogPost struct {
	ID            string           `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"user_id"`
	CompanyID     string           `db:"company_id" json:"company_id"`
	TitleConcept  string           `db:"title_concept" json:"title_concept"`
	Structure     Structure        `db:"structure" json:"structure"`
	Facts         Facts            `db:"facts" json:"facts"`
	Article       string           `db:"article" json:"article"`
	Polished      string           `db:"polished" json:"polished"`
	FinalHTML     string           `db:"final_html" json:"final_html"`
	Metadata      PostMetadata     `db:"metadata" json:"metadata"`
	Social        dbtypes.NullJSON `db:"social" json:"social"`
	EmailCampaign dbtypes.NullJSON `db:"email_campaign" json:"email_campaign"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// User is a subscriber record as seen through the user-directory contract.
type User struct {
	ID                 string         `db:"id" json:"id"`
	Email              string         `db:"email" json:"email"`
	StripeCustomerID   sql.NullString `db:"stripe_customer_id" json:"stripe_customer_id"`
	SubscriptionStatus string         `db:"subscription_status" json:"subscription_status"`
}
