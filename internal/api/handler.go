package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nitesh/blogsmith/internal/billing"
	"github.com/nitesh/blogsmith/internal/pipeline"
	"github.com/nitesh/blogsmith/internal/service"
	"github.com/nitesh/blogsmith/pkg/models"
)

type Handler struct {
	pipe *pipeline.Pipeline
	svc  *service.Service
	bill *billing.Billing
}

func NewHandler(pipe *pipeline.Pipeline, svc *service.Service, bill *billing.Billing) *Handler {
	return &Handler{pipe: pipe, svc: svc, bill: bill}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		gen := api.Group("/generate")
		{
			gen.POST("/structure", h.GenerateStructure)
			gen.POST("/facts", h.GenerateFacts)
			gen.POST("/article", h.GenerateArticle)
			gen.POST("/verify", h.VerifyArticle)
			gen.POST("/polish", h.PolishArticle)
			gen.POST("/html", h.GenerateHTML)
		}
		api.POST("/posts", h.CreatePost)
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)
		api.POST("/posts/:id/social", h.GenerateSocial)
		api.POST("/posts/:id/email-campaign", h.GenerateEmailCampaign)
		api.POST("/create-checkout-session", h.CreateCheckoutSession)
		api.POST("/webhook", h.StripeWebhook)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// badRequest enumerates the missing fields so the frontend can show what to
// fix. Validation always runs before any provider call.
func badRequest(c *gin.Context, missing []string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: " + strings.Join(missing, ", ")})
}

// serverError maps downstream failures to 500. Unparseable provider replies
// carry the raw text in details for operator inspection.
func serverError(c *gin.Context, err error) {
	var raw *pipeline.RawResponseError
	if errors.As(err, &raw) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "details": raw.Raw})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func missingCompanyFields(company *models.CompanyProfile) []string {
	if company == nil {
		return []string{"company"}
	}
	var missing []string
	if company.CompanyName == "" {
		missing = append(missing, "company.company_name")
	}
	if company.Industry == "" {
		missing = append(missing, "company.industry")
	}
	if company.Tagline == "" {
		missing = append(missing, "company.tagline")
	}
	return missing
}

// GenerateStructure: POST /api/generate/structure
func (h *Handler) GenerateStructure(c *gin.Context) {
	var req struct {
		TitleConcept string                 `json:"titleConcept"`
		Company      *models.CompanyProfile `json:"company"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	var missing []string
	if req.TitleConcept == "" {
		missing = append(missing, "titleConcept")
	}
	missing = append(missing, missingCompanyFields(req.Company)...)
	if len(missing) > 0 {
		badRequest(c, missing)
		return
	}

	structure, err := h.pipe.Structure(c.Request.Context(), req.TitleConcept, *req.Company)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, structure)
}

// GenerateFacts: POST /api/generate/facts
func (h *Handler) GenerateFacts(c *gin.Context) {
	var req struct {
		Questions []string `json:"questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if len(req.Questions) == 0 {
		badRequest(c, []string{"questions"})
		return
	}

	facts, err := h.pipe.Facts(c.Request.Context(), req.Questions)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, facts)
}

// GenerateArticle: POST /api/generate/article
func (h *Handler) GenerateArticle(c *gin.Context) {
	var req struct {
		Structure *models.Structure      `json:"structure"`
		Facts     models.Facts           `json:"facts"`
		Tone      string                 `json:"tone"`
		Style     string                 `json:"style"`
		Company   *models.CompanyProfile `json:"company"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	var missing []string
	if req.Structure == nil {
		missing = append(missing, "structure")
	}
	if req.Facts == nil {
		missing = append(missing, "facts")
	}
	missing = append(missing, missingCompanyFields(req.Company)...)
	if len(missing) > 0 {
		badRequest(c, missing)
		return
	}

	content, err := h.pipe.Article(c.Request.Context(), *req.Structure, req.Facts, req.Tone, req.Style, *req.Company)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// VerifyArticle: POST /api/generate/verify
func (h *Handler) VerifyArticle(c *gin.Context) {
	var req struct {
		Draft string `json:"draft"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if req.Draft == "" {
		badRequest(c, []string{"draft"})
		return
	}

	verification, err := h.pipe.Verify(c.Request.Context(), req.Draft)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

// PolishArticle: POST /api/generate/polish
func (h *Handler) PolishArticle(c *gin.Context) {
	var req struct {
		Content     string               `json:"content"`
		Corrections *models.Verification `json:"corrections"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if req.Content == "" {
		badRequest(c, []string{"content"})
		return
	}
	corrections := models.Verification{}
	if req.Corrections != nil {
		corrections = *req.Corrections
	}

	content, err := h.pipe.Polish(c.Request.Context(), req.Content, corrections)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// GenerateHTML: POST /api/generate/html
func (h *Handler) GenerateHTML(c *gin.Context) {
	var req struct {
		Content  string `json:"content"`
		Metadata struct {
			Title    string   `json:"title"`
			Keywords []string `json:"keywords"`
		} `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	var missing []string
	if req.Content == "" {
		missing = append(missing, "content")
	}
	if req.Metadata.Title == "" {
		missing = append(missing, "metadata.title")
	}
	if len(missing) > 0 {
		badRequest(c, missing)
		return
	}

	html, err := h.pipe.HTML(c.Request.Context(), req.Content, req.Metadata.Title, req.Metadata.Keywords)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

// CreatePost: POST /api/posts
func (h *Handler) CreatePost(c *gin.Context) {
	var req struct {
		UserID       string            `json:"user_id"`
		CompanyID    string            `json:"company_id"`
		TitleConcept string            `json:"title_concept"`
		Structure    *models.Structure `json:"structure"`
		Facts        models.Facts      `json:"facts"`
		Article      string            `json:"article"`
		Polished     string            `json:"polished"`
		FinalHTML    string            `json:"final_html"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	var missing []string
	if req.UserID == "" {
		missing = append(missing, "user_id")
	}
	if req.CompanyID == "" {
		missing = append(missing, "company_id")
	}
	if req.TitleConcept == "" {
		missing = append(missing, "title_concept")
	}
	if req.Structure == nil {
		missing = append(missing, "structure")
	}
	if req.Facts == nil {
		missing = append(missing, "facts")
	}
	if req.Article == "" {
		missing = append(missing, "article")
	}
	if req.FinalHTML == "" {
		missing = append(missing, "final_html")
	}
	if len(missing) > 0 {
		badRequest(c, missing)
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), service.CreatePostInput{
		UserID:       req.UserID,
		CompanyID:    req.CompanyID,
		TitleConcept: req.TitleConcept,
		Structure:    *req.Structure,
		Facts:        req.Facts,
		Article:      req.Article,
		Polished:     req.Polished,
		FinalHTML:    req.FinalHTML,
	})
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// ListPosts: GET /api/posts
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.svc.ListPosts(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost: GET /api/posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.svc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GenerateSocial: POST /api/posts/:id/social
func (h *Handler) GenerateSocial(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if req.Content == "" {
		badRequest(c, []string{"content"})
		return
	}

	bundle, err := h.svc.GenerateSocial(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// GenerateEmailCampaign: POST /api/posts/:id/email-campaign
func (h *Handler) GenerateEmailCampaign(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if req.Content == "" {
		badRequest(c, []string{"content"})
		return
	}

	campaign, err := h.svc.GenerateEmailCampaign(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// CreateCheckoutSession: POST /api/create-checkout-session
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req struct {
		PriceID   string `json:"priceId"`
		UserID    string `json:"userId"`
		ReturnURL string `json:"returnUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	var missing []string
	if req.PriceID == "" {
		missing = append(missing, "priceId")
	}
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if req.ReturnURL == "" {
		missing = append(missing, "returnUrl")
	}
	if len(missing) > 0 {
		badRequest(c, missing)
		return
	}

	url, err := h.bill.CreateCheckoutSession(c.Request.Context(), req.PriceID, req.UserID, req.ReturnURL)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// StripeWebhook: POST /api/webhook. The body must stay raw for signature
// verification.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "could not read request body")
		return
	}

	err = h.bill.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var sigErr *billing.SignatureError
		if errors.As(err, &sigErr) {
			c.String(http.StatusBadRequest, sigErr.Error())
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
