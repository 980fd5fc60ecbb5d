package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"promotion-campaigns/internal/auth"
	"promotion-campaigns/internal/models"
	"promotion-campaigns/internal/reactions"
	"promotion-campaigns/internal/services"

	"github.com/gin-gonic/gin"
)

type PromotionHandler struct {
	promotions *services.PromotionsService
	nominator  *services.Nominator
	board      reactions.Board
}

func NewPromotionHandler(
	promotions *services.PromotionsService,
	nominator *services.Nominator,
	board reactions.Board,
) *PromotionHandler {
	return &PromotionHandler{
		promotions: promotions,
		nominator:  nominator,
		board:      board,
	}
}

// SearchCampaigns lists the caller's guild campaigns
// GET /api/promotions/campaigns?closed=false&subject=123
func (h *PromotionHandler) SearchCampaigns(c *gin.Context) {
	guildID, ok := auth.GetGuildID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	criteria := models.CampaignSearchCriteria{GuildID: guildID}

	if closedStr := c.Query("closed"); closedStr != "" {
		closed, err := strconv.ParseBool(closedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "closed must be true or false"})
			return
		}
		criteria.IsClosed = &closed
	}

	if subjectStr := c.Query("subject"); subjectStr != "" {
		subject, err := strconv.ParseUint(subjectStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject id"})
			return
		}
		criteria.SubjectUserID = &subject
	}

	briefs, err := h.promotions.SearchCampaigns(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": briefs,
		"total":     len(briefs),
	})
}

// GetCampaign returns a campaign with its comments
// GET /api/promotions/campaigns/:id
func (h *PromotionHandler) GetCampaign(c *gin.Context) {
	campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	tally := services.TallyComments(campaign.Comments)
	c.JSON(http.StatusOK, gin.H{
		"campaign":            campaign,
		"tally":               tally,
		"approval_percentage": services.ApprovalPercentage(tally),
	})
}

// Nominate starts a nomination; the caller confirms it by reacting to the returned status message
// POST /api/promotions/nominations
func (h *PromotionHandler) Nominate(c *gin.Context) {
	userID, guildID, ok := caller(c)
	if !ok {
		return
	}

	var req struct {
		SubjectUserID uint64 `json:"subject_user_id" binding:"required"`
		TargetRoleID  uint64 `json:"target_role_id" binding:"required"`
		Comment       string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messageID, err := h.nominator.StartNomination(c.Request.Context(), models.NominationRequest{
		GuildID:          guildID,
		SubjectUserID:    req.SubjectUserID,
		TargetRoleID:     req.TargetRoleID,
		NominatingUserID: userID,
		Comment:          req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message_id": messageID,
	})
}

// GetStatusMessage returns a nomination status message
// GET /api/promotions/messages/:id
func (h *PromotionHandler) GetStatusMessage(c *gin.Context) {
	msg, ok := h.loadMessage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, msg)
}

// React adds the caller's reaction to a status message
// POST /api/promotions/messages/:id/reactions
func (h *PromotionHandler) React(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	msg, ok := h.loadMessage(c)
	if !ok {
		return
	}

	var req struct {
		Emote string `json:"emote" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emote, err := models.ParseEmote(req.Emote)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.board.React(c.Request.Context(), msg.ID, userID, emote); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddComment records a vote on a campaign
// POST /api/promotions/campaigns/:id/comments
func (h *PromotionHandler) AddComment(c *gin.Context) {
	var req struct {
		Sentiment string `json:"sentiment" binding:"required"`
		Content   string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sentiment, err := models.ParsePromotionSentiment(req.Sentiment)
	if err != nil {
		respondError(c, err)
		return
	}

	h.comment(c, sentiment, req.Content)
}

// Approve is a shortcut for an approving comment; content is optional
// POST /api/promotions/campaigns/:id/approve
func (h *PromotionHandler) Approve(c *gin.Context) {
	content, ok := optionalContent(c)
	if !ok {
		return
	}
	if content == "" {
		content = services.DefaultApprovalMessage
	}
	h.comment(c, models.PromotionSentimentApprove, content)
}

// Oppose is a shortcut for an opposing comment
// POST /api/promotions/campaigns/:id/oppose
func (h *PromotionHandler) Oppose(c *gin.Context) {
	content, ok := optionalContent(c)
	if !ok {
		return
	}
	h.comment(c, models.PromotionSentimentOppose, content)
}

// Abstain is a shortcut for an abstaining comment
// POST /api/promotions/campaigns/:id/abstain
func (h *PromotionHandler) Abstain(c *gin.Context) {
	content, ok := optionalContent(c)
	if !ok {
		return
	}
	h.comment(c, models.PromotionSentimentAbstain, content)
}

// AcceptCampaign accepts a campaign and grants the rank
// POST /api/promotions/campaigns/:id/accept
func (h *PromotionHandler) AcceptCampaign(c *gin.Context) {
	campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	accepted, err := h.promotions.AcceptCampaign(c.Request.Context(), campaign.ID)
	if errors.Is(err, models.ErrRankAssignment) {
		c.JSON(http.StatusOK, gin.H{
			"campaign": accepted,
			"warning":  err.Error(),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": accepted})
}

// RejectCampaign rejects a campaign
// POST /api/promotions/campaigns/:id/reject
func (h *PromotionHandler) RejectCampaign(c *gin.Context) {
	campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	rejected, err := h.promotions.RejectCampaign(c.Request.Context(), campaign.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": rejected})
}

func (h *PromotionHandler) comment(c *gin.Context, sentiment models.PromotionSentiment, content string) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	comment, err := h.promotions.AddComment(c.Request.Context(), campaign.ID, userID, sentiment, content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// loadCampaign resolves :id to a campaign of the caller's guild
func (h *PromotionHandler) loadCampaign(c *gin.Context) (*models.PromotionCampaign, bool) {
	guildID, ok := auth.GetGuildID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return nil, false
	}

	campaign, err := h.promotions.GetCampaign(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if campaign.GuildID != guildID {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return nil, false
	}
	return campaign, true
}

// loadMessage resolves :id to a status message of the caller's guild
func (h *PromotionHandler) loadMessage(c *gin.Context) (*models.StatusMessage, bool) {
	guildID, ok := auth.GetGuildID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	msg, err := h.board.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if msg.GuildID != guildID {
		c.JSON(http.StatusNotFound, gin.H{"error": "status message not found"})
		return nil, false
	}
	return msg, true
}

// optionalContent reads an optional {"content": ...} body. A missing body is
// empty content; a body that fails to bind is answered with 400.
func optionalContent(c *gin.Context) (string, bool) {
	var req struct {
		Content string `json:"content"`
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return "", true
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return req.Content, true
}

func caller(c *gin.Context) (uint64, uint64, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, 0, false
	}
	guildID, ok := auth.GetGuildID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, 0, false
	}
	return userID, guildID, true
}

// respondError maps the error taxonomy onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
