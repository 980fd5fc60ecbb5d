package handlers

import (
	"net/http"
	"strconv"

	"promotion-campaigns/internal/auth"
	"promotion-campaigns/internal/services"

	"github.com/gin-gonic/gin"
)

// DirectoryHandler registers guild member and rank names
type DirectoryHandler struct {
	directory *services.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler
func NewDirectoryHandler(directory *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// PutUser sets a member's display name
// PUT /api/directory/users/:id
func (h *DirectoryHandler) PutUser(c *gin.Context) {
	guildID, ok := auth.GetGuildID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.directory.UpsertUser(c.Request.Context(), guildID, userID, req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// PutRole sets a rank's name
// PUT /api/directory/roles/:id
func (h *DirectoryHandler) PutRole(c *gin.Context) {
	guildID, ok := auth.GetGuildID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.directory.UpsertRole(c.Request.Context(), guildID, roleID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// GetUserRoles lists the ranks granted to a member
// GET /api/directory/users/:id/roles
func (h *DirectoryHandler) GetUserRoles(c *gin.Context) {
	guildID, ok := auth.GetGuildID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	roles, err := h.directory.MemberRoles(c.Request.Context(), guildID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roles": roles,
		"total": len(roles),
	})
}
