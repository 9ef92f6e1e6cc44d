package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/service/projects"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// ProjectHandlers provides HTTP handlers for project endpoints.
type ProjectHandlers struct {
	service *projects.Service
	log     *zerolog.Logger
}

// NewProjectHandlers creates a new project handlers instance.
func NewProjectHandlers(svc *projects.Service, logger *zerolog.Logger) *ProjectHandlers {
	return &ProjectHandlers{
		service: svc,
		log:     logger,
	}
}

// RenameProjectRequest represents the rename request body.
type RenameProjectRequest struct {
	Title string `json:"title" binding:"required,min=1,max=100"`
}

// PageRequest represents a page create or update body.
type PageRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=64"`
	Layout string `json:"layout"`
	Style  string `json:"style"`
	Logic  string `json:"logic"`
}

// PreviewRequest carries the rendered preview HTML for the explore page.
type PreviewRequest struct {
	HTML string `json:"html"`
}

// InviteRequest represents the collaborator invite body.
type InviteRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// ResolveInviteRequest identifies the invite notification being resolved.
type ResolveInviteRequest struct {
	NotificationID int64 `json:"notificationId" binding:"required"`
	ProjectID      int64 `json:"projectId"`
}

func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("projectId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid project id"})
		return 0, false
	}
	return id, true
}

// Create handles creating a project with its starter pages.
// POST /api/projects
func (h *ProjectHandlers) Create(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := h.service.Create(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to create project")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", uid).Int64("project_id", id).Msg("project created")
	c.JSON(http.StatusCreated, gin.H{"projectId": id})
}

// Rename handles renaming a project.
// PUT /api/projects/:projectId/title
func (h *ProjectHandlers) Rename(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	pid, ok := projectID(c)
	if !ok {
		return
	}

	var req RenameProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.service.Rename(c.Request.Context(), pid, uid, req.Title); err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project renamed"})
}

// Delete handles deleting a project. Owner only.
// DELETE /api/projects/:projectId
func (h *ProjectHandlers) Delete(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	pid, ok := projectID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), pid, uid); err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	h.log.Info().Int64("user_id", uid).Int64("project_id", pid).Msg("project deleted")
	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

// View handles reading a project; every read bumps the hit counter.
// GET /api/projects/:projectId
func (h *ProjectHandlers) View(c *gin.Context) {
	pid, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.service.View(c.Request.Context(), pid)
	if err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	c.JSON(http.StatusOK, project)
}

// ListPages handles listing the pages of a project.
// GET /api/projects/:projectId/pages
func (h *ProjectHandlers) ListPages(c *gin.Context) {
	pid, ok := projectID(c)
	if !ok {
		return
	}

	pages, err := h.service.Pages(c.Request.Context(), pid)
	if err != nil {
		h.log.Error().Err(err).Int64("project_id", pid).Msg("failed to list pages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if pages == nil {
		pages = []*store.ProjectPage{}
	}

	c.JSON(http.StatusOK, pages)
}

// GetPage handles reading one page of a project.
// GET /api/projects/:projectId/pages/:name
func (h *ProjectHandlers) GetPage(c *gin.Context) {
	pid, ok := projectID(c)
	if !ok {
		return
	}

	page, err := h.service.Page(c.Request.Context(), pid, c.Param("name"))
	if err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreatePage handles adding a page to a project.
// POST /api/projects/:projectId/pages
func (h *ProjectHandlers) CreatePage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	pid, ok := projectID(c)
	if !ok {
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	page := &store.ProjectPage{
		Name:   req.Name,
		Layout: req.Layout,
		Style:  req.Style,
		Logic:  req.Logic,
	}
	if err := h.service.CreatePage(c.Request.Context(), pid, uid, page); err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	c.JSON(http.StatusCreated, page)
}

// UpdatePage handles rewriting a page, including renames.
// PUT /api/projects/:projectId/pages/:name
func (h *ProjectHandlers) UpdatePage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	pid, ok := projectID(c)
	if !ok {
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	page := &store.ProjectPage{
		ProjectID: pid,
		Name:      req.Name,
		Layout:    req.Layout,
		Style:     req.Style,
		Logic:     req.Logic,
	}
	if err := h.service.UpdatePage(c.Request.Context(), pid, uid, c.Param("name"), page); err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "page updated"})
}

// DeletePage handles removing a page from a project.
// DELETE /api/projects/:projectId/pages/:name
func (h *ProjectHandlers) DeletePage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	pid, ok := projectID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePage(c.Request.Context(), pid, uid, c.Param("name")); err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "page deleted"})
}

// UpdatePreview handles storing the rendered preview HTML.
// PUT /api/projects/:projectId/preview
func (h *ProjectHandlers) UpdatePreview(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	pid, ok := projectID(c)
	if !ok {
		return
	}

	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.service.UpdatePreview(c.Request.Context(), pid, uid, req.HTML); err != nil {
		h.respondProjectError(c, err, pid)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "preview updated"})
}

// Invite handles inviting a collaborator to a project.
// POST /api/projects/:projectId/invite
func (h *ProjectHandlers) Invite(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	pid, ok := projectID(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.service.Invite(c.Request.Context(), uid, req.UserID, pid)
	if err != nil {
		switch {
		case errors.Is(err, projects.ErrCannotInviteSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot invite yourself"})
		case errors.Is(err, projects.ErrAlreadyMember):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user is already a member"})
		case errors.Is(err, projects.ErrAlreadyInvited):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already has a pending invite"})
		default:
			h.log.Error().Err(err).Int64("project_id", pid).Int64("target_user_id", req.UserID).Msg("failed to invite user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("project_id", pid).Int64("target_user_id", req.UserID).Msg("collaborator invited")
	c.JSON(http.StatusCreated, gin.H{"message": "invite sent"})
}

// AcceptInvite handles joining a project as editor.
// POST /api/projects/invites/accept
func (h *ProjectHandlers) AcceptInvite(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ResolveInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.service.AcceptInvite(c.Request.Context(), uid, req.NotificationID, req.ProjectID); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("project_id", req.ProjectID).Msg("failed to accept invite")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", uid).Int64("project_id", req.ProjectID).Msg("invite accepted")
	c.JSON(http.StatusOK, gin.H{"message": "invite accepted"})
}

// RejectInvite handles declining a project invite.
// POST /api/projects/invites/reject
func (h *ProjectHandlers) RejectInvite(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ResolveInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.service.RejectInvite(c.Request.Context(), uid, req.NotificationID); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to reject invite")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invite rejected"})
}

// Members handles listing a project's member ids.
// GET /api/projects/:projectId/members
func (h *ProjectHandlers) Members(c *gin.Context) {
	pid, ok := projectID(c)
	if !ok {
		return
	}

	ids, err := h.service.MemberIDs(c.Request.Context(), pid)
	if err != nil {
		h.log.Error().Err(err).Int64("project_id", pid).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	c.JSON(http.StatusOK, ids)
}

// PendingInvites handles listing user ids with an unresolved invite.
// GET /api/projects/:projectId/invites
func (h *ProjectHandlers) PendingInvites(c *gin.Context) {
	pid, ok := projectID(c)
	if !ok {
		return
	}

	ids, err := h.service.PendingInviteIDs(c.Request.Context(), pid)
	if err != nil {
		h.log.Error().Err(err).Int64("project_id", pid).Msg("failed to list pending invites")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	c.JSON(http.StatusOK, ids)
}

// Mine handles listing the caller's projects.
// GET /api/projects/mine
func (h *ProjectHandlers) Mine(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	list, err := h.service.MyProjects(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list projects")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if list == nil {
		list = []*store.ProjectSummary{}
	}

	c.JSON(http.StatusOK, list)
}

// Explore handles the public project gallery with keyword search and paging.
// GET /api/projects/explore?q=keyword&page=0&size=12
func (h *ProjectHandlers) Explore(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "12"))

	list, err := h.service.Explore(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to explore projects")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if list == nil {
		list = []*store.ProjectSummary{}
	}

	c.JSON(http.StatusOK, list)
}

// respondProjectError maps service errors to HTTP statuses.
func (h *ProjectHandlers) respondProjectError(c *gin.Context, err error, pid int64) {
	switch {
	case errors.Is(err, projects.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "project not found"})
	case errors.Is(err, projects.ErrPageNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "page not found"})
	case errors.Is(err, projects.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	default:
		h.log.Error().Err(err).Int64("project_id", pid).Msg("project operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
