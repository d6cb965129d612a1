package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/access"
	"github.com/sajal/assesshub/internal/api/dto"
	"github.com/sajal/assesshub/internal/api/middleware"
	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/internal/membership"
	"github.com/sajal/assesshub/internal/moderation"
	"github.com/sajal/assesshub/internal/tasks"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	db         *gorm.DB
	membership *membership.Service
	moderation *moderation.Service
	notifier   *tasks.Notifier
}

func NewOrganizationHandler(db *gorm.DB, ms *membership.Service, mod *moderation.Service, notifier *tasks.Notifier) *OrganizationHandler {
	return &OrganizationHandler{db: db, membership: ms, moderation: mod, notifier: notifier}
}

type OrganizationRequest struct {
	Title          string  `json:"title"`
	Acronym        string  `json:"acronym,omitempty"`
	Description    string  `json:"description,omitempty"`
	Logo           string  `json:"logo,omitempty"`
	PointOfContact string  `json:"point_of_contact,omitempty"`
	ParentID       *string `json:"parent,omitempty"`
}

func (r OrganizationRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Title == "" {
		errs["title"] = "Title is required"
	}
	if r.ParentID != nil && *r.ParentID != "" {
		if _, err := uuid.Parse(*r.ParentID); err != nil {
			errs["parent"] = "Invalid parent ID format"
		}
	}
	return errs
}

func (h *OrganizationHandler) load(w http.ResponseWriter, r *http.Request) (*models.Organization, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
		return nil, false
	}
	var org models.Organization
	if err := h.db.WithContext(r.Context()).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load organization"})
		}
		return nil, false
	}
	return &org, true
}

// requireAdmin checks that the caller administers the organization.
func (h *OrganizationHandler) requireAdmin(w http.ResponseWriter, r *http.Request, org *models.Organization) bool {
	userID := middleware.GetUserID(r.Context())
	isAdmin, err := access.IsOrganizationAdmin(r.Context(), h.db, userID, org.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
		return false
	}
	if !isAdmin {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return false
	}
	return true
}

// List handles GET /api/v1/organizations. Accepted organizations are visible
// to everyone; pending or rejected ones only to their creator.
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var orgs []models.Organization
	if err := h.db.WithContext(r.Context()).
		Where("status = ? OR created_by_id = ?", models.StatusAccepted, userID).
		Order("title ASC").
		Find(&orgs).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list organizations"})
		return
	}

	writeJSON(w, http.StatusOK, orgs)
}

// Create handles POST /api/v1/organizations. New organizations start pending
// and become visible once a moderator accepts them.
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	userID := middleware.GetUserID(r.Context())
	org := models.Organization{
		Title:          req.Title,
		Acronym:        req.Acronym,
		Description:    req.Description,
		Logo:           req.Logo,
		PointOfContact: req.PointOfContact,
		Status:         models.StatusPending,
		UserStamped:    models.UserStamped{CreatedByID: &userID},
	}
	if req.ParentID != nil && *req.ParentID != "" {
		parentID, _ := uuid.Parse(*req.ParentID)
		org.ParentID = &parentID
	}

	if err := h.db.WithContext(r.Context()).Create(&org).Error; err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to create organization"})
		return
	}

	writeJSON(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	if org.Status != models.StatusAccepted &&
		(org.CreatedByID == nil || *org.CreatedByID != userID) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
		return
	}

	writeJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r, org) {
		return
	}

	var req OrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	userID := middleware.GetUserID(r.Context())
	updates := map[string]interface{}{
		"title":            req.Title,
		"acronym":          req.Acronym,
		"description":      req.Description,
		"logo":             req.Logo,
		"point_of_contact": req.PointOfContact,
		"updated_by_id":    userID,
	}
	if err := h.db.WithContext(r.Context()).Model(org).Updates(updates).Error; err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to update organization"})
		return
	}

	writeJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r, org) {
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(org).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete organization"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Organization deleted"})
}

// Accept handles POST /api/v1/organizations/{id}/accept (moderator only).
func (h *OrganizationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

// Reject handles POST /api/v1/organizations/{id}/reject (moderator only).
func (h *OrganizationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *OrganizationHandler) resolve(w http.ResponseWriter, r *http.Request, accept bool) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	actor := middleware.GetUserID(r.Context())
	var (
		changed bool
		err     error
	)
	if accept {
		changed, err = h.moderation.Accept(r.Context(), org, actor)
	} else {
		changed, err = h.moderation.Reject(r.Context(), org, actor)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update organization status"})
		return
	}

	if changed && org.CreatedByID != nil {
		var creator models.User
		if err := h.db.WithContext(r.Context()).First(&creator, "id = ?", *org.CreatedByID).Error; err == nil {
			h.notifier.SendTemplate(r.Context(), creator.Email, models.TemplateOrganizationResolved, map[string]string{
				"organization": org.Title,
				"status":       string(org.GetStatus()),
				"name":         creator.Name,
			})
		}
	}

	writeJSON(w, http.StatusOK, org)
}

// MemberRequest handles POST /api/v1/organizations/{id}/member-request.
// Creates a pending request and notifies every organization admin.
func (h *OrganizationHandler) MemberRequest(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	request := models.OrganizationMemberRequest{
		UserID:         userID,
		OrganizationID: org.ID,
		Status:         models.StatusPending,
		UserStamped:    models.UserStamped{CreatedByID: &userID},
	}
	if err := h.db.WithContext(r.Context()).Create(&request).Error; err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to create member request"})
		return
	}

	var admins []models.User
	if err := h.db.WithContext(r.Context()).
		Joins("JOIN organization_admins oa ON oa.user_id = users.id").
		Where("oa.organization_id = ?", org.ID).
		Find(&admins).Error; err == nil {
		for _, admin := range admins {
			h.notifier.SendTemplate(r.Context(), admin.Email, models.TemplateMemberRequestCreated, map[string]string{
				"organization": org.Title,
				"username":     middleware.GetUsername(r.Context()),
				"name":         admin.Name,
			})
		}
	}

	writeJSON(w, http.StatusCreated, request)
}

type organizationUserResponse struct {
	Username string `json:"user"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Users handles GET /api/v1/organizations/{id}/users.
func (h *OrganizationHandler) Users(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	collect := func(join, role string) ([]organizationUserResponse, error) {
		var users []models.User
		err := h.db.WithContext(r.Context()).
			Joins("JOIN "+join+" j ON j.user_id = users.id").
			Where("j.organization_id = ?", org.ID).
			Order("users.username ASC").
			Find(&users).Error
		if err != nil {
			return nil, err
		}
		out := make([]organizationUserResponse, len(users))
		for i, u := range users {
			out[i] = organizationUserResponse{Username: u.Username, Name: u.Name, Role: role}
		}
		return out, nil
	}

	admins, err := collect("organization_admins", membership.RoleAdmin)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list organization users"})
		return
	}
	members, err := collect("organization_members", membership.RoleMember)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list organization users"})
		return
	}

	writeJSON(w, http.StatusOK, append(admins, members...))
}

// AddUsers handles POST /api/v1/organizations/{id}/add-users. The body may be
// a single entry or a list; unknown usernames are skipped.
func (h *OrganizationHandler) AddUsers(w http.ResponseWriter, r *http.Request) {
	h.changeUsers(w, r, h.membership.AddOrganizationUsers)
}

// RemoveUsers handles POST /api/v1/organizations/{id}/remove-users.
func (h *OrganizationHandler) RemoveUsers(w http.ResponseWriter, r *http.Request) {
	h.changeUsers(w, r, h.membership.RemoveOrganizationUsers)
}

func (h *OrganizationHandler) changeUsers(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, org *models.Organization, entries []membership.OrganizationUserEntry) error) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r, org) {
		return
	}

	entries, err := dto.DecodeSingleOrList[membership.OrganizationUserEntry](r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	if err := apply(r.Context(), org, entries); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update organization users"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Organization users updated"})
}

// CreateProject handles POST /api/v1/organizations/{id}/projects. The project
// starts pending and is stamped with the creating user; an optional user list
// is attached in the same request.
func (h *OrganizationHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	isAdmin, err := access.IsOrganizationAdmin(r.Context(), h.db, userID, org.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
		return
	}
	isMember, err := access.IsOrganizationMember(r.Context(), h.db, userID, org.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
		return
	}
	if !isAdmin && !isMember {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	project := models.Project{
		Title:          req.Title,
		Description:    req.Description,
		OrganizationID: &org.ID,
		Visibility:     req.Visibility,
		Status:         models.StatusPending,
		UserStamped:    models.UserStamped{CreatedByID: &userID},
	}
	if project.Visibility == "" {
		project.Visibility = models.VisibilityPrivate
	}

	if err := h.db.WithContext(r.Context()).Create(&project).Error; err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to create project"})
		return
	}

	if len(req.Users) > 0 {
		if err := h.membership.UpsertProjectUsers(r.Context(), &project, req.Users, userID); err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to attach project users"})
			return
		}
	}

	writeJSON(w, http.StatusCreated, project)
}
