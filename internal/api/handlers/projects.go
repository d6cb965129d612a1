package handlers

import (
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
	"github.com/sajal/assesshub/internal/survey"
	"github.com/sajal/assesshub/internal/tasks"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	db         *gorm.DB
	membership *membership.Service
	moderation *moderation.Service
	surveys    *survey.Service
	notifier   *tasks.Notifier
}

func NewProjectHandler(db *gorm.DB, ms *membership.Service, mod *moderation.Service, surveys *survey.Service, notifier *tasks.Notifier) *ProjectHandler {
	return &ProjectHandler{db: db, membership: ms, moderation: mod, surveys: surveys, notifier: notifier}
}

type ProjectRequest struct {
	Title       string                        `json:"title"`
	Description string                        `json:"description,omitempty"`
	Visibility  models.Visibility             `json:"visibility,omitempty"`
	Users       []membership.ProjectUserEntry `json:"users,omitempty"`
}

func (r ProjectRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Title == "" {
		errs["title"] = "Title is required"
	}
	if r.Visibility != "" && !r.Visibility.Valid() {
		errs["visibility"] = "Invalid visibility value"
	}
	return errs
}

func (h *ProjectHandler) load(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return nil, false
	}
	var project models.Project
	if err := h.db.WithContext(r.Context()).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load project"})
		}
		return nil, false
	}
	return &project, true
}

// canRead resolves whether a user may see a project at all. Explicit grants
// win; otherwise the project must be accepted and reachable through its
// visibility flag.
func (h *ProjectHandler) canRead(r *http.Request, project *models.Project) (bool, error) {
	userID := middleware.GetUserID(r.Context())
	level, err := access.ResolveLevel(r.Context(), h.db, userID, project)
	if err != nil {
		return false, err
	}
	if level != access.LevelVisibility {
		return true, nil
	}
	if project.Status != models.StatusAccepted {
		return false, nil
	}
	switch project.Visibility {
	case models.VisibilityPublic:
		if project.OrganizationID == nil {
			return true, nil
		}
		// A public project under a not-yet-accepted organization stays hidden.
		var count int64
		err := h.db.WithContext(r.Context()).Model(&models.Organization{}).
			Where("id = ? AND status = ?", *project.OrganizationID, models.StatusAccepted).
			Count(&count).Error
		return count > 0, err
	case models.VisibilityPublicWithin:
		if project.OrganizationID == nil {
			return false, nil
		}
		return access.IsOrganizationMember(r.Context(), h.db, userID, *project.OrganizationID)
	}
	return false, nil
}

// requireReadable hides projects the caller cannot see behind a 404 so that
// existence never leaks.
func (h *ProjectHandler) requireReadable(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	project, ok := h.load(w, r)
	if !ok {
		return nil, false
	}
	visible, err := h.canRead(r, project)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
		return nil, false
	}
	if !visible {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return nil, false
	}
	return project, true
}

func (h *ProjectHandler) requireEditable(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	project, ok := h.requireReadable(w, r)
	if !ok {
		return nil, false
	}
	level, err := access.ResolveLevel(r.Context(), h.db, middleware.GetUserID(r.Context()), project)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
		return nil, false
	}
	if !access.CanEdit(level) {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return nil, false
	}
	return project, true
}

// List handles GET /api/v1/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var projects []models.Project
	if err := access.ReadAllowedProjects(h.db.WithContext(r.Context()), userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list projects"})
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// Create handles POST /api/v1/projects for projects outside any
// organization.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	userID := middleware.GetUserID(r.Context())
	project := models.Project{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		Status:      models.StatusPending,
		UserStamped: models.UserStamped{CreatedByID: &userID},
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

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireReadable(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireEditable(w, r)
	if !ok {
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

	userID := middleware.GetUserID(r.Context())
	updates := map[string]interface{}{
		"title":         req.Title,
		"description":   req.Description,
		"updated_by_id": userID,
	}
	if req.Visibility != "" {
		updates["visibility"] = req.Visibility
	}
	if err := h.db.WithContext(r.Context()).Model(project).Updates(updates).Error; err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to update project"})
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(project).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete project"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project deleted"})
}

type projectUserResponse struct {
	Username   string                   `json:"user"`
	Name       string                   `json:"name"`
	Permission models.ProjectPermission `json:"permission"`
}

// Users handles GET /api/v1/projects/{id}/users.
func (h *ProjectHandler) Users(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireReadable(w, r)
	if !ok {
		return
	}

	var records []models.ProjectUser
	if err := h.db.WithContext(r.Context()).
		Preload("User").
		Where("project_id = ?", project.ID).
		Find(&records).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list project users"})
		return
	}

	out := make([]projectUserResponse, 0, len(records))
	for _, record := range records {
		if record.User == nil {
			continue
		}
		out = append(out, projectUserResponse{
			Username:   record.User.Username,
			Name:       record.User.Name,
			Permission: record.Permission,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// UpsertUsers handles POST /api/v1/projects/{id}/users. The body may be a
// single entry or a list; unknown usernames are skipped.
func (h *ProjectHandler) UpsertUsers(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	entries, err := dto.DecodeSingleOrList[membership.ProjectUserEntry](r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.membership.UpsertProjectUsers(r.Context(), project, entries, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update project users"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project users updated"})
}

// RemoveUsers handles POST /api/v1/projects/{id}/remove-users.
func (h *ProjectHandler) RemoveUsers(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	entries, err := dto.DecodeSingleOrList[membership.RemoveProjectUserEntry](r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.membership.RemoveProjectUsers(r.Context(), project, entries); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to remove project users"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project users removed"})
}

// AccessLevel handles GET /api/v1/projects/{id}/access-level.
func (h *ProjectHandler) AccessLevel(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireReadable(w, r)
	if !ok {
		return
	}

	level, err := access.ResolveLevel(r.Context(), h.db, middleware.GetUserID(r.Context()), project)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to resolve access level"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_level": string(level)})
}

// Accept handles POST /api/v1/projects/{id}/accept. Only an admin of the
// project's organization may resolve it.
func (h *ProjectHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

// Reject handles POST /api/v1/projects/{id}/reject.
func (h *ProjectHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *ProjectHandler) resolve(w http.ResponseWriter, r *http.Request, accept bool) {
	project, ok := h.load(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	if project.OrganizationID == nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return
	}
	isAdmin, err := access.IsOrganizationAdmin(r.Context(), h.db, userID, *project.OrganizationID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
		return
	}
	if !isAdmin {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return
	}

	var changed bool
	if accept {
		changed, err = h.moderation.Accept(r.Context(), project, userID)
	} else {
		changed, err = h.moderation.Reject(r.Context(), project, userID)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update project status"})
		return
	}

	if changed && project.CreatedByID != nil {
		var creator models.User
		if err := h.db.WithContext(r.Context()).First(&creator, "id = ?", *project.CreatedByID).Error; err == nil {
			h.notifier.SendTemplate(r.Context(), creator.Email, models.TemplateProjectResolved, map[string]string{
				"project": project.Title,
				"status":  string(project.GetStatus()),
				"name":    creator.Name,
			})
		}
	}

	writeJSON(w, http.StatusOK, project)
}

// CreateSurvey handles POST /api/v1/projects/{id}/surveys. The submission is
// all-or-nothing; any invalid answer rejects the whole request.
func (h *ProjectHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	var in survey.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if in.Title == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: map[string]string{"title": "Title is required"}})
		return
	}

	userID := middleware.GetUserID(r.Context())
	sv, err := h.surveys.Submit(r.Context(), project, userID, in)
	if err != nil {
		if errors.Is(err, survey.ErrInvalidSubmission) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid survey submission"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create survey"})
		return
	}

	writeJSON(w, http.StatusCreated, sv)
}
