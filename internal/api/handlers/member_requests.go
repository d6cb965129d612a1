package handlers

import (
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

type MemberRequestHandler struct {
	db         *gorm.DB
	membership *membership.Service
	moderation *moderation.Service
	notifier   *tasks.Notifier
}

func NewMemberRequestHandler(db *gorm.DB, ms *membership.Service, mod *moderation.Service, notifier *tasks.Notifier) *MemberRequestHandler {
	return &MemberRequestHandler{db: db, membership: ms, moderation: mod, notifier: notifier}
}

func (h *MemberRequestHandler) load(w http.ResponseWriter, r *http.Request) (*models.OrganizationMemberRequest, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Member request not found"})
		return nil, false
	}
	var request models.OrganizationMemberRequest
	if err := h.db.WithContext(r.Context()).First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Member request not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load member request"})
		}
		return nil, false
	}
	return &request, true
}

// canModerate reports whether the caller administers the request's
// organization.
func (h *MemberRequestHandler) canModerate(w http.ResponseWriter, r *http.Request, request *models.OrganizationMemberRequest) bool {
	userID := middleware.GetUserID(r.Context())
	isAdmin, err := access.IsOrganizationAdmin(r.Context(), h.db, userID, request.OrganizationID)
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

// List handles GET /api/v1/member-requests. Returns the caller's own
// requests plus requests against organizations the caller administers.
func (h *MemberRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	administered := h.db.
		Table("organization_admins").
		Select("organization_id").
		Where("user_id = ?", userID)

	var requests []models.OrganizationMemberRequest
	if err := h.db.WithContext(r.Context()).
		Where("user_id = ? OR organization_id IN (?)", userID, administered).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list member requests"})
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

func (h *MemberRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	request, ok := h.load(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	if request.UserID != userID {
		isAdmin, err := access.IsOrganizationAdmin(r.Context(), h.db, userID, request.OrganizationID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
			return
		}
		if !isAdmin {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Member request not found"})
			return
		}
	}

	writeJSON(w, http.StatusOK, request)
}

// Delete handles DELETE /api/v1/member-requests/{id}. Only the requesting
// user may withdraw their own request.
func (h *MemberRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	request, ok := h.load(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	if request.UserID != userID {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(request).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete member request"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member request deleted"})
}

// Accept handles POST /api/v1/member-requests/{id}/accept. Accepting also
// adds the requesting user to the organization's member set.
func (h *MemberRequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	request, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.canModerate(w, r, request) {
		return
	}

	actor := middleware.GetUserID(r.Context())
	changed, err := h.moderation.Accept(r.Context(), request, actor)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to accept member request"})
		return
	}

	if changed {
		if err := h.membership.AddOrganizationMember(r.Context(), request.OrganizationID, request.UserID); err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to add organization member"})
			return
		}
		h.notifyRequester(r, request)
	}

	writeJSON(w, http.StatusOK, request)
}

// Reject handles POST /api/v1/member-requests/{id}/reject.
func (h *MemberRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	request, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.canModerate(w, r, request) {
		return
	}

	actor := middleware.GetUserID(r.Context())
	changed, err := h.moderation.Reject(r.Context(), request, actor)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to reject member request"})
		return
	}

	if changed {
		h.notifyRequester(r, request)
	}

	writeJSON(w, http.StatusOK, request)
}

func (h *MemberRequestHandler) notifyRequester(r *http.Request, request *models.OrganizationMemberRequest) {
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, "id = ?", request.UserID).Error; err != nil {
		return
	}
	var org models.Organization
	orgTitle := ""
	if err := h.db.WithContext(r.Context()).First(&org, "id = ?", request.OrganizationID).Error; err == nil {
		orgTitle = org.Title
	}
	h.notifier.SendTemplate(r.Context(), user.Email, models.TemplateMemberRequestResolved, map[string]string{
		"organization": orgTitle,
		"status":       string(request.GetStatus()),
		"name":         user.Name,
	})
}
