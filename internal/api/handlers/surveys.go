package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/access"
	"github.com/sajal/assesshub/internal/api/dto"
	"github.com/sajal/assesshub/internal/api/middleware"
	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/internal/survey"
	"github.com/teris-io/shortid"
	"gorm.io/gorm"
)

type SurveyHandler struct {
	db    *gorm.DB
	codec *survey.Codec
}

func NewSurveyHandler(db *gorm.DB, codec *survey.Codec) *SurveyHandler {
	return &SurveyHandler{db: db, codec: codec}
}

type SurveyAnswerResponse struct {
	ID              string            `json:"id"`
	QuestionID      string            `json:"question"`
	AnswerType      models.AnswerType `json:"answer_type"`
	Answer          *string           `json:"answer,omitempty"`
	Options         []string          `json:"options,omitempty"`
	FormattedAnswer interface{}       `json:"formatted_answer,omitempty"`
}

type SurveyResponse struct {
	ID                   string                 `json:"id"`
	Title                string                 `json:"title"`
	ProjectID            string                 `json:"project"`
	IsSharedPublicly     bool                   `json:"is_shared_publicly"`
	SharedLinkIdentifier *string                `json:"shared_link_identifier,omitempty"`
	CreatedAt            string                 `json:"created_at"`
	Answers              []SurveyAnswerResponse `json:"answers"`
	Results              []models.SurveyResult  `json:"results"`
}

func (h *SurveyHandler) toResponse(r *http.Request, sv *models.Survey) (*SurveyResponse, error) {
	var answers []models.SurveyAnswer
	if err := h.db.WithContext(r.Context()).
		Preload("Options").
		Where("survey_id = ?", sv.ID).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	var results []models.SurveyResult
	if err := h.db.WithContext(r.Context()).
		Where("survey_id = ?", sv.ID).
		Find(&results).Error; err != nil {
		return nil, err
	}

	resp := &SurveyResponse{
		ID:                   sv.ID.String(),
		Title:                sv.Title,
		ProjectID:            sv.ProjectID.String(),
		IsSharedPublicly:     sv.IsSharedPublicly,
		SharedLinkIdentifier: sv.SharedLinkIdentifier,
		CreatedAt:            sv.CreatedAt.Format(time.RFC3339),
		Results:              results,
	}

	for _, answer := range answers {
		formatted, err := h.codec.Format(r.Context(), survey.Answer{
			Type:    answer.AnswerType,
			Raw:     answer.Answer,
			Options: answer.Options,
		})
		if err != nil {
			return nil, err
		}
		optionIDs := make([]string, len(answer.Options))
		for i, option := range answer.Options {
			optionIDs[i] = option.ID.String()
		}
		resp.Answers = append(resp.Answers, SurveyAnswerResponse{
			ID:              answer.ID.String(),
			QuestionID:      answer.QuestionID.String(),
			AnswerType:      answer.AnswerType,
			Answer:          answer.Answer,
			Options:         optionIDs,
			FormattedAnswer: formatted,
		})
	}

	return resp, nil
}

func (h *SurveyHandler) load(w http.ResponseWriter, r *http.Request) (*models.Survey, *models.Project, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Survey not found"})
		return nil, nil, false
	}
	var sv models.Survey
	if err := h.db.WithContext(r.Context()).Preload("Project").First(&sv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Survey not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load survey"})
		}
		return nil, nil, false
	}
	return &sv, sv.Project, true
}

// requireReadable hides surveys of unreadable projects behind a 404.
func (h *SurveyHandler) requireReadable(w http.ResponseWriter, r *http.Request) (*models.Survey, *models.Project, bool) {
	sv, project, ok := h.load(w, r)
	if !ok {
		return nil, nil, false
	}
	userID := middleware.GetUserID(r.Context())
	if visible := h.projectVisible(r, userID, project); !visible {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Survey not found"})
		return nil, nil, false
	}
	return sv, project, true
}

func (h *SurveyHandler) projectVisible(r *http.Request, userID uuid.UUID, project *models.Project) bool {
	if project == nil {
		return false
	}
	var count int64
	err := access.ReadAllowedProjects(h.db.WithContext(r.Context()), userID).
		Where("projects.id = ?", project.ID).
		Count(&count).Error
	return err == nil && count > 0
}

// requireEditable grants the survey's creator and anyone with write access
// on the project.
func (h *SurveyHandler) requireEditable(w http.ResponseWriter, r *http.Request) (*models.Survey, bool) {
	sv, project, ok := h.requireReadable(w, r)
	if !ok {
		return nil, false
	}
	userID := middleware.GetUserID(r.Context())
	if sv.CreatedByID != nil && *sv.CreatedByID == userID {
		return sv, true
	}
	level, err := access.ResolveLevel(r.Context(), h.db, userID, project)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check access"})
		return nil, false
	}
	if !access.CanEdit(level) {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return nil, false
	}
	return sv, true
}

// List handles GET /api/v1/surveys, restricted to readable projects.
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	projectIDs := access.ReadAllowedProjects(h.db.WithContext(r.Context()), userID).Select("projects.id")

	query := h.db.WithContext(r.Context()).
		Model(&models.Survey{}).
		Where("project_id IN (?)", projectIDs)
	if project := r.URL.Query().Get("project"); project != "" {
		projectID, err := uuid.Parse(project)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
			return
		}
		query = query.Where("project_id = ?", projectID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count surveys"})
		return
	}

	var surveys []models.Survey
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&surveys).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list surveys"})
		return
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       surveys,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Get handles GET /api/v1/surveys/{id} and returns formatted answers.
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	sv, _, ok := h.requireReadable(w, r)
	if !ok {
		return
	}

	resp, err := h.toResponse(r, sv)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load survey"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/v1/surveys/{id}.
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sv, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(sv).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete survey"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Survey deleted"})
}

// Share handles POST /api/v1/surveys/{id}/share. A link identifier is
// generated on first share and kept stable afterwards.
func (h *SurveyHandler) Share(w http.ResponseWriter, r *http.Request) {
	sv, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	updates := map[string]interface{}{"is_shared_publicly": true}
	if sv.SharedLinkIdentifier == nil {
		identifier, err := shortid.Generate()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to generate share link"})
			return
		}
		updates["shared_link_identifier"] = identifier
		sv.SharedLinkIdentifier = &identifier
	}
	if err := h.db.WithContext(r.Context()).Model(sv).Updates(updates).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to share survey"})
		return
	}
	sv.IsSharedPublicly = true

	writeJSON(w, http.StatusOK, sv)
}

// Unshare handles POST /api/v1/surveys/{id}/unshare.
func (h *SurveyHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	sv, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	if err := h.db.WithContext(r.Context()).Model(sv).Update("is_shared_publicly", false).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to unshare survey"})
		return
	}
	sv.IsSharedPublicly = false

	writeJSON(w, http.StatusOK, sv)
}

// UpdateLink handles POST /api/v1/surveys/{id}/update-link and rotates the
// share identifier, invalidating the previous link.
func (h *SurveyHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	sv, ok := h.requireEditable(w, r)
	if !ok {
		return
	}

	identifier, err := shortid.Generate()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to generate share link"})
		return
	}
	if err := h.db.WithContext(r.Context()).Model(sv).Update("shared_link_identifier", identifier).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update share link"})
		return
	}
	sv.SharedLinkIdentifier = &identifier

	writeJSON(w, http.StatusOK, sv)
}

// GetShared handles GET /api/v1/surveys/shared/{identifier} without
// authentication. Only surveys currently shared resolve.
func (h *SurveyHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	var sv models.Survey
	if err := h.db.WithContext(r.Context()).
		Where("shared_link_identifier = ? AND is_shared_publicly = ?", identifier, true).
		First(&sv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Survey not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load survey"})
		}
		return
	}

	resp, err := h.toResponse(r, &sv)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load survey"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
