package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/api/dto"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/gorm"
)

// QuestionHandler serves the read-only question catalog.
type QuestionHandler struct {
	db *gorm.DB
}

func NewQuestionHandler(db *gorm.DB) *QuestionHandler {
	return &QuestionHandler{db: db}
}

// ListGroups handles GET /api/v1/question-groups.
func (h *QuestionHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	var groups []models.QuestionGroup
	if err := h.db.WithContext(r.Context()).
		Order("\"order\" ASC, code ASC").
		Find(&groups).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list question groups"})
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// List handles GET /api/v1/questions. Options come preloaded; an optional
// group filter narrows the catalog.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	query := h.db.WithContext(r.Context()).Preload("Options")

	if group := r.URL.Query().Get("group"); group != "" {
		groupID, err := uuid.Parse(group)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid group ID"})
			return
		}
		query = query.Where("group_id = ?", groupID)
	}

	var questions []models.Question
	if err := query.Order("\"order\" ASC, code ASC").Find(&questions).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list questions"})
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// Get handles GET /api/v1/questions/{id}.
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Question not found"})
		return
	}

	var question models.Question
	if err := h.db.WithContext(r.Context()).
		Preload("Options").
		First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Question not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load question"})
		}
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// ListOptions handles GET /api/v1/options.
func (h *QuestionHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	query := h.db.WithContext(r.Context())

	if question := r.URL.Query().Get("question"); question != "" {
		questionID, err := uuid.Parse(question)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid question ID"})
			return
		}
		query = query.Where("question_id = ?", questionID)
	}

	var options []models.Option
	if err := query.Order("\"order\" ASC, code ASC").Find(&options).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list options"})
		return
	}
	writeJSON(w, http.StatusOK, options)
}
