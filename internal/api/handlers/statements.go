package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/api/dto"
	"github.com/sajal/assesshub/internal/api/middleware"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/gorm"
)

// StatementHandler serves the statement catalog and versioned weightage
// management.
type StatementHandler struct {
	db *gorm.DB
}

func NewStatementHandler(db *gorm.DB) *StatementHandler {
	return &StatementHandler{db: db}
}

// ListTopics handles GET /api/v1/statement-topics.
func (h *StatementHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	var topics []models.StatementTopic
	if err := h.db.WithContext(r.Context()).
		Order("\"order\" ASC, title ASC").
		Find(&topics).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list statement topics"})
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// List handles GET /api/v1/statements.
func (h *StatementHandler) List(w http.ResponseWriter, r *http.Request) {
	query := h.db.WithContext(r.Context())

	if topic := r.URL.Query().Get("topic"); topic != "" {
		topicID, err := uuid.Parse(topic)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid topic ID"})
			return
		}
		query = query.Where("topic_id = ?", topicID)
	}

	var statements []models.Statement
	if err := query.Order("\"order\" ASC, code ASC").Find(&statements).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list statements"})
		return
	}
	writeJSON(w, http.StatusOK, statements)
}

type StatementDetailResponse struct {
	models.Statement
	Mitigations   []models.Mitigation  `json:"mitigations"`
	Opportunities []models.Opportunity `json:"opportunities"`
}

// Get handles GET /api/v1/statements/{id}, including linked mitigations and
// opportunities.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Statement not found"})
		return
	}

	var statement models.Statement
	if err := h.db.WithContext(r.Context()).
		Preload("Mitigations").
		Preload("Opportunities").
		First(&statement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Statement not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load statement"})
		}
		return
	}

	writeJSON(w, http.StatusOK, StatementDetailResponse{
		Statement:     statement,
		Mitigations:   statement.Mitigations,
		Opportunities: statement.Opportunities,
	})
}

// ListMitigations handles GET /api/v1/mitigations.
func (h *StatementHandler) ListMitigations(w http.ResponseWriter, r *http.Request) {
	var mitigations []models.Mitigation
	if err := h.db.WithContext(r.Context()).
		Order("\"order\" ASC, code ASC").
		Find(&mitigations).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list mitigations"})
		return
	}
	writeJSON(w, http.StatusOK, mitigations)
}

// ListOpportunities handles GET /api/v1/opportunities.
func (h *StatementHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	var opportunities []models.Opportunity
	if err := h.db.WithContext(r.Context()).
		Order("\"order\" ASC, code ASC").
		Find(&opportunities).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list opportunities"})
		return
	}
	writeJSON(w, http.StatusOK, opportunities)
}

type QuestionWeightageEntry struct {
	QuestionID uuid.UUID `json:"question"`
	Weightage  float64   `json:"weightage"`
}

type OptionWeightageEntry struct {
	OptionID  uuid.UUID `json:"option"`
	Weightage float64   `json:"weightage"`
}

type WeightageUploadRequest struct {
	StatementID uuid.UUID                `json:"statement"`
	Questions   []QuestionWeightageEntry `json:"questions"`
	Options     []OptionWeightageEntry   `json:"options"`
}

// UploadWeightages handles POST /api/v1/statements/weightages (moderator).
// The upload replaces the statement's draft weightage links in one
// transaction; existing versions stay untouched.
func (h *StatementHandler) UploadWeightages(w http.ResponseWriter, r *http.Request) {
	var req WeightageUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	var statement models.Statement
	if err := h.db.WithContext(r.Context()).First(&statement, "id = ?", req.StatementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Statement not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load statement"})
		}
		return
	}

	actor := middleware.GetUserID(r.Context())
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("statement_id = ? AND version = ?", statement.ID, models.WeightageVersionDraft).
			Delete(&models.QuestionStatement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("statement_id = ? AND version = ?", statement.ID, models.WeightageVersionDraft).
			Delete(&models.OptionStatement{}).Error; err != nil {
			return err
		}

		for _, entry := range req.Questions {
			var question models.Question
			if err := tx.First(&question, "id = ?", entry.QuestionID).Error; err != nil {
				return err
			}
			link := models.QuestionStatement{
				QuestionID:      question.ID,
				StatementID:     statement.ID,
				QuestionGroupID: question.GroupID,
				Weightage:       entry.Weightage,
				Version:         models.WeightageVersionDraft,
				UserStamped:     models.UserStamped{CreatedByID: &actor},
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		for _, entry := range req.Options {
			var option models.Option
			if err := tx.Preload("Question").First(&option, "id = ?", entry.OptionID).Error; err != nil {
				return err
			}
			link := models.OptionStatement{
				OptionID:    option.ID,
				StatementID: statement.ID,
				Weightage:   entry.Weightage,
				Version:     models.WeightageVersionDraft,
				UserStamped: models.UserStamped{CreatedByID: &actor},
			}
			if option.Question != nil {
				link.QuestionGroupID = option.Question.GroupID
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to upload weightages"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Draft weightages uploaded"})
}

type ActivateVersionRequest struct {
	Version         string     `json:"version"`
	QuestionGroupID *uuid.UUID `json:"question_group,omitempty"`
}

// ActivateVersion handles POST /api/v1/statements/activate-version
// (moderator). The named version becomes active and every other version is
// deactivated. When question_group is supplied only that group's links
// switch; other groups keep their active version.
func (h *StatementHandler) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	var req ActivateVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Version == "" || req.Version == models.WeightageVersionDraft {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "A non-draft version is required"})
		return
	}

	if err := h.activate(r, req.Version, req.QuestionGroupID); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to activate version"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Version activated"})
}

// ActivateDraft handles POST /api/v1/statements/activate-draft (moderator).
// Draft links are stamped with the supplied version name and activated.
func (h *StatementHandler) ActivateDraft(w http.ResponseWriter, r *http.Request) {
	var req ActivateVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Version == "" || req.Version == models.WeightageVersionDraft {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "A non-draft version name is required"})
		return
	}

	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.QuestionStatement{}, &models.OptionStatement{}} {
			query := tx.Model(model).Where("version = ?", models.WeightageVersionDraft)
			if req.QuestionGroupID != nil {
				query = query.Where("question_group_id = ?", *req.QuestionGroupID)
			}
			if err := query.Update("version", req.Version).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to promote draft"})
		return
	}

	if err := h.activate(r, req.Version, req.QuestionGroupID); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to activate version"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Draft promoted and activated"})
}

// activate flips the active flag to the named version. A nil groupID switches
// every link table row; otherwise only the group's rows change.
func (h *StatementHandler) activate(r *http.Request, version string, groupID *uuid.UUID) error {
	return h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.QuestionStatement{}, &models.OptionStatement{}} {
			query := tx.Model(model).Where("is_active = ?", true)
			if groupID != nil {
				query = query.Where("question_group_id = ?", *groupID)
			}
			if err := query.Update("is_active", false).Error; err != nil {
				return err
			}
		}
		for _, model := range []interface{}{&models.QuestionStatement{}, &models.OptionStatement{}} {
			query := tx.Model(model).Where("version = ?", version)
			if groupID != nil {
				query = query.Where("question_group_id = ?", *groupID)
			}
			if err := query.Update("is_active", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
