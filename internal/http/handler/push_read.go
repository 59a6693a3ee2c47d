package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crmpush/internal/push"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

type jobStatusDTO struct {
	JobID        string         `json:"job_id"`
	Status       push.JobStatus `json:"status"`
	CreatedAt    *time.Time     `json:"created_at"`
	UpdatedAt    *time.Time     `json:"updated_at"`
	CreatedCount *int           `json:"created_count"`
	UpdatedCount *int           `json:"updated_count"`
	Error        *string        `json:"error"`
}

func toJobStatus(j push.PushJob) jobStatusDTO {
	out := jobStatusDTO{
		JobID:     strconv.FormatUint(j.ID, 10),
		Status:    j.Status,
		CreatedAt: &j.CreatedAt,
		UpdatedAt: &j.UpdatedAt,
	}
	switch j.Status {
	case push.JobCompleted:
		out.CreatedCount = &j.CreatedCount
		out.UpdatedCount = &j.UpdatedCount
	case push.JobFailed:
		msg := "Unknown error"
		if j.Error != nil && *j.Error != "" {
			msg = *j.Error
		}
		out.Error = &msg
	}
	return out
}

type contactDTO struct {
	ID         uint64             `json:"id"`
	HubSpotID  *string            `json:"hubspot_id"`
	Status     push.ContactStatus `json:"status"`
	FirstName  *string            `json:"first_name"`
	LastName   *string            `json:"last_name"`
	Email      *string            `json:"email"`
	LinkedInID *string            `json:"linkedin_id"`
	Phone      *string            `json:"phone"`
	Company    *string            `json:"company"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (h *PushHandler) Status(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "job_id")
	id, ok, err := parseJobID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job_id format. Must be a valid integer.")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Job with id '%s' not found", raw))
		return
	}

	job, err := h.Svc.GetJob(r.Context(), id)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Job with id '%s' not found", raw))
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Uint64("job_id", id).Msg("get push job")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	dto := toJobStatus(*job)
	dto.JobID = raw
	writeJSON(w, http.StatusOK, dto)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	status := push.JobStatus(strings.TrimSpace(strings.ToLower(r.URL.Query().Get("status"))))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be one of pending, completed, failed")
		return
	}

	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	jobs, err := h.Svc.ListJobs(r.Context(), status, limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list push jobs")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]jobStatusDTO, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobStatus(j))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PushHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "job_id")
	id, ok, err := parseJobID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job_id format. Must be a valid integer.")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Job with id '%s' not found", raw))
		return
	}

	contacts, err := h.Svc.JobContacts(r.Context(), id)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Job with id '%s' not found", raw))
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Uint64("job_id", id).Msg("list job contacts")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]contactDTO, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, contactDTO{
			ID:         c.ID,
			HubSpotID:  c.HubSpotID,
			Status:     c.Status,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Email:      c.Email,
			LinkedInID: c.LinkedInID,
			Phone:      c.Phone,
			Company:    c.Company,
			UpdatedAt:  c.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
