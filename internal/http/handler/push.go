package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"crmpush/internal/push"

	"github.com/rs/zerolog/hlog"
)

// PushService is the part of push.Service the HTTP layer uses.
type PushService interface {
	CreateJob(ctx context.Context, profiles []push.Profile) (*push.PushJob, error)
	GetJob(ctx context.Context, jobID uint64) (*push.PushJob, error)
	ListJobs(ctx context.Context, status push.JobStatus, limit int) ([]push.PushJob, error)
	JobContacts(ctx context.Context, jobID uint64) ([]push.Contact, error)
}

type Scheduler interface {
	SchedulePushJob(jobID uint64) error
}

type PushHandler struct {
	Svc   PushService
	Sched Scheduler
}

type profileInput struct {
	FirstName  *string `json:"first_name" validate:"omitnil,min=1,max=100"`
	LastName   *string `json:"last_name" validate:"omitnil,min=1,max=100"`
	Email      *string `json:"email" validate:"omitnil,email"`
	LinkedInID *string `json:"linkedin_id" validate:"omitnil,min=1,max=100"`
	Phone      *string `json:"phone" validate:"omitnil,max=20,phone"`
	Company    *string `json:"company" validate:"omitnil,max=200"`
}

func (p profileInput) profile() push.Profile {
	return push.Profile{
		FirstName:  strings.TrimSpace(value(p.FirstName)),
		LastName:   strings.TrimSpace(value(p.LastName)),
		Email:      value(p.Email),
		LinkedInID: value(p.LinkedInID),
		Phone:      value(p.Phone),
		Company:    value(p.Company),
	}
}

type pushRequest struct {
	Profiles []profileInput `json:"profiles" validate:"required,min=1,max=1000,dive"`
}

type jobCreatedDTO struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

func (h *PushHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	profiles := make([]push.Profile, 0, len(req.Profiles))
	for _, p := range req.Profiles {
		profiles = append(profiles, p.profile())
	}

	job, err := h.Svc.CreateJob(r.Context(), profiles)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("create push job")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// The job is stored either way; an unscheduled one stays pending.
	if err := h.Sched.SchedulePushJob(job.ID); err != nil {
		hlog.FromRequest(r).Error().Err(err).Uint64("job_id", job.ID).Msg("schedule push job")
	}

	writeJSON(w, http.StatusCreated, jobCreatedDTO{
		JobID:   strconv.FormatUint(job.ID, 10),
		Message: "Job created successfully",
	})
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseJobID accepts any integer. ok is false for negative ids, which cannot exist.
func parseJobID(raw string) (id uint64, ok bool, err error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return 0, false, nil
	}
	return uint64(n), true, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, push.ErrJobNotFound)
}
