package push

import (
	"context"
	"errors"
	"fmt"

	"crmpush/internal/crm"

	"github.com/rs/zerolog"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service creates push jobs and synchronizes their contacts with the CRM.
type Service struct {
	UoW UnitOfWork
	CRM crm.Client
	Log zerolog.Logger
}

// CreateJob stores a pending job and its contacts in one transaction.
func (s *Service) CreateJob(ctx context.Context, profiles []Profile) (*PushJob, error) {
	if len(profiles) == 0 {
		return nil, ErrEmptyBatch
	}

	var job *PushJob
	err := s.UoW.Do(ctx, func(r Repos) error {
		var err error
		if job, err = r.Jobs.CreatePending(); err != nil {
			return err
		}

		contacts := make([]Contact, 0, len(profiles))
		for _, p := range profiles {
			contacts = append(contacts, p.contact(job.ID))
		}
		return r.Contacts.BulkCreate(contacts)
	})
	if err != nil {
		return nil, fmt.Errorf("create push job: %w", err)
	}
	return job, nil
}

// ProcessJob synchronizes every contact of a pending job with the CRM and
// marks the job completed. The job row stays locked for the whole sync. A
// missing job, a finished job and a job locked by another ProcessJob call
// (ErrJobBusy) are left untouched. Any other error rolls the sync
// transaction back and the job is marked failed in a second transaction;
// CRM writes already made stay in place and their ids are recorded on the
// job.
func (s *Service) ProcessJob(ctx context.Context, jobID uint64) (SyncResult, error) {
	var (
		res    SyncResult
		loaded bool
	)

	err := s.UoW.Do(ctx, func(r Repos) error {
		job, err := r.Jobs.GetForUpdate(jobID)
		if err != nil {
			return err
		}
		if job.Status != JobPending {
			return fmt.Errorf("%w: job %d is %s", ErrJobNotPending, jobID, job.Status)
		}
		loaded = true

		if err := s.sync(ctx, r, jobID, &res); err != nil {
			return err
		}
		return r.Jobs.MarkCompleted(jobID, res.Created, res.Updated, res.RemoteIDs)
	})
	if err == nil || !loaded {
		return res, err
	}

	failCtx := context.WithoutCancel(ctx)
	markErr := s.UoW.Do(failCtx, func(r Repos) error {
		return r.Jobs.MarkFailed(jobID, err.Error(), res.RemoteIDs)
	})
	if markErr != nil {
		s.Log.Error().Err(markErr).Uint64("job_id", jobID).Msg("could not record job failure")
		return res, errors.Join(err, fmt.Errorf("record failure of job %d: %w", jobID, markErr))
	}
	return res, err
}

// sync returns collaborator errors unwrapped: their text becomes the job error.
func (s *Service) sync(ctx context.Context, r Repos, jobID uint64, res *SyncResult) error {
	contacts, err := r.Contacts.ListByJob(jobID)
	if err != nil {
		return err
	}
	remote, err := s.CRM.GetAllContacts(ctx)
	if err != nil {
		return err
	}

	m := MatchContacts(contacts, remote)
	s.Log.Debug().
		Uint64("job_id", jobID).
		Int("remote", len(remote)).
		Int("matched", len(m.Matched)).
		Int("unmatched", len(m.Unmatched)).
		Msg("matched contacts")

	for _, pair := range m.Matched {
		props := Merge(pair.Local, pair.Remote)
		if _, err := s.CRM.UpdateContact(ctx, pair.Remote.ID, props); err != nil {
			return err
		}
		res.RemoteIDs = append(res.RemoteIDs, pair.Remote.ID)

		if err := r.Contacts.ApplySync(pair.Local.ID, pair.Remote.ID, props); err != nil {
			return err
		}
		res.Updated++
	}

	for _, c := range m.Unmatched {
		props := c.Properties()
		created, err := s.CRM.CreateContact(ctx, props)
		if err != nil {
			return err
		}
		res.RemoteIDs = append(res.RemoteIDs, created.ID)

		if err := r.Contacts.ApplySync(c.ID, created.ID, props); err != nil {
			return err
		}
		res.Created++
	}
	return nil
}

func (s *Service) GetJob(ctx context.Context, jobID uint64) (*PushJob, error) {
	var job *PushJob
	err := s.UoW.Do(ctx, func(r Repos) error {
		var err error
		job, err = r.Jobs.Get(jobID)
		return err
	})
	return job, err
}

// ListJobs clamps limit to [1, MaxListLimit], defaulting to DefaultListLimit.
func (s *Service) ListJobs(ctx context.Context, status JobStatus, limit int) ([]PushJob, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var jobs []PushJob
	err := s.UoW.Do(ctx, func(r Repos) error {
		var err error
		jobs, err = r.Jobs.ListByStatus(status, limit)
		return err
	})
	return jobs, err
}

func (s *Service) JobContacts(ctx context.Context, jobID uint64) ([]Contact, error) {
	var contacts []Contact
	err := s.UoW.Do(ctx, func(r Repos) error {
		if _, err := r.Jobs.Get(jobID); err != nil {
			return err
		}
		var err error
		contacts, err = r.Contacts.ListByJob(jobID)
		return err
	})
	return contacts, err
}
