package push

import (
	"context"
	"errors"

	"crmpush/internal/crm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRepository interface {
	CreatePending() (*PushJob, error)
	Get(id uint64) (*PushJob, error)
	// GetForUpdate locks the job row until the transaction ends. It returns
	// ErrJobBusy without waiting when another transaction holds the row.
	GetForUpdate(id uint64) (*PushJob, error)
	// ListByStatus returns the newest jobs first; an empty status lists all.
	ListByStatus(status JobStatus, limit int) ([]PushJob, error)
	MarkCompleted(id uint64, created, updated int, remoteIDs []string) error
	MarkFailed(id uint64, errMsg string, remoteIDs []string) error
}

type ContactRepository interface {
	BulkCreate(contacts []Contact) error
	ListByJob(jobID uint64) ([]Contact, error)
	// ApplySync stores the CRM id and the synced fields, and marks the contact completed.
	ApplySync(id uint64, hubspotID string, props crm.Properties) error
}

// Repos are bound to a single transaction.
type Repos struct {
	Jobs     JobRepository
	Contacts ContactRepository
}

// UnitOfWork runs fn in a transaction, committing when it returns nil.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

type GormUnitOfWork struct {
	DB *gorm.DB
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	return u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos{
			Jobs:     &GormJobRepo{DB: tx},
			Contacts: &GormContactRepo{DB: tx},
		})
	})
}

type GormJobRepo struct {
	DB *gorm.DB
}

func (r *GormJobRepo) CreatePending() (*PushJob, error) {
	j := PushJob{Status: JobPending, RemoteIDs: pq.StringArray{}}
	if err := r.DB.Create(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *GormJobRepo) Get(id uint64) (*PushJob, error) {
	return r.first(r.DB, id)
}

func (r *GormJobRepo) GetForUpdate(id uint64) (*PushJob, error) {
	return r.first(r.DB.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}), id)
}

func (r *GormJobRepo) first(q *gorm.DB, id uint64) (*PushJob, error) {
	var j PushJob
	if err := q.Where("id = ?", id).First(&j).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		if isLockNotAvailable(err) {
			return nil, ErrJobBusy
		}
		return nil, err
	}
	return &j, nil
}

// lock_not_available, raised by NOWAIT
const pgLockNotAvailable = "55P03"

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}

func (r *GormJobRepo) ListByStatus(status JobStatus, limit int) ([]PushJob, error) {
	q := r.DB.Model(&PushJob{})
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var jobs []PushJob
	if err := q.Order("id desc").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *GormJobRepo) MarkCompleted(id uint64, created, updated int, remoteIDs []string) error {
	return r.exec(`
update push_jobs
set status='completed', error=null, created_count=?, updated_count=?, remote_ids=?, updated_at=now()
where id=?`, created, updated, pq.StringArray(nonNil(remoteIDs)), id)
}

func (r *GormJobRepo) MarkFailed(id uint64, errMsg string, remoteIDs []string) error {
	return r.exec(`
update push_jobs
set status='failed', error=?, remote_ids=?, updated_at=now()
where id=?`, errMsg, pq.StringArray(nonNil(remoteIDs)), id)
}

func (r *GormJobRepo) exec(sql string, args ...any) error {
	res := r.DB.Exec(sql, args...)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

type GormContactRepo struct {
	DB *gorm.DB
}

func (r *GormContactRepo) BulkCreate(contacts []Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(contacts, 200).Error
}

func (r *GormContactRepo) ListByJob(jobID uint64) ([]Contact, error) {
	var out []Contact
	if err := r.DB.Where("job_id = ?", jobID).Order("id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormContactRepo) ApplySync(id uint64, hubspotID string, props crm.Properties) error {
	res := r.DB.Model(&Contact{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"hubspot_id":  hubspotID,
			"status":      string(ContactCompleted),
			"first_name":  optional(props.FirstName),
			"last_name":   optional(props.LastName),
			"email":       optional(props.Email),
			"linkedin_id": optional(props.LinkedInID),
			"phone":       optional(props.Phone),
			"company":     optional(props.Company),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
