package push

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"crmpush/internal/crm"
)

// memState is a snapshot of the tables; memUnitOfWork swaps it in on commit.
type memState struct {
	jobs          map[uint64]PushJob
	contacts      map[uint64]Contact
	nextJobID     uint64
	nextContactID uint64
}

func (s memState) clone() memState {
	cp := memState{
		jobs:          make(map[uint64]PushJob, len(s.jobs)),
		contacts:      make(map[uint64]Contact, len(s.contacts)),
		nextJobID:     s.nextJobID,
		nextContactID: s.nextContactID,
	}
	for k, v := range s.jobs {
		v.RemoteIDs = append([]string(nil), v.RemoteIDs...)
		cp.jobs[k] = v
	}
	for k, v := range s.contacts {
		cp.contacts[k] = v
	}
	return cp
}

type memUnitOfWork struct {
	mu    sync.Mutex
	state memState

	commits   int
	rollbacks int
	// failMarkFailed makes MarkFailed return this error.
	failMarkFailed error
	// locked holds job rows locked by some other transaction.
	locked map[uint64]bool
}

func newMemUnitOfWork() *memUnitOfWork {
	return &memUnitOfWork{state: memState{
		jobs:          map[uint64]PushJob{},
		contacts:      map[uint64]Contact{},
		nextJobID:     1,
		nextContactID: 1,
	}}
}

func (u *memUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	tx := u.state.clone()
	repos := Repos{
		Jobs:     &memJobRepo{s: &tx, failMarkFailed: u.failMarkFailed, locked: u.locked},
		Contacts: &memContactRepo{s: &tx},
	}
	if err := fn(repos); err != nil {
		u.rollbacks++
		return err
	}
	u.state = tx
	u.commits++
	return nil
}

func (u *memUnitOfWork) job(id uint64) PushJob {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.jobs[id]
}

func (u *memUnitOfWork) contactsOf(jobID uint64) []Contact {
	u.mu.Lock()
	defer u.mu.Unlock()
	return (&memContactRepo{s: &u.state}).list(jobID)
}

// seedJob stores a job with the given status and contacts directly.
func (u *memUnitOfWork) seedJob(status JobStatus, profiles ...Profile) uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := u.state.nextJobID
	u.state.nextJobID++
	u.state.jobs[id] = PushJob{ID: id, Status: status, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	for _, p := range profiles {
		c := p.contact(id)
		c.ID = u.state.nextContactID
		u.state.nextContactID++
		u.state.contacts[c.ID] = c
	}
	return id
}

type memJobRepo struct {
	s              *memState
	failMarkFailed error
	locked         map[uint64]bool
}

func (r *memJobRepo) CreatePending() (*PushJob, error) {
	j := PushJob{ID: r.s.nextJobID, Status: JobPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.s.nextJobID++
	r.s.jobs[j.ID] = j
	return &j, nil
}

func (r *memJobRepo) Get(id uint64) (*PushJob, error) {
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &j, nil
}

func (r *memJobRepo) GetForUpdate(id uint64) (*PushJob, error) {
	if r.locked[id] {
		return nil, ErrJobBusy
	}
	return r.Get(id)
}

func (r *memJobRepo) ListByStatus(status JobStatus, limit int) ([]PushJob, error) {
	var out []PushJob
	for _, j := range r.s.jobs {
		if status == "" || j.Status == status {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memJobRepo) MarkCompleted(id uint64, created, updated int, remoteIDs []string) error {
	j, ok := r.s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	j.Status, j.Error = JobCompleted, nil
	j.CreatedCount, j.UpdatedCount = created, updated
	j.RemoteIDs = append([]string(nil), remoteIDs...)
	j.UpdatedAt = time.Now()
	r.s.jobs[id] = j
	return nil
}

func (r *memJobRepo) MarkFailed(id uint64, errMsg string, remoteIDs []string) error {
	if r.failMarkFailed != nil {
		return r.failMarkFailed
	}
	j, ok := r.s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	j.Status, j.Error = JobFailed, &errMsg
	j.RemoteIDs = append([]string(nil), remoteIDs...)
	j.UpdatedAt = time.Now()
	r.s.jobs[id] = j
	return nil
}

type memContactRepo struct {
	s *memState
}

func (r *memContactRepo) BulkCreate(contacts []Contact) error {
	for _, c := range contacts {
		c.ID = r.s.nextContactID
		r.s.nextContactID++
		r.s.contacts[c.ID] = c
	}
	return nil
}

func (r *memContactRepo) ListByJob(jobID uint64) ([]Contact, error) {
	return r.list(jobID), nil
}

func (r *memContactRepo) list(jobID uint64) []Contact {
	var out []Contact
	for _, c := range r.s.contacts {
		if c.JobID == jobID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (r *memContactRepo) ApplySync(id uint64, hubspotID string, props crm.Properties) error {
	c, ok := r.s.contacts[id]
	if !ok {
		return ErrContactNotFound
	}
	c.HubSpotID = &hubspotID
	c.Status = ContactCompleted
	c.FirstName = optional(props.FirstName)
	c.LastName = optional(props.LastName)
	c.Email = optional(props.Email)
	c.LinkedInID = optional(props.LinkedInID)
	c.Phone = optional(props.Phone)
	c.Company = optional(props.Company)
	r.s.contacts[id] = c
	return nil
}

// flakyCRM wraps an in-memory CRM and fails selected calls.
type flakyCRM struct {
	*crm.Memory

	listErr error
	// createErr is returned once failCreateAfter creates have succeeded.
	createErr       error
	failCreateAfter int
	creates         int
	updates         []string
}

func (f *flakyCRM) GetAllContacts(ctx context.Context) ([]crm.Contact, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Memory.GetAllContacts(ctx)
}

func (f *flakyCRM) CreateContact(ctx context.Context, props crm.Properties) (crm.Contact, error) {
	if f.createErr != nil && f.creates >= f.failCreateAfter {
		return crm.Contact{}, f.createErr
	}
	f.creates++
	return f.Memory.CreateContact(ctx, props)
}

func (f *flakyCRM) UpdateContact(ctx context.Context, id string, props crm.Properties) (crm.Contact, error) {
	f.updates = append(f.updates, id)
	return f.Memory.UpdateContact(ctx, id, props)
}

var errBoom = errors.New("HubSpot API error: 500 internal error")
