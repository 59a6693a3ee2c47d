package push

import (
	"time"

	"crmpush/internal/crm"

	"github.com/lib/pq"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Valid reports whether s is one of the known job statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobCompleted, JobFailed:
		return true
	}
	return false
}

type ContactStatus string

const (
	ContactPending   ContactStatus = "pending"
	ContactCompleted ContactStatus = "completed"
)

// PushJob is a batch of contacts to synchronize with the CRM.
// RemoteIDs lists the CRM records the job wrote, including on failure.
type PushJob struct {
	ID           uint64         `gorm:"primaryKey"`
	Status       JobStatus      `gorm:"type:text;index;not null;default:'pending'"`
	Error        *string        `gorm:"type:text"`
	CreatedCount int            `gorm:"not null;default:0"`
	UpdatedCount int            `gorm:"not null;default:0"`
	RemoteIDs    pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	Contacts []Contact `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// Contact is one profile of a push job. HubSpotID is set once synced.
type Contact struct {
	ID        uint64        `gorm:"primaryKey"`
	JobID     uint64        `gorm:"index;not null"`
	HubSpotID *string       `gorm:"column:hubspot_id;type:text"`
	Status    ContactStatus `gorm:"type:text;not null;default:'pending'"`

	FirstName  *string `gorm:"type:text"`
	LastName   *string `gorm:"type:text"`
	Email      *string `gorm:"type:text;index"`
	LinkedInID *string `gorm:"column:linkedin_id;type:text;index"`
	Phone      *string `gorm:"type:text"`
	Company    *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// Properties returns the contact's CRM fields, absent ones as "".
func (c Contact) Properties() crm.Properties {
	return crm.Properties{
		FirstName:  deref(c.FirstName),
		LastName:   deref(c.LastName),
		Email:      deref(c.Email),
		LinkedInID: deref(c.LinkedInID),
		Phone:      deref(c.Phone),
		Company:    deref(c.Company),
	}
}

// Profile is the incoming shape of one contact.
type Profile struct {
	FirstName  string
	LastName   string
	Email      string
	LinkedInID string
	Phone      string
	Company    string
}

func (p Profile) contact(jobID uint64) Contact {
	return Contact{
		JobID:      jobID,
		Status:     ContactPending,
		FirstName:  optional(p.FirstName),
		LastName:   optional(p.LastName),
		Email:      optional(p.Email),
		LinkedInID: optional(p.LinkedInID),
		Phone:      optional(p.Phone),
		Company:    optional(p.Company),
	}
}

// SyncResult is the outcome of one ProcessJob run.
type SyncResult struct {
	Created   int
	Updated   int
	RemoteIDs []string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optional maps "" to nil. Values are stored as given.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
