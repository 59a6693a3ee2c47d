package crm

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process CRM. Contacts are returned in insertion order.
type Memory struct {
	mu       sync.Mutex
	order    []string
	contacts map[string]Contact
	nextID   int
}

// NewMemory returns an empty in-memory CRM.
func NewMemory(seed ...Contact) *Memory {
	m := &Memory{contacts: map[string]Contact{}, nextID: 1000}
	for _, c := range seed {
		m.put(c)
	}
	return m
}

// NewSeededMemory returns the two-contact CRM used when no HubSpot token is configured.
func NewSeededMemory() *Memory {
	return NewMemory(
		Contact{ID: "hubspot_1", Properties: Properties{
			FirstName:  "John",
			LastName:   "Doe",
			Email:      "john.doe@example.com",
			LinkedInID: "linkedin_1",
			Phone:      "1234567890",
			Company:    "Example Inc",
		}},
		Contact{ID: "hubspot_2", Properties: Properties{
			FirstName:  "Jane",
			LastName:   "Smith",
			Email:      "jane.smith@example.com",
			LinkedInID: "linkedin_2",
		}},
	)
}

func (m *Memory) put(c Contact) {
	if _, ok := m.contacts[c.ID]; !ok {
		m.order = append(m.order, c.ID)
	}
	m.contacts[c.ID] = c
}

func (m *Memory) GetAllContacts(ctx context.Context) ([]Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Contact, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.contacts[id])
	}
	return out, nil
}

func (m *Memory) CreateContact(ctx context.Context, props Properties) (Contact, error) {
	if err := ctx.Err(); err != nil {
		return Contact{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := Contact{ID: fmt.Sprintf("hubspot_%d", m.nextID), Properties: props}
	m.nextID++
	m.put(c)
	return c, nil
}

// UpdateContact keeps the stored value of every field left empty in props.
func (m *Memory) UpdateContact(ctx context.Context, id string, props Properties) (Contact, error) {
	if err := ctx.Err(); err != nil {
		return Contact{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.contacts[id]
	if !ok {
		return Contact{}, fmt.Errorf("%w: %s", ErrContactNotFound, id)
	}
	updated := Contact{ID: id, Properties: props.FillFrom(existing.Properties)}
	m.put(updated)
	return updated, nil
}
