package receptionist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/kvstore"
)

// MemoryKey is the key the customer memory snapshot is stored under.
const MemoryKey = "geecurly_customer_memory"

// CustomerMemory is a best-effort profile built up over one session.
type CustomerMemory struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	Email               string     `json:"email,omitempty"`
	PreferredServices   []string   `json:"preferred_services"`
	PreferredStylists   []string   `json:"preferred_stylists"`
	ConversationHistory []string   `json:"conversation_history"`
	LastVisit           *time.Time `json:"last_visit,omitempty"`
	PreferredLocation   string     `json:"preferred_location,omitempty"`
}

// NewCustomerMemory starts an empty profile.
func NewCustomerMemory(now time.Time, location string) CustomerMemory {
	return CustomerMemory{
		ID:                  fmt.Sprintf("session_%d", now.UnixMilli()),
		PreferredServices:   []string{},
		PreferredStylists:   []string{},
		ConversationHistory: []string{},
		PreferredLocation:   location,
	}
}

func (m CustomerMemory) withHistory(text string) CustomerMemory {
	m.ConversationHistory = appendCopy(m.ConversationHistory, text)
	return m
}

func (m CustomerMemory) withService(name string) CustomerMemory {
	m.PreferredServices = addUnique(m.PreferredServices, name)
	return m
}

func (m CustomerMemory) withStylist(name string) CustomerMemory {
	m.PreferredStylists = addUnique(m.PreferredStylists, name)
	return m
}

func (m CustomerMemory) withContact(c Contact) CustomerMemory {
	m.Name = c.Name
	m.Phone = c.Phone
	m.Email = c.Email
	return m
}

func addUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return appendCopy(list, v)
}

// appendCopy never writes into the backing array of list, so older memory values stay intact.
func appendCopy(list []string, v string) []string {
	out := make([]string, len(list), len(list)+1)
	copy(out, list)
	return append(out, v)
}

// MemoryStore writes the memory snapshot wholesale to a key-value store.
// It has no load path; sessions never restore from it.
type MemoryStore struct {
	kv kvstore.Store
}

// NewMemoryStore wraps kv. A nil kv disables persistence.
func NewMemoryStore(kv kvstore.Store) *MemoryStore {
	return &MemoryStore{kv: kv}
}

// Save overwrites the snapshot.
func (s *MemoryStore) Save(ctx context.Context, m CustomerMemory) error {
	if s == nil || s.kv == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("receptionist: marshal memory: %w", err)
	}
	if err := s.kv.Set(ctx, MemoryKey, data); err != nil {
		return fmt.Errorf("receptionist: save memory: %w", err)
	}
	return nil
}

// Clear removes the snapshot.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if s == nil || s.kv == nil {
		return nil
	}
	if err := s.kv.Remove(ctx, MemoryKey); err != nil {
		return fmt.Errorf("receptionist: clear memory: %w", err)
	}
	return nil
}
