package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix          = "chat_transcript:"
	defaultMaxMessages = 250
	defaultTTL         = 24 * time.Hour
)

// Entry is one line of a chat transcript.
type Entry struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"` // "user" or "bot"
	Text       string    `json:"text"`
	Type       string    `json:"type,omitempty"`
	Step       string    `json:"step,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store appends to and reads per-session transcripts.
type Store interface {
	Append(ctx context.Context, sessionID string, entry Entry) error
	List(ctx context.Context, sessionID string, limit int64) ([]Entry, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore keeps each transcript as a capped Redis list.
type RedisStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	maxMessages int64
	ttl         time.Duration
}

// NewRedisStore returns nil when no client is configured, which the callers treat as disabled.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		redis:       client,
		tracer:      otel.Tracer("geecurly.internal.transcript"),
		maxMessages: defaultMaxMessages,
		ttl:         ttl,
	}
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, entry Entry) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if sessionID == "" {
		return errors.New("transcript: sessionID required")
	}
	entry = stamp(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("transcript: marshal entry: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "transcript.append")
	defer span.End()

	key := transcriptKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("transcript: append: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, sessionID string, limit int64) ([]Entry, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if sessionID == "" {
		return nil, errors.New("transcript: sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "transcript.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := s.redis.LRange(ctx, transcriptKey(sessionID), start, -1).Result()
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, redis.Nil) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("transcript: list: %w", err)
	}

	out := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, transcriptKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("transcript: delete: %w", err)
	}
	return nil
}

// MemoryStore is an in-process transcript store for tests and single-node runs.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string][]Entry
	maxMessages int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Entry), maxMessages: defaultMaxMessages}
}

func (m *MemoryStore) Append(ctx context.Context, sessionID string, entry Entry) error {
	if sessionID == "" {
		return errors.New("transcript: sessionID required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.entries[sessionID], stamp(entry))
	if len(list) > m.maxMessages {
		list = list[len(list)-m.maxMessages:]
	}
	m.entries[sessionID] = list
	return nil
}

func (m *MemoryStore) List(ctx context.Context, sessionID string, limit int64) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[sessionID]
	if limit > 0 && int64(len(list)) > limit {
		list = list[int64(len(list))-limit:]
	}
	out := make([]Entry, len(list))
	copy(out, list)
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()
	return nil
}

func stamp(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

func transcriptKey(sessionID string) string {
	return keyPrefix + sessionID
}
