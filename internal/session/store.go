package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/intenza/hfeval/internal/service"
)

const (
	defaultTTL = 12 * time.Hour
	keyPrefix  = "session:"
)

// Cacher is the subset of the cache the store needs.
type Cacher interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Store keeps session states in the cache, each expiring ttl after its last save.
type Store struct {
	cache  Cacher
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(cache Cacher, ttl time.Duration, logger *zap.Logger) *Store {
	if cache == nil {
		panic("nil cache provided to NewStore")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cache: cache, ttl: ttl, logger: logger.Named("session"), now: time.Now}
}

// Start creates and saves a new session for tester on series.
func (s *Store) Start(ctx context.Context, tester, series string, mode FillMode) (*State, error) {
	tester = strings.TrimSpace(tester)
	if tester == "" {
		return nil, fmt.Errorf("%w: tester is required", service.ErrInvalidSubmission)
	}
	if mode == "" {
		mode = FillSequential
	}
	st := &State{
		ID:     uuid.NewString(),
		Tester: tester,
		Series: series,
		Mode:   mode,
	}
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info("session started",
		zap.String("id", st.ID),
		zap.String("tester", tester),
		zap.String("series", series),
		zap.String("mode", string(mode)))
	return st, nil
}

// Load returns ErrNotFound when the session expired or never existed.
func (s *Store) Load(ctx context.Context, id string) (*State, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	var st State
	if err := s.cache.Get(ctx, keyPrefix+id, &st); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &st, nil
}

func (s *Store) Save(ctx context.Context, st *State) error {
	st.UpdatedAt = s.now().UTC()
	if err := s.cache.Set(ctx, keyPrefix+st.ID, st, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", st.ID, err)
	}
	return nil
}
