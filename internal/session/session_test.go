package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/intenza/hfeval/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memCache round-trips values through JSON the way the redis cache does.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(b, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	c.ttls[key] = ttl
	return nil
}

var series = []string{"M1", "M2", "M3"}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("start, save and load", func(t *testing.T) {
		cache := newMemCache()
		store := NewStore(cache, time.Hour, zap.NewNop())

		st, err := store.Start(ctx, " alice ", "Alpha", "")
		require.NoError(t, err)
		assert.Equal(t, "alice", st.Tester)
		assert.Equal(t, FillSequential, st.Mode)
		assert.Equal(t, time.Hour, cache.ttls[keyPrefix+st.ID])

		st.Select("Grip", "Lever", models.ResultNG)
		require.NoError(t, store.Save(ctx, st))

		loaded, err := store.Load(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, st.Answers, loaded.Answers)
		assert.Equal(t, "M1", loaded.CurrentMachine(series))
	})

	t.Run("unknown session", func(t *testing.T) {
		store := NewStore(newMemCache(), 0, nil)

		_, err := store.Load(ctx, "6f1c2c1e-8c1a-4f47-9a53-2a7a4b2f8a10")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.Load(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cache failure is not reported as not found", func(t *testing.T) {
		cache := &failingCache{err: errors.New("connection refused")}
		store := NewStore(cache, time.Hour, zap.NewNop())

		_, err := store.Load(ctx, "6f1c2c1e-8c1a-4f47-9a53-2a7a4b2f8a10")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("tester is required", func(t *testing.T) {
		store := NewStore(newMemCache(), time.Hour, zap.NewNop())
		_, err := store.Start(ctx, " ", "Alpha", FillFree)
		assert.ErrorIs(t, err, service.ErrInvalidSubmission)
	})

	t.Run("nil cache panics", func(t *testing.T) {
		assert.Panics(t, func() { NewStore(nil, time.Hour, nil) })
	})
}

type failingCache struct{ err error }

func (c *failingCache) Get(context.Context, string, any) error { return c.err }

func (c *failingCache) Set(context.Context, string, any, time.Duration) error { return c.err }

func TestState_SequentialWalk(t *testing.T) {
	st := &State{Tester: "alice", Series: "Alpha", Mode: FillSequential}

	st.Select("Grip", "Lever", models.ResultNG)
	st.SetNote("Grip", "Lever", "loose")
	st.Select("Grip", "Lever", models.ResultPass)
	st.SetSectionNote("Grip", "fine overall")
	require.NoError(t, st.SetScore(intPtr(4)))

	sub, err := st.ToSubmission(series)
	require.NoError(t, err)
	assert.Equal(t, service.Submission{
		Tester:       "alice",
		MachineCode:  "M1",
		Items:        []service.ItemResponse{{Section: "Grip", Item: "Lever", Result: models.ResultPass, Note: "loose"}},
		SectionNotes: map[string]string{"Grip": "fine overall"},
		Score:        intPtr(4),
	}, sub)

	assert.True(t, st.Advance(series))
	assert.Equal(t, "M2", st.CurrentMachine(series))
	assert.Empty(t, st.Answers)
	assert.Nil(t, st.Score)

	assert.True(t, st.Advance(series))
	assert.False(t, st.Advance(series))
	assert.True(t, st.Done(series))
	assert.Equal(t, "", st.CurrentMachine(series))
	assert.Equal(t, 3, st.Submitted)

	_, err = st.ToSubmission(series)
	assert.ErrorIs(t, err, ErrSeriesDone)
}

func TestState_FreeMode(t *testing.T) {
	st := &State{Tester: "bob", Series: "Alpha", Mode: FillFree}

	_, err := st.ToSubmission(series)
	assert.ErrorIs(t, err, ErrNoMachine)

	assert.ErrorIs(t, st.Choose("M9", series), ErrNoMachine)

	require.NoError(t, st.Choose("M3", series))
	st.Select("Fit", "Gap", models.ResultNG)
	assert.Equal(t, "M3", st.CurrentMachine(series))

	require.NoError(t, st.Choose("M2", series))
	assert.Empty(t, st.Answers)

	st.Select("Grip", "Lever", models.ResultPass)
	assert.True(t, st.Advance(series))
	assert.Equal(t, "M2", st.CurrentMachine(series))
	assert.Empty(t, st.Answers)
	assert.Equal(t, 1, st.Submitted)
	assert.False(t, st.Done(series))

	require.NoError(t, st.Choose("M3", series))
	assert.Equal(t, "M3", st.CurrentMachine(series))
}

func TestState_SetScore(t *testing.T) {
	st := &State{}
	assert.ErrorIs(t, st.SetScore(intPtr(0)), service.ErrInvalidSubmission)
	assert.ErrorIs(t, st.SetScore(intPtr(6)), service.ErrInvalidSubmission)
	require.NoError(t, st.SetScore(intPtr(5)))
	require.NoError(t, st.SetScore(nil))
	assert.Nil(t, st.Score)
}

func TestParseFillMode(t *testing.T) {
	m, err := ParseFillMode("")
	require.NoError(t, err)
	assert.Equal(t, FillSequential, m)

	m, err = ParseFillMode("free")
	require.NoError(t, err)
	assert.Equal(t, FillFree, m)

	_, err = ParseFillMode("random")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func intPtr(v int) *int { return &v }
