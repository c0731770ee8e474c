package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// memDB is an in-memory backing for the store fakes. Transactions snapshot
// the whole state and restore it when the function fails.
type memDB struct {
	mu sync.Mutex

	scenes   map[uuid.UUID]domain.Scene
	prompts  []*domain.Prompt
	sessions map[uuid.UUID]domain.Session
	turns    []*domain.Turn
	rewards  map[uuid.UUID][]byte

	// beforeSessionUpdate runs inside Update before the version check.
	beforeSessionUpdate func(id uuid.UUID)
	// failRewardUpsert makes the next reward upsert fail.
	failRewardUpsert error
}

func newMemDB() *memDB {
	return &memDB{
		scenes:   map[uuid.UUID]domain.Scene{},
		sessions: map[uuid.UUID]domain.Session{},
		rewards:  map[uuid.UUID][]byte{},
	}
}

func (db *memDB) stores() Stores {
	return Stores{
		Scenes:   &fakeSceneStore{db: db},
		Prompts:  &fakePromptStore{db: db},
		Sessions: &fakeSessionStore{db: db},
		Turns:    &fakeTurnStore{db: db},
		Rewards:  &fakeRewardStore{db: db},
	}
}

type memSnapshot struct {
	sessions map[uuid.UUID]domain.Session
	turns    []*domain.Turn
	rewards  map[uuid.UUID][]byte
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap := memSnapshot{
		sessions: make(map[uuid.UUID]domain.Session, len(db.sessions)),
		turns:    append([]*domain.Turn{}, db.turns...),
		rewards:  make(map[uuid.UUID][]byte, len(db.rewards)),
	}
	for k, v := range db.sessions {
		snap.sessions[k] = copySession(v)
	}
	for k, v := range db.rewards {
		snap.rewards[k] = v
	}
	return snap
}

func (db *memDB) restore(snap memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sessions = snap.sessions
	db.turns = snap.turns
	db.rewards = snap.rewards
}

func (db *memDB) turnsFor(sessionID uuid.UUID) []*domain.Turn {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*domain.Turn
	for _, t := range db.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out
}

func (db *memDB) addScene(slug string) domain.Scene {
	scene := domain.Scene{ID: uuid.New(), Slug: slug, Title: slug, CreatedAt: time.Now().UTC()}
	db.scenes[scene.ID] = scene
	return scene
}

func (db *memDB) addPrompts(sceneID uuid.UUID, tier domain.Tier, n int) []*domain.Prompt {
	var out []*domain.Prompt
	for i := 0; i < n; i++ {
		p := &domain.Prompt{
			ID:         uuid.New(),
			SceneID:    sceneID,
			Type:       domain.PromptTypeFind,
			Difficulty: tier,
			Payload:    domain.FindPayload{TargetItemIDs: []uuid.UUID{uuid.New()}},
			Text:       domain.PromptText{Question: domain.LocalizedText{"en": "Find it"}},
		}
		db.prompts = append(db.prompts, p)
		out = append(out, p)
	}
	return out
}

func (db *memDB) putRewards(r *domain.UserRewards) {
	b, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	db.mu.Lock()
	db.rewards[r.UserID] = b
	db.mu.Unlock()
}

func copySession(s domain.Session) domain.Session {
	s.State.History = append([]uuid.UUID{}, s.State.History...)
	if s.EndedAt != nil {
		t := *s.EndedAt
		s.EndedAt = &t
	}
	if s.EndDifficulty != nil {
		t := *s.EndDifficulty
		s.EndDifficulty = &t
	}
	return s
}

// fakeTransactor runs fn without a real transaction, rolling memDB back on
// error.
type fakeTransactor struct {
	db *memDB
}

func (f *fakeTransactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	snap := f.db.snapshot()
	if err := fn(ctx, nil); err != nil {
		f.db.restore(snap)
		return err
	}
	return nil
}

type fakeSceneStore struct{ db *memDB }

func (s *fakeSceneStore) GetBySlug(_ context.Context, slug string) (*domain.Scene, error) {
	for _, sc := range s.db.scenes {
		if sc.Slug == slug {
			out := sc
			return &out, nil
		}
	}
	return nil, store.ErrSceneNotFound
}

func (s *fakeSceneStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Scene, error) {
	sc, ok := s.db.scenes[id]
	if !ok {
		return nil, store.ErrSceneNotFound
	}
	return &sc, nil
}

func (s *fakeSceneStore) List(context.Context) ([]domain.SceneSummary, error) {
	var out []domain.SceneSummary
	for _, sc := range s.db.scenes {
		out = append(out, domain.SceneSummary{Scene: sc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *fakeSceneStore) ListItems(context.Context, uuid.UUID) ([]domain.Item, error) {
	return []domain.Item{}, nil
}

func (s *fakeSceneStore) Upsert(_ context.Context, scene *domain.Scene) error {
	s.db.scenes[scene.ID] = *scene
	return nil
}

func (s *fakeSceneStore) UpsertItem(context.Context, *domain.Item) error { return nil }

func (s *fakeSceneStore) WithTx(*sql.Tx) store.SceneStore { return s }

type fakePromptStore struct{ db *memDB }

func (s *fakePromptStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Prompt, error) {
	for _, p := range s.db.prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrPromptNotFound
}

func (s *fakePromptStore) ListByScene(_ context.Context, sceneID uuid.UUID) ([]*domain.Prompt, error) {
	var out []*domain.Prompt
	for _, p := range s.db.prompts {
		if p.SceneID == sceneID {
			out = append(out, p)
		}
	}
	return out, nil
}

// SampleEligible returns the first eligible prompt in insertion order so
// scenarios are deterministic.
func (s *fakePromptStore) SampleEligible(
	_ context.Context,
	sceneID uuid.UUID,
	tier domain.Tier,
	exclude []uuid.UUID,
) (*domain.Prompt, error) {
	excluded := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	for _, p := range s.db.prompts {
		if p.SceneID == sceneID && p.Difficulty == tier && !excluded[p.ID] {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakePromptStore) Upsert(_ context.Context, p *domain.Prompt) error {
	s.db.prompts = append(s.db.prompts, p)
	return nil
}

func (s *fakePromptStore) WithTx(*sql.Tx) store.PromptStore { return s }

type fakeSessionStore struct{ db *memDB }

func (s *fakeSessionStore) Create(_ context.Context, sess *domain.Session) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess.Version = 1
	s.db.sessions[sess.ID] = copySession(*sess)
	return nil
}

func (s *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	out := copySession(sess)
	return &out, nil
}

func (s *fakeSessionStore) Update(_ context.Context, sess *domain.Session) error {
	if hook := s.db.beforeSessionUpdate; hook != nil {
		hook(sess.ID)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.sessions[sess.ID]
	if !ok {
		return store.ErrSessionNotFound
	}
	if stored.Version != sess.Version {
		return store.ErrVersionConflict
	}
	sess.Version++
	s.db.sessions[sess.ID] = copySession(*sess)
	return nil
}

func (s *fakeSessionStore) ListStale(_ context.Context, cutoff time.Time, limit int) ([]*domain.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*domain.Session
	for _, sess := range s.db.sessions {
		if sess.EndedAt == nil && sess.UpdatedAt.Before(cutoff) {
			c := copySession(sess)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSessionStore) WithTx(*sql.Tx) store.SessionStore { return s }

type fakeTurnStore struct{ db *memDB }

func (s *fakeTurnStore) Append(_ context.Context, turns ...*domain.Turn) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.turns = append(s.db.turns, turns...)
	return nil
}

func (s *fakeTurnStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*domain.Turn, error) {
	return s.db.turnsFor(sessionID), nil
}

func (s *fakeTurnStore) WithTx(*sql.Tx) store.TurnStore { return s }

type fakeRewardStore struct{ db *memDB }

func (s *fakeRewardStore) Get(_ context.Context, userID uuid.UUID) (*domain.UserRewards, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.rewards[userID]
	if !ok {
		return nil, store.ErrRewardsNotFound
	}
	var r domain.UserRewards
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	if r.Scenes == nil {
		r.Scenes = map[string]domain.SceneMastery{}
	}
	return &r, nil
}

func (s *fakeRewardStore) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.UserRewards, error) {
	return s.Get(ctx, userID)
}

func (s *fakeRewardStore) Upsert(_ context.Context, r *domain.UserRewards) error {
	if err := s.db.failRewardUpsert; err != nil {
		s.db.failRewardUpsert = nil
		return err
	}
	s.db.putRewards(r)
	return nil
}

func (s *fakeRewardStore) WithTx(*sql.Tx) store.RewardStore { return s }

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
