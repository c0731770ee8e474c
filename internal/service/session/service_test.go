package session

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/domain/engine"
	"github.com/tinysteps/smart-explorer/internal/store"
)

type harness struct {
	db      *memDB
	clock   *clock
	svc     Service
	scene   domain.Scene
	user    uuid.UUID
	prompts map[domain.Tier][]*domain.Prompt
}

// newHarness builds a service over one scene with the given number of
// prompts per tier.
func newHarness(t *testing.T, perTier map[domain.Tier]int) *harness {
	t.Helper()

	db := newMemDB()
	clk := newClock()
	svc, err := NewService(&fakeTransactor{db: db}, db.stores(), engine.NewDefaultService(), nil, WithClock(clk.Now))
	require.NoError(t, err)

	h := &harness{
		db:      db,
		clock:   clk,
		svc:     svc,
		scene:   db.addScene("kitchen"),
		user:    uuid.New(),
		prompts: map[domain.Tier][]*domain.Prompt{},
	}
	for _, tier := range domain.Tiers {
		if n := perTier[tier]; n > 0 {
			h.prompts[tier] = db.addPrompts(h.scene.ID, tier, n)
		}
	}
	return h
}

func (h *harness) start(t *testing.T, mode domain.Mode) *StartResult {
	t.Helper()
	res, err := h.svc.Start(context.Background(), h.user, h.scene.Slug, mode)
	require.NoError(t, err)
	return res
}

func (h *harness) resolve(t *testing.T, sessionID, promptID uuid.UUID, correct bool, rt int64) *ResolveResult {
	t.Helper()
	h.clock.Advance(time.Second)
	res, err := h.svc.ResolvePrompt(context.Background(), h.user, sessionID, ResolveInput{
		PromptID:       promptID,
		Correct:        correct,
		ResponseTimeMs: &rt,
	})
	require.NoError(t, err)
	return res
}

func TestNewService_RequiresDependencies(t *testing.T) {
	db := newMemDB()
	eng := engine.NewDefaultService()

	_, err := NewService(nil, db.stores(), eng, nil)
	assert.Error(t, err)

	_, err = NewService(&fakeTransactor{db: db}, Stores{}, eng, nil)
	assert.Error(t, err)

	_, err = NewService(&fakeTransactor{db: db}, db.stores(), nil, nil)
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	t.Run("new user starts at tierA with a prompt in history", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 2})

		res := h.start(t, domain.ModePlay)

		require.NotNil(t, res.Prompt)
		assert.Equal(t, domain.TierA, res.Session.StartDifficulty)
		assert.Equal(t, domain.TierA, res.Session.State.Difficulty)
		assert.Equal(t, 10, res.Session.State.PromptCap)
		assert.Equal(t, []uuid.UUID{res.Prompt.ID}, res.Session.State.History)
		assert.Zero(t, res.Session.State.CurrentStreak)
		assert.False(t, res.Session.Ended())

		turns := h.db.turnsFor(res.Session.ID)
		require.Len(t, turns, 1)
		assert.Equal(t, domain.TurnPromptShown, turns[0].Type)
		assert.Equal(t, res.Prompt.ID, *turns[0].PromptID)
	})

	t.Run("learn and therapy are effectively uncapped", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		assert.Greater(t, h.start(t, domain.ModeLearn).Session.State.PromptCap, 100)
		assert.Greater(t, h.start(t, domain.ModeTherapy).Session.State.PromptCap, 100)
	})

	t.Run("scene without prompts yields no prompt", func(t *testing.T) {
		h := newHarness(t, nil)

		res := h.start(t, domain.ModePlay)

		assert.Nil(t, res.Prompt)
		assert.Empty(t, res.Session.State.History)
		assert.Empty(t, h.db.turnsFor(res.Session.ID))
	})

	t.Run("invalid mode", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})

		_, err := h.svc.Start(context.Background(), h.user, h.scene.Slug, domain.Mode("arcade"))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Empty(t, h.db.sessions)
	})

	t.Run("empty slug", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.Start(context.Background(), h.user, "", domain.ModePlay)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("unknown scene", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.svc.Start(context.Background(), h.user, "garage", domain.ModePlay)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("lifetime accuracy of 90 without mastery starts at tierC", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1, domain.TierC: 1})
		r := domain.NewUserRewards(h.user)
		r.LifetimeCorrect, r.LifetimeTotal, r.Accuracy = 9, 10, 90
		h.db.putRewards(r)

		res := h.start(t, domain.ModePlay)

		assert.Equal(t, domain.TierC, res.Session.StartDifficulty)
		require.NotNil(t, res.Prompt)
		assert.Equal(t, domain.TierC, res.Prompt.Difficulty)
	})

	t.Run("unlocked tier wins over lifetime accuracy", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1, domain.TierB: 1})
		r := domain.NewUserRewards(h.user)
		r.LifetimeCorrect, r.LifetimeTotal, r.Accuracy = 19, 20, 95
		tierB := domain.TierB
		r.Scenes["kitchen"] = domain.SceneMastery{Accuracy: 80, PromptsSeen: 5, TierUnlocked: &tierB}
		h.db.putRewards(r)

		res := h.start(t, domain.ModePlay)

		assert.Equal(t, domain.TierB, res.Session.StartDifficulty)
	})

	t.Run("selector falls back to a lower tier", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		r := domain.NewUserRewards(h.user)
		r.LifetimeCorrect, r.LifetimeTotal, r.Accuracy = 9, 10, 90
		h.db.putRewards(r)

		res := h.start(t, domain.ModePlay)

		assert.Equal(t, domain.TierC, res.Session.StartDifficulty)
		require.NotNil(t, res.Prompt)
		assert.Equal(t, domain.TierA, res.Prompt.Difficulty)
	})
}

func TestResolvePrompt_PlayEndsWhenPromptsRunOut(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 3})
	started := h.start(t, domain.ModePlay)
	require.NotNil(t, started.Prompt)

	served := map[uuid.UUID]bool{started.Prompt.ID: true}
	current := started.Prompt
	var last *ResolveResult
	for i := 0; i < 3; i++ {
		// Slow answers keep the session at tierA.
		last = h.resolve(t, started.Session.ID, current.ID, true, 20000)
		if last.NextPrompt == nil {
			break
		}
		assert.False(t, served[last.NextPrompt.ID], "prompt served twice")
		served[last.NextPrompt.ID] = true
		current = last.NextPrompt
	}

	assert.Len(t, served, 3)
	assert.Nil(t, last.NextPrompt)
	assert.True(t, last.Session.Ended())
	assert.Equal(t, 3, last.Session.TotalPrompts)
	assert.Less(t, last.Session.TotalPrompts, last.Session.State.PromptCap)
	require.NotNil(t, last.Session.EndDifficulty)
	assert.Equal(t, domain.TierA, *last.Session.EndDifficulty)

	turns := h.db.turnsFor(started.Session.ID)
	assert.Equal(t, domain.TurnSceneComplete, turns[len(turns)-1].Type)
}

func TestResolvePrompt_PlayCapEndsSession(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 15})
	started := h.start(t, domain.ModePlay)

	current := started.Prompt
	var res *ResolveResult
	for i := 0; i < 10; i++ {
		require.NotNil(t, current, "ran out of prompts at %d", i)
		res = h.resolve(t, started.Session.ID, current.ID, false, 20000)
		current = res.NextPrompt
	}

	assert.True(t, res.Session.Ended())
	assert.Nil(t, res.NextPrompt)
	assert.Equal(t, 10, res.Session.TotalPrompts)
}

func TestResolvePrompt_Escalation(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 5, domain.TierB: 2})
	started := h.start(t, domain.ModePlay)

	current := started.Prompt
	var res *ResolveResult
	for i := 0; i < 3; i++ {
		res = h.resolve(t, started.Session.ID, current.ID, true, 5000)
		current = res.NextPrompt
	}

	assert.Equal(t, domain.TierB, res.Session.State.Difficulty)
	assert.Zero(t, res.Session.State.ConsecutiveCorrect)
	assert.Zero(t, res.Session.State.ConsecutiveIncorrect)
	require.NotNil(t, res.NextPrompt)
	assert.Equal(t, domain.TierB, res.NextPrompt.Difficulty)
	assert.Equal(t, 3, res.Session.StreakAchieved)
	assert.Equal(t, 3, res.Session.State.CurrentStreak)

	// Each fast correct answer at tierA scores base plus speed bonus.
	assert.Equal(t, 3*125, res.Session.Score)
}

func TestResolvePrompt_Deescalation(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 2, domain.TierB: 3})
	r := domain.NewUserRewards(h.user)
	r.LifetimeCorrect, r.LifetimeTotal, r.Accuracy = 3, 4, 75
	h.db.putRewards(r)

	started := h.start(t, domain.ModePlay)
	require.Equal(t, domain.TierB, started.Session.StartDifficulty)

	first := h.resolve(t, started.Session.ID, started.Prompt.ID, false, 20000)
	assert.Equal(t, domain.TierB, first.Session.State.Difficulty)
	assert.Equal(t, 1, first.Session.State.ConsecutiveIncorrect)

	second := h.resolve(t, started.Session.ID, first.NextPrompt.ID, false, 20000)
	assert.Equal(t, domain.TierA, second.Session.State.Difficulty)
	assert.Zero(t, second.Session.State.ConsecutiveCorrect)
	assert.Zero(t, second.Session.State.ConsecutiveIncorrect)
	require.NotNil(t, second.NextPrompt)
	assert.Equal(t, domain.TierA, second.NextPrompt.Difficulty)
}

func TestResolvePrompt_SessionInvariants(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{
		domain.TierA: 30, domain.TierB: 30, domain.TierC: 30, domain.TierD: 30,
	})
	started := h.start(t, domain.ModeLearn)
	rng := rand.New(rand.NewSource(7))

	current := started.Prompt
	streak, best := 0, 0
	for i := 0; i < 60 && current != nil; i++ {
		correct := rng.Intn(3) > 0
		res := h.resolve(t, started.Session.ID, current.ID, correct, int64(rng.Intn(25000)))
		s := res.Session

		assert.GreaterOrEqual(t, s.CorrectPrompts, 0)
		assert.LessOrEqual(t, s.CorrectPrompts, s.TotalPrompts)
		assert.Equal(t, domain.Accuracy(s.CorrectPrompts, s.TotalPrompts), s.Accuracy)
		assert.LessOrEqual(t, len(s.State.History), engine.NewDefaultParams().HistoryCap)

		if correct {
			streak++
		} else {
			streak = 0
		}
		if streak > best {
			best = streak
		}
		assert.Equal(t, streak, s.State.CurrentStreak)
		assert.Equal(t, best, s.StreakAchieved)
		current = res.NextPrompt
	}
}

func TestResolvePrompt_RecordsTurnsAndRewards(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 3})
	started := h.start(t, domain.ModePlay)
	rt := int64(20000)

	res, err := h.svc.ResolvePrompt(context.Background(), h.user, started.Session.ID, ResolveInput{
		PromptID:       started.Prompt.ID,
		Correct:        false,
		ResponseTimeMs: &rt,
		IncorrectTaps:  2,
		HintsUsed:      []string{"glow"},
		Events: []domain.ClientEvent{
			{Type: domain.TurnTap, Payload: json.RawMessage(`{"itemId":"a"}`)},
			{Type: domain.TurnHintUsed},
		},
	})
	require.NoError(t, err)

	// Incorrect with two wrong taps: 100 - 50, no speed bonus.
	assert.Equal(t, 50, res.ScoreDelta)
	assert.Equal(t, 50, res.Session.Score)
	assert.Equal(t, 50, res.Rewards.XP)
	assert.Equal(t, domain.MaxHearts-1, res.Rewards.Hearts)
	assert.Equal(t, 1, res.Rewards.DailyStreak)
	assert.Equal(t, "2026-03-02", res.Rewards.LastPlayedOn)
	assert.Zero(t, res.Rewards.Accuracy)
	require.Contains(t, res.Rewards.Scenes, "kitchen")
	assert.Equal(t, 1, res.Rewards.Scenes["kitchen"].PromptsSeen)

	turns := h.db.turnsFor(started.Session.ID)
	types := make([]domain.TurnType, 0, len(turns))
	for _, tr := range turns {
		types = append(types, tr.Type)
	}
	assert.Equal(t, []domain.TurnType{
		domain.TurnPromptShown,
		domain.TurnTap,
		domain.TurnHintUsed,
		domain.TurnPromptResolved,
		domain.TurnPromptShown,
	}, types)

	resolved := turns[3]
	require.NotNil(t, resolved.Correct)
	assert.False(t, *resolved.Correct)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(resolved.Payload, &payload))
	assert.EqualValues(t, 2, payload["incorrectTaps"])
	assert.EqualValues(t, 50, payload["scoreDelta"])
	assert.Equal(t, []any{"glow"}, payload["hintsUsed"])
}

func TestResolvePrompt_Errors(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		_, err := h.svc.ResolvePrompt(context.Background(), h.user, uuid.New(), ResolveInput{PromptID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("existence is checked before ownership", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		_, err := h.svc.ResolvePrompt(context.Background(), uuid.New(), uuid.New(), ResolveInput{PromptID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("another user's session", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		started := h.start(t, domain.ModePlay)

		_, err := h.svc.ResolvePrompt(context.Background(), uuid.New(), started.Session.ID,
			ResolveInput{PromptID: started.Prompt.ID})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown prompt", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		started := h.start(t, domain.ModePlay)

		_, err := h.svc.ResolvePrompt(context.Background(), h.user, started.Session.ID,
			ResolveInput{PromptID: uuid.New()})

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Len(t, h.db.turnsFor(started.Session.ID), 1)
	})

	t.Run("prompt from another scene", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		other := h.db.addScene("garden")
		foreign := h.db.addPrompts(other.ID, domain.TierA, 1)[0]
		started := h.start(t, domain.ModePlay)

		_, err := h.svc.ResolvePrompt(context.Background(), h.user, started.Session.ID,
			ResolveInput{PromptID: foreign.ID})

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		sess, _ := h.db.stores().Sessions.GetByID(context.Background(), started.Session.ID)
		assert.Zero(t, sess.TotalPrompts)
	})

	t.Run("missing prompt id", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.ResolvePrompt(context.Background(), h.user, uuid.New(), ResolveInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("server-only event types are rejected before any write", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 2})
		started := h.start(t, domain.ModePlay)

		_, err := h.svc.ResolvePrompt(context.Background(), h.user, started.Session.ID, ResolveInput{
			PromptID: started.Prompt.ID,
			Events:   []domain.ClientEvent{{Type: domain.TurnSceneComplete}},
		})

		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "events.type", vErr.Field)
		assert.Len(t, h.db.turnsFor(started.Session.ID), 1)
	})

	t.Run("ended session", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 2})
		started := h.start(t, domain.ModePlay)
		_, err := h.svc.Complete(context.Background(), h.user, started.Session.ID)
		require.NoError(t, err)

		_, err = h.svc.ResolvePrompt(context.Background(), h.user, started.Session.ID,
			ResolveInput{PromptID: started.Prompt.ID})

		assert.ErrorIs(t, err, domain.ErrSessionEnded)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestResolvePrompt_ConflictRollsBack(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 3})
	started := h.start(t, domain.ModePlay)
	turnsBefore := len(h.db.turnsFor(started.Session.ID))

	h.db.beforeSessionUpdate = func(id uuid.UUID) {
		h.db.mu.Lock()
		defer h.db.mu.Unlock()
		s := h.db.sessions[id]
		s.Version++
		h.db.sessions[id] = s
	}

	_, err := h.svc.ResolvePrompt(context.Background(), h.user, started.Session.ID,
		ResolveInput{PromptID: started.Prompt.ID, Correct: true})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, h.db.turnsFor(started.Session.ID), turnsBefore)
	_, rerr := h.db.stores().Rewards.Get(context.Background(), h.user)
	assert.ErrorIs(t, rerr, store.ErrRewardsNotFound)
}

func TestResolvePrompt_RewardFailureRollsBackSession(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 3})
	started := h.start(t, domain.ModePlay)
	h.db.failRewardUpsert = errors.New("disk full")

	_, err := h.svc.ResolvePrompt(context.Background(), h.user, started.Session.ID,
		ResolveInput{PromptID: started.Prompt.ID, Correct: true})

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "resolve_prompt", svcErr.Operation)

	sess, err := h.db.stores().Sessions.GetByID(context.Background(), started.Session.ID)
	require.NoError(t, err)
	assert.Zero(t, sess.TotalPrompts)
	assert.Equal(t, 1, sess.Version)
}

func TestComplete(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 5})
		started := h.start(t, domain.ModePlay)
		res := h.resolve(t, started.Session.ID, started.Prompt.ID, true, 20000)
		h.resolve(t, started.Session.ID, res.NextPrompt.ID, true, 20000)

		h.clock.Advance(time.Minute)
		first, err := h.svc.Complete(context.Background(), h.user, started.Session.ID)
		require.NoError(t, err)
		h.clock.Advance(time.Minute)
		second, err := h.svc.Complete(context.Background(), h.user, started.Session.ID)
		require.NoError(t, err)

		require.NotNil(t, first.Session.EndedAt)
		assert.Equal(t, *first.Session.EndedAt, *second.Session.EndedAt)
		assert.Equal(t, *first.Session.EndDifficulty, *second.Session.EndDifficulty)
		assert.Equal(t, 2, first.Session.StreakAchieved)
		assert.Equal(t, first.Session.StreakAchieved, second.Session.StreakAchieved)
		assert.Equal(t, first.Session.Version, second.Session.Version)
		assert.Equal(t, 2, second.Rewards.Scenes["kitchen"].BestStreak)

		var completes int
		for _, tr := range h.db.turnsFor(started.Session.ID) {
			if tr.Type == domain.TurnSceneComplete {
				completes++
			}
		}
		assert.Equal(t, 1, completes)
	})

	t.Run("falls back to the start tier", func(t *testing.T) {
		h := newHarness(t, nil)
		started := h.start(t, domain.ModeTherapy)

		res, err := h.svc.Complete(context.Background(), h.user, started.Session.ID)

		require.NoError(t, err)
		require.NotNil(t, res.Session.EndDifficulty)
		assert.Equal(t, started.Session.StartDifficulty, *res.Session.EndDifficulty)
		assert.Equal(t, domain.MaxHearts, res.Rewards.Hearts)
	})

	t.Run("another user's session", func(t *testing.T) {
		h := newHarness(t, map[domain.Tier]int{domain.TierA: 1})
		started := h.start(t, domain.ModePlay)

		_, err := h.svc.Complete(context.Background(), uuid.New(), started.Session.ID)

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown session", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.Complete(context.Background(), h.user, uuid.New())
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestRewards(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 2})

	snap, err := h.svc.Rewards(context.Background(), h.user)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxHearts, snap.Hearts)
	assert.Zero(t, snap.XP)
	assert.Empty(t, snap.Scenes)

	started := h.start(t, domain.ModePlay)
	h.resolve(t, started.Session.ID, started.Prompt.ID, true, 20000)

	snap, err = h.svc.Rewards(context.Background(), h.user)
	require.NoError(t, err)
	assert.Equal(t, 100, snap.XP)
	assert.Equal(t, 100, snap.Accuracy)
}

func TestFindStale(t *testing.T) {
	h := newHarness(t, map[domain.Tier]int{domain.TierA: 5})
	idle := h.start(t, domain.ModePlay)
	h.clock.Advance(2 * time.Hour)
	active := h.start(t, domain.ModePlay)

	stale, err := h.svc.FindStale(context.Background(), time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, idle.Session.ID, stale[0].ID)

	_, err = h.svc.Complete(context.Background(), h.user, stale[0].ID)
	require.NoError(t, err)

	got, err := h.db.stores().Sessions.GetByID(context.Background(), active.Session.ID)
	require.NoError(t, err)
	assert.False(t, got.Ended())

	stale, err = h.svc.FindStale(context.Background(), time.Hour, 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestNewServiceError(t *testing.T) {
	assert.Nil(t, NewServiceError("op", "msg", nil))
	assert.Equal(t, domain.ErrSessionNotFound, NewServiceError("op", "msg", store.ErrSessionNotFound))
	assert.Equal(t, domain.ErrSceneNotFound, NewServiceError("op", "msg", store.ErrSceneNotFound))
	assert.Equal(t, domain.ErrPromptNotFound, NewServiceError("op", "msg", store.ErrPromptNotFound))
	assert.ErrorIs(t, NewServiceError("op", "msg", store.ErrVersionConflict), domain.ErrConflict)
	assert.Equal(t, domain.ErrSessionNotOwned, NewServiceError("op", "msg", domain.ErrSessionNotOwned))

	err := NewServiceError("op", "msg", errors.New("boom"))
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "op", svcErr.Operation)
	assert.Contains(t, err.Error(), "boom")

	corrupt := NewServiceError("resolve", "msg", store.NewStoreError("prompt", "decode", "payload column", nil))
	require.ErrorAs(t, corrupt, &svcErr)
	assert.NotErrorIs(t, corrupt, domain.ErrInvalidArgument)
}
