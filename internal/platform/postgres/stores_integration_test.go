//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/postgres"
	"github.com/tinysteps/smart-explorer/internal/store"
	"github.com/tinysteps/smart-explorer/internal/testdb"
)

func seedScene(t *testing.T, ctx context.Context, tx *sql.Tx) (*domain.Scene, []*domain.Prompt) {
	t.Helper()
	scenes := postgres.NewPostgresSceneStore(tx, nil)
	prompts := postgres.NewPostgresPromptStore(tx, nil)

	scene := &domain.Scene{
		Slug:     "kitchen-" + uuid.NewString()[:8],
		Title:    "Kitchen",
		ImageURL: "https://cdn.example.com/kitchen.png",
		Meta:     domain.SceneMeta{AgeMin: 2, AgeMax: 6, Languages: []string{"en", "es"}},
	}
	require.NoError(t, scenes.Upsert(ctx, scene))

	cup := &domain.Item{
		SceneID: scene.ID,
		Label:   "cup",
		BBox:    domain.BoundingBox{X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
		Tags:    []string{"drink"},
		Spoken:  domain.LocalizedText{"en": "cup", "es": "taza"},
	}
	require.NoError(t, scenes.UpsertItem(ctx, cup))

	var out []*domain.Prompt
	for _, tier := range []domain.Tier{domain.TierA, domain.TierA, domain.TierB} {
		p := &domain.Prompt{
			ID:         uuid.New(),
			SceneID:    scene.ID,
			Type:       domain.PromptTypeFind,
			Difficulty: tier,
			Payload:    domain.FindPayload{TargetItemIDs: []uuid.UUID{cup.ID}},
			Text:       domain.PromptText{Question: domain.LocalizedText{"en": "Find the cup"}},
		}
		require.NoError(t, prompts.Upsert(ctx, p))
		out = append(out, p)
	}
	return scene, out
}

func TestCatalogStores(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		scene, prompts := seedScene(t, ctx, tx)
		scenes := postgres.NewPostgresSceneStore(tx, nil)
		promptStore := postgres.NewPostgresPromptStore(tx, nil)

		got, err := scenes.GetBySlug(ctx, scene.Slug)
		require.NoError(t, err)
		assert.Equal(t, scene.ID, got.ID)
		assert.Equal(t, []string{"en", "es"}, got.Meta.Languages)

		_, err = scenes.GetBySlug(ctx, "missing-scene")
		assert.ErrorIs(t, err, store.ErrSceneNotFound)

		items, err := scenes.ListItems(ctx, scene.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "taza", items[0].Spoken.Get("es"))

		list, err := promptStore.ListByScene(ctx, scene.ID)
		require.NoError(t, err)
		assert.Len(t, list, 3)

		p, err := promptStore.SampleEligible(ctx, scene.ID, domain.TierA, []uuid.UUID{prompts[0].ID})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, prompts[1].ID, p.ID)

		p, err = promptStore.SampleEligible(ctx, scene.ID, domain.TierA, []uuid.UUID{prompts[0].ID, prompts[1].ID})
		require.NoError(t, err)
		assert.Nil(t, p)

		p, err = promptStore.SampleEligible(ctx, scene.ID, domain.TierD, nil)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestSessionAndRewardStores(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Microsecond)
		scene, prompts := seedScene(t, ctx, tx)

		user, err := postgres.NewPostgresUserStore(tx, nil).UpsertByExternalID(ctx, "child-"+uuid.NewString(), now)
		require.NoError(t, err)

		sessions := postgres.NewPostgresSessionStore(tx, nil)
		sess := &domain.Session{
			ID:              uuid.New(),
			UserID:          user.ID,
			SceneID:         scene.ID,
			Mode:            domain.ModePlay,
			StartedAt:       now,
			StartDifficulty: domain.TierA,
			State: domain.SessionState{
				Difficulty: domain.TierA,
				History:    []uuid.UUID{prompts[0].ID},
				PromptCap:  10,
			},
		}
		require.NoError(t, sessions.Create(ctx, sess))
		assert.Equal(t, 1, sess.Version)

		stale := *sess
		sess.RecordOutcome(true)
		sess.UpdatedAt = now.Add(time.Second)
		require.NoError(t, sessions.Update(ctx, sess))
		assert.Equal(t, 2, sess.Version)

		assert.ErrorIs(t, sessions.Update(ctx, &stale), store.ErrVersionConflict)

		got, err := sessions.GetByID(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalPrompts)
		assert.Equal(t, 100, got.Accuracy)
		assert.Equal(t, []uuid.UUID{prompts[0].ID}, got.State.History)

		staleList, err := sessions.ListStale(ctx, now.Add(time.Hour), 10)
		require.NoError(t, err)
		var found bool
		for _, s := range staleList {
			found = found || s.ID == sess.ID
		}
		assert.True(t, found)

		turns := postgres.NewPostgresTurnStore(tx, nil)
		correct := true
		resolved := domain.NewTurn(sess.ID, domain.TurnPromptResolved, &prompts[0].ID, nil, now)
		resolved.Correct = &correct
		require.NoError(t, turns.Append(ctx,
			domain.NewTurn(sess.ID, domain.TurnPromptShown, &prompts[0].ID, nil, now),
			resolved,
		))
		log, err := turns.ListBySession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, log, 2)
		assert.Equal(t, domain.TurnPromptShown, log[0].Type)
		require.NotNil(t, log[1].Correct)
		assert.True(t, *log[1].Correct)

		rewards := postgres.NewPostgresRewardStore(tx, nil)
		_, err = rewards.Get(ctx, user.ID)
		assert.ErrorIs(t, err, store.ErrRewardsNotFound)

		r := domain.NewUserRewards(user.ID)
		day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		r.XP = 125
		r.LastPlayedOn = &day
		r.UpdatedAt = now
		r.Scenes[scene.Slug] = domain.SceneMastery{Accuracy: 1, PromptsSeen: 1, Badges: []string{}}
		require.NoError(t, rewards.Upsert(ctx, r))

		locked, err := rewards.GetForUpdate(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 125, locked.XP)
		require.NotNil(t, locked.LastPlayedOn)
		assert.Equal(t, "2026-03-01", locked.LastPlayedOn.Format(time.DateOnly))
		assert.Equal(t, 1, locked.Scenes[scene.Slug].PromptsSeen)
	})
}

func TestRewardStore_ConcurrentFirstWritersSerialize(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	user, err := postgres.NewPostgresUserStore(db, nil).UpsertByExternalID(ctx, "child-"+uuid.NewString(), time.Now().UTC())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM user_rewards WHERE user_id = $1`, user.ID)
		_, _ = db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
	})

	rewards := postgres.NewPostgresRewardStore(db, nil)
	const writers = 4
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
				txRewards := rewards.WithTx(tx)
				r, err := txRewards.GetForUpdate(ctx, user.ID)
				if err != nil {
					return err
				}
				r.XP += 10
				r.LifetimeTotal++
				r.UpdatedAt = time.Now().UTC()
				return txRewards.Upsert(ctx, r)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := rewards.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, writers*10, got.XP)
	assert.Equal(t, writers, got.LifetimeTotal)
	assert.Equal(t, domain.MaxHearts, got.Hearts)
}
