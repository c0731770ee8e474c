package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/service/session"
)

type mockSessionService struct{ mock.Mock }

var _ session.Service = (*mockSessionService)(nil)

func (m *mockSessionService) Start(
	ctx context.Context,
	userID uuid.UUID,
	sceneSlug string,
	mode domain.Mode,
) (*session.StartResult, error) {
	args := m.Called(ctx, userID, sceneSlug, mode)
	res, _ := args.Get(0).(*session.StartResult)
	return res, args.Error(1)
}

func (m *mockSessionService) ResolvePrompt(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	input session.ResolveInput,
) (*session.ResolveResult, error) {
	args := m.Called(ctx, userID, sessionID, input)
	res, _ := args.Get(0).(*session.ResolveResult)
	return res, args.Error(1)
}

func (m *mockSessionService) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*session.CompleteResult, error) {
	args := m.Called(ctx, userID, sessionID)
	res, _ := args.Get(0).(*session.CompleteResult)
	return res, args.Error(1)
}

func (m *mockSessionService) Rewards(ctx context.Context, userID uuid.UUID) (domain.RewardSnapshot, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.RewardSnapshot), args.Error(1)
}

func (m *mockSessionService) FindStale(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Session, error) {
	args := m.Called(ctx, olderThan, limit)
	res, _ := args.Get(0).([]*domain.Session)
	return res, args.Error(1)
}

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) ListScenes(ctx context.Context) ([]domain.SceneSummary, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]domain.SceneSummary)
	return res, args.Error(1)
}

func (m *mockCatalogService) GetScene(ctx context.Context, slug string) (*domain.SceneDetail, error) {
	args := m.Called(ctx, slug)
	res, _ := args.Get(0).(*domain.SceneDetail)
	return res, args.Error(1)
}

func (m *mockCatalogService) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
