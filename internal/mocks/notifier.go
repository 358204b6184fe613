package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/oggyb/h1bee-match/internal/notify"
)

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyMatch(ctx context.Context, userID string, payload notify.MatchPayload) error {
	args := m.Called(ctx, userID, payload)
	return args.Error(0)
}

type LikeCountCacheMock struct {
	mock.Mock
}

func (m *LikeCountCacheMock) InvalidateLikeCount(ctx context.Context, userIDs ...string) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}
