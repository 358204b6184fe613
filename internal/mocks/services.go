package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/oggyb/h1bee-match/internal/db"
	"github.com/oggyb/h1bee-match/internal/service/discovery"
	"github.com/oggyb/h1bee-match/internal/service/explore"
	"github.com/oggyb/h1bee-match/internal/service/match"
)

type DiscovererMock struct {
	mock.Mock
}

func (m *DiscovererMock) Discover(ctx context.Context, requesterID string) ([]discovery.Candidate, error) {
	args := m.Called(ctx, requesterID)
	var cards []discovery.Candidate
	if val := args.Get(0); val != nil {
		cards = val.([]discovery.Candidate)
	}
	return cards, args.Error(1)
}

type MatchServiceMock struct {
	mock.Mock
}

func (m *MatchServiceMock) Swipe(ctx context.Context, actorID, targetID string, action db.SwipeAction) (*match.SwipeOutcome, error) {
	args := m.Called(ctx, actorID, targetID, action)
	var out *match.SwipeOutcome
	if val := args.Get(0); val != nil {
		out = val.(*match.SwipeOutcome)
	}
	return out, args.Error(1)
}

func (m *MatchServiceMock) Unmatch(ctx context.Context, requesterID, matchID string) error {
	args := m.Called(ctx, requesterID, matchID)
	return args.Error(0)
}

func (m *MatchServiceMock) ListMatches(ctx context.Context, userID string) ([]match.MatchSummary, error) {
	args := m.Called(ctx, userID)
	var list []match.MatchSummary
	if val := args.Get(0); val != nil {
		list = val.([]match.MatchSummary)
	}
	return list, args.Error(1)
}

func (m *MatchServiceMock) MarkRead(ctx context.Context, userID, conversationID string) error {
	args := m.Called(ctx, userID, conversationID)
	return args.Error(0)
}

type LikesServiceMock struct {
	mock.Mock
}

func (m *LikesServiceMock) ListLikedYou(ctx context.Context, recipientID string, paginationToken *string) (*explore.LikersPage, error) {
	args := m.Called(ctx, recipientID, paginationToken)
	var page *explore.LikersPage
	if val := args.Get(0); val != nil {
		page = val.(*explore.LikersPage)
	}
	return page, args.Error(1)
}

func (m *LikesServiceMock) ListNewLikedYou(ctx context.Context, recipientID string, paginationToken *string) (*explore.LikersPage, error) {
	args := m.Called(ctx, recipientID, paginationToken)
	var page *explore.LikersPage
	if val := args.Get(0); val != nil {
		page = val.(*explore.LikersPage)
	}
	return page, args.Error(1)
}

func (m *LikesServiceMock) CountLikedYou(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}
