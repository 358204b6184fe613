package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/h1bee-match/internal/db"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/service/discovery"
	"github.com/oggyb/h1bee-match/internal/service/match"
	"github.com/oggyb/h1bee-match/internal/transport/http/dto"
	httperrors "github.com/oggyb/h1bee-match/internal/transport/http/errors"
	"github.com/oggyb/h1bee-match/internal/transport/http/middleware"
)

type Discoverer interface {
	Discover(ctx context.Context, requesterID string) ([]discovery.Candidate, error)
}

type MatchService interface {
	Swipe(ctx context.Context, actorID, targetID string, action db.SwipeAction) (*match.SwipeOutcome, error)
	Unmatch(ctx context.Context, requesterID, matchID string) error
	ListMatches(ctx context.Context, userID string) ([]match.MatchSummary, error)
	MarkRead(ctx context.Context, userID, conversationID string) error
}

// MatchHandler serves /api/matches and the conversation read marker.
type MatchHandler struct {
	discovery Discoverer
	matches   MatchService
}

func NewMatchHandler(discovery Discoverer, matches MatchService) *MatchHandler {
	return &MatchHandler{discovery: discovery, matches: matches}
}

// Discover returns the caller's shuffled candidate deck.
func (h *MatchHandler) Discover(c *gin.Context) {
	cards, err := h.discovery.Discover(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// Swipe records a LIKE, PASS or SUPER_LIKE on toUserId.
func (h *MatchHandler) Swipe(c *gin.Context) {
	var req dto.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperrors.Write(c, svcErr.InvalidArgument("invalid request body"))
		return
	}

	out, err := h.matches.Swipe(c.Request.Context(), middleware.UserID(c), req.ToUserID, db.SwipeAction(req.Action))
	if err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MatchHandler) ListMatches(c *gin.Context) {
	list, err := h.matches.ListMatches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MatchHandler) Unmatch(c *gin.Context) {
	if err := h.matches.Unmatch(c.Request.Context(), middleware.UserID(c), c.Param("matchId")); err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnmatchResponse{Success: true, Message: match.UnmatchMessage})
}

// MarkRead resets the caller's unread counter in a conversation.
func (h *MatchHandler) MarkRead(c *gin.Context) {
	if err := h.matches.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("conversationId")); err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
