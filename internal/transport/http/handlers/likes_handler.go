package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/h1bee-match/internal/service/explore"
	"github.com/oggyb/h1bee-match/internal/transport/http/dto"
	httperrors "github.com/oggyb/h1bee-match/internal/transport/http/errors"
	"github.com/oggyb/h1bee-match/internal/transport/http/middleware"
)

type LikesService interface {
	ListLikedYou(ctx context.Context, recipientID string, paginationToken *string) (*explore.LikersPage, error)
	ListNewLikedYou(ctx context.Context, recipientID string, paginationToken *string) (*explore.LikersPage, error)
	CountLikedYou(ctx context.Context, recipientID string) (int64, error)
}

// LikesHandler serves the "who liked me" inbox.
type LikesHandler struct {
	likes LikesService
}

func NewLikesHandler(likes LikesService) *LikesHandler {
	return &LikesHandler{likes: likes}
}

func (h *LikesHandler) List(c *gin.Context) {
	page, err := h.likes.ListLikedYou(c.Request.Context(), middleware.UserID(c), tokenParam(c))
	if err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *LikesHandler) ListNew(c *gin.Context) {
	page, err := h.likes.ListNewLikedYou(c.Request.Context(), middleware.UserID(c), tokenParam(c))
	if err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *LikesHandler) Count(c *gin.Context) {
	n, err := h.likes.CountLikedYou(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LikeCountResponse{Count: n})
}

// tokenParam reads ?paginationToken=, nil when absent.
func tokenParam(c *gin.Context) *string {
	if tok := c.Query("paginationToken"); tok != "" {
		return &tok
	}
	return nil
}
