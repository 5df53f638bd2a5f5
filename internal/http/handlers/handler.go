package handlers

import (
	"context"
	"errors"
	"net/http"

	"boostd/internal/boostapi"
	"boostd/internal/domain"
	"boostd/internal/game"
	"boostd/internal/repository"
	"boostd/internal/service"

	"github.com/gin-gonic/gin"
)

// BoostGames is the service surface the REST handlers use.
type BoostGames interface {
	GameDetails(ctx context.Context, user service.User, boostID string) (*domain.GameDetails, error)
	Params(ctx context.Context, user service.User, boostID string) (*domain.GameParameters, error)
	History(ctx context.Context, userID string, limit int) ([]*domain.GameOutcomeRecord, *repository.OutcomeStats, error)
}

type Handler struct {
	Games BoostGames
}

func NewHandler(games BoostGames) *Handler {
	return &Handler{Games: games}
}

// currentUser reads the identity the JWT middleware stored on the context.
func currentUser(c *gin.Context) (service.User, bool) {
	uid, ok := c.Get("user_id")
	if !ok {
		return service.User{}, false
	}
	userID, ok := uid.(string)
	if !ok || userID == "" {
		return service.User{}, false
	}
	token, _ := c.Get("token")
	tokenStr, _ := token.(string)
	return service.User{ID: userID, Token: tokenStr}, true
}

// writeError maps service and boost API errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var apiErr *boostapi.APIError
	switch {
	case errors.Is(err, service.ErrBoostNotFound), boostapi.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "boost not found"})
	case errors.Is(err, service.ErrBoostHasNoGame):
		c.JSON(http.StatusNotFound, gin.H{"error": "boost has no game"})
	case errors.Is(err, game.ErrInvalidParameters):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrHistoryDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
	case errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden):
		c.JSON(apiErr.StatusCode, gin.H{"error": "boost api rejected credentials"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "boost api unavailable"})
	}
}
