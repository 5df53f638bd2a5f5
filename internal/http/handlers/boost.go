package handlers

import (
	"net/http"
	"strconv"

	"boostd/internal/logger"

	"github.com/gin-gonic/gin"
)

// BoostGame returns the details of a boost whose game has been played.
func (h *Handler) BoostGame(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	details, err := h.Games.GameDetails(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		logger.WithContext(c.Request.Context()).Warnw("boost game details failed", "boost_id", c.Param("id"), "error", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// BoostParams returns the validated game parameters of a boost.
func (h *Handler) BoostParams(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	params, err := h.Games.Params(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, params)
}

// MyBoostGames lists the caller's recorded sessions.
func (h *Handler) MyBoostGames(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, stats, err := h.Games.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": records, "stats": stats})
}
