package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	generationdomain "github.com/adcraftlabs/adcraft/internal/generation/domain"
)

func (s *Server) Generate(c *gin.Context) {
	var req generationdomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.AccountID = accountIDFromContext(c)

	result, err := s.generations.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) Edit(c *gin.Context) {
	var req generationdomain.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.AccountID = accountIDFromContext(c)

	result, err := s.generations.Edit(c.Request.Context(), req)
	if err != nil {
		// A model answer without an image is reported with the model's
		// explanation rather than a generic failure.
		if errors.Is(err, generationdomain.ErrEditFailed) {
			c.JSON(http.StatusInternalServerError, result)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ListGenerations(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	history, err := s.generations.History(c.Request.Context(), generationdomain.HistoryRequest{
		AccountID: accountIDFromContext(c),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}
