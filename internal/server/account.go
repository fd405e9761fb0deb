package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	accountdomain "github.com/adcraftlabs/adcraft/internal/account/domain"
)

type SignupRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	Account accountdomain.Account `json:"account"`
	Token   string                `json:"token"`
	Expires string                `json:"expires_at"`
}

func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	account, err := s.accounts.Create(c.Request.Context(), accountdomain.CreateAccountRequest{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondWithSession(c, account)
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	account, err := s.accounts.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondWithSession(c, account)
}

func (s *Server) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		if cookie, err := c.Cookie(sessionCookieName); err == nil {
			token = strings.TrimSpace(cookie)
		}
	}
	if token != "" {
		if err := s.sessions.Revoke(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetAccount(c *gin.Context) {
	account, err := s.accounts.GetByID(c.Request.Context(), accountIDFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (s *Server) respondWithSession(c *gin.Context, account accountdomain.Account) {
	session, err := s.sessions.Create(c.Request.Context(), account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetCookie(sessionCookieName, session.Token, maxAge, "/", "", false, true)

	c.JSON(http.StatusOK, sessionResponse{
		Account: account,
		Token:   session.Token,
		Expires: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
