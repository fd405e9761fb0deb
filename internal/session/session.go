// Package session issues and validates bearer tokens for API access.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionTTL = 30 * 24 * time.Hour

// Session is one issued bearer token.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID snowflake.ID `gorm:"not null;index" json:"account_id"`
	Token     string       `gorm:"type:text;not null;uniqueIndex" json:"token"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

var (
	ErrInvalidSession = errors.New("invalid_session")
	ErrSessionExpired = errors.New("session_expired")
)

type Params struct {
	fx.In

	Log  *zap.Logger
	DB   *gorm.DB
	Node *snowflake.Node
}

// Manager creates and resolves sessions.
type Manager struct {
	log  *zap.Logger
	db   *gorm.DB
	node *snowflake.Node
}

func NewManager(p Params) *Manager {
	return &Manager{
		log:  p.Log.Named("session.manager"),
		db:   p.DB,
		node: p.Node,
	}
}

func (m *Manager) Create(ctx context.Context, accountID snowflake.ID) (Session, error) {
	now := time.Now().UTC()
	session := Session{
		ID:        m.node.Generate(),
		AccountID: accountID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}

	err := m.db.WithContext(ctx).Exec(
		`INSERT INTO sessions (id, account_id, token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.AccountID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
	).Error
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// Authenticate resolves a bearer token to an account.
func (m *Manager) Authenticate(ctx context.Context, token string) (snowflake.ID, error) {
	if token == "" {
		return 0, ErrInvalidSession
	}

	var session Session
	err := m.db.WithContext(ctx).Raw(
		`SELECT * FROM sessions WHERE token = ?`, token,
	).Scan(&session).Error
	if err != nil {
		return 0, err
	}
	if session.ID == 0 {
		return 0, ErrInvalidSession
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return 0, ErrSessionExpired
	}
	return session.AccountID, nil
}

// Revoke deletes a session token.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.db.WithContext(ctx).Exec(
		`DELETE FROM sessions WHERE token = ?`, token,
	).Error
}

// Module provides the session manager.
var Module = fx.Module("session",
	fx.Provide(NewManager),
)
