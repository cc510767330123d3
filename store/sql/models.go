package sqlstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-whitelist/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type tokenRecord struct {
	bun.BaseModel `bun:"table:whitelist_tokens,alias:wt"`

	ID           string    `bun:"id,pk"`
	AccessToken  string    `bun:"access_token,notnull"`
	TokenType    string    `bun:"token_type,notnull"`
	ExpiresIn    int64     `bun:"expires_in,notnull"`
	RefreshToken string    `bun:"refresh_token,notnull"`
	Scope        string    `bun:"scope,notnull"`
	IDToken      string    `bun:"id_token,notnull"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type memberRecord struct {
	bun.BaseModel `bun:"table:whitelist_members,alias:wm"`

	ID           string    `bun:"id,pk"`
	Mail         string    `bun:"mail,notnull,unique"`
	CreationDate time.Time `bun:"creation_date,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func newTokenRecord(token core.Token, now time.Time) *tokenRecord {
	return &tokenRecord{
		ID:           uuid.NewString(),
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
		IDToken:      token.IDToken,
		ExpiresAt:    token.ExpiresAt.UTC(),
		CreatedAt:    now,
	}
}

func (r *tokenRecord) toDomain() core.Token {
	if r == nil {
		return core.Token{}
	}
	return core.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		ExpiresIn:    r.ExpiresIn,
		RefreshToken: r.RefreshToken,
		Scope:        r.Scope,
		IDToken:      r.IDToken,
		ExpiresAt:    r.ExpiresAt.UTC(),
	}
}

func newMemberRecord(user core.User, now time.Time) *memberRecord {
	return &memberRecord{
		ID:           uuid.NewString(),
		Mail:         user.Mail.String(),
		CreationDate: user.CreationDate.UTC(),
		CreatedAt:    now,
	}
}

func (r *memberRecord) toDomain() (core.User, error) {
	if r == nil {
		return core.User{}, fmt.Errorf("sqlstore: member record is nil")
	}
	mail, err := core.ParseMail(r.Mail)
	if err != nil {
		return core.User{}, fmt.Errorf("sqlstore: stored member %s has an invalid mail: %w", strings.TrimSpace(r.ID), err)
	}
	return core.User{Mail: mail, CreationDate: r.CreationDate.UTC()}, nil
}

func membersToDomain(records []*memberRecord) ([]core.User, error) {
	out := make([]core.User, 0, len(records))
	for _, record := range records {
		user, err := record.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, nil
}
