package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

func sharedValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Mail is a syntactically valid email address. The zero value is not valid.
type Mail struct {
	address string
}

// ParseMail validates raw and returns the Mail. Surrounding whitespace makes the value invalid.
func ParseMail(raw string) (Mail, error) {
	if strings.TrimSpace(raw) == "" {
		return Mail{}, fmt.Errorf("%w: empty address", ErrInvalidMail)
	}
	if strings.TrimSpace(raw) != raw {
		return Mail{}, fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidMail, raw)
	}
	if err := sharedValidator().Var(raw, "required,email"); err != nil {
		return Mail{}, fmt.Errorf("%w: %q", ErrInvalidMail, raw)
	}
	return Mail{address: raw}, nil
}

// MustParseMail is ParseMail for fixtures and constants.
func MustParseMail(raw string) Mail {
	mail, err := ParseMail(raw)
	if err != nil {
		panic(err)
	}
	return mail
}

func (m Mail) String() string {
	return m.address
}

func (m Mail) IsZero() bool {
	return m.address == ""
}

// User is a registry member, identified by Mail.
type User struct {
	Mail         Mail
	CreationDate time.Time
}

func (u User) Equal(other User) bool {
	return u.Mail == other.Mail && u.CreationDate.Equal(other.CreationDate)
}

// Token is the single shared credential. ExpiresAt is the only expiry signal;
// ExpiresIn is the lifetime reported by the authorization endpoint.
type Token struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64
	RefreshToken string
	Scope        string
	IDToken      string
	ExpiresAt    time.Time
}

func (t Token) Equal(other Token) bool {
	return t.AccessToken == other.AccessToken &&
		t.TokenType == other.TokenType &&
		t.ExpiresIn == other.ExpiresIn &&
		t.RefreshToken == other.RefreshToken &&
		t.Scope == other.Scope &&
		t.IDToken == other.IDToken &&
		t.ExpiresAt.Equal(other.ExpiresAt)
}

// ExpiredAt reports whether the token is no longer usable at now.
func (t Token) ExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// SeedExpiresAt is stamped on every bootstrap seed so its first use refreshes.
var SeedExpiresAt = time.Unix(0, 0).UTC()

type seedPayload struct {
	AccessToken  string `json:"access_token" validate:"required"`
	TokenType    string `json:"token_type" validate:"required"`
	ExpiresIn    *int64 `json:"expires_in" validate:"required,gte=0"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token"`
}

// ParseSeedToken decodes the externally supplied bootstrap credential. The
// returned token is already expired.
func ParseSeedToken(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, fmt.Errorf("core: initial token is required")
	}
	var payload seedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Token{}, fmt.Errorf("core: initial token is malformed: %w", err)
	}
	if err := sharedValidator().Struct(payload); err != nil {
		return Token{}, fmt.Errorf("core: initial token is invalid: %w", err)
	}
	return Token{
		AccessToken:  payload.AccessToken,
		TokenType:    payload.TokenType,
		ExpiresIn:    *payload.ExpiresIn,
		RefreshToken: payload.RefreshToken,
		Scope:        payload.Scope,
		IDToken:      payload.IDToken,
		ExpiresAt:    SeedExpiresAt,
	}, nil
}
