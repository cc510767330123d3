package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-whitelist/core"
)

type RefresherConfig struct {
	TokenURL       string
	ClientID       string
	RequestTimeout time.Duration
	Now            core.Clock
	HTTPClient     HTTPDoer
}

// Refresher exchanges the stored refresh token at the accounts token endpoint.
type Refresher struct {
	cfg        RefresherConfig
	httpClient HTTPDoer
}

type tokenEndpointPayload struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        *int64 `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
	IDToken          string `json:"id_token"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func NewRefresher(cfg RefresherConfig) (*Refresher, error) {
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("spotify: token url is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("spotify: client id is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = core.SystemClock
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Refresher{cfg: cfg, httpClient: httpClient}, nil
}

// Refresh makes exactly one token request. The refresh token is carried over
// when the endpoint does not rotate it.
func (r *Refresher) Refresh(ctx context.Context, current core.Token) (core.Token, error) {
	if r == nil || r.httpClient == nil {
		return core.Token{}, fmt.Errorf("spotify: refresher is not configured")
	}
	refreshToken := strings.TrimSpace(current.RefreshToken)
	if refreshToken == "" {
		return core.Token{}, fmt.Errorf("spotify: stored credential has no refresh token")
	}

	form := url.Values{}
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", r.cfg.ClientID)

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("Accept", "application/json")

	res, err := send(ctx, r.httpClient, r.cfg.RequestTimeout, http.MethodPost, r.cfg.TokenURL, []byte(form.Encode()), header)
	if err != nil {
		return core.Token{}, fmt.Errorf("spotify: token request failed: %w", err)
	}

	var payload tokenEndpointPayload
	decodeErr := json.Unmarshal(res.body, &payload)
	if !res.ok() {
		if decodeErr == nil && payload.ErrorCode != "" {
			return core.Token{}, fmt.Errorf("spotify: token endpoint error (%d): %s", res.status, describeTokenError(payload))
		}
		return core.Token{}, fmt.Errorf("spotify: token endpoint error: %s", res.summary())
	}
	if decodeErr != nil {
		return core.Token{}, fmt.Errorf("spotify: decode token response: %w", decodeErr)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.Token{}, fmt.Errorf("spotify: token response missing access token")
	}
	if payload.ExpiresIn == nil || *payload.ExpiresIn <= 0 {
		return core.Token{}, fmt.Errorf("spotify: token response missing expires_in")
	}

	next := core.Token{
		AccessToken:  strings.TrimSpace(payload.AccessToken),
		TokenType:    strings.TrimSpace(payload.TokenType),
		ExpiresIn:    *payload.ExpiresIn,
		RefreshToken: strings.TrimSpace(payload.RefreshToken),
		Scope:        strings.TrimSpace(payload.Scope),
		IDToken:      strings.TrimSpace(payload.IDToken),
		ExpiresAt:    r.cfg.Now().UTC().Add(time.Duration(*payload.ExpiresIn) * time.Second),
	}
	if next.TokenType == "" {
		next.TokenType = current.TokenType
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	if next.Scope == "" {
		next.Scope = current.Scope
	}
	return next, nil
}

func describeTokenError(payload tokenEndpointPayload) string {
	if strings.TrimSpace(payload.ErrorDescription) != "" {
		return strings.TrimSpace(payload.ErrorDescription)
	}
	if strings.TrimSpace(payload.ErrorCode) != "" {
		return strings.TrimSpace(payload.ErrorCode)
	}
	return "unknown error"
}
