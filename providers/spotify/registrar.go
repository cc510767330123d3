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

type RegistrarConfig struct {
	// RegistrarURL is the clients base; users live under {RegistrarURL}/{AppID}/users.
	RegistrarURL string
	// RemoveURL enables Delete. It is used the same way as RegistrarURL.
	RemoveURL      string
	AppID          string
	UserAgent      string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
}

// Registrar manages the application's allow-list on the developer dashboard.
type Registrar struct {
	cfg        RegistrarConfig
	httpClient HTTPDoer
}

type userPayload struct {
	ClientID string `json:"clientId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func NewRegistrar(cfg RegistrarConfig) (*Registrar, error) {
	cfg.RegistrarURL = strings.TrimRight(strings.TrimSpace(cfg.RegistrarURL), "/")
	cfg.RemoveURL = strings.TrimRight(strings.TrimSpace(cfg.RemoveURL), "/")
	cfg.AppID = strings.TrimSpace(cfg.AppID)
	if cfg.RegistrarURL == "" {
		return nil, fmt.Errorf("spotify: registrar url is required")
	}
	if cfg.AppID == "" {
		return nil, fmt.Errorf("spotify: app id is required")
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultBrowserUserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Registrar{cfg: cfg, httpClient: httpClient}, nil
}

func (r *Registrar) Add(ctx context.Context, mail core.Mail, token core.Token) (core.User, error) {
	if r == nil || r.httpClient == nil {
		return core.User{}, fmt.Errorf("spotify: registrar is not configured")
	}
	res, err := r.call(ctx, http.MethodPost, r.usersEndpoint(r.cfg.RegistrarURL), mail, token)
	if err != nil {
		return core.User{}, fmt.Errorf("spotify: add %s to app %s: %w", mail, r.cfg.AppID, err)
	}
	if !res.ok() {
		return core.User{}, fmt.Errorf("spotify: could not add %s to app %s: %s", mail, r.cfg.AppID, res.summary())
	}
	return core.User{Mail: mail}, nil
}

// Delete fails with core.ErrOperationUnsupported unless a removal endpoint is configured.
func (r *Registrar) Delete(ctx context.Context, mail core.Mail, token core.Token) (core.User, error) {
	if r == nil || r.httpClient == nil {
		return core.User{}, fmt.Errorf("spotify: registrar is not configured")
	}
	if r.cfg.RemoveURL == "" {
		return core.User{}, fmt.Errorf("%w: remove %s from app %s", core.ErrOperationUnsupported, mail, r.cfg.AppID)
	}
	res, err := r.call(ctx, http.MethodDelete, r.usersEndpoint(r.cfg.RemoveURL), mail, token)
	if err != nil {
		return core.User{}, fmt.Errorf("spotify: remove %s from app %s: %w", mail, r.cfg.AppID, err)
	}
	if !res.ok() {
		return core.User{}, fmt.Errorf("spotify: could not remove %s from app %s: %s", mail, r.cfg.AppID, res.summary())
	}
	return core.User{Mail: mail}, nil
}

func (r *Registrar) call(ctx context.Context, method string, endpoint string, mail core.Mail, token core.Token) (response, error) {
	if strings.TrimSpace(token.AccessToken) == "" {
		return response{}, fmt.Errorf("access token is required")
	}
	body, err := json.Marshal(userPayload{
		ClientID: r.cfg.AppID,
		Email:    mail.String(),
		Name:     mail.String(),
	})
	if err != nil {
		return response{}, err
	}
	return send(ctx, r.httpClient, r.cfg.RequestTimeout, method, endpoint, body, r.headers(token))
}

func (r *Registrar) usersEndpoint(base string) string {
	return base + "/" + url.PathEscape(r.cfg.AppID) + "/users"
}

func (r *Registrar) headers(token core.Token) http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+strings.TrimSpace(token.AccessToken))
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	header.Set("Origin", dashboardOrigin)
	header.Set("Referer", dashboardOrigin+"/dashboard/"+url.PathEscape(r.cfg.AppID)+"/users")
	header.Set("User-Agent", r.cfg.UserAgent)
	return header
}
