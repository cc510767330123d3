package spotify

import (
	"context"
	"fmt"

	"github.com/goliatone/go-whitelist/core"
	"golang.org/x/time/rate"
)

// RateLimitedRegistrar spaces out registrar calls so bursts of admissions do
// not trip the dashboard's abuse limits.
type RateLimitedRegistrar struct {
	next    core.Registrar
	limiter *rate.Limiter
}

// NewRateLimitedRegistrar allows requestsPerSecond calls with a burst of one.
// A non-positive rate returns next unchanged.
func NewRateLimitedRegistrar(next core.Registrar, requestsPerSecond float64) (core.Registrar, error) {
	if next == nil {
		return nil, fmt.Errorf("spotify: registrar is required")
	}
	if requestsPerSecond <= 0 {
		return next, nil
	}
	return &RateLimitedRegistrar{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

func (r *RateLimitedRegistrar) Add(ctx context.Context, mail core.Mail, token core.Token) (core.User, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return core.User{}, fmt.Errorf("spotify: registrar rate limit: %w", err)
	}
	return r.next.Add(ctx, mail, token)
}

func (r *RateLimitedRegistrar) Delete(ctx context.Context, mail core.Mail, token core.Token) (core.User, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return core.User{}, fmt.Errorf("spotify: registrar rate limit: %w", err)
	}
	return r.next.Delete(ctx, mail, token)
}
