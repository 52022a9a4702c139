package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pushp314/qrtrack-backend/pkg/logger"
	"github.com/pushp314/qrtrack-backend/pkg/utils"
)

// Resolution failures visible to the redirect endpoint
var (
	// ErrNotConfigured: record exists but is not a redirect-eligible dynamic code
	ErrNotConfigured = errors.New("qr code not configured for redirects")
	// ErrUnsafeRedirect: eligible record whose target fails the safety policy
	ErrUnsafeRedirect = errors.New("redirect target not permitted")
)

// Resolution is the successful outcome of a short-id lookup
type Resolution struct {
	QRID      string
	TargetURL string
}

// RedirectResolver turns a raw short identifier into a redirect target.
// It never mutates counters; statistics recording happens after the HTTP
// response is already in flight.
type RedirectResolver struct {
	store   *RecordStore
	policy  utils.RedirectPolicy
	timeout time.Duration
}

func NewRedirectResolver(store *RecordStore, policy utils.RedirectPolicy) *RedirectResolver {
	return &RedirectResolver{
		store:   store,
		policy:  policy,
		timeout: 3 * time.Second,
	}
}

// Resolve validates, looks up and safety-checks a short identifier.
// Malformed identifiers return ErrRecordNotFound, indistinguishable from a
// genuine miss, so probing clients learn nothing about the token format.
func (r *RedirectResolver) Resolve(ctx context.Context, rawShortID string) (*Resolution, error) {
	// Lowercasing is the only normalization; anything else (whitespace
	// included) must fail the format gate below
	shortID := strings.ToLower(rawShortID)

	if !utils.IsValidShortID(shortID) {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	code, err := r.store.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}

	if !code.IsRedirectEligible() {
		return nil, ErrNotConfigured
	}

	target := *code.RedirectURL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return nil, ErrNotConfigured
	}

	if !r.policy.IsSafeRedirectURL(target) {
		logger.Warn().
			Str("qr_id", code.ID).
			Str("short_id", shortID).
			Str("target", target).
			Msg("Redirect target rejected by safety policy")
		return nil, ErrUnsafeRedirect
	}

	return &Resolution{QRID: code.ID, TargetURL: target}, nil
}
