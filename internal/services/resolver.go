package services

import (
	"context"
	"errors"
	"time"

	"linkgate/internal/models"
	"linkgate/internal/repository"
)

const DefaultPasswordVerifyTTL = time.Hour

var ErrIncorrectPassword = errors.New("incorrect password")

type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeDenied
	OutcomeRequiresPassword
	OutcomeAllowed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeDenied:
		return "denied"
	case OutcomeRequiresPassword:
		return "requires_password"
	case OutcomeAllowed:
		return "allowed"
	}
	return "unknown"
}

type DenyReason string

const (
	DenyInactive DenyReason = "inactive"
	DenyExpired  DenyReason = "expired"
	DenyQuota    DenyReason = "quota"
)

// Resolution is the policy decision for one short-code access. Link is set
// for every outcome except OutcomeNotFound; Reason only for OutcomeDenied.
type Resolution struct {
	Outcome Outcome
	Reason  DenyReason
	Link    *models.URL
}

// VerificationStore is the per-browser record of short codes whose password
// challenge has already been passed.
type VerificationStore interface {
	Verified(shortCode string) bool
	MarkVerified(shortCode string, ttl time.Duration) error
}

type LinkStore interface {
	FindByCode(ctx context.Context, code string) (*models.URL, error)
}

type LinkResolver struct {
	links     LinkStore
	verifyTTL time.Duration
	now       func() time.Time
}

func NewLinkResolver(links LinkStore, verifyTTL time.Duration) *LinkResolver {
	if verifyTTL <= 0 {
		verifyTTL = DefaultPasswordVerifyTTL
	}
	return &LinkResolver{
		links:     links,
		verifyTTL: verifyTTL,
		now:       time.Now,
	}
}

// Resolve decides how an access to code is handled. Only storage failures
// are returned as errors; unknown codes and policy denials are outcomes.
func (r *LinkResolver) Resolve(ctx context.Context, code string, sess VerificationStore) (Resolution, error) {
	res, err := r.evaluate(ctx, code)
	if err != nil || res.Outcome != OutcomeAllowed {
		return res, err
	}

	if res.Link.HasPassword() && (sess == nil || !sess.Verified(code)) {
		res.Outcome = OutcomeRequiresPassword
	}
	return res, nil
}

// VerifyPassword re-checks the access policy, since the link may have
// changed since the challenge was shown, then compares candidate against
// the stored hash. On success the code is marked verified in sess.
func (r *LinkResolver) VerifyPassword(ctx context.Context, code, candidate string, sess VerificationStore) (Resolution, error) {
	res, err := r.evaluate(ctx, code)
	if err != nil || res.Outcome != OutcomeAllowed {
		return res, err
	}

	if !res.Link.CheckPassword(candidate) {
		res.Outcome = OutcomeRequiresPassword
		return res, ErrIncorrectPassword
	}

	if sess != nil && res.Link.HasPassword() {
		if err := sess.MarkVerified(code, r.verifyTTL); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *LinkResolver) evaluate(ctx context.Context, code string) (Resolution, error) {
	link, err := r.links.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Outcome: OutcomeAllowed, Link: link}
	switch {
	case !link.IsActive:
		res.Outcome, res.Reason = OutcomeDenied, DenyInactive
	case link.IsExpired(r.now()):
		res.Outcome, res.Reason = OutcomeDenied, DenyExpired
	case link.QuotaExhausted():
		res.Outcome, res.Reason = OutcomeDenied, DenyQuota
	}
	return res, nil
}
