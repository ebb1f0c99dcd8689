package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/clinova/platform/internal/domain/identity"
	errs "github.com/clinova/platform/internal/errors"
	"github.com/clinova/platform/internal/ports"
)

// provisionableRoles is the fixed allow-list of roles that trusted session
// metadata may assign during auto-provisioning. Anything else (including
// super_admin, deliberately) provisions as a generic customer.
var provisionableRoles = map[string]struct{}{
	"customer":     {},
	"clinic_staff": {},
	"clinic_owner": {},
	"clinic_admin": {},
	"sales_staff":  {},
}

// IdentityServiceOptions groups dependencies for IdentityService.
type IdentityServiceOptions struct {
	Sessions ports.SessionStore
	Profiles ports.ProfileStore
	Logger   *slog.Logger
}

// IdentityService resolves a caller's session and backing profile into an
// AuthContext. The edge gateway and the handler-level authorization wrappers
// both use it, with different strictness: each re-resolves independently and
// no state is shared between the two checks.
type IdentityService struct {
	sessions ports.SessionStore
	profiles ports.ProfileStore
	logger   *slog.Logger
}

// NewIdentityService constructs a new IdentityService.
func NewIdentityService(opts IdentityServiceOptions) *IdentityService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		sessions: opts.Sessions,
		profiles: opts.Profiles,
		logger:   logger,
	}
}

// session looks up a live session. A missing session and a session-service
// error are deliberately indistinguishable here: both mean "unauthenticated"
// to the layers above.
func (s *IdentityService) session(ctx context.Context, sessionID string) (*identity.Session, bool) {
	if sessionID == "" {
		return nil, false
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	if time.Now().After(sess.ExpiresAt) {
		return nil, false
	}
	return &sess, true
}

// ResolveLenient is the edge-gateway variant of identity resolution: it never
// fails. No session yields (zero context, false); a session whose profile row
// is missing or unreadable yields a context with the public-equivalent role
// and no raw role, logged for later provisioning by the wrapper path.
func (s *IdentityService) ResolveLenient(ctx context.Context, sessionID string) (identity.AuthContext, bool) {
	sess, ok := s.session(ctx, sessionID)
	if !ok {
		return identity.AuthContext{Role: identity.RolePublic}, false
	}

	out := identity.AuthContext{
		CallerID: sess.UserID,
		Email:    sess.Email,
		Role:     identity.RolePublic,
	}

	profile, err := s.profiles.GetByID(ctx, sess.UserID)
	if err != nil {
		// No auto-creation at the edge; the wrapper path provisions.
		s.logger.InfoContext(ctx, "profile missing at edge, proceeding as public",
			"caller_id", sess.UserID, "error", err)
		return out, true
	}

	out.RawRole = profile.Role
	out.Role = identity.Normalize(profile.Role)
	out.ClinicID = profile.ClinicID
	out.BranchID = profile.BranchID
	return out, true
}

// ResolveStrict is the wrapper variant of identity resolution: it either
// produces a full AuthContext or a typed error. A missing profile triggers
// auto-provisioning keyed by caller ID.
//
// Errors: ErrCodeUnauthenticated when no live session exists,
// ErrCodeProfileProvision when provisioning cannot complete (no email),
// ErrCodeUpstreamUnavailable when the profile store fails.
func (s *IdentityService) ResolveStrict(ctx context.Context, sessionID string) (*identity.AuthContext, error) {
	sess, ok := s.session(ctx, sessionID)
	if !ok {
		return nil, errs.Unauthenticated("no valid session")
	}

	profile, err := s.profiles.GetByID(ctx, sess.UserID)
	switch {
	case err == nil:
		// fall through
	case errors.Is(err, ports.ErrProfileNotFound) || errs.IsNotFound(err):
		profile, err = s.provision(ctx, sess)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errs.UpstreamUnavailable(err, "profile lookup failed")
	}

	return &identity.AuthContext{
		CallerID: profile.ID,
		Email:    profile.Email,
		Role:     identity.Normalize(profile.Role),
		RawRole:  profile.Role,
		ClinicID: profile.ClinicID,
		BranchID: profile.BranchID,
	}, nil
}

// provision creates a minimal profile row on first authenticated contact.
// The upsert is idempotent per caller ID, so concurrent first-requests both
// end up observing the same single row.
func (s *IdentityService) provision(ctx context.Context, sess *identity.Session) (*identity.Profile, error) {
	if strings.TrimSpace(sess.Email) == "" {
		return nil, errs.ProfileProvision("cannot provision profile without an email")
	}

	role := "customer"
	if _, ok := provisionableRoles[sess.Role]; ok {
		role = sess.Role
	}

	in := ports.UpsertProfileInput{
		ID:    sess.UserID,
		Email: sess.Email,
		Role:  role,
	}
	if sess.ClinicID != "" {
		clinicID := sess.ClinicID
		in.ClinicID = &clinicID
	}

	profile, err := s.profiles.Upsert(ctx, in)
	if err != nil {
		if errs.IsProfileProvision(err) {
			return nil, err
		}
		return nil, errs.Wrap(err, errs.ErrCodeProfileProvision, "provision profile")
	}

	s.logger.InfoContext(ctx, "auto-provisioned profile",
		"caller_id", profile.ID, "role", profile.Role)
	return profile, nil
}
