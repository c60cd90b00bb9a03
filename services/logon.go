package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/lborres/linkid/services"

// msgInfrastructure is shown when storage or session plumbing fails during a
// callback. Details go to the log only.
const msgInfrastructure = "Unable to complete logon, please try again"

// LogOnService runs both phases of a provider logon and carries out what the
// reconciler decides.
type LogOnService struct {
	rp           core.RelyingParty
	associations core.AssociationStorage
	config       core.LogOnConfig
	tracer       trace.Tracer
}

var _ core.LogOnHandler = (*LogOnService)(nil)

func NewLogOnService(rp core.RelyingParty, associations core.AssociationStorage, config core.LogOnConfig) *LogOnService {
	return &LogOnService{
		rp:           rp,
		associations: associations,
		config:       config,
		tracer:       otel.Tracer(tracerName),
	}
}

// BeginLogOn validates the identifier and builds the redirect to the provider.
func (s *LogOnService) BeginLogOn(ctx context.Context, rawIdentifier, returnURL string, errs *core.ErrorBag) core.Outcome {
	ctx, span := s.tracer.Start(ctx, "logon.begin")
	defer span.End()

	outcome := core.BeginAuthentication(ctx, s.rp, rawIdentifier, returnURL, s.config.Claims, errs)
	if errs.Len() > 0 {
		span.SetStatus(codes.Error, "logon not started")
		log.Infow("logon not started", "errors", errs.Keys())
	}
	return outcome
}

// CompleteLogOn handles a pending provider response. With no response pending
// it returns ShowLogOn and records nothing.
func (s *LogOnService) CompleteLogOn(ctx context.Context, cb core.Callback, returnURL string, session core.SessionState, errs *core.ErrorBag) core.Outcome {
	ctx, span := s.tracer.Start(ctx, "logon.complete")
	defer span.End()

	response, pending := s.rp.Response(ctx, cb)
	if !pending || response == nil {
		return core.ShowLogOn{ReturnURL: returnURL}
	}
	if response.ReturnURL != "" {
		returnURL = response.ReturnURL
	}

	var owner *core.User
	if authenticated, ok := response.Assertion.(core.Authenticated); ok {
		span.SetAttributes(attribute.String("linkid.claimed_identifier", authenticated.ClaimedIdentifier.String()))

		user, err := s.associations.GetUserByClaimedIdentifier(ctx, authenticated.ClaimedIdentifier)
		switch {
		case errors.Is(err, core.ErrUserNotFound):
		case err != nil:
			return s.fail(span, errs, returnURL, "owner lookup failed", err)
		default:
			owner = user
		}
	}

	sessionUser, err := session.CurrentUser(ctx)
	if err != nil {
		return s.fail(span, errs, returnURL, "current user lookup failed", err)
	}

	decision := core.Reconcile(core.ReconcileInput{
		Assertion:           response.Assertion,
		Owner:               owner,
		SessionUser:         sessionUser,
		ReturnURL:           returnURL,
		RegistrationAllowed: s.config.UsersCanRegister,
	}, errs)

	switch d := decision.(type) {
	case core.ShowLogOn:
		if errs.Len() > 0 {
			span.SetStatus(codes.Error, "logon rejected")
			log.Infow("logon rejected", "errors", errs.Keys())
		}
		return d
	case core.Redirect:
		return d
	case core.Register:
		log.Infow("unknown identifier routed to registration", "claimedIdentifier", d.Draft.ClaimedIdentifier)
		return d
	case core.LinkAndSignIn:
		return s.linkAndSignIn(ctx, span, d, session, errs)
	default:
		panic(fmt.Sprintf("services: unhandled decision %T", decision))
	}
}

// linkAndSignIn associates first, then signs in, then redirects. A session
// is only established once the association is known to belong to the user,
// and an association inserted here is removed again if signing in fails.
func (s *LogOnService) linkAndSignIn(ctx context.Context, span trace.Span, d core.LinkAndSignIn, session core.SessionState, errs *core.ErrorBag) core.Outcome {
	association := d.Association
	association.ID = crypto.NewID()
	association.CreatedAt = time.Now()

	ownerID, err := s.associations.LinkIdentifier(ctx, &association)
	if err != nil {
		return s.fail(span, errs, d.ReturnURL, "association failed", err)
	}
	if ownerID != d.User.ID {
		errs.Record(core.ErrorKeyIdentifierAssigned, core.MsgIdentifierAssigned)
		log.Warnw("claimed identifier taken concurrently", "claimedIdentifier", association.ClaimedIdentifier, "userId", d.User.ID)
		span.SetStatus(codes.Error, "identifier assigned")
		return core.ShowLogOn{ReturnURL: d.ReturnURL}
	}

	if err := session.SignIn(ctx, d.User, false); err != nil {
		if d.NewAssociation {
			s.unlink(ctx, association.ClaimedIdentifier, d.User.ID)
		}
		return s.fail(span, errs, d.ReturnURL, "sign in failed", err)
	}

	log.Infow("logon completed", "userId", d.User.ID)
	return core.Redirect{URL: core.ReturnURLOrDefault(d.ReturnURL)}
}

func (s *LogOnService) unlink(ctx context.Context, id core.ClaimedIdentifier, userID string) {
	if err := s.associations.UnlinkIdentifier(ctx, id, userID); err != nil {
		log.Errorw("failed to remove association after sign in failure", "claimedIdentifier", id, "userId", userID, "error", err)
	}
}

func (s *LogOnService) fail(span trace.Span, errs *core.ErrorBag, returnURL, msg string, err error) core.Outcome {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	log.Errorw(msg, "error", err)
	errs.Record(core.ErrorKeyUnknownError, msgInfrastructure)
	return core.ShowLogOn{ReturnURL: returnURL}
}
