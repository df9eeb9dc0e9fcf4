package shared

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Actor identity arrives from the upstream gateway, already authenticated.
const (
	HeaderUserID    = "X-User-ID"
	HeaderCompanyID = "X-Company-ID"
)

type contextKey string

const (
	actorKey   contextKey = "actor"
	companyKey contextKey = "company"
)

// ActorFromHeaders parses the caller identity headers.
func ActorFromHeaders(r *http.Request) (actor, company uuid.UUID, err error) {
	actor, err = uuid.Parse(r.Header.Get(HeaderUserID))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	company, err = uuid.Parse(r.Header.Get(HeaderCompanyID))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return actor, company, nil
}

// ContextWithActor stores the caller identity for downstream handlers.
func ContextWithActor(ctx context.Context, actor, company uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, actorKey, actor)
	return context.WithValue(ctx, companyKey, company)
}

// ActorFromContext returns the caller's user id, or uuid.Nil.
func ActorFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(actorKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// CompanyFromContext returns the caller's company scope, or uuid.Nil.
func CompanyFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(companyKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
