package shared

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestActorFromHeaders(t *testing.T) {
	actor := uuid.New()
	company := uuid.New()

	r := httptest.NewRequest("GET", "/journal-entries", nil)
	r.Header.Set(HeaderUserID, actor.String())
	r.Header.Set(HeaderCompanyID, company.String())

	gotActor, gotCompany, err := ActorFromHeaders(r)
	require.NoError(t, err)
	require.Equal(t, actor, gotActor)
	require.Equal(t, company, gotCompany)
}

func TestActorFromHeadersRejectsGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/journal-entries", nil)
	r.Header.Set(HeaderUserID, "not-a-uuid")
	r.Header.Set(HeaderCompanyID, uuid.NewString())
	_, _, err := ActorFromHeaders(r)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/journal-entries", nil)
	r.Header.Set(HeaderUserID, uuid.NewString())
	_, _, err = ActorFromHeaders(r)
	require.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	actor := uuid.New()
	company := uuid.New()

	ctx := ContextWithActor(context.Background(), actor, company)
	require.Equal(t, actor, ActorFromContext(ctx))
	require.Equal(t, company, CompanyFromContext(ctx))

	require.Equal(t, uuid.Nil, ActorFromContext(context.Background()))
	require.Equal(t, uuid.Nil, CompanyFromContext(context.Background()))
}
