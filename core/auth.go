// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"fmt"
)

type contextKey string

const ACTOR_CONTEXT_KEY contextKey = "actor"

const ROLE_REVIEWER = "reviewer"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) String() string {
	if a.Role == "" {
		return a.ID
	}
	return fmt.Sprintf("%s:%s", a.Role, a.ID)
}

func ActorFromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	if actor, ok := ctx.Value(ACTOR_CONTEXT_KEY).(*Actor); ok {
		return actor
	}
	return nil
}

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ACTOR_CONTEXT_KEY, actor)
}

// Permissions answers the two questions the report workflow asks about the caller.
type Permissions interface {
	CurrentUserCanPublish(ctx context.Context) bool
	CurrentUserIsOwner(ctx context.Context, createdBy string) bool
}

// ActorPermissions derives permissions from the actor in the context.
// Actors with ReviewerRole may review and publish; owners are matched by id.
type ActorPermissions struct {
	ReviewerRole string
}

func (p ActorPermissions) CurrentUserCanPublish(ctx context.Context) bool {
	actor := ActorFromContext(ctx)
	if actor == nil {
		return false
	}
	role := p.ReviewerRole
	if role == "" {
		role = ROLE_REVIEWER
	}
	return actor.Role == role
}

func (p ActorPermissions) CurrentUserIsOwner(ctx context.Context, createdBy string) bool {
	actor := ActorFromContext(ctx)
	return actor != nil && actor.ID != "" && actor.ID == createdBy
}

func requireActor(ctx context.Context) (*Actor, error) {
	actor := ActorFromContext(ctx)
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("%w: no actor in context", ErrForbidden)
	}
	return actor, nil
}
