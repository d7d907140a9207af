package model

import "github.com/google/uuid"

type Role string

const (
	RoleSeeker   Role = "SEEKER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// Principal is the authenticated actor extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   Role
}

func (p Principal) IsSeeker() bool   { return p.Role == RoleSeeker }
func (p Principal) IsProvider() bool { return p.Role == RoleProvider }
func (p Principal) IsAdmin() bool    { return p.Role == RoleAdmin }

// ActorType mirrors the principal role in persisted records.
type ActorType string

const (
	ActorSeeker   ActorType = "seeker"
	ActorProvider ActorType = "provider"
	ActorAdmin    ActorType = "admin"
)

func (p Principal) ActorType() ActorType {
	switch p.Role {
	case RoleProvider:
		return ActorProvider
	case RoleAdmin:
		return ActorAdmin
	default:
		return ActorSeeker
	}
}
