package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleMember         Role = "member"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleMember:
		return true
	}
	return false
}

// Member is a user account. Emails are stored lowercase and carry a unique
// index. Projects mirrors the member entries on the project documents and is
// only ever written by the membership service.
type Member struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name                 string               `bson:"name" json:"name"`
	Email                string               `bson:"email" json:"email"`
	PasswordHash         string               `bson:"passwordHash" json:"-"`
	Phone                string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Company              string               `bson:"company,omitempty" json:"company,omitempty"`
	Position             string               `bson:"position,omitempty" json:"position,omitempty"`
	Role                 Role                 `bson:"role" json:"role"`
	Projects             []primitive.ObjectID `bson:"projects" json:"projects"`
	ResetPasswordToken   string               `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires time.Time            `bson:"resetPasswordExpires,omitempty" json:"-"`
	CreatedAt            time.Time            `bson:"createdAt" json:"createdAt"`
}

// HasProject reports whether the member references the given project.
func (m *Member) HasProject(projectID primitive.ObjectID) bool {
	for _, id := range m.Projects {
		if id == projectID {
			return true
		}
	}
	return false
}
