package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on-hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// ProjectMember is one roster entry on a project. Role here is a free-text
// project role ("developer", "designer"), not the account role.
type ProjectMember struct {
	MemberID primitive.ObjectID `bson:"memberId" json:"memberId"`
	Role     string             `bson:"role,omitempty" json:"role,omitempty"`
}

// Project documents own the authoritative roster; every roster entry must be
// mirrored by the member's Projects list.
type Project struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Client         string             `bson:"client,omitempty" json:"client,omitempty"`
	StartDate      time.Time          `bson:"startDate" json:"startDate"`
	EndDate        *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status         ProjectStatus      `bson:"status" json:"status"`
	Members        []ProjectMember    `bson:"members" json:"members"`
	ProjectManager primitive.ObjectID `bson:"projectManager,omitempty" json:"projectManager,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasMember reports whether memberID appears on the roster.
func (p *Project) HasMember(memberID primitive.ObjectID) bool {
	for _, m := range p.Members {
		if m.MemberID == memberID {
			return true
		}
	}
	return false
}
