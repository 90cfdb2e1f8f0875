package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskClosed     TaskStatus = "closed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskClosed:
		return true
	}
	return false
}

type Comment struct {
	Text      string             `bson:"text" json:"text"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Task is owned by a project and optionally tied to the meeting that spawned
// it. CompletedDate is stamped on the transition into "completed" and kept
// even if the task later moves back to an earlier status.
type Task struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Description         string              `bson:"description" json:"description"`
	ProjectID           primitive.ObjectID  `bson:"projectId" json:"projectId"`
	MeetingID           *primitive.ObjectID `bson:"meetingId,omitempty" json:"meetingId,omitempty"`
	ResponsibleMemberID primitive.ObjectID  `bson:"responsibleMemberId" json:"responsibleMemberId"`
	DueDate             *time.Time          `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Status              TaskStatus          `bson:"status" json:"status"`
	Comments            []Comment           `bson:"comments" json:"comments"`
	CompletedDate       *time.Time          `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
}
