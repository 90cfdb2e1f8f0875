package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecurrenceFrequency string

const (
	FrequencyDaily    RecurrenceFrequency = "daily"
	FrequencyWeekly   RecurrenceFrequency = "weekly"
	FrequencyBiweekly RecurrenceFrequency = "biweekly"
	FrequencyMonthly  RecurrenceFrequency = "monthly"
)

type Recurrence struct {
	IsRecurring bool                `bson:"isRecurring" json:"isRecurring"`
	Frequency   RecurrenceFrequency `bson:"frequency,omitempty" json:"frequency,omitempty"`
	EndDate     *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
}

// Meeting belongs to exactly one project.
type Meeting struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ProjectID primitive.ObjectID   `bson:"projectId" json:"projectId"`
	Title     string               `bson:"title" json:"title"`
	Date      time.Time            `bson:"date" json:"date"`
	Location  string               `bson:"location,omitempty" json:"location,omitempty"`
	Notes     string               `bson:"notes,omitempty" json:"notes,omitempty"`
	Attendees []primitive.ObjectID `bson:"attendees" json:"attendees"`
	Recurring Recurrence           `bson:"recurring" json:"recurring"`
	CreatedBy primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}
