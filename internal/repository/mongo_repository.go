package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projecthub/internal/database"
	"projecthub/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("duplicate document")

type MongoRepository struct {
	db *database.Database
}

func NewMongoRepository(db *database.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

// ---- Members ----

func (r *MongoRepository) CreateMember(ctx context.Context, member model.Member) (primitive.ObjectID, error) {
	res, err := r.db.Members().InsertOne(ctx, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, fmt.Errorf("failed to insert member: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (r *MongoRepository) GetMemberByID(ctx context.Context, id primitive.ObjectID) (model.Member, error) {
	var member model.Member
	err := r.db.Members().FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Member{}, ErrNotFound
	}
	return member, err
}

func (r *MongoRepository) GetMemberByEmail(ctx context.Context, email string) (model.Member, error) {
	var member model.Member
	err := r.db.Members().FindOne(ctx, bson.M{"email": email}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Member{}, ErrNotFound
	}
	return member, err
}

func (r *MongoRepository) GetMemberByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.Member, error) {
	var member model.Member
	err := r.db.Members().FindOne(ctx, bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": bson.M{"$gt": now},
	}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Member{}, ErrNotFound
	}
	return member, err
}

func (r *MongoRepository) ListMembers(ctx context.Context) ([]model.Member, error) {
	cursor, err := r.db.Members().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	var members []model.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MongoRepository) UpdateMember(ctx context.Context, member model.Member) error {
	res, err := r.db.Members().ReplaceOne(ctx, bson.M{"_id": member.ID}, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update member: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteMember(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.Members().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) CountMembers(ctx context.Context) (int64, error) {
	return r.db.Members().CountDocuments(ctx, bson.M{})
}

func (r *MongoRepository) AddProjectToMember(ctx context.Context, memberID, projectID primitive.ObjectID) error {
	res, err := r.db.Members().UpdateOne(ctx,
		bson.M{"_id": memberID},
		bson.M{"$addToSet": bson.M{"projects": projectID}})
	if err != nil {
		return fmt.Errorf("failed to add project to member: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) RemoveProjectFromMember(ctx context.Context, memberID, projectID primitive.ObjectID) error {
	_, err := r.db.Members().UpdateOne(ctx,
		bson.M{"_id": memberID},
		bson.M{"$pull": bson.M{"projects": projectID}})
	if err != nil {
		return fmt.Errorf("failed to remove project from member: %w", err)
	}
	return nil
}

func (r *MongoRepository) RemoveProjectFromAllMembers(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := r.db.Members().UpdateMany(ctx,
		bson.M{"projects": projectID},
		bson.M{"$pull": bson.M{"projects": projectID}})
	if err != nil {
		return fmt.Errorf("failed to remove project from members: %w", err)
	}
	return nil
}

// ---- Projects ----

func (r *MongoRepository) CreateProject(ctx context.Context, project model.Project) (primitive.ObjectID, error) {
	res, err := r.db.Projects().InsertOne(ctx, project)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert project: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (r *MongoRepository) GetProjectByID(ctx context.Context, id primitive.ObjectID) (model.Project, error) {
	var project model.Project
	err := r.db.Projects().FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Project{}, ErrNotFound
	}
	return project, err
}

func (r *MongoRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	cursor, err := r.db.Projects().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var projects []model.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *MongoRepository) UpdateProject(ctx context.Context, project model.Project) error {
	res, err := r.db.Projects().ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.Projects().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) AddProjectMember(ctx context.Context, projectID primitive.ObjectID, entry model.ProjectMember) error {
	res, err := r.db.Projects().UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$push": bson.M{"members": entry}})
	if err != nil {
		return fmt.Errorf("failed to add project member: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) UpdateProjectMemberRole(ctx context.Context, projectID, memberID primitive.ObjectID, role string) error {
	res, err := r.db.Projects().UpdateOne(ctx,
		bson.M{"_id": projectID, "members.memberId": memberID},
		bson.M{"$set": bson.M{"members.$.role": role}})
	if err != nil {
		return fmt.Errorf("failed to update project member role: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) RemoveProjectMember(ctx context.Context, projectID, memberID primitive.ObjectID) error {
	_, err := r.db.Projects().UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$pull": bson.M{"members": bson.M{"memberId": memberID}}})
	if err != nil {
		return fmt.Errorf("failed to remove project member: %w", err)
	}
	return nil
}

func (r *MongoRepository) RemoveMemberFromAllProjects(ctx context.Context, memberID primitive.ObjectID) error {
	_, err := r.db.Projects().UpdateMany(ctx,
		bson.M{"members.memberId": memberID},
		bson.M{"$pull": bson.M{"members": bson.M{"memberId": memberID}}})
	if err != nil {
		return fmt.Errorf("failed to remove member from projects: %w", err)
	}
	return nil
}

func (r *MongoRepository) SetProjectManager(ctx context.Context, projectID, managerID primitive.ObjectID) error {
	res, err := r.db.Projects().UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"projectManager": managerID}})
	if err != nil {
		return fmt.Errorf("failed to set project manager: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Meetings ----

func (r *MongoRepository) CreateMeeting(ctx context.Context, meeting model.Meeting) (primitive.ObjectID, error) {
	res, err := r.db.Meetings().InsertOne(ctx, meeting)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert meeting: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (r *MongoRepository) GetMeetingByID(ctx context.Context, id primitive.ObjectID) (model.Meeting, error) {
	var meeting model.Meeting
	err := r.db.Meetings().FindOne(ctx, bson.M{"_id": id}).Decode(&meeting)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Meeting{}, ErrNotFound
	}
	return meeting, err
}

func (r *MongoRepository) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	cursor, err := r.db.Meetings().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	var meetings []model.Meeting
	if err := cursor.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *MongoRepository) ListUpcomingMeetings(ctx context.Context, after time.Time, limit int64) ([]model.Meeting, error) {
	cursor, err := r.db.Meetings().Find(ctx,
		bson.M{"date": bson.M{"$gte": after}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming meetings: %w", err)
	}
	var meetings []model.Meeting
	if err := cursor.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *MongoRepository) UpdateMeeting(ctx context.Context, meeting model.Meeting) error {
	res, err := r.db.Meetings().ReplaceOne(ctx, bson.M{"_id": meeting.ID}, meeting)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteMeetingsByProject(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := r.db.Meetings().DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete project meetings: %w", err)
	}
	return nil
}

// ---- Tasks ----

func (r *MongoRepository) CreateTask(ctx context.Context, task model.Task) (primitive.ObjectID, error) {
	res, err := r.db.Tasks().InsertOne(ctx, task)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert task: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (r *MongoRepository) GetTaskByID(ctx context.Context, id primitive.ObjectID) (model.Task, error) {
	var task model.Task
	err := r.db.Tasks().FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Task{}, ErrNotFound
	}
	return task, err
}

func (r *MongoRepository) ListTasks(ctx context.Context) ([]model.Task, error) {
	cursor, err := r.db.Tasks().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	var tasks []model.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoRepository) ListOpenTasksByResponsible(ctx context.Context, memberID primitive.ObjectID) ([]model.Task, error) {
	cursor, err := r.db.Tasks().Find(ctx,
		bson.M{"responsibleMemberId": memberID, "status": bson.M{"$ne": model.TaskClosed}},
		options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list member tasks: %w", err)
	}
	var tasks []model.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoRepository) ListOpenTasksByMeeting(ctx context.Context, meetingID primitive.ObjectID) ([]model.Task, error) {
	cursor, err := r.db.Tasks().Find(ctx,
		bson.M{"meetingId": meetingID, "status": bson.M{"$ne": model.TaskClosed}},
		options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting tasks: %w", err)
	}
	var tasks []model.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoRepository) UpdateTask(ctx context.Context, task model.Task) error {
	res, err := r.db.Tasks().ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteTasksByProject(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := r.db.Tasks().DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	return nil
}

// CloseCompletedTasks transitions every "completed" task of the meeting to
// "closed" in one write and reports how many were touched.
func (r *MongoRepository) CloseCompletedTasks(ctx context.Context, meetingID primitive.ObjectID) (int64, error) {
	res, err := r.db.Tasks().UpdateMany(ctx,
		bson.M{"meetingId": meetingID, "status": model.TaskCompleted},
		bson.M{"$set": bson.M{"status": model.TaskClosed}})
	if err != nil {
		return 0, fmt.Errorf("failed to close completed tasks: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoRepository) CountTasksByProjectStatus(ctx context.Context) ([]StatusCount, error) {
	return r.countTasksByField(ctx, "$projectId")
}

func (r *MongoRepository) CountTasksByMemberStatus(ctx context.Context) ([]StatusCount, error) {
	return r.countTasksByField(ctx, "$responsibleMemberId")
}

func (r *MongoRepository) countTasksByField(ctx context.Context, field string) ([]StatusCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "ownerId", Value: field},
				{Key: "status", Value: "$status"},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "ownerId", Value: "$_id.ownerId"},
			{Key: "status", Value: "$_id.status"},
			{Key: "count", Value: 1},
		}}},
	}

	cursor, err := r.db.Tasks().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task counts: %w", err)
	}
	var counts []StatusCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *MongoRepository) CountOverdueTasksByMember(ctx context.Context, now time.Time) ([]OwnerCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$in", Value: bson.A{model.TaskPending, model.TaskInProgress}}}},
			{Key: "dueDate", Value: bson.D{{Key: "$lt", Value: now}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$responsibleMemberId"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.db.Tasks().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate overdue tasks: %w", err)
	}
	var counts []OwnerCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// ---- Database ----

func (r *MongoRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
