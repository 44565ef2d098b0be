// Package mongodb is the document-store backend of store.Store.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"budgettracker/models"
	"budgettracker/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers    = "users"
	collProjects = "projects"
	collExpenses = "expenses"
	collMembers  = "project_members"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri, selects database and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collProjects: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		collExpenses: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_by_user_id", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		collMembers: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("%s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Users() store.Users       { return userRepo{s.db.Collection(collUsers)} }
func (s *Store) Projects() store.Projects { return projectRepo{s.db.Collection(collProjects)} }
func (s *Store) Expenses() store.Expenses { return expenseRepo{s.db.Collection(collExpenses)} }
func (s *Store) Members() store.Members   { return memberRepo{s.db.Collection(collMembers)} }

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	result, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var (
	stampMu   sync.Mutex
	lastStamp time.Time
)

// stamp fills the id and timestamps of a new document. BSON dates keep
// milliseconds only, so creation times are forced apart to keep newest-first
// ordering stable.
func stamp(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = models.NewID()
	}
	stampMu.Lock()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if !now.After(lastStamp) {
		now = lastStamp.Add(time.Millisecond)
	}
	lastStamp = now
	stampMu.Unlock()
	*createdAt, *updatedAt = now, now
}

type userRepo struct{ coll *mongo.Collection }

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, u)
	return translate(err)
}

func (r userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"_id": id})
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"email": models.NormalizeEmail(email)})
}

func (r userRepo) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	return replace(ctx, r.coll, u.ID, u)
}

type projectRepo struct{ coll *mongo.Collection }

func (r projectRepo) Create(ctx context.Context, p *models.Project) error {
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

func (r projectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	return findOne[models.Project](ctx, r.coll, bson.M{"_id": id})
}

func (r projectRepo) Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error) {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
	}
	return findAll[models.Project](ctx, r.coll, filter)
}

func (r projectRepo) Update(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"budget":      p.Budget,
		"owner_id":    p.OwnerID,
		"owner_name":  p.OwnerName,
		"owner_email": p.OwnerEmail,
		"status":      p.Status,
		"updated_at":  p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r projectRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r projectRepo) SetNotificationFlags(ctx context.Context, id string, from, to models.NotificationFlags) (bool, error) {
	filter := bson.M{
		"_id":                  id,
		"budget_warning_sent":  from.WarningSent,
		"budget_exceeded_sent": from.ExceededSent,
	}
	update := bson.M{"$set": bson.M{
		"budget_warning_sent":  to.WarningSent,
		"budget_exceeded_sent": to.ExceededSent,
		"updated_at":           time.Now().UTC(),
	}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 1 {
		return true, nil
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, store.ErrNotFound
	}
	return false, nil
}

type expenseRepo struct{ coll *mongo.Collection }

func (r expenseRepo) Create(ctx context.Context, e *models.Expense) error {
	stamp(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, e)
	return translate(err)
}

func (r expenseRepo) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	return findOne[models.Expense](ctx, r.coll, bson.M{"_id": id})
}

func (r expenseRepo) Find(ctx context.Context, f models.ExpenseFilter) ([]models.Expense, error) {
	filter := bson.M{}
	if f.ProjectID != "" {
		filter["project_id"] = f.ProjectID
	}
	if f.CreatedByUserID != "" {
		filter["created_by_user_id"] = f.CreatedByUserID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	return findAll[models.Expense](ctx, r.coll, filter)
}

func (r expenseRepo) Update(ctx context.Context, e *models.Expense) error {
	e.UpdatedAt = time.Now().UTC()
	return replace(ctx, r.coll, e.ID, e)
}

func (r expenseRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

type memberRepo struct{ coll *mongo.Collection }

func (r memberRepo) Create(ctx context.Context, m *models.ProjectMember) error {
	if m.Role == "" {
		m.Role = models.MemberRoleMember
	}
	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, m)
	return translate(err)
}

func (r memberRepo) FindByID(ctx context.Context, id string) (*models.ProjectMember, error) {
	return findOne[models.ProjectMember](ctx, r.coll, bson.M{"_id": id})
}

func (r memberRepo) Find(ctx context.Context, f models.MemberFilter) ([]models.ProjectMember, error) {
	filter := bson.M{}
	if f.ProjectID != "" {
		filter["project_id"] = f.ProjectID
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	return findAll[models.ProjectMember](ctx, r.coll, filter)
}

func (r memberRepo) Update(ctx context.Context, m *models.ProjectMember) error {
	m.UpdatedAt = time.Now().UTC()
	return replace(ctx, r.coll, m.ID, m)
}

func (r memberRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
