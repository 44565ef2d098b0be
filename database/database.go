// Package database is the gorm backed store (PostgreSQL, or SQLite for local
// runs and tests) and the entry point that opens whichever backend is configured.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgettracker/models"
	"budgettracker/store"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Store struct {
	db *gorm.DB
}

// Open connects with the given gorm dialect and migrates the schema.
func Open(driver, dsn string, debug bool) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	logMode := logger.Warn
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases shared across queries.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	err = db.AutoMigrate(&models.User{}, &models.Project{}, &models.Expense{}, &models.ProjectMember{})
	if err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Users() store.Users       { return userRepo{s.db} }
func (s *Store) Projects() store.Projects { return projectRepo{s.db} }
func (s *Store) Expenses() store.Expenses { return expenseRepo{s.db} }
func (s *Store) Members() store.Members   { return memberRepo{s.db} }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	default:
		return err
	}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at desc")
}

type userRepo struct{ db *gorm.DB }

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return store.ErrDuplicate
		}
		return translate(tx.Create(u).Error)
	})
}

func (r userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r userRepo) Update(ctx context.Context, u *models.User) error {
	result := r.db.WithContext(ctx).Model(u).Select("*").Omit("created_at").Updates(u)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type projectRepo struct{ db *gorm.DB }

func (r projectRepo) Create(ctx context.Context, p *models.Project) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r projectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r projectRepo) Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{})
	if f.OwnerID != "" {
		query = query.Where("owner_id = ?", f.OwnerID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Name != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(f.Name))+"%")
	}

	projects := make([]models.Project, 0)
	if err := newestFirst(query).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update writes every column except the notification flags, which only move
// through SetNotificationFlags.
func (r projectRepo) Update(ctx context.Context, p *models.Project) error {
	result := r.db.WithContext(ctx).Model(p).
		Select("*").
		Omit("created_at", "budget_warning_sent", "budget_exceeded_sent").
		Updates(p)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r projectRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r projectRepo) SetNotificationFlags(ctx context.Context, id string, from, to models.NotificationFlags) (bool, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.Project{}).
		Where("id = ? AND budget_warning_sent = ? AND budget_exceeded_sent = ?", id, from.WarningSent, from.ExceededSent).
		Updates(map[string]any{
			"budget_warning_sent":  to.WarningSent,
			"budget_exceeded_sent": to.ExceededSent,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, store.ErrNotFound
	}
	return false, nil
}

type expenseRepo struct{ db *gorm.DB }

func (r expenseRepo) Create(ctx context.Context, e *models.Expense) error {
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r expenseRepo) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	var e models.Expense
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r expenseRepo) Find(ctx context.Context, f models.ExpenseFilter) ([]models.Expense, error) {
	query := r.db.WithContext(ctx).Model(&models.Expense{})
	if f.ProjectID != "" {
		query = query.Where("project_id = ?", f.ProjectID)
	}
	if f.CreatedByUserID != "" {
		query = query.Where("created_by_user_id = ?", f.CreatedByUserID)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}

	expenses := make([]models.Expense, 0)
	if err := newestFirst(query).Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r expenseRepo) Update(ctx context.Context, e *models.Expense) error {
	result := r.db.WithContext(ctx).Model(e).Select("*").Omit("created_at").Updates(e)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r expenseRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Expense{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type memberRepo struct{ db *gorm.DB }

func (r memberRepo) Create(ctx context.Context, m *models.ProjectMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", m.ProjectID, m.UserID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return store.ErrDuplicate
		}
		return translate(tx.Create(m).Error)
	})
}

func (r memberRepo) FindByID(ctx context.Context, id string) (*models.ProjectMember, error) {
	var m models.ProjectMember
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r memberRepo) Find(ctx context.Context, f models.MemberFilter) ([]models.ProjectMember, error) {
	query := r.db.WithContext(ctx).Model(&models.ProjectMember{})
	if f.ProjectID != "" {
		query = query.Where("project_id = ?", f.ProjectID)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}

	members := make([]models.ProjectMember, 0)
	if err := newestFirst(query).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r memberRepo) Update(ctx context.Context, m *models.ProjectMember) error {
	result := r.db.WithContext(ctx).Model(m).Select("*").Omit("created_at").Updates(m)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r memberRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.ProjectMember{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
