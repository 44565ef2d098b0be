// Package memory is an in-process store.Store used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"budgettracker/models"
	"budgettracker/store"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[string]models.User
	projects map[string]models.Project
	expenses map[string]models.Expense
	members  map[string]models.ProjectMember
}

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    map[string]models.User{},
		projects: map[string]models.Project{},
		expenses: map[string]models.Expense{},
		members:  map[string]models.ProjectMember{},
	}
}

func (s *Store) Users() store.Users       { return userRepo{s} }
func (s *Store) Projects() store.Projects { return projectRepo{s} }
func (s *Store) Expenses() store.Expenses { return expenseRepo{s} }
func (s *Store) Members() store.Members   { return memberRepo{s} }
func (s *Store) Close() error             { return nil }

// tick returns a strictly increasing timestamp so newest-first ordering is
// stable for records created in the same instant.
func (s *Store) tick(prev time.Time) time.Time {
	t := s.now()
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}

func (s *Store) latest() time.Time {
	var last time.Time
	for _, p := range s.projects {
		if p.CreatedAt.After(last) {
			last = p.CreatedAt
		}
	}
	for _, e := range s.expenses {
		if e.CreatedAt.After(last) {
			last = e.CreatedAt
		}
	}
	for _, m := range s.members {
		if m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}
	return last
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = models.NewID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r userRepo) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	u.UpdatedAt = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

type projectRepo struct{ s *Store }

func (r projectRepo) Create(_ context.Context, p *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = models.NewID()
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	now := r.s.tick(r.s.latest())
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.projects[p.ID] = *p
	return nil
}

func (r projectRepo) FindByID(_ context.Context, id string) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r projectRepo) Find(_ context.Context, f models.ProjectFilter) ([]models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	name := strings.ToLower(f.Name)
	out := make([]models.Project, 0)
	for _, p := range r.s.projects {
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r projectRepo) Update(_ context.Context, p *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.projects[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.SetFlags(existing.Flags())
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.projects[p.ID] = *p
	return nil
}

func (r projectRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.projects, id)
	return nil
}

func (r projectRepo) SetNotificationFlags(_ context.Context, id string, from, to models.NotificationFlags) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if p.Flags() != from {
		return false, nil
	}
	p.SetFlags(to)
	p.UpdatedAt = r.s.now()
	r.s.projects[id] = p
	return true, nil
}

type expenseRepo struct{ s *Store }

func (r expenseRepo) Create(_ context.Context, e *models.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = models.NewID()
	}
	now := r.s.tick(r.s.latest())
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.expenses[e.ID] = *e
	return nil
}

func (r expenseRepo) FindByID(_ context.Context, id string) (*models.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (r expenseRepo) Find(_ context.Context, f models.ExpenseFilter) ([]models.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Expense, 0)
	for _, e := range r.s.expenses {
		if f.ProjectID != "" && e.ProjectID != f.ProjectID {
			continue
		}
		if f.CreatedByUserID != "" && e.CreatedByUserID != f.CreatedByUserID {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r expenseRepo) Update(_ context.Context, e *models.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[e.ID]; !ok {
		return store.ErrNotFound
	}
	e.UpdatedAt = r.s.now()
	r.s.expenses[e.ID] = *e
	return nil
}

func (r expenseRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.expenses, id)
	return nil
}

type memberRepo struct{ s *Store }

func (r memberRepo) Create(_ context.Context, m *models.ProjectMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.members {
		if existing.ProjectID == m.ProjectID && existing.UserID == m.UserID {
			return store.ErrDuplicate
		}
	}
	if m.ID == "" {
		m.ID = models.NewID()
	}
	if m.Role == "" {
		m.Role = models.MemberRoleMember
	}
	now := r.s.tick(r.s.latest())
	m.CreatedAt, m.UpdatedAt = now, now
	r.s.members[m.ID] = *m
	return nil
}

func (r memberRepo) FindByID(_ context.Context, id string) (*models.ProjectMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (r memberRepo) Find(_ context.Context, f models.MemberFilter) ([]models.ProjectMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.ProjectMember, 0)
	for _, m := range r.s.members {
		if f.ProjectID != "" && m.ProjectID != f.ProjectID {
			continue
		}
		if f.UserID != "" && m.UserID != f.UserID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memberRepo) Update(_ context.Context, m *models.ProjectMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[m.ID]; !ok {
		return store.ErrNotFound
	}
	m.UpdatedAt = r.s.now()
	r.s.members[m.ID] = *m
	return nil
}

func (r memberRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.members, id)
	return nil
}
