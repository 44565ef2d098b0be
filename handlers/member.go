package handlers

import (
	"errors"
	"net/http"

	"budgettracker/apperr"
	"budgettracker/middleware"
	"budgettracker/models"
	"budgettracker/store"

	"github.com/go-chi/chi/v5"
)

type MemberHandler struct {
	users    store.Users
	projects store.Projects
	members  store.Members
}

func NewMemberHandler(s store.Store) *MemberHandler {
	return &MemberHandler{
		users:    s.Users(),
		projects: s.Projects(),
		members:  s.Members(),
	}
}

type memberRequest struct {
	ProjectID      string             `json:"project_id"`
	UserEmail      string             `json:"user_email"`
	Role           *models.MemberRole `json:"role"`
	CanAddExpenses *bool              `json:"can_add_expenses"`
	CanEditProject *bool              `json:"can_edit_project"`
}

func (req memberRequest) validateRole() error {
	if req.Role != nil && !req.Role.Valid() {
		return apperr.Validation(apperr.CodeInvalidRole)
	}
	return nil
}

// apply copies the provided permission fields onto m.
func (req memberRequest) apply(m *models.ProjectMember) {
	if req.Role != nil {
		m.Role = *req.Role
	}
	if req.CanAddExpenses != nil {
		m.CanAddExpenses = *req.CanAddExpenses
	}
	if req.CanEditProject != nil {
		m.CanEditProject = *req.CanEditProject
	}
}

// Add grants a registered user, found by email, access to a project.
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.ProjectID == "" {
		respondError(w, r, apperr.Validation(apperr.CodeProjectIDRequired))
		return
	}
	email := models.NormalizeEmail(req.UserEmail)
	if email == "" {
		respondError(w, r, apperr.Validation(apperr.CodeUserEmailRequired))
		return
	}
	if err := req.validateRole(); err != nil {
		respondError(w, r, err)
		return
	}

	project, err := findProject(r, h.projects, req.ProjectID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	caller := middleware.GetUserFromContext(r.Context())
	if !caller.CanManageProject(project) {
		respondError(w, r, apperr.Unauthorized())
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, apperr.NotFound(apperr.CodeUserNotFound))
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	existing, err := h.members.Find(r.Context(), models.MemberFilter{ProjectID: project.ID, UserID: user.ID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(existing) > 0 {
		respondError(w, r, apperr.Conflict(apperr.CodeAlreadyMember))
		return
	}

	member := &models.ProjectMember{
		ProjectID:       project.ID,
		ProjectName:     project.Name,
		UserID:          user.ID,
		UserName:        user.Name,
		UserEmail:       user.Email,
		UserAvatar:      user.Avatar,
		Role:            models.MemberRoleMember,
		CanAddExpenses:  true,
		CanEditProject:  false,
		AddedByUserID:   caller.ID,
		AddedByUserName: caller.DisplayName(),
	}
	req.apply(member)

	if err := h.members.Create(r.Context(), member); err != nil {
		// Lost a race with a concurrent add.
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, r, apperr.Conflict(apperr.CodeAlreadyMember))
			return
		}
		respondError(w, r, err)
		return
	}
	respondOK(w, member)
}

type memberSearch struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
}

func (h *MemberHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req memberSearch
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	members, err := h.members.Find(r.Context(), models.MemberFilter{ProjectID: req.ProjectID, UserID: req.UserID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if members == nil {
		members = []models.ProjectMember{}
	}
	respondOK(w, members)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	member, err := h.loadManaged(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req memberRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.validateRole(); err != nil {
		respondError(w, r, err)
		return
	}
	req.apply(member)

	if err := h.members.Update(r.Context(), member); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, member)
}

func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	member, err := h.loadManaged(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.members.Delete(r.Context(), member.ID); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{OK: true})
}

// loadManaged loads the member and checks the caller manages its project.
func (h *MemberHandler) loadManaged(r *http.Request) (*models.ProjectMember, error) {
	member, err := h.members.FindByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeMemberNotFound)
	}
	if err != nil {
		return nil, err
	}

	project, err := findProject(r, h.projects, member.ProjectID)
	if err != nil {
		return nil, err
	}
	if !middleware.GetUserFromContext(r.Context()).CanManageProject(project) {
		return nil, apperr.Unauthorized()
	}
	return member, nil
}
