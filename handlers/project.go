package handlers

import (
	"errors"
	"net/http"
	"strings"

	"budgettracker/apperr"
	"budgettracker/logging"
	"budgettracker/middleware"
	"budgettracker/models"
	"budgettracker/queue"
	"budgettracker/store"

	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	projects   store.Projects
	dispatcher queue.Dispatcher
}

func NewProjectHandler(projects store.Projects, dispatcher queue.Dispatcher) *ProjectHandler {
	return &ProjectHandler{
		projects:   projects,
		dispatcher: dispatcher,
	}
}

// projectRequest carries optional fields; nil means "not provided".
type projectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Budget      *float64              `json:"budget"`
	Status      *models.ProjectStatus `json:"status"`
}

func (req projectRequest) validate() error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return apperr.Validation(apperr.CodeNameRequired)
	}
	if req.Budget != nil && *req.Budget < 0 {
		return apperr.Validation(apperr.CodeValidBudgetRequired)
	}
	if req.Status != nil && !req.Status.Valid() {
		return apperr.Validation(apperr.CodeInvalidStatus)
	}
	return nil
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == nil {
		respondError(w, r, apperr.Validation(apperr.CodeNameRequired))
		return
	}
	if req.Budget == nil {
		respondError(w, r, apperr.Validation(apperr.CodeValidBudgetRequired))
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	project := &models.Project{
		Name:       strings.TrimSpace(*req.Name),
		Budget:     *req.Budget,
		OwnerID:    user.ID,
		OwnerName:  user.DisplayName(),
		OwnerEmail: user.Email,
		Status:     models.StatusActive,
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := h.projects.Create(r.Context(), project); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.load(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, project)
}

type projectSearch struct {
	OwnerID string               `json:"owner_id"`
	Status  models.ProjectStatus `json:"status"`
	Name    string               `json:"name"`
}

func (h *ProjectHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req projectSearch
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	projects, err := h.projects.Find(r.Context(), models.ProjectFilter{
		OwnerID: req.OwnerID,
		Status:  req.Status,
		Name:    strings.TrimSpace(req.Name),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respondOK(w, projects)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, err := h.loadManaged(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req projectRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, r, err)
		return
	}

	budgetChanged := req.Budget != nil && *req.Budget != project.Budget
	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Budget != nil {
		project.Budget = *req.Budget
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := h.projects.Update(r.Context(), project); err != nil {
		respondError(w, r, err)
		return
	}

	if budgetChanged {
		dispatch(r, h.dispatcher, project.ID, queue.ReasonBudgetUpdated)
	}
	respondOK(w, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, err := h.loadManaged(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.projects.Delete(r.Context(), project.ID); err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).WithField(logging.FieldProjectID, project.ID).Info("Project deleted")
	writeJSON(w, http.StatusOK, envelope{OK: true})
}

func (h *ProjectHandler) load(r *http.Request) (*models.Project, error) {
	return findProject(r, h.projects, chi.URLParam(r, "id"))
}

// loadManaged loads the project and checks the caller owns it or is admin.
func (h *ProjectHandler) loadManaged(r *http.Request) (*models.Project, error) {
	project, err := h.load(r)
	if err != nil {
		return nil, err
	}
	if !middleware.GetUserFromContext(r.Context()).CanManageProject(project) {
		return nil, apperr.Unauthorized()
	}
	return project, nil
}

func findProject(r *http.Request, projects store.Projects, id string) (*models.Project, error) {
	project, err := projects.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeProjectNotFound)
	}
	return project, err
}

// dispatch hands a budget check to the background. A failure is logged and
// never fails the request.
func dispatch(r *http.Request, d queue.Dispatcher, projectID string, reason queue.Reason) {
	if err := d.Dispatch(r.Context(), queue.NewBudgetCheck(projectID, reason)); err != nil {
		logging.FromContext(r.Context()).WithError(err).
			WithField(logging.FieldProjectID, projectID).
			WithField(logging.FieldReason, reason).
			Error("Failed to dispatch budget check")
	}
}
