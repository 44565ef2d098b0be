package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"budgettracker/apperr"
	"budgettracker/logging"
	"budgettracker/middleware"
	"budgettracker/models"
	"budgettracker/queue"
	"budgettracker/store"

	"github.com/gocarina/gocsv"
	"github.com/go-chi/chi/v5"
)

// Categorizer suggests a category for a free-text description.
type Categorizer interface {
	Categorize(ctx context.Context, description string) models.Category
}

type ExpenseHandler struct {
	projects    store.Projects
	expenses    store.Expenses
	dispatcher  queue.Dispatcher
	categorizer Categorizer
}

func NewExpenseHandler(s store.Store, dispatcher queue.Dispatcher, categorizer Categorizer) *ExpenseHandler {
	return &ExpenseHandler{
		projects:    s.Projects(),
		expenses:    s.Expenses(),
		dispatcher:  dispatcher,
		categorizer: categorizer,
	}
}

type expenseRequest struct {
	ProjectID   string   `json:"project_id"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
}

// category parses the optional category. An empty value clears it.
func (req expenseRequest) category() (models.Category, error) {
	if req.Category == nil || *req.Category == "" {
		return "", nil
	}
	c, ok := models.ParseCategory(*req.Category)
	if !ok {
		return "", apperr.Validation(apperr.CodeInvalidCategory)
	}
	return c, nil
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.ProjectID == "" {
		respondError(w, r, apperr.Validation(apperr.CodeProjectIDRequired))
		return
	}
	if req.Amount == nil || *req.Amount <= 0 {
		respondError(w, r, apperr.Validation(apperr.CodeValidAmountRequired))
		return
	}
	category, err := req.category()
	if err != nil {
		respondError(w, r, err)
		return
	}

	project, err := findProject(r, h.projects, req.ProjectID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	expense := &models.Expense{
		ProjectID:          project.ID,
		ProjectName:        project.Name,
		Amount:             *req.Amount,
		Category:           category,
		CreatedByUserID:    user.ID,
		CreatedByUserName:  user.DisplayName(),
		CreatedByUserEmail: user.Email,
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}

	if err := h.expenses.Create(r.Context(), expense); err != nil {
		respondError(w, r, err)
		return
	}

	dispatch(r, h.dispatcher, project.ID, queue.ReasonExpenseCreated)
	respondOK(w, expense)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	expense, err := h.load(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, expense)
}

type expenseSearch struct {
	ProjectID       string          `json:"project_id"`
	CreatedByUserID string          `json:"created_by_user_id"`
	Category        models.Category `json:"category"`
}

func (h *ExpenseHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req expenseSearch
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	expenses, err := h.expenses.Find(r.Context(), models.ExpenseFilter{
		ProjectID:       req.ProjectID,
		CreatedByUserID: req.CreatedByUserID,
		Category:        req.Category,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	respondOK(w, expenses)
}

func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	expense, err := h.loadManaged(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req expenseRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		respondError(w, r, apperr.Validation(apperr.CodeValidAmountRequired))
		return
	}

	amountChanged := req.Amount != nil && *req.Amount != expense.Amount
	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.Category != nil {
		category, err := req.category()
		if err != nil {
			respondError(w, r, err)
			return
		}
		expense.Category = category
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}

	if err := h.expenses.Update(r.Context(), expense); err != nil {
		respondError(w, r, err)
		return
	}

	if amountChanged {
		dispatch(r, h.dispatcher, expense.ProjectID, queue.ReasonExpenseUpdated)
	}
	respondOK(w, expense)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	expense, err := h.loadManaged(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.expenses.Delete(r.Context(), expense.ID); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{OK: true})
}

type categorizeRequest struct {
	Description string `json:"description"`
}

type categorizeResponse struct {
	Category models.Category `json:"category"`
}

// Categorize suggests a category for a description without storing anything.
func (h *ExpenseHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		respondError(w, r, apperr.Validation(apperr.CodeDescriptionRequired))
		return
	}

	respondOK(w, categorizeResponse{Category: h.categorizer.Categorize(r.Context(), req.Description)})
}

type expenseRow struct {
	Date        string  `csv:"Date"`
	Project     string  `csv:"Projet"`
	Category    string  `csv:"Catégorie"`
	Description string  `csv:"Description"`
	Amount      float64 `csv:"Montant"`
	CreatedBy   string  `csv:"Créé par"`
}

// Export streams the expenses of a project, or of every project when no
// project_id is given, as CSV.
func (h *ExpenseHandler) Export(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	filename := "expenses.csv"
	if projectID != "" {
		if _, err := findProject(r, h.projects, projectID); err != nil {
			respondError(w, r, err)
			return
		}
		filename = fmt.Sprintf("expenses_%s.csv", projectID)
	}

	expenses, err := h.expenses.Find(r.Context(), models.ExpenseFilter{ProjectID: projectID})
	if err != nil {
		respondError(w, r, err)
		return
	}

	rows := make([]expenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, expenseRow{
			Date:        e.CreatedAt.Format(time.DateOnly),
			Project:     e.ProjectName,
			Category:    string(e.Category),
			Description: e.Description,
			Amount:      e.Amount,
			CreatedBy:   e.CreatedByUserName,
		})
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		// Headers are already sent.
		logging.FromContext(r.Context()).WithError(err).Error("Failed to write expense export")
	}
}

func (h *ExpenseHandler) load(r *http.Request) (*models.Expense, error) {
	expense, err := h.expenses.FindByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeExpenseNotFound)
	}
	return expense, err
}

// loadManaged loads the expense and checks the caller created it or is admin.
func (h *ExpenseHandler) loadManaged(r *http.Request) (*models.Expense, error) {
	expense, err := h.load(r)
	if err != nil {
		return nil, err
	}
	if !middleware.GetUserFromContext(r.Context()).CanManageExpense(expense) {
		return nil, apperr.Unauthorized()
	}
	return expense, nil
}
