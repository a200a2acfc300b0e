package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type taskRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartAt     time.Time   `json:"start_at"`
	EndAt       time.Time   `json:"end_at"`
	Location    string      `json:"location"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids,omitempty"`
}

type taskPageResponse struct {
	Items      []*domain.Task `json:"items"`
	Pagination pagination     `json:"pagination"`
	Sort       sortInfo       `json:"sort"`
}

type pagination struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type sortInfo struct {
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type assignRequest struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	task, err := h.service.Create(r.Context(), identity.UserID, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Location:    req.Location,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// List returns the caller's tasks, paginated and sorted. A `q` parameter
// switches to assignment-scoped search over title and description.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		tasks, err := h.service.Search(r.Context(), identity.UserID, q)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": emptyIfNil(tasks)})
		return
	}

	h.listForUser(w, r, identity.UserID)
}

// ListForUserPath serves the path-scoped variant; RequireSelf has already
// verified the {userId} parameter against the token identity.
func (h *TaskHandler) ListForUserPath(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid user id")
		return
	}
	h.listForUser(w, r, userID)
}

func (h *TaskHandler) listForUser(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	query := ports.ListTasksQuery{
		Page:      intParam(r, "page", 0),
		Size:      intParam(r, "size", 10),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
	}

	page, err := h.service.ListForUser(r.Context(), userID, query)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskPageResponse{
		Items: emptyIfNil(page.Items),
		Pagination: pagination{
			Page:       page.Page,
			Size:       page.Size,
			TotalItems: page.TotalItems,
			TotalPages: page.TotalPages,
		},
		Sort: sortInfo{SortBy: page.SortBy, SortOrder: page.SortOrder},
	})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.identityAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), taskID, identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.identityAndTaskID(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	task, err := h.service.Update(r.Context(), taskID, identity.UserID, ports.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Location:    req.Location,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.identityAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), taskID, identity.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

func (h *TaskHandler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.identityAndTaskID(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListAssignees(r.Context(), taskID, identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": emptyIfNil(users)})
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.identityAndTaskID(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	if err := h.service.Assign(r.Context(), taskID, identity.UserID, req.UserIDs); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "assignees added"})
}

func (h *TaskHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.identityAndTaskID(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid user id")
		return
	}

	if err := h.service.Unassign(r.Context(), taskID, identity.UserID, userID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "assignee removed"})
}

func (h *TaskHandler) identityAndTaskID(w http.ResponseWriter, r *http.Request) (Identity, uuid.UUID, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
		return Identity{}, uuid.Nil, false
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid task id")
		return Identity{}, uuid.Nil, false
	}

	return identity, taskID, true
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
