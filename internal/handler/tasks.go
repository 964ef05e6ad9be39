package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/taskmaster-dev/task-master/backend/internal/access"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
)

type assignmentRequest struct {
	TaskID  string   `json:"taskId" validate:"required"`
	UserIDs []string `json:"userIds"`
}

func criteriaFromQuery(r *http.Request) domain.TaskCriteria {
	q := r.URL.Query()
	return domain.TaskCriteria{
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		DueDate:   q.Get("dueDate"),
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request, targetUserID string) {
	tasks, err := h.tasks.FindWithFilters(identity(r), targetUserID, criteriaFromQuery(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	if len(tasks) == 0 {
		h.successResponse(w, r, http.StatusOK, "No tasks match the given query", tasks)
		return
	}

	h.successResponse(w, r, http.StatusOK, "tasks fetched successfully", tasks)
}

func (h *Handler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, "")
}

func (h *Handler) GetUserTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, chi.URLParam(r, "userId"))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.FindByID(chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if err := access.Authorize(identity(r), task); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "task fetched successfully", task)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTaskInput
	if err := h.readJSON(w, r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}

	task, err := h.tasks.Create(req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.notifyAssignees(task, task.AssignedTo)

	h.successResponse(w, r, http.StatusCreated, "task created successfully", task)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateTaskInput
	if err := h.readJSON(w, r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}

	task, err := h.tasks.Update(identity(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "task updated successfully", task)
}

func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := h.readJSON(w, r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}

	task, err := h.tasks.ChangeStatus(identity(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "task status updated successfully", task)
}

func (h *Handler) AssignTask(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	task, err := h.tasks.Assign(req.TaskID, req.UserIDs)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.notifyAssignees(task, task.AssignedTo)

	h.successResponse(w, r, http.StatusOK, "task assigned successfully", task)
}

func (h *Handler) UnassignTask(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	task, err := h.tasks.Unassign(req.TaskID, req.UserIDs)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "task unassigned successfully", task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Delete(identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "task deleted successfully", task)
}

// notifyAssignees queues one assignment mail per registered assignee. Ids
// that name no user are skipped.
func (h *Handler) notifyAssignees(task *domain.Task, userIDs []string) {
	for _, userID := range userIDs {
		user, err := h.users.Get(userID)
		if err != nil {
			slog.Warn("skipping assignment mail", "task", task.ID, "user", userID, "error", err)
			continue
		}

		h.publish(domain.MailMessage{
			Type: domain.MailTypeTaskAssigned,
			To:   user.Email,
			Data: domain.TaskAssignedMailData{
				Username:  user.Username,
				TaskID:    task.ID,
				TaskTitle: task.Title,
				DueDate:   task.DueDate.Format(time.DateOnly),
				Priority:  string(task.Priority),
			},
		})
	}
}
