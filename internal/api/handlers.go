package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/logging"
	"github.com/aristath/todograph/internal/persistence"
	"github.com/aristath/todograph/internal/service"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.ListTasks(r.Context())
	if err != nil {
		logging.Error("HTTP", err, "listing todos")
		writeError(w, http.StatusInternalServerError, "Error fetching todos")
		return
	}

	out := make([]todoJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTodoJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid todo ID")
		return
	}

	rec, err := s.svc.GetTask(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Todo not found")
	case err != nil:
		logging.Error("HTTP", err, "fetching todo %d", id)
		writeError(w, http.StatusInternalServerError, "Error fetching todo")
	default:
		writeJSON(w, http.StatusOK, toTodoJSON(*rec))
	}
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due date")
		return
	}

	in := service.NewTask{
		Title:             req.Title,
		DueDate:           due,
		EstimatedDuration: req.EstimatedDuration,
	}
	// A zero estimate means "not estimated"
	if in.EstimatedDuration != nil && *in.EstimatedDuration == 0 {
		in.EstimatedDuration = nil
	}
	for _, d := range req.Dependencies {
		in.Dependencies = append(in.Dependencies, int64(d))
	}

	rec, err := s.svc.CreateTask(r.Context(), in)
	var rej *graph.RejectionError
	switch {
	case errors.Is(err, service.ErrInvalid):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.As(err, &rej):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Circular dependency detected with task %d", rej.Edge.PrerequisiteID))
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Dependency todo not found")
	case err != nil:
		logging.Error("HTTP", err, "creating todo")
		writeError(w, http.StatusInternalServerError, "Error creating todo")
	default:
		writeJSON(w, http.StatusCreated, toTodoJSON(*rec))
	}
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid todo ID")
		return
	}

	err := s.svc.DeleteTask(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Todo not found")
	case err != nil:
		logging.Error("HTTP", err, "deleting todo %d", id)
		writeError(w, http.StatusInternalServerError, "Error deleting todo")
	default:
		writeJSON(w, http.StatusOK, messageJSON{Message: "Todo deleted"})
	}
}

func (s *Server) refreshImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid todo ID")
		return
	}

	_, err := s.svc.RefreshImage(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	if err != nil {
		logging.Error("HTTP", err, "refreshing image for todo %d", id)
		writeError(w, http.StatusInternalServerError, "Error fetching image")
		return
	}

	rec, err := s.svc.GetTask(r.Context(), id)
	if err != nil {
		logging.Error("HTTP", err, "fetching todo %d", id)
		writeError(w, http.StatusInternalServerError, "Error fetching todo")
		return
	}
	writeJSON(w, http.StatusOK, toTodoJSON(*rec))
}

// dependencyParams reads the successor from the path and the prerequisite
// from the body. It writes the 400 response itself on failure.
func dependencyParams(w http.ResponseWriter, r *http.Request) (succ, prereq int64, ok bool) {
	succ, ok = pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid todo ID")
		return 0, 0, false
	}

	var req dependencyRequest
	if err := decodeJSON(w, r, &req); err != nil || req.DependsOnID <= 0 {
		writeError(w, http.StatusBadRequest, "Valid dependency ID is required")
		return 0, 0, false
	}
	return succ, int64(req.DependsOnID), true
}

func (s *Server) addDependency(w http.ResponseWriter, r *http.Request) {
	succ, prereq, ok := dependencyParams(w, r)
	if !ok {
		return
	}

	err := s.svc.AddDependency(r.Context(), succ, prereq)
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "One or both todos not found")
	case errors.Is(err, graph.ErrSelfDependency), errors.Is(err, graph.ErrCycle):
		writeError(w, http.StatusBadRequest, "This would create a circular dependency")
	case errors.Is(err, persistence.ErrDuplicateEdge):
		writeError(w, http.StatusConflict, "Dependency already exists")
	case err != nil:
		logging.Error("HTTP", err, "adding dependency %d -> %d", succ, prereq)
		writeError(w, http.StatusInternalServerError, "Error creating dependency")
	default:
		writeJSON(w, http.StatusCreated, struct {
			TodoID      int64 `json:"todoId"`
			DependsOnID int64 `json:"dependsOnId"`
		}{succ, prereq})
	}
}

func (s *Server) removeDependency(w http.ResponseWriter, r *http.Request) {
	succ, prereq, ok := dependencyParams(w, r)
	if !ok {
		return
	}

	if _, err := s.svc.RemoveDependency(r.Context(), succ, prereq); err != nil {
		logging.Error("HTTP", err, "removing dependency %d -> %d", succ, prereq)
		writeError(w, http.StatusInternalServerError, "Error removing dependency")
		return
	}
	writeJSON(w, http.StatusOK, messageJSON{Message: "Dependency removed"})
}

func (s *Server) criticalPath(w http.ResponseWriter, r *http.Request) {
	analysis, snap, err := s.svc.CriticalPath(r.Context())
	if err != nil {
		logging.Error("HTTP", err, "calculating critical path")
		writeError(w, http.StatusInternalServerError, "Error calculating critical path")
		return
	}

	out := criticalPathJSON{
		CriticalPath:       analysis.CriticalPath,
		EarliestStartTimes: make([]earliestStartJSON, 0, snap.Len()),
		TotalDuration:      analysis.TotalDuration,
	}
	for _, n := range snap.Nodes {
		out.EarliestStartTimes = append(out.EarliestStartTimes, earliestStartJSON{
			ID:            n.Task.ID,
			EarliestStart: analysis.EarliestStart[n.Task.ID],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) checkGraph(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Check(r.Context())
	if err != nil {
		logging.Error("HTTP", err, "checking graph")
		writeError(w, http.StatusInternalServerError, "Error checking graph")
		return
	}
	writeJSON(w, http.StatusOK, checkJSON{Acyclic: result.Acyclic, Order: result.Order, Tasks: result.Tasks})
}

// validationMessage strips the error kind prefix from a validation error.
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrInvalid.Error()+": ")
}
