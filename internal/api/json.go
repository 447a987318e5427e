package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/logging"
	"github.com/aristath/todograph/internal/persistence"
)

type taskRefJSON struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	EstimatedDuration *int   `json:"estimatedDuration"`
}

type dependencyJSON struct {
	TodoID      int64       `json:"todoId"`
	DependsOnID int64       `json:"dependsOnId"`
	DependsOn   taskRefJSON `json:"dependsOn"`
}

type dependentJSON struct {
	TodoID      int64       `json:"todoId"`
	DependsOnID int64       `json:"dependsOnId"`
	Todo        taskRefJSON `json:"todo"`
}

type todoJSON struct {
	ID                int64            `json:"id"`
	Title             string           `json:"title"`
	DueDate           *time.Time       `json:"dueDate"`
	EstimatedDuration *int             `json:"estimatedDuration"`
	ImageURL          *string          `json:"imageUrl"`
	ImageAlt          *string          `json:"imageAlt"`
	CreatedAt         time.Time        `json:"createdAt"`
	Dependencies      []dependencyJSON `json:"dependencies"`
	Dependents        []dependentJSON  `json:"dependents"`
}

func toTodoJSON(rec persistence.TaskRecord) todoJSON {
	out := todoJSON{
		ID:                rec.ID,
		Title:             rec.Title,
		DueDate:           rec.DueDate,
		EstimatedDuration: rec.EstimatedDuration,
		CreatedAt:         rec.CreatedAt,
		Dependencies:      make([]dependencyJSON, 0, len(rec.Dependencies)),
		Dependents:        make([]dependentJSON, 0, len(rec.Dependents)),
	}
	if rec.Image != nil {
		out.ImageURL = &rec.Image.URL
		out.ImageAlt = &rec.Image.Alt
	}
	for _, p := range rec.Dependencies {
		out.Dependencies = append(out.Dependencies, dependencyJSON{
			TodoID:      rec.ID,
			DependsOnID: p.ID,
			DependsOn:   refJSON(p),
		})
	}
	for _, d := range rec.Dependents {
		out.Dependents = append(out.Dependents, dependentJSON{
			TodoID:      d.ID,
			DependsOnID: rec.ID,
			Todo:        refJSON(d),
		})
	}
	return out
}

func refJSON(p graph.Prerequisite) taskRefJSON {
	return taskRefJSON{ID: p.ID, Title: p.Title, EstimatedDuration: p.EstimatedDuration}
}

type createTodoRequest struct {
	Title             string       `json:"title"`
	DueDate           string       `json:"dueDate"`
	EstimatedDuration *int         `json:"estimatedDuration"`
	Dependencies      []flexibleID `json:"dependencies"`
}

type dependencyRequest struct {
	DependsOnID flexibleID `json:"dependsOnId"`
}

// flexibleID accepts an id sent either as a JSON number or a numeric string,
// as HTML forms do.
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*f = flexibleID(n)
	return nil
}

type earliestStartJSON struct {
	ID            int64 `json:"id"`
	EarliestStart int   `json:"earliestStart"`
}

type criticalPathJSON struct {
	CriticalPath       []int64             `json:"criticalPath"`
	EarliestStartTimes []earliestStartJSON `json:"earliestStartTimes"`
	TotalDuration      int                 `json:"totalDuration"`
}

type checkJSON struct {
	Acyclic bool    `json:"acyclic"`
	Order   []int64 `json:"order"`
	Tasks   int     `json:"tasks"`
}

type messageJSON struct {
	Message string `json:"message"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("HTTP", err, "encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorJSON{Error: msg})
}
