package ui

import (
	"html/template"
	"net/http"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type Event struct {
	Time     time.Time
	Model    string
	Kind     string
	Message  string
	Duration string
}

// UIStore keeps a per-run event timeline for the HTML pages.
type UIStore struct {
	mu   sync.RWMutex
	runs map[string][]Event
}

func NewUIStore() *UIStore {
	return &UIStore{
		runs: make(map[string][]Event),
	}
}

// AddEvent registers an event for a run.
func (s *UIStore) AddEvent(runID, model, kind, msg, duration string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := Event{
		Time:     time.Now(),
		Model:    model,
		Kind:     kind,
		Message:  msg,
		Duration: duration,
	}
	s.runs[runID] = append(s.runs[runID], ev)
}

// EventCount returns the total number of recorded events.
func (s *UIStore) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, evs := range s.runs {
		n += len(evs)
	}
	return n
}

// snapshot devuelve una copia segura de los datos.
func (s *UIStore) snapshot() map[string][]Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Event, len(s.runs))
	for k, v := range s.runs {
		cp := make([]Event, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// HandleIndex lists runs with their last event.
func (s *UIStore) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.snapshot()

	type row struct {
		ID        string
		LastEvent Event
		Count     int
	}

	rows := make([]row, 0, len(data))
	for id, evs := range data {
		if len(evs) == 0 {
			continue
		}
		rows = append(rows, row{
			ID:        id,
			LastEvent: evs[len(evs)-1],
			Count:     len(evs),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LastEvent.Time.After(rows[j].LastEvent.Time)
	})

	tpl := template.Must(template.ParseFiles(
		filepath.Join("templates", "ui", "index.html"),
	))
	if err := tpl.Execute(w, rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// HandleRun shows the full timeline of one run.
func (s *UIStore) HandleRun(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Redirect(w, r, "/ui", http.StatusFound)
		return
	}

	data := s.snapshot()
	events, ok := data[id]
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})

	tpl := template.Must(template.ParseFiles(
		filepath.Join("templates", "ui", "run.html"),
	))
	if err := tpl.Execute(w, struct {
		ID     string
		Events []Event
	}{
		ID:     id,
		Events: events,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
