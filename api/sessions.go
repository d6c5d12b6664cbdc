package api

import (
	"net/http"
	"strconv"

	"section-presets/auth"
	"section-presets/editor"
	"section-presets/preset"
	"section-presets/session"
)

type createSessionRequest struct {
	Section        preset.Section  `json:"section" validate:"omitempty,alphanum,max=32"`
	Records        []preset.Record `json:"records" validate:"dive"`
	SelectedPreset string          `json:"selectedPreset"`
}

type setFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

type reloadRequest struct {
	SelectedPreset string `json:"selectedPreset"`
}

type deleteResult struct {
	Deleted bool          `json:"deleted"`
	State   session.State `json:"state"`
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.manager.List(auth.FromContext(r.Context()))
	states := make([]session.State, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.State())
	}
	writeJSON(w, http.StatusOK, states)
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Section == "" {
		req.Section = preset.Education
	}

	s, err := h.manager.Create(r.Context(), auth.FromContext(r.Context()), req.Section, req.Records, req.SelectedPreset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.State())
}

// sessionFor resolves the {id} parameter to a session the caller owns.
// Sessions of other users are reported as missing.
func (h *handler) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.manager.Get(pathParam(r, "id"))
	if !ok || s.Owner != auth.FromContext(r.Context()) {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// edit runs fn against the caller's session and replies with the new state.
func (h *handler) edit(w http.ResponseWriter, r *http.Request, fn func(ed *editor.Session) error) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := s.Do(fn); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.sessionFor(w, r); ok {
		writeJSON(w, http.StatusOK, s.State())
	}
}

func (h *handler) killSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := h.manager.Kill(s.ID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func recordIndex(r *http.Request) int {
	i, err := strconv.Atoi(pathParam(r, "index"))
	if err != nil {
		// Unparseable indexes are out of range, which the working set ignores.
		return -1
	}
	return i
}

func (h *handler) setField(w http.ResponseWriter, r *http.Request) {
	var req setFieldRequest
	if !decode(w, r, &req) {
		return
	}
	field, err := preset.ParseField(req.Field)
	if err != nil {
		writeError(w, err)
		return
	}
	index := recordIndex(r)
	h.edit(w, r, func(ed *editor.Session) error {
		ed.SetField(index, field, req.Value)
		return nil
	})
}

func (h *handler) appendRecord(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *editor.Session) error {
		ed.AppendRecord()
		return nil
	})
}

func (h *handler) removeRecord(w http.ResponseWriter, r *http.Request) {
	index := recordIndex(r)
	h.edit(w, r, func(ed *editor.Session) error {
		ed.RemoveRecord(index)
		return nil
	})
}

func (h *handler) commit(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *editor.Session) error {
		ed.Commit()
		return nil
	})
}

func (h *handler) choosePreset(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	h.edit(w, r, func(ed *editor.Session) error {
		return ed.Choose(req.Name)
	})
}

func (h *handler) saveAsPreset(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	h.edit(w, r, func(ed *editor.Session) error {
		return ed.SaveAs(r.Context(), req.Name)
	})
}

func (h *handler) deleteSelected(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	var deleted bool
	err := s.Do(func(ed *editor.Session) error {
		var err error
		deleted, err = ed.DeleteSelected(r.Context())
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResult{Deleted: deleted, State: s.State()})
}

func (h *handler) reload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if !decode(w, r, &req) {
		return
	}
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := s.Reload(r.Context(), req.SelectedPreset); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}
