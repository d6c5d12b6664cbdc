package api

import (
	"net/http"

	"section-presets/auth"
	"section-presets/preset"
)

type putPresetRequest struct {
	Value []preset.Record `json:"value" validate:"dive"`
}

func (h *handler) listPresets(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	section := preset.Section(pathParam(r, "section"))

	presets, err := h.store.List(r.Context(), id.UserID, section)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

func (h *handler) putPreset(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id.Anonymous() {
		writeError(w, preset.ErrPermissionDenied)
		return
	}
	var req putPresetRequest
	if !decode(w, r, &req) {
		return
	}

	p := preset.Preset{Name: pathParam(r, "name"), Value: preset.CloneRecords(req.Value)}
	section := preset.Section(pathParam(r, "section"))
	if err := h.store.Save(r.Context(), id.UserID, section, p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id.Anonymous() {
		writeError(w, preset.ErrPermissionDenied)
		return
	}
	section := preset.Section(pathParam(r, "section"))
	if err := h.store.Delete(r.Context(), id.UserID, section, pathParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
