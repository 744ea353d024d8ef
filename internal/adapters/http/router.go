package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chronomed/chronology-service/internal/core/ports"
)

type Router struct {
	cases    ports.CaseManager
	ingest   ports.DocumentIngestor
	timeline ports.TimelineService
	viewer   ports.SourceViewer
	docs     ports.DocumentRepository
}

func NewRouter(
	cases ports.CaseManager,
	ingest ports.DocumentIngestor,
	timeline ports.TimelineService,
	viewer ports.SourceViewer,
	docs ports.DocumentRepository,
) *Router {
	return &Router{
		cases:    cases,
		ingest:   ingest,
		timeline: timeline,
		viewer:   viewer,
		docs:     docs,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/cases", rt.createCase)
	mux.HandleFunc("GET /v1/cases", rt.listCases)
	mux.HandleFunc("GET /v1/cases/{id}", rt.getCase)
	mux.HandleFunc("DELETE /v1/cases/{id}", rt.deleteCase)
	mux.HandleFunc("POST /v1/cases/{id}/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/cases/{id}/timeline", rt.caseTimeline)
	mux.HandleFunc("GET /v1/cases/{id}/export", rt.exportCase)

	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)
	mux.HandleFunc("GET /v1/documents/{id}/timeline", rt.documentTimeline)
	mux.HandleFunc("GET /v1/documents/{id}/source", rt.documentSource)

	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	c, err := rt.cases.CreateCase(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (rt *Router) listCases(w http.ResponseWriter, r *http.Request) {
	cases, err := rt.cases.ListCases(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (rt *Router) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := rt.cases.GetCase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (rt *Router) deleteCase(w http.ResponseWriter, r *http.Request) {
	if err := rt.cases.DeleteCase(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		r.PathValue("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) caseTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := rt.timeline.CaseTimeline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

func (rt *Router) exportCase(w http.ResponseWriter, r *http.Request) {
	name, artifact, err := rt.timeline.ExportCase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	filename := strings.ReplaceAll(strings.TrimSpace(name), "\"", "") + "_chronology.xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(artifact)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.docs.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.ingest.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) documentTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := rt.timeline.DocumentTimeline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

func (rt *Router) documentSource(w http.ResponseWriter, r *http.Request) {
	doc, reader, err := rt.viewer.OpenSource(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", doc.MimeType)
	if doc.PageCount > 0 {
		w.Header().Set("X-Page-Count", fmt.Sprintf("%d", doc.PageCount))
	}
	_, _ = io.Copy(w, reader)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
