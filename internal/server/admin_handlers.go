package server

import (
	"net/http"
	"strconv"

	"memobank/pkg/domain"
)

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	logs, err := s.app.Catalog.ListLogs(limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, logs)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.Catalog.ListUsers()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

func (s *Server) handleBackups(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		snaps, err := s.backups.List()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeData(w, http.StatusOK, snaps)
	case http.MethodPost:
		snap, err := s.backups.Create()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		s.app.Catalog.AppendLog("backup created: "+snap.Name, &user.ID)
		writeData(w, http.StatusCreated, snap)
	default:
		methodNotAllowed(w)
	}
}

type restoreRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req restoreRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.backups.Restore(req.Name); err != nil {
		writeStoreError(w, err)
		return
	}
	s.app.Catalog.AppendLog("backup restored: "+req.Name, &user.ID)
	writeMessage(w, http.StatusOK, "catalog restored, restart the service to reopen it")
}

func (s *Server) handleImportStructure(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, _, err := r.FormFile("structure")
	if err != nil {
		writeError(w, http.StatusBadRequest, "structure CSV is required (field: structure)")
		return
	}
	defer file.Close()
	report, err := s.importer.Structure(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.app.Catalog.AppendLog("structure import", &user.ID)
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleImportDocuments(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, _, err := r.FormFile("metadata")
	if err != nil {
		writeError(w, http.StatusBadRequest, "metadata CSV is required (field: metadata)")
		return
	}
	defer file.Close()
	pdfDir := r.FormValue("pdf_dir")
	if pdfDir == "" {
		writeError(w, http.StatusBadRequest, "pdf_dir is required")
		return
	}
	report, err := s.importer.Documents(r.Context(), file, pdfDir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.app.Catalog.AppendLog("document import", &user.ID)
	writeData(w, http.StatusOK, report)
}
