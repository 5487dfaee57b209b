package server

import (
	"net/http"

	"memobank/pkg/domain"
)

type nameRequest struct {
	Name     string `json:"name"`
	EntityID int64  `json:"entityId,omitempty"`
	Label    string `json:"label,omitempty"`
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		entities, err := s.app.Catalog.ListEntities()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeData(w, http.StatusOK, entities)
	case http.MethodPost:
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		var req nameRequest
		if err := decodeBody(r, &req); err != nil || req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		id, err := s.app.Catalog.AddEntity(req.Name)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeData(w, http.StatusCreated, domain.Entity{ID: id, Name: req.Name})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleEntityByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, rest, ok := pathID(r, "/entities/")
	if !ok || rest != "" {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.Catalog.DeleteEntity(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "entity deleted")
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		var (
			programs []domain.Program
			err      error
		)
		if entityID := queryID(r, "entity_id"); entityID > 0 {
			programs, err = s.app.Catalog.ListProgramsByEntity(entityID)
		} else {
			programs, err = s.app.Catalog.ListPrograms()
		}
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeData(w, http.StatusOK, programs)
	case http.MethodPost:
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		var req nameRequest
		if err := decodeBody(r, &req); err != nil || req.Name == "" || req.EntityID <= 0 {
			writeError(w, http.StatusBadRequest, "name and entityId are required")
			return
		}
		id, err := s.app.Catalog.AddProgram(req.Name, req.EntityID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeData(w, http.StatusCreated, domain.Program{ID: id, Name: req.Name, EntityID: req.EntityID})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleProgramByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, rest, ok := pathID(r, "/programs/")
	if !ok || rest != "" {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.Catalog.DeleteProgram(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "program deleted")
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.app.Catalog.ListSessions()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeData(w, http.StatusOK, sessions)
	case http.MethodPost:
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		var req nameRequest
		if err := decodeBody(r, &req); err != nil || req.Label == "" {
			writeError(w, http.StatusBadRequest, "label is required")
			return
		}
		id, err := s.app.Catalog.AddSession(req.Label)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeData(w, http.StatusCreated, domain.Session{ID: id, Label: req.Label})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, rest, ok := pathID(r, "/sessions/")
	if !ok || rest != "" {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.Catalog.DeleteSession(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "session deleted")
}
