package server

import (
	"net/http"

	"memobank/pkg/domain"
)

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	favorites, err := s.app.Catalog.ListFavorites(user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, favorites)
}

// /favorites/{memoirID}
func (s *Server) handleFavoriteByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	memoirID, rest, ok := pathID(r, "/favorites/")
	if !ok || rest != "" {
		notFound(w, "not found")
		return
	}
	switch r.Method {
	case http.MethodPost:
		if err := s.app.Catalog.AddFavorite(user.ID, memoirID); err != nil {
			writeStoreError(w, err)
			return
		}
		writeMessage(w, http.StatusCreated, "favorite added")
	case http.MethodDelete:
		if err := s.app.Catalog.RemoveFavorite(user.ID, memoirID); err != nil {
			writeStoreError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, "favorite removed")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.Catalog.Statistics()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
