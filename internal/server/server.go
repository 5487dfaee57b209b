package server

import (
	"net/http"
	"strconv"
	"strings"

	"memobank/internal/app"
	"memobank/internal/util"
	"memobank/pkg/backup"
	"memobank/pkg/domain"
	"memobank/pkg/importer"
	"memobank/pkg/search"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Search         *search.Service
	Backups        *backup.Manager
	Importer       *importer.Importer
	MaxUploadBytes int64
}

// Server exposes the JSON API over the repository.
type Server struct {
	app            *app.App
	search         *search.Service
	backups        *backup.Manager
	importer       *importer.Importer
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 100 << 20
	}
	s := &Server{
		app:            cfg.App,
		search:         cfg.Search,
		backups:        cfg.Backups,
		importer:       cfg.Importer,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s
}

// Router returns the configured handler with the standard middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.Handle("/auth/logout", s.withUser(s.handleLogout))
	s.mux.Handle("/auth/me", s.withUser(s.handleMe))
	s.mux.HandleFunc("/auth/reset-password", s.handleResetPassword)

	// academic structure
	s.mux.Handle("/entities", s.withUser(s.handleEntities))
	s.mux.Handle("/entities/", s.withAdmin(s.handleEntityByID))
	s.mux.Handle("/programs", s.withUser(s.handlePrograms))
	s.mux.Handle("/programs/", s.withAdmin(s.handleProgramByID))
	s.mux.Handle("/sessions", s.withUser(s.handleSessions))
	s.mux.Handle("/sessions/", s.withAdmin(s.handleSessionByID))

	// memoirs
	s.mux.Handle("/memoirs", s.withUser(s.handleMemoirs))
	s.mux.Handle("/memoirs/", s.withUser(s.handleMemoirByID))
	s.mux.Handle("/search/content", s.withUser(s.handleContentSearch))

	// favorites
	s.mux.Handle("/favorites", s.withUser(s.handleFavorites))
	s.mux.Handle("/favorites/", s.withUser(s.handleFavoriteByID))

	s.mux.Handle("/stats", s.withUser(s.handleStats))

	// admin
	s.mux.Handle("/logs", s.withAdmin(s.handleLogs))
	s.mux.Handle("/users", s.withAdmin(s.handleUsers))
	s.mux.Handle("/admin/backups", s.withAdmin(s.handleBackups))
	s.mux.Handle("/admin/backups/restore", s.withAdmin(s.handleRestore))
	s.mux.Handle("/admin/import/structure", s.withAdmin(s.handleImportStructure))
	s.mux.Handle("/admin/import/documents", s.withAdmin(s.handleImportDocuments))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		next(w, r, user)
	})
}

func (s *Server) withAdmin(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	userID, valid, err := s.app.Sessions.GetUserIDByToken(token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return domain.User{}, false
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	user, found, err := s.app.Catalog.GetUserByID(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return domain.User{}, false
	}
	if !found {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	return user, true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// pathID extracts the numeric id segment after prefix, e.g. /memoirs/42 with
// prefix /memoirs/ yields (42, "", true) and /memoirs/42/download yields
// (42, "download", true).
func pathID(r *http.Request, prefix string) (int64, string, bool) {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	if len(parts) == 2 {
		return id, parts[1], true
	}
	return id, "", true
}

func queryID(r *http.Request, name string) int64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func queryPage(r *http.Request) int {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 1
	}
	page, err := strconv.Atoi(v)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}
