package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"memobank/pkg/domain"
	"memobank/pkg/search"
	"memobank/pkg/store"
)

type memoirPage struct {
	Items      any `json:"items"`
	Count      int `json:"count"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

func (s *Server) handleMemoirs(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		s.handleSearchMemoirs(w, r)
	case http.MethodPost:
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.handleUploadMemoir(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSearchMemoirs(w http.ResponseWriter, r *http.Request) {
	filter := memoirFilterFromQuery(r)
	results, err := s.search.Memoirs(filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	page := queryPage(r)
	items, totalPages := search.PageOf(results, page)
	writeData(w, http.StatusOK, memoirPage{
		Items: items, Count: len(items), Page: page, TotalPages: totalPages,
	})
}

func memoirFilterFromQuery(r *http.Request) store.MemoirFilter {
	return store.MemoirFilter{
		Term:      strings.TrimSpace(r.URL.Query().Get("q")),
		EntityID:  queryID(r, "entity_id"),
		ProgramID: queryID(r, "program_id"),
		SessionID: queryID(r, "session_id"),
	}
}

func (s *Server) handleUploadMemoir(w http.ResponseWriter, r *http.Request, user domain.User) {
	memoir, fileName, content, ok := s.memoirForm(w, r, true)
	if !ok {
		return
	}
	detail, err := s.app.CreateMemoir(r.Context(), memoir, fileName, content)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.app.Catalog.AppendLog("memoir added: "+detail.Title, &user.ID)
	writeData(w, http.StatusCreated, detail)
}

// memoirForm parses the multipart upload form shared by create and update.
// The file part is optional unless fileRequired.
func (s *Server) memoirForm(w http.ResponseWriter, r *http.Request, fileRequired bool) (domain.Memoir, string, []byte, bool) {
	var zero domain.Memoir
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return zero, "", nil, false
	}

	programID, _ := strconv.ParseInt(r.FormValue("program_id"), 10, 64)
	sessionID, _ := strconv.ParseInt(r.FormValue("session_id"), 10, 64)
	memoir := domain.Memoir{
		Title:     strings.TrimSpace(r.FormValue("title")),
		Authors:   strings.TrimSpace(r.FormValue("authors")),
		Advisor:   strings.TrimSpace(r.FormValue("advisor")),
		Summary:   r.FormValue("summary"),
		Tags:      strings.TrimSpace(r.FormValue("tags")),
		Version:   strings.TrimSpace(r.FormValue("version")),
		ProgramID: programID,
		SessionID: sessionID,
	}
	if memoir.Title == "" || memoir.Authors == "" || programID <= 0 || sessionID <= 0 {
		writeError(w, http.StatusBadRequest, "title, authors, program_id and session_id are required")
		return zero, "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if fileRequired {
			writeError(w, http.StatusBadRequest, "file is required (field: file)")
			return zero, "", nil, false
		}
		return memoir, "", nil, true
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return zero, "", nil, false
	}
	return memoir, header.Filename, content, true
}

// /memoirs/{id}, /memoirs/{id}/download, /memoirs/{id}/pages,
// /memoirs/{id}/reindex
func (s *Server) handleMemoirByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, action, ok := pathID(r, "/memoirs/")
	if !ok {
		notFound(w, "not found")
		return
	}
	switch action {
	case "":
	case "download":
		s.handleDownloadMemoir(w, r, user, id)
		return
	case "pages":
		s.handleMemoirPages(w, r, id)
		return
	case "reindex":
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.handleReindexMemoir(w, r, id)
		return
	default:
		notFound(w, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, found, err := s.app.Catalog.GetMemoir(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "memoir not found")
			return
		}
		writeData(w, http.StatusOK, detail)
	case http.MethodPut:
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		memoir, fileName, content, ok := s.memoirForm(w, r, false)
		if !ok {
			return
		}
		memoir.ID = id
		detail, err := s.app.UpdateMemoir(r.Context(), memoir, fileName, content)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		s.app.Catalog.AppendLog("memoir updated: "+detail.Title, &user.ID)
		writeData(w, http.StatusOK, detail)
	case http.MethodDelete:
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if err := s.app.DeleteMemoir(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		s.app.Catalog.AppendLog(fmt.Sprintf("memoir deleted: %d", id), &user.ID)
		writeMessage(w, http.StatusOK, "memoir deleted")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDownloadMemoir(w http.ResponseWriter, r *http.Request, user domain.User, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	// ?url=1 returns a short-lived locator URL (presigned on the s3 backend)
	// instead of streaming the document through the API.
	if r.URL.Query().Get("url") == "1" {
		detail, found, err := s.app.Catalog.GetMemoir(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "memoir not found")
			return
		}
		url, err := s.app.Blobs.DownloadURL(r.Context(), detail.FileLocator, 15*time.Minute)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		s.app.Catalog.AppendLog("memoir downloaded: "+detail.Title, &user.ID)
		writeData(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	content, detail, err := s.app.ReadDocument(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.app.Catalog.AppendLog("memoir downloaded: "+detail.Title, &user.ID)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", detail.Title+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write(content)
}

func (s *Server) handleMemoirPages(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pages, err := s.app.Catalog.PagesFor(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, pages)
}

func (s *Server) handleReindexMemoir(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.Reindex(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "memoir reindexed")
}

func (s *Server) handleContentSearch(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	filter := memoirFilterFromQuery(r)
	filter.Term = ""
	hits, err := s.search.Content(term, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	page := queryPage(r)
	items, totalPages := search.PageOf(hits, page)
	writeData(w, http.StatusOK, memoirPage{
		Items: items, Count: len(items), Page: page, TotalPages: totalPages,
	})
}
