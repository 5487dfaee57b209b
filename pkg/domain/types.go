package domain

import "time"

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleVisitor UserRole = "visitor"
)

// Entity is a top-level institutional unit owning programs.
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Program is a course of study (filière) belonging to one entity.
type Program struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	EntityID   int64  `json:"entityId"`
	EntityName string `json:"entityName,omitempty"`
}

// Session is an academic year label, e.g. "2024-2025".
type Session struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Memoir is a cataloged thesis record with an associated PDF.
type Memoir struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Authors     string    `json:"authors"`
	Advisor     string    `json:"advisor"`
	Summary     string    `json:"summary"`
	FileLocator string    `json:"-"`
	Tags        string    `json:"tags"`
	ProgramID   int64     `json:"programId"`
	SessionID   int64     `json:"sessionId"`
	Version     string    `json:"version,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MemoirDetail is a memoir joined with its program, session and entity names.
type MemoirDetail struct {
	Memoir
	ProgramName  string `json:"programName"`
	SessionLabel string `json:"sessionLabel"`
	EntityID     int64  `json:"entityId"`
	EntityName   string `json:"entityName"`
}

// Page is one page of extracted PDF text, numbered from 1.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	BirthDate    time.Time `json:"birthDate,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DisplayName is the name shown after login.
func (u User) DisplayName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}

type Favorite struct {
	UserID    int64     `json:"userId"`
	MemoirID  int64     `json:"memoirId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LogEntry is an append-only activity record. UserID is nil for anonymous
// or failed actions.
type LogEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	UserID    *int64    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Statistics aggregates memoir counts for the dashboard.
type Statistics struct {
	TotalMemoirs     int64            `json:"totalMemoirs"`
	MemoirsByEntity  map[string]int64 `json:"memoirsByEntity"`
	MemoirsBySession map[string]int64 `json:"memoirsBySession"`
	MemoirsByProgram map[string]int64 `json:"memoirsByProgram"`
}
