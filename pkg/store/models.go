package store

import (
	"time"

	"gorm.io/datatypes"

	"memobank/pkg/domain"
)

// GORM models used for persistence. Table names follow the catalog layout
// documented for operator tooling, so TableName is pinned on every model.

type EntityModel struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (EntityModel) TableName() string { return "entities" }

type ProgramModel struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"not null;uniqueIndex:idx_programs_name_entity"`
	EntityID int64  `gorm:"not null;index;uniqueIndex:idx_programs_name_entity"`
}

func (ProgramModel) TableName() string { return "programs" }

type SessionModel struct {
	ID    int64  `gorm:"primaryKey"`
	Label string `gorm:"uniqueIndex;not null"`
}

func (SessionModel) TableName() string { return "sessions" }

type MemoirModel struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Authors     string `gorm:"not null"`
	Advisor     string `gorm:"not null"`
	Summary     string `gorm:"type:text"`
	FileLocator string `gorm:"not null"`
	Tags        string
	ProgramID   int64 `gorm:"not null;index"`
	SessionID   int64 `gorm:"not null;index"`
	Version     string
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (MemoirModel) TableName() string { return "memoirs" }

type PageContentModel struct {
	MemoirID   int64  `gorm:"primaryKey;autoIncrement:false"`
	PageNumber int    `gorm:"primaryKey;autoIncrement:false"`
	Text       string `gorm:"type:text;not null"`
}

func (PageContentModel) TableName() string { return "page_content" }

type UserModel struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Surname      string
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	BirthDate    datatypes.Date
	Gender       string
	Phone        string
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type FavoriteModel struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false"`
	MemoirID  int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"not null"`
}

func (FavoriteModel) TableName() string { return "favorites" }

type LogModel struct {
	ID        int64  `gorm:"primaryKey"`
	Action    string `gorm:"not null"`
	UserID    *int64 `gorm:"index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (LogModel) TableName() string { return "logs" }

func memoirToModel(m domain.Memoir) MemoirModel {
	return MemoirModel{
		ID:          m.ID,
		Title:       m.Title,
		Authors:     m.Authors,
		Advisor:     m.Advisor,
		Summary:     m.Summary,
		FileLocator: m.FileLocator,
		Tags:        m.Tags,
		ProgramID:   m.ProgramID,
		SessionID:   m.SessionID,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
	}
}

func memoirFromModel(m MemoirModel) domain.Memoir {
	return domain.Memoir{
		ID:          m.ID,
		Title:       m.Title,
		Authors:     m.Authors,
		Advisor:     m.Advisor,
		Summary:     m.Summary,
		FileLocator: m.FileLocator,
		Tags:        m.Tags,
		ProgramID:   m.ProgramID,
		SessionID:   m.SessionID,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Surname:      u.Surname,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		BirthDate:    datatypes.Date(u.BirthDate),
		Gender:       u.Gender,
		Phone:        u.Phone,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Surname:      m.Surname,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		BirthDate:    time.Time(m.BirthDate),
		Gender:       m.Gender,
		Phone:        m.Phone,
		CreatedAt:    m.CreatedAt,
	}
}

// memoirDetailRow receives the joined memoir select as a flat scan target.
type memoirDetailRow struct {
	ID           int64
	Title        string
	Authors      string
	Advisor      string
	Summary      string
	FileLocator  string
	Tags         string
	ProgramID    int64
	SessionID    int64
	Version      string
	CreatedAt    time.Time
	ProgramName  string
	SessionLabel string
	EntityID     int64
	EntityName   string
}

func detailFromRow(r memoirDetailRow) domain.MemoirDetail {
	return domain.MemoirDetail{
		Memoir: domain.Memoir{
			ID:          r.ID,
			Title:       r.Title,
			Authors:     r.Authors,
			Advisor:     r.Advisor,
			Summary:     r.Summary,
			FileLocator: r.FileLocator,
			Tags:        r.Tags,
			ProgramID:   r.ProgramID,
			SessionID:   r.SessionID,
			Version:     r.Version,
			CreatedAt:   r.CreatedAt,
		},
		ProgramName:  r.ProgramName,
		SessionLabel: r.SessionLabel,
		EntityID:     r.EntityID,
		EntityName:   r.EntityName,
	}
}
