package store

import (
	"fmt"

	"gorm.io/gorm"

	"memobank/pkg/domain"
)

// AddEntity inserts an institutional entity. A duplicate name fails with
// ErrDuplicateKey.
func (c *Catalog) AddEntity(name string) (int64, error) {
	model := EntityModel{Name: name}
	err := c.write(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// ListEntities returns all entities ordered by name.
func (c *Catalog) ListEntities() ([]domain.Entity, error) {
	var models []EntityModel
	if err := c.read(func(db *gorm.DB) error {
		return db.Order("name ASC").Find(&models).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.Entity, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Entity{ID: m.ID, Name: m.Name})
	}
	return res, nil
}

// DeleteEntity removes an entity, refusing with ErrReferentialConflict while
// any program still references it. The check and delete run in one
// transaction under the storage lock, so a concurrent program insert cannot
// slip between them.
func (c *Catalog) DeleteEntity(id int64) error {
	return c.write(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ProgramModel{}).Where("entity_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: entity %d has %d program(s)", ErrReferentialConflict, id, count)
		}
		res := tx.Delete(&EntityModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: entity %d", ErrNotFound, id)
		}
		return nil
	})
}

// AddProgram inserts a program under an entity. The (name, entity) pair is
// unique; the entity must exist.
func (c *Catalog) AddProgram(name string, entityID int64) (int64, error) {
	model := ProgramModel{Name: name, EntityID: entityID}
	err := c.write(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&EntityModel{}).Where("id = ?", entityID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: entity %d", ErrNotFound, entityID)
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// ListPrograms returns all programs with their entity name, ordered by
// entity then program name.
func (c *Catalog) ListPrograms() ([]domain.Program, error) {
	type row struct {
		ID         int64
		Name       string
		EntityID   int64
		EntityName string
	}
	var rows []row
	if err := c.read(func(db *gorm.DB) error {
		return db.Table("programs p").
			Select("p.id, p.name, p.entity_id, e.name AS entity_name").
			Joins("JOIN entities e ON p.entity_id = e.id").
			Order("e.name ASC, p.name ASC").
			Scan(&rows).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.Program, 0, len(rows))
	for _, r := range rows {
		res = append(res, domain.Program{ID: r.ID, Name: r.Name, EntityID: r.EntityID, EntityName: r.EntityName})
	}
	return res, nil
}

// ListProgramsByEntity returns the programs of one entity ordered by name.
func (c *Catalog) ListProgramsByEntity(entityID int64) ([]domain.Program, error) {
	var models []ProgramModel
	if err := c.read(func(db *gorm.DB) error {
		return db.Where("entity_id = ?", entityID).Order("name ASC").Find(&models).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.Program, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Program{ID: m.ID, Name: m.Name, EntityID: m.EntityID})
	}
	return res, nil
}

// DeleteProgram removes a program, refusing while any memoir references it.
func (c *Catalog) DeleteProgram(id int64) error {
	return c.write(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&MemoirModel{}).Where("program_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: program %d has %d memoir(s)", ErrReferentialConflict, id, count)
		}
		res := tx.Delete(&ProgramModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: program %d", ErrNotFound, id)
		}
		return nil
	})
}

// AddSession inserts an academic session. Labels are unique.
func (c *Catalog) AddSession(label string) (int64, error) {
	model := SessionModel{Label: label}
	err := c.write(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// ListSessions returns all sessions, most recent label first.
func (c *Catalog) ListSessions() ([]domain.Session, error) {
	var models []SessionModel
	if err := c.read(func(db *gorm.DB) error {
		return db.Order("label DESC").Find(&models).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.Session, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Session{ID: m.ID, Label: m.Label})
	}
	return res, nil
}

// DeleteSession removes a session, refusing while any memoir references it.
func (c *Catalog) DeleteSession(id int64) error {
	return c.write(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&MemoirModel{}).Where("session_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: session %d has %d memoir(s)", ErrReferentialConflict, id, count)
		}
		res := tx.Delete(&SessionModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: session %d", ErrNotFound, id)
		}
		return nil
	})
}

// EnsureEntity returns the id of the entity with this name, creating it if
// absent. Used by structure imports, which dedupe by natural key.
func (c *Catalog) EnsureEntity(name string) (int64, error) {
	if id, ok, err := c.FindEntityByName(name); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	return c.AddEntity(name)
}

// EnsureProgram returns the id of the (name, entity) program, creating it if
// absent.
func (c *Catalog) EnsureProgram(name string, entityID int64) (int64, error) {
	if id, ok, err := c.FindProgramByName(name, entityID); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	return c.AddProgram(name, entityID)
}

// EnsureSession returns the id of the session with this label, creating it
// if absent.
func (c *Catalog) EnsureSession(label string) (int64, error) {
	if id, ok, err := c.FindSessionByLabel(label); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	return c.AddSession(label)
}

// FindEntityByName returns an entity id by exact name.
func (c *Catalog) FindEntityByName(name string) (int64, bool, error) {
	var model EntityModel
	err := c.read(func(db *gorm.DB) error {
		return db.Where("name = ?", name).First(&model).Error
	})
	if err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return model.ID, true, nil
}

// FindProgramByName returns a program id by exact name, optionally scoped to
// an entity (entityID <= 0 means any entity).
func (c *Catalog) FindProgramByName(name string, entityID int64) (int64, bool, error) {
	var model ProgramModel
	err := c.read(func(db *gorm.DB) error {
		q := db.Where("name = ?", name)
		if entityID > 0 {
			q = q.Where("entity_id = ?", entityID)
		}
		return q.First(&model).Error
	})
	if err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return model.ID, true, nil
}

// FindSessionByLabel returns a session id by exact label.
func (c *Catalog) FindSessionByLabel(label string) (int64, bool, error) {
	var model SessionModel
	err := c.read(func(db *gorm.DB) error {
		return db.Where("label = ?", label).First(&model).Error
	})
	if err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return model.ID, true, nil
}
