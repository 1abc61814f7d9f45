// Package recordgorm makes GORM models usable as conductor sub-models.
// Embed Record into a GORM model (tagged so GORM skips it) and attach a
// database handle before use:
//
//	type Person struct {
//		recordgorm.Record `gorm:"-"`
//		recordgorm.PK
//		Name string
//	}
//
//	func NewPerson(db *gorm.DB) *Person {
//		p := &Person{}
//		p.Attach(db, p)
//		return p
//	}
package recordgorm

import (
	"context"

	conductor "github.com/ayanko/active-conductor"
	"github.com/ayanko/active-conductor/record"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record makes a GORM model usable as a conductor sub-model.
type Record struct {
	record.State
	db  *gorm.DB
	rec any
}

var _ conductor.Model = new(Record)

// Attach binds the database handle and the outer model rec.
// rec must be the pointer GORM operates on, i.e. the outermost struct
// embedding this Record.
func (r *Record) Attach(db *gorm.DB, rec any) {
	r.db = db
	r.rec = rec
}

// IsValid re-runs the model's validations and reports the result.
func (r *Record) IsValid() bool { return r.Check(r.rec) }

// Save inserts the model on first save and updates it afterwards.
// Reports whether persistence succeeded; on failure the database error
// message is recorded under the "base" field.
func (r *Record) Save(ctx context.Context) bool {
	if r.db == nil {
		panic("record is not attached to a database")
	}
	if !r.IsValid() {
		return false
	}
	tx := r.db.WithContext(ctx)
	var err error
	if r.IsNew() {
		err = tx.Create(r.rec).Error
	} else {
		err = tx.Save(r.rec).Error
	}
	if err != nil {
		r.Errors().Add("base", err.Error())
		return false
	}
	r.MarkPersisted()
	return true
}

// PK is a uuid primary key column, generated on first insert unless
// assigned beforehand.
type PK struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// BeforeCreate assigns a random identity if none was set.
func (p *PK) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
