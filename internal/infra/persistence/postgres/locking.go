package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// forUpdate pins the statement to the primary and takes row locks (SELECT ... FOR UPDATE)
// that are held until the surrounding transaction commits or rolls back.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(dbresolver.Write, clause.Locking{Strength: clause.LockingStrengthUpdate})
}
