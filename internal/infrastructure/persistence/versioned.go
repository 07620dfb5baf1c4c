package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// saveVersioned inserts model when its row does not exist yet. An existing
// row is only overwritten while its stored version still equals root.Version;
// the version then advances by one. A row changed by someone else since it was
// loaded yields shared.ErrConcurrencyConflict and leaves root untouched.
func saveVersioned(ctx context.Context, db *gorm.DB, model any, root *shared.BaseAggregateRoot) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded := root.Version
		root.Version = loaded + 1

		result := tx.Model(model).
			Where("id = ? AND version = ?", root.ID, loaded).
			Select("*").
			Updates(model)
		if result.Error == nil && result.RowsAffected > 0 {
			return nil
		}
		root.Version = loaded
		if result.Error != nil {
			return result.Error
		}

		found, err := exists(tx.Model(model).Where("id = ?", root.ID))
		if err != nil {
			return err
		}
		if found {
			return shared.ErrConcurrencyConflict
		}
		return tx.Create(model).Error
	})
}
