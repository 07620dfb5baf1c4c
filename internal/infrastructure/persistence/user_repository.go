package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/identity"
)

var _ identity.UserRepository = (*GormUserRepository)(nil)

// GormUserRepository matches emails on their normalized form, so lookups
// are case-insensitive on both drivers
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) byEmail(ctx context.Context, email string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&identity.User{}).Where("email = ?", identity.NormalizeEmail(email))
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return first[identity.User](r.db.WithContext(ctx), "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return first[identity.User](r.byEmail(ctx, email))
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(r.byEmail(ctx, email))
}

func (r *GormUserRepository) Save(ctx context.Context, u *identity.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
