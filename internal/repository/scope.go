package repository

import (
	"errors"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantScope filters on tenant_id unless the scope is unrestricted. A
// restricted scope with no tenant matches no rows.
func TenantScope(s authz.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.Unrestricted {
			return db
		}
		if s.TenantID == nil {
			return db.Where("1 = 0")
		}
		return db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "tenant_id"}, Value: *s.TenantID})
	}
}

// OwnerScope adds "<column> = owner" when the scope is limited to one user's rows.
func OwnerScope(s authz.Scope, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.Unrestricted || s.OwnerID == nil {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Value: *s.OwnerID})
	}
}

// forUpdate locks the selected rows until the surrounding transaction ends.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translate maps driver errors onto the API taxonomy. entity names the row kind
// for not-found messages.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Conflict("%s already exists", entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperror.Conflict("%s is still referenced by other records", entity)
	}
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperror.Internal(err)
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// bounds clamps the page to the allowed window.
func (p Page) bounds() (limit, offset int) {
	limit = p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = p.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	limit, offset := p.bounds()
	return db.Limit(limit).Offset(offset)
}
