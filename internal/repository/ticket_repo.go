package repository

import (
	"context"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketFilter struct {
	Status       model.TicketStatus
	Category     model.TicketCategory
	Priority     model.TicketPriority
	AssignedToID *uuid.UUID
	Page         Page
}

type TicketMutation func(t *model.Ticket) error

type TicketRepository interface {
	FindAll(ctx context.Context, scope authz.Scope, filter TicketFilter) ([]model.Ticket, error)
	FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID, includeInternal bool) (*model.Ticket, error)
	Create(ctx context.Context, t *model.Ticket) error
	Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn TicketMutation) (*model.Ticket, error)
	Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error
	// AddComment locks the ticket, lets check veto the comment, then inserts it.
	AddComment(ctx context.Context, scope authz.Scope, ticketID uuid.UUID, comment *model.TicketComment, check TicketMutation) error
	ListComments(ctx context.Context, scope authz.Scope, ticketID uuid.UUID, includeInternal bool) ([]model.TicketComment, error)
	// MaxSequence is the highest ticket sequence ever stored, 0 when empty.
	MaxSequence(ctx context.Context) (int64, error)
}

type ticketRepo struct {
	db *gorm.DB
}

func NewTicketRepo(db *gorm.DB) TicketRepository {
	return &ticketRepo{db: db}
}

func (r *ticketRepo) scoped(db *gorm.DB, scope authz.Scope) *gorm.DB {
	return db.Model(&model.Ticket{}).Scopes(TenantScope(scope), OwnerScope(scope, "user_id"))
}

func (r *ticketRepo) FindAll(ctx context.Context, scope authz.Scope, f TicketFilter) ([]model.Ticket, error) {
	q := r.scoped(r.db.WithContext(ctx), scope)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *f.AssignedToID)
	}
	var out []model.Ticket
	err := f.Page.apply(q).Order("sequence DESC").Find(&out).Error
	return out, translate(err, "ticket")
}

func (r *ticketRepo) FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID, includeInternal bool) (*model.Ticket, error) {
	var t model.Ticket
	err := r.scoped(r.db.WithContext(ctx), scope).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			if !includeInternal {
				db = db.Where("is_internal = ?", false)
			}
			return db.Order("created_at ASC")
		}).
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "ticket")
	}
	return &t, nil
}

func (r *ticketRepo) Create(ctx context.Context, t *model.Ticket) error {
	return translate(r.db.WithContext(ctx).Omit("Comments").Create(t).Error, "ticket")
}

func (r *ticketRepo) Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn TicketMutation) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(r.scoped(tx, scope)).First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&t); err != nil {
			return err
		}
		return tx.Omit("Comments").Save(&t).Error
	})
	if err != nil {
		return nil, translate(err, "ticket")
	}
	return &t, nil
}

func (r *ticketRepo) Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Ticket
		if err := forUpdate(r.scoped(tx, scope)).First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", t.ID).Delete(&model.TicketComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&t).Error
	})
	return translate(err, "ticket")
}

func (r *ticketRepo) AddComment(ctx context.Context, scope authz.Scope, ticketID uuid.UUID, comment *model.TicketComment, check TicketMutation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Ticket
		if err := forUpdate(r.scoped(tx, scope)).First(&t, "id = ?", ticketID).Error; err != nil {
			return err
		}
		if err := check(&t); err != nil {
			return err
		}
		comment.TicketID = t.ID
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&t).Update("updated_at", comment.CreatedAt).Error
	})
	return translate(err, "ticket")
}

func (r *ticketRepo) ListComments(ctx context.Context, scope authz.Scope, ticketID uuid.UUID, includeInternal bool) ([]model.TicketComment, error) {
	var t model.Ticket
	if err := r.scoped(r.db.WithContext(ctx), scope).Select("id").First(&t, "id = ?", ticketID).Error; err != nil {
		return nil, translate(err, "ticket")
	}
	q := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID)
	if !includeInternal {
		q = q.Where("is_internal = ?", false)
	}
	var out []model.TicketComment
	err := q.Order("created_at ASC").Find(&out).Error
	return out, translate(err, "ticket comment")
}

func (r *ticketRepo) MaxSequence(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Ticket{}).Select("COALESCE(MAX(sequence), 0)").Scan(&n).Error
	return n, translate(err, "ticket")
}
