package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindDuplicate looks for an existing contact with the same mobile or,
// when an email is given, the same email. Conversion uses this for
// duplicate detection before creating a contact.
func (r *ContactRepository) FindDuplicate(ctx context.Context, mobile, email string) (*domain.Contact, error) {
	query := r.db.WithContext(ctx)
	if email != "" {
		query = query.Where("mobile = ? OR LOWER(email) = LOWER(?)", mobile, email)
	} else {
		query = query.Where("mobile = ?", mobile)
	}

	var contact domain.Contact
	err := query.First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByLeadID returns the contact a lead converted into, if any
func (r *ContactRepository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// List returns contacts with pagination, newest conversions first
func (r *ContactRepository) List(ctx context.Context, page, pageSize int) ([]domain.Contact, int64, error) {
	var contacts []domain.Contact
	var total int64

	offset := (page - 1) * pageSize

	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&contacts).Error

	return contacts, total, err
}

// Search searches contacts by name, mobile or email
func (r *ContactRepository) Search(ctx context.Context, query string, limit int) ([]domain.Contact, error) {
	var contacts []domain.Contact
	searchPattern := "%" + query + "%"

	err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR mobile ILIKE ? OR email ILIKE ?",
			searchPattern, searchPattern, searchPattern).
		Order("name").
		Limit(limit).
		Find(&contacts).Error

	return contacts, err
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contact{}, "id = ?", id).Error
}
