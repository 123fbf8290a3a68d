package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-evaluator/internal/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create implements DocumentRepository.
func (d *documentRepository) Create(ctx context.Context, document *models.Document) error {
	if document.ID == uuid.Nil {
		document.ID = uuid.New()
	}
	if err := d.db.WithContext(ctx).Create(document).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

type memoryDocumentRepository struct {
	docs sync.Map // uuid.UUID -> models.Document
}

func NewMemoryDocumentRepository() DocumentRepository {
	return &memoryDocumentRepository{}
}

func (m *memoryDocumentRepository) Create(_ context.Context, document *models.Document) error {
	if document.ID == uuid.Nil {
		document.ID = uuid.New()
	}
	now := time.Now()
	document.CreatedAt = now
	document.UpdatedAt = now

	if _, loaded := m.docs.LoadOrStore(document.ID, *document); loaded {
		return fmt.Errorf("document %s already exists", document.ID)
	}
	return nil
}

func (m *memoryDocumentRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	v, ok := m.docs.Load(id)
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	doc := v.(models.Document)
	return &doc, nil
}
