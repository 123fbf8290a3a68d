package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	extractor      services.TextExtractor
	analyzer       services.ResumeAnalyzer
	maxFileSize    int64
	log            *zap.Logger
}

var contentTypes = map[string]string{
	services.FileTypePDF:  "application/pdf",
	services.FileTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	services.FileTypeTXT:  "text/plain; charset=utf-8",
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	extractor services.TextExtractor,
	analyzer services.ResumeAnalyzer,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		extractor:      extractor,
		analyzer:       analyzer,
		maxFileSize:    maxFileSize,
		log:            logger.OrNop(log),
	}
}

// HandleUpload handles POST /upload-resume with a multipart "file" field.
// When an analyzer is configured the stored document carries its report; a
// failed analysis is logged and left empty so the upload still succeeds.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing multipart file field 'file'",
		})
	}

	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	fileType, err := services.FileTypeFromName(fileHeader.Filename)
	if err != nil {
		return respondError(c, err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	text, err := h.extractor.Extract(data, fileType)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFileType) {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to extract text: %v", err),
		})
	}

	ctx := c.UserContext()
	key, err := h.storageService.Save(ctx, fileHeader.Filename, data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save file: %v", err),
		})
	}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: fileHeader.Filename,
		FileType:         fileType,
		StorageKey:       key,
		SizeBytes:        int64(len(data)),
		ExtractedText:    text,
	}

	if h.analyzer != nil {
		analysis, err := h.analyzer.AnalyzeResume(ctx, text)
		if err != nil {
			h.log.Warn("resume analysis failed", zap.String("file", fileHeader.Filename), zap.Error(err))
		} else {
			doc.ResumeAnalysis = analysis
		}
	}

	if err := h.docRepo.Create(ctx, &doc); err != nil {
		if delErr := h.storageService.Delete(ctx, key); delErr != nil {
			h.log.Warn("failed to clean up stored file", zap.String("key", key), zap.Error(delErr))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save document record",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toUploadResponse(&doc))
}

// HandleGetDocument handles GET /documents/:id.
func (h *UploadHandler) HandleGetDocument(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID format",
		})
	}

	doc, err := h.docRepo.FindByID(c.UserContext(), docID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toUploadResponse(doc))
}

// HandleGetDocumentFile handles GET /documents/:id/file and returns the
// original upload.
func (h *UploadHandler) HandleGetDocumentFile(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID format",
		})
	}

	ctx := c.UserContext()
	doc, err := h.docRepo.FindByID(ctx, docID)
	if err != nil {
		return respondError(c, err)
	}

	data, err := h.storageService.Load(ctx, doc.StorageKey)
	if err != nil {
		h.log.Error("failed to load stored file", zap.String("key", doc.StorageKey), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load stored file",
		})
	}

	contentType, ok := contentTypes[doc.FileType]
	if !ok {
		contentType = fiber.MIMEOctetStream
	}
	c.Attachment(doc.OriginalFileName)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func toUploadResponse(doc *models.Document) models.UploadResponse {
	return models.UploadResponse{
		ID:            doc.ID.String(),
		OriginalName:  doc.OriginalFileName,
		FileType:      doc.FileType,
		SizeBytes:     doc.SizeBytes,
		ExtractedText: doc.ExtractedText,
		Analysis:      doc.ResumeAnalysis,
	}
}
