package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/logger"
	"github.com/legaltrack-ph/legaltrack/backend/internal/metrics"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/util"
)

const maxUploadBytes = 20 << 20 // 20 MiB

// DocumentService stores case uploads under the media directory and keeps
// one CaseDocument row per (case, doc type). Re-uploading replaces the file.
type DocumentService struct {
	DB       *gorm.DB
	MediaDir string
	cases    *CaseService
}

func NewDocumentService(db *gorm.DB, mediaDir string) *DocumentService {
	return &DocumentService{DB: db, MediaDir: mediaDir, cases: NewCaseService(db)}
}

// Upload saves the file and upserts the document row for its doc type, then
// marks the checklist entry uploaded.
func (s *DocumentService) Upload(c *models.Case, docType string, header *multipart.FileHeader, actor *models.User) (*models.CaseDocument, error) {
	if !CanEditDocuments(actor, c) {
		return nil, ErrNotEditable
	}
	docType = strings.TrimSpace(docType)
	if docType == "" {
		return nil, fmt.Errorf("document type is required")
	}
	if header.Size > maxUploadBytes {
		return nil, fmt.Errorf("file exceeds the %d MB upload limit", maxUploadBytes>>20)
	}

	relPath := filepath.Join("cases", c.Key(), util.Slugify(docType), util.SafeFilename(header.Filename, 100))
	absPath := filepath.Join(s.MediaDir, relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if err := saveUpload(header, absPath); err != nil {
		return nil, err
	}

	var doc models.CaseDocument
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("case_id = ? AND LOWER(doc_type) = LOWER(?)", c.ID, docType).First(&doc).Error
		switch {
		case err == nil:
			oldPath := doc.FilePath
			doc.FilePath = relPath
			doc.FileName = header.Filename
			doc.ContentType = header.Header.Get("Content-Type")
			doc.SizeBytes = header.Size
			doc.UploadedByID = &actor.ID
			if err := tx.Save(&doc).Error; err != nil {
				return fmt.Errorf("replace document: %w", err)
			}
			if oldPath != "" && oldPath != relPath {
				s.removeFile(oldPath)
			}
		case err == gorm.ErrRecordNotFound:
			doc = models.CaseDocument{
				CaseID:       c.ID,
				DocType:      docType,
				FilePath:     relPath,
				FileName:     header.Filename,
				ContentType:  header.Header.Get("Content-Type"),
				SizeBytes:    header.Size,
				UploadedByID: &actor.ID,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return fmt.Errorf("create document: %w", err)
			}
		default:
			return fmt.Errorf("find document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cases.RefreshChecklistUpload(c, docType); err != nil {
		return nil, err
	}
	metrics.IncDocumentUpload()
	return &doc, nil
}

// Delete removes a document and clears its checklist flag.
func (s *DocumentService) Delete(c *models.Case, docID uint, actor *models.User) error {
	if !CanEditDocuments(actor, c) {
		return ErrNotEditable
	}

	var doc models.CaseDocument
	if err := s.DB.Where("id = ? AND case_id = ?", docID, c.ID).First(&doc).Error; err != nil {
		return fmt.Errorf("document not found")
	}

	if err := s.DB.Delete(&doc).Error; err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.removeFile(doc.FilePath)

	for i := range c.Checklist {
		if strings.EqualFold(c.Checklist[i].DocType, doc.DocType) {
			c.Checklist[i].Uploaded = false
		}
	}
	if err := s.DB.Model(c).Select("checklist").Updates(c).Error; err != nil {
		return fmt.Errorf("update checklist: %w", err)
	}
	return nil
}

// Open resolves a stored document to its absolute path for download.
// Access follows the case visibility rules.
func (s *DocumentService) Open(c *models.Case, docID uint, viewer *models.User) (*models.CaseDocument, string, error) {
	if !viewer.CanViewCase(c) {
		return nil, "", ErrNotAuthorized
	}
	var doc models.CaseDocument
	if err := s.DB.Where("id = ? AND case_id = ?", docID, c.ID).First(&doc).Error; err != nil {
		return nil, "", fmt.Errorf("document not found")
	}
	return &doc, filepath.Join(s.MediaDir, doc.FilePath), nil
}

func (s *DocumentService) removeFile(relPath string) {
	if err := os.Remove(filepath.Join(s.MediaDir, relPath)); err != nil && !os.IsNotExist(err) {
		logger.WithFields(map[string]interface{}{"path": util.SanitizeForLog(relPath)}).
			Warn("Failed to remove media file")
	}
}

func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
