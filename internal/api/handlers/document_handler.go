package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type DocumentHandler struct {
	documents *services.DocumentService
	cases     *CaseHandler
}

func NewDocumentHandler(documents *services.DocumentService, cases *CaseHandler) *DocumentHandler {
	return &DocumentHandler{documents: documents, cases: cases}
}

// Upload accepts a multipart form with "file" and "doc_type" fields.
// Uploading the same doc type again replaces the stored file.
func (h *DocumentHandler) Upload(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	docType := c.PostForm("doc_type")

	doc, err := h.documents.Upload(kase, docType, header, user)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotEditable) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	docID, err := strconv.ParseUint(c.Param("docID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	if err := h.documents.Delete(kase, uint(docID), user); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotEditable) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// Download streams a stored document to an authorized viewer.
func (h *DocumentHandler) Download(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	docID, err := strconv.ParseUint(c.Param("docID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	doc, path, err := h.documents.Open(kase, uint(docID), user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	c.FileAttachment(path, doc.FileName)
}
