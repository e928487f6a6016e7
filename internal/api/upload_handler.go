package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/auth"
	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/services"
)

// uploadField is the multipart field carrying the spreadsheet
const uploadField = "file"

// UploadHandler handles load spreadsheet imports
type UploadHandler struct {
	importService services.ImportService
	logger        logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(importService services.ImportService, log logger.Logger) *UploadHandler {
	return &UploadHandler{importService: importService, logger: log}
}

// ImportLoads accepts an .xlsx or .csv upload and imports its loads
func (h *UploadHandler) ImportLoads(c *gin.Context) {
	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		respondError(c, h.logger, apperrors.InvalidInput("no file provided", err).WithDetails("send the spreadsheet in the \"file\" field"))
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx", ".csv":
	default:
		respondError(c, h.logger, apperrors.InvalidInput("unsupported file type", nil).WithDetails("upload a .xlsx or .csv file"))
		return
	}

	var startedBy *uuid.UUID
	if id, ok := auth.UserID(c); ok {
		startedBy = &id
	}

	result, err := h.importService.ImportLoads(c.Request.Context(), header.Filename, file, startedBy)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}
