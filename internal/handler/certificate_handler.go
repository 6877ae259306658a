package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
	"github.com/noah-isme/kkn-placement-api/pkg/response"
)

type downloadTokenParser interface {
	Parse(token string, allowExpired bool) (fileID, relPath string, expiresAt time.Time, err error)
}

type certificateFiles interface {
	Open(filename string) (*os.File, error)
}

// CertificateHandler serves certificate downloads authorized by signed
// tokens instead of actor context.
type CertificateHandler struct {
	signer downloadTokenParser
	files  certificateFiles
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(signer downloadTokenParser, files certificateFiles) *CertificateHandler {
	return &CertificateHandler{signer: signer, files: files}
}

// Download godoc
// @Summary Download a certificate using a signed token
// @Tags Grades
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary "PDF content"
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.files.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "certificate not found"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "INTERNAL_ERROR", http.StatusInternalServerError, "certificate unavailable"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(relPath)))
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
