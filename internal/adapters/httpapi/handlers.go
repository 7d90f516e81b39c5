package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"exhibitcore/internal/projection"
	"exhibitcore/internal/receipt"
	"exhibitcore/internal/transfer"
	"exhibitcore/pkg/domain"
)

func (h *Handler) listExhibits(c *gin.Context) {
	q, err := projection.ParseQuery(
		c.Query("q"),
		c.Query("status"),
		c.Query("remarks"),
		c.Query("station"),
		c.Query("sort"),
		c.Query("order"),
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	exhibits, err := h.svc.Query(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exhibits": exhibits, "count": len(exhibits)})
}

func (h *Handler) createExhibit(c *gin.Context) {
	var form domain.ExhibitForm
	if err := c.ShouldBindJSON(&form); err != nil {
		writeError(c, http.StatusBadRequest, "invalid exhibit payload: "+err.Error())
		return
	}
	created, err := h.svc.Create(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/v1/exhibits/"+created.ID)
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getExhibit(c *gin.Context) {
	exhibit, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, exhibit)
}

func (h *Handler) updateExhibit(c *gin.Context) {
	var patch domain.ExhibitPatch
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(c, http.StatusBadRequest, "invalid exhibit patch: "+err.Error())
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteExhibit(c *gin.Context) {
	id := c.Param("id")
	existed, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": existed})
}

func (h *Handler) exploitExhibit(c *gin.Context) {
	updated, err := h.svc.MarkExploited(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) collectExhibit(c *gin.Context) {
	var data domain.CollectionData
	if err := c.ShouldBindJSON(&data); err != nil {
		writeError(c, http.StatusBadRequest, "invalid collection payload: "+err.Error())
		return
	}
	collected, err := h.svc.MarkCollected(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collected)
}

func (h *Handler) submissionReceipt(c *gin.Context) {
	h.renderDocument(c, h.receipts.RenderSubmissionReceipt)
}

func (h *Handler) collectionReport(c *gin.Context) {
	h.renderDocument(c, h.receipts.RenderCollectionReport)
}

func (h *Handler) renderDocument(c *gin.Context, render func(io.Writer, domain.Exhibit) error) {
	exhibit, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, exhibit); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, receipt.ContentType, buf.Bytes())
}

func (h *Handler) exportExhibits(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request.Context(), &buf); err != nil {
		h.fail(c, err)
		return
	}
	filename := transfer.ExportFilename(h.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, transfer.ContentType, buf.Bytes())
}

func (h *Handler) importExhibits(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	payload, closeFn, err := h.importPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeFn()
	imported, err := h.svc.Import(c.Request.Context(), payload)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(imported)})
}

// importPayload returns the uploaded `file` part for multipart requests and
// the raw body otherwise.
func (h *Handler) importPayload(c *gin.Context) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return c.Request.Body, func() {}, nil
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, domain.ValidationError{
			Fields:  []domain.FieldError{{Field: "file", Rule: "required"}},
			Message: "import rejected",
		}
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func (h *Handler) statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
