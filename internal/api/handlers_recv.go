package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"tagtrack/internal/ingest"
)

func (h *handlers) recv(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var req RecvRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &tooLarge):
			h.writeError(c, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.As(err, &verrs):
			h.writeError(c, http.StatusBadRequest, "source must be at most 100 characters")
		default:
			h.writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		}
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), ingest.Submission{
		Content: req.Content,
		MD5:     req.MD5,
		Source:  req.Source,
	})
	if err != nil {
		_ = c.Error(err)
		h.writeError(c, statusForError(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, FromRecvResult(result, h.now()))
}

func statusForError(err error) int {
	if ingest.IsCallerFault(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
