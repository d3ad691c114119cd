package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tagtrack/internal/locations"
	"tagtrack/internal/store"
)

const (
	defaultListLimit   = 50
	defaultWindowLimit = 100
	maxListLimit       = 1000
)

func parseLimit(c *gin.Context) (int, error) {
	return parseLimitDefault(c, defaultListLimit)
}

func parseLimitDefault(c *gin.Context, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(limit, maxListLimit), nil
}

// parsePage reads page (1-based) and limit query parameters.
func parsePage(c *gin.Context, fallbackLimit int) (page, limit int, err error) {
	limit, err = parseLimitDefault(c, fallbackLimit)
	if err != nil {
		return 0, 0, err
	}
	page = 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page <= 0 {
			return 0, 0, errors.New("page must be a positive integer")
		}
	}
	return page, limit, nil
}

// paginate trims a limit+1 fetch down to one page.
func paginate(records []*store.LocationRecord, page, limit int) ([]Location, Pagination) {
	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	return FromLocations(records), Pagination{
		Page:     page,
		Limit:    limit,
		Returned: len(records),
		HasMore:  hasMore,
	}
}

// parseInstant accepts RFC3339 timestamps or epoch milliseconds.
func parseInstant(name, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339 or epoch milliseconds", name)
	}
	return ts.UTC(), nil
}

func parseStatuses(raw string) ([]store.Status, error) {
	var statuses []store.Status
	for part := range strings.SplitSeq(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, ok := store.ParseStatus(part)
		if !ok {
			return nil, errors.New("unknown status " + strconv.Quote(strings.TrimSpace(part)))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (h *handlers) storeFailure(c *gin.Context, err error) {
	_ = c.Error(err)
	h.writeError(c, http.StatusInternalServerError, err.Error())
}

func (h *handlers) listImports(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		h.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		h.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	batches, err := h.store.ListImports(c.Request.Context(), store.ListOptions{Statuses: statuses, Limit: limit})
	if err != nil {
		h.storeFailure(c, err)
		return
	}
	out := make([]ImportBatch, 0, len(batches))
	for _, batch := range batches {
		out = append(out, FromImportBatch(batch))
	}
	c.JSON(http.StatusOK, gin.H{"imports": out})
}

func (h *handlers) latestImport(c *gin.Context) {
	batch, err := h.store.LatestImport(c.Request.Context())
	if err != nil {
		h.storeFailure(c, err)
		return
	}
	if batch == nil {
		h.writeError(c, http.StatusNotFound, "no imports found")
		return
	}
	c.JSON(http.StatusOK, LatestImport{
		Import:  FromImportBatch(batch),
		Summary: SummarizeBatch(batch),
		Data:    batch.RawContent,
	})
}

func (h *handlers) getImport(c *gin.Context) {
	ctx := c.Request.Context()
	batch, err := h.store.GetImport(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(c, http.StatusNotFound, "import not found")
			return
		}
		h.storeFailure(c, err)
		return
	}
	records, err := h.store.LocationsByImport(ctx, batch.ID)
	if err != nil {
		h.storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, ImportDetail{
		Import:    FromImportBatch(batch),
		Locations: FromLocations(records),
	})
}

func (h *handlers) latestTags(c *gin.Context) {
	records, err := h.store.LatestPerTag(c.Request.Context())
	if err != nil {
		h.storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": FromLocations(records)})
}

func (h *handlers) tagLocations(c *gin.Context) {
	tag := c.Param("tag")
	if !locations.IsValidTag(tag) {
		h.writeError(c, http.StatusBadRequest, "invalid tag "+strconv.Quote(tag))
		return
	}
	page, limit, err := parsePage(c, defaultListLimit)
	if err != nil {
		h.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.store.LocationsByTag(c.Request.Context(), tag, limit+1, (page-1)*limit)
	if err != nil {
		h.storeFailure(c, err)
		return
	}
	out, pagination := paginate(records, page, limit)
	c.JSON(http.StatusOK, TagHistory{Tag: tag, Locations: out, Pagination: pagination})
}

func (h *handlers) locationsBetween(c *gin.Context) {
	from, err := parseInstant("from", c.Query("from"))
	if err != nil {
		h.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseInstant("to", c.Query("to"))
	if err != nil {
		h.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		h.writeError(c, http.StatusBadRequest, "from must not be after to")
		return
	}
	page, limit, err := parsePage(c, defaultWindowLimit)
	if err != nil {
		h.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.store.LocationsBetween(c.Request.Context(), from, to, limit+1, (page-1)*limit)
	if err != nil {
		h.storeFailure(c, err)
		return
	}
	out, pagination := paginate(records, page, limit)
	c.JSON(http.StatusOK, LocationWindow{
		From:       formatTime(from),
		To:         formatTime(to),
		Locations:  out,
		Pagination: pagination,
	})
}

func (h *handlers) workflowStatus(c *gin.Context) {
	if h.status == nil {
		h.writeError(c, http.StatusServiceUnavailable, "workflow not running")
		return
	}
	c.JSON(http.StatusOK, FromStatusSummary(h.status.Status(c.Request.Context())))
}
