package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Paginated is the list envelope used by every paged endpoint
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// respondError maps service errors onto the API error format
func respondError(c *gin.Context, err error) {
	var details map[string]interface{}
	var serviceErr *services.ServiceError
	message := err.Error()
	if errors.As(err, &serviceErr) {
		message = serviceErr.Message
		if serviceErr.Field != "" {
			details = map[string]interface{}{"field": serviceErr.Field}
		}
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, message, details))
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, models.NewAPIError(models.ErrConflict, message, details))
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, message, details))
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, message))
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "internal server error"))
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, message))
}

// parseID reads a positive numeric path parameter, answering 404 otherwise
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "not found"))
		return 0, false
	}
	return uint(id), true
}

// pageFromQuery reads ?page= and ?limit=
func pageFromQuery(c *gin.Context, defaultSize int) services.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("limit"))
	return services.NewPage(number, size, defaultSize)
}

// queryFlag accepts 1/0 and true/false
func queryFlag(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(c.Query(name))
	return err == nil && value
}

func paginate[T any](c *gin.Context, page services.Page, total int64, results []T) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	out := Paginated[T]{Count: total, Results: results}
	if page.HasNext(total) {
		next := pageURL(c, page.Number+1)
		out.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(c *gin.Context, number int) string {
	u := url.URL{Scheme: "http", Host: c.Request.Host, Path: c.Request.URL.Path}
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	query := c.Request.URL.Query()
	query.Set("page", strconv.Itoa(number))
	u.RawQuery = query.Encode()
	return u.String()
}
