package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/middleware"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

// sessionFromContext writes 401 and returns false when the request carries no session.
func sessionFromContext(c *gin.Context) (models.SessionUser, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.SessionUser{}, false
	}
	return user, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

type listQuery struct {
	Page      int
	PageSize  int
	Search    string
	SortBy    string
	SortOrder string
}

func parseListQuery(c *gin.Context) listQuery {
	q := listQuery{
		Page:      1,
		PageSize:  20,
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		q.PageSize = size
	}
	return q
}

func markCreated(c *gin.Context, id string) {
	c.Set(middleware.ContextResourceIDKey, id)
}

func respond(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	response.JSON(c, status, data, pagination, middleware.ExtractMeta(c))
}

// dateOrToday reads a YYYY-MM-DD query parameter, defaulting to the current local date.
func dateOrToday(c *gin.Context, key string, now func() time.Time) string {
	if value := c.Query(key); value != "" {
		return value
	}
	return now().Format(models.DateLayout)
}
