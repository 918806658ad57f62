package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/club-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestJSONWithMeta(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, []string{"a"}, map[string]interface{}{"occurrences": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"data":["a"],"meta":{"occurrences":1}}`, w.Body.String())
}

func TestErrorNormalisesUnknownErrors(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("db down"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"internal server error","status":500}}`, w.Body.String())

	c, w = newContext()
	Error(c, appErrors.Clone(appErrors.ErrCapacityExceeded, "course is full"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CAPACITY_EXCEEDED"`)
}

func TestDownload(t *testing.T) {
	c, w := newContext()
	Download(c, "course-1-schedule.csv", "text/csv", []byte("#,Date\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="course-1-schedule.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "7", w.Header().Get("Content-Length"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "#,Date\n", w.Body.String())
}
