package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dujiao-next/cartflow/internal/http/response"

	"github.com/gin-gonic/gin"
)

func TestRespondErrorHidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/order", nil)
	c.Set("request_id", "req-9")

	RespondError(c, response.CodeInternal, response.MsgInternal, errors.New("disk full"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status want 500 got %d", w.Code)
	}
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body.Error != response.MsgInternal || body.RequestID != "req-9" {
		t.Fatalf("body want %q/req-9 got %+v", response.MsgInternal, body)
	}
	if !c.IsAborted() {
		t.Fatalf("context should be aborted")
	}
}

func TestRespondAppErrorNilIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/orders/x", nil)

	RespondAppError(c, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("nil app error want 500 got %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/orders/x", nil)
	RespondAppError(c2, response.WrapError(response.CodeNotFound, "Order not found", errors.New("lookup miss")))
	if w2.Code != http.StatusNotFound {
		t.Fatalf("status want 404 got %d", w2.Code)
	}
}
