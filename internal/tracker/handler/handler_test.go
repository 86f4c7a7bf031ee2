package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Anshu331/harness-portal/internal/middleware"
	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"github.com/Anshu331/harness-portal/internal/tracker/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{&service.Error{Kind: service.ErrInvalidInput, Message: "bad"}, http.StatusBadRequest},
		{&service.Error{Kind: service.ErrInvalidTransition, Message: "nope"}, http.StatusBadRequest},
		{&service.Error{Kind: service.ErrNotFound, Message: "harness not found"}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", repository.ErrNotFound), http.StatusNotFound},
		{&service.Error{Kind: service.ErrForbidden, Message: "no"}, http.StatusForbidden},
		{&service.Error{Kind: service.ErrUnauthorized, Message: "who"}, http.StatusUnauthorized},
		{&service.Error{Kind: service.ErrConflict, Message: "dup"}, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		handleServiceError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		resp := testutil.ParseResponse(w)
		assert.Equal(t, float64(tc.code*100), resp["code"])
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleServiceError(c, errors.New("pq: connection refused"))
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestBindErrorMessages(t *testing.T) {
	RegisterValidators()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/dvp", func(c *gin.Context) {
		var req service.DVPStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, bindError(err))
			return
		}
		Success(c, req)
	})
	r.POST("/receive", func(c *gin.Context) {
		var req service.ReceiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, bindError(err))
			return
		}
		Success(c, req)
	})

	r.POST("/tnv", func(c *gin.Context) {
		var req service.AssignTNVRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, bindError(err))
			return
		}
		Success(c, req)
	})
	r.POST("/vehicle", func(c *gin.Context) {
		var req service.CreateVehicleDetailRequest
		if err := c.ShouldBind(&req); err != nil {
			BadRequest(c, bindError(err))
			return
		}
		Success(c, req)
	})

	w := testutil.DoRequest(r, "POST", "/dvp", map[string]string{"dvpStatus": "MAYBE"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, testutil.ParseResponse(w)["message"], "dvpStatus must be one of")

	w = testutil.DoRequest(r, "POST", "/dvp", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, testutil.ParseResponse(w)["message"], "dvpStatus is required")

	w = testutil.DoRequest(r, "POST", "/dvp", map[string]string{"dvpStatus": "CONDITIONAL_PASS"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(r, "POST", "/receive", map[string]string{"receivedAt": "DOCK"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, testutil.ParseResponse(w)["message"], "receivedAt must be PLANT or R&D_CENTRE")

	w = testutil.DoRequest(r, "POST", "/tnv", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "tnvDocketNo is required", testutil.ParseResponse(w)["message"])

	req := httptest.NewRequest("POST", "/vehicle", strings.NewReader("vehicleName=Auto"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "partNo is required", testutil.ParseResponse(w)["message"])
}

func TestSSEStreamDeliversEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := sse.NewHub(nil)
	h := NewSSEHandler(hub)

	r := gin.New()
	r.GET("/events", func(c *gin.Context) {
		c.Set(middleware.CtxUserID, "v1")
		c.Set(middleware.CtxRole, entity.RoleVendor)
		h.Stream(c)
	})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.PublishHarnessUpdate(sse.HarnessUpdate{HarnessID: "h-other", Status: "ASSIGNED"}, []string{"v2"})
	hub.PublishHarnessUpdate(sse.HarnessUpdate{HarnessID: "h-mine", Status: "ASSIGNED"}, []string{"v1"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: connected\n"))
	assert.Contains(t, body, `"harnessId":"h-mine"`)
	assert.NotContains(t, body, "h-other")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, 0, hub.ClientCount())
}

func TestUploadServe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	content := []byte("drawing-bytes")
	require.NoError(t, store.Put(context.Background(), "drawings/2024/01/a_b.pdf",
		bytes.NewReader(content), int64(len(content)), "application/pdf"))

	r := gin.New()
	h := NewUploadHandler(store, zap.NewNop())
	r.GET("/uploads/*path", h.Serve)

	w := testutil.DoRequest(r, "GET", "/uploads/drawings/2024/01/a_b.pdf", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())

	req := httptest.NewRequest("GET", "/uploads/drawings/2024/01/a_b.pdf", nil)
	req.Header.Set("Range", "bytes=0-6")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "drawing", w.Body.String())

	w = testutil.DoRequest(r, "GET", "/uploads/missing.pdf", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
