package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/app/models/dto"
	"github.com/coursetable/ferry/internal/app/services"
	"github.com/coursetable/ferry/internal/middleware"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type fakeRunManager struct {
	started   []services.RunRequest
	startErr  error
	runs      []models.PipelineRun
	lastLimit int
	lastOff   uint64
}

func (f *fakeRunManager) Start(_ context.Context, req services.RunRequest) (*models.PipelineRun, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, req)
	return &models.PipelineRun{ID: uuid.New(), Status: models.RunRunning, Trigger: req.Trigger, StartedAt: time.Now()}, nil
}

func (f *fakeRunManager) Get(_ context.Context, id uuid.UUID) (*models.PipelineRun, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("run not found")
}

func (f *fakeRunManager) Latest(context.Context) (*models.PipelineRun, error) {
	if len(f.runs) == 0 {
		return nil, apperrors.NewResourceNotFoundError("no runs recorded")
	}
	return &f.runs[0], nil
}

func (f *fakeRunManager) List(_ context.Context, offset uint64, limit int) ([]models.PipelineRun, int64, error) {
	f.lastOff, f.lastLimit = offset, limit
	return f.runs, int64(len(f.runs)) + 20, nil
}

func testRouter(manager *fakeRunManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewRunController(manager, true)
	router := gin.New()
	runs := router.Group("/runs")
	runs.POST("", middleware.ValidateRequest[dto.TriggerRunRequest](), controller.TriggerRun)
	runs.GET("", controller.ListRuns)
	runs.GET("/latest", controller.GetLatestRun)
	runs.GET("/:id", controller.GetRun)
	return router
}

func serve(router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, dto.APIResponse) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestTriggerRun(t *testing.T) {
	manager := &fakeRunManager{}
	router := testRouter(manager)

	w, resp := serve(router, http.MethodPost, "/runs", "")
	if w.Code != http.StatusAccepted || !resp.Success {
		t.Fatalf("Expected 202 but actual=%v %s", w.Code, w.Body.String())
	}
	w, _ = serve(router, http.MethodPost, "/runs", `{"persist": false, "seasons": ["202401"]}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 but actual=%v %s", w.Code, w.Body.String())
	}

	if len(manager.started) != 2 {
		t.Fatalf("Expected 2 runs started but actual=%v", len(manager.started))
	}
	if first := manager.started[0]; !first.Persist || first.Trigger != services.TriggerAPI || len(first.Seasons) != 0 {
		t.Errorf("Expected the defaults to apply but actual=%+v", first)
	}
	if second := manager.started[1]; second.Persist || len(second.Seasons) != 1 || second.Seasons[0] != "202401" {
		t.Errorf("Expected the body to override the defaults but actual=%+v", second)
	}

	manager.startErr = apperrors.ErrRunInProgress
	w, resp = serve(router, http.MethodPost, "/runs", "")
	if w.Code != http.StatusConflict || resp.Error == nil || resp.Error.Code != dto.ErrorCodeRunInProgress {
		t.Errorf("Expected 409 but actual=%v %s", w.Code, w.Body.String())
	}
}

func TestReadRuns(t *testing.T) {
	finished := time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)
	run := models.PipelineRun{
		ID:         uuid.New(),
		Status:     models.RunSucceeded,
		Trigger:    services.TriggerAPI,
		StartedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt: &finished,
	}
	manager := &fakeRunManager{runs: []models.PipelineRun{run}}
	router := testRouter(manager)

	testCases := []struct {
		path   string
		status int
	}{
		{path: "/runs/latest", status: http.StatusOK},
		{path: "/runs/" + run.ID.String(), status: http.StatusOK},
		{path: "/runs/" + uuid.NewString(), status: http.StatusNotFound},
		{path: "/runs/not-a-uuid", status: http.StatusBadRequest},
	}
	for i, testCase := range testCases {
		w, _ := serve(router, http.MethodGet, testCase.path, "")
		if w.Code != testCase.status {
			t.Errorf("[i=%v] Expected status %v but actual=%v", i, testCase.status, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var latest struct {
		Data dto.RunResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if latest.Data.ID != run.ID.String() || latest.Data.DurationMillis == nil || *latest.Data.DurationMillis != 60000 {
		t.Errorf("Unexpected run response: %+v", latest.Data)
	}
}

func TestListRunsPaginates(t *testing.T) {
	manager := &fakeRunManager{runs: []models.PipelineRun{{ID: uuid.New(), Status: models.RunFailed}}}
	router := testRouter(manager)

	req := httptest.NewRequest(http.MethodGet, "/runs?page=2&size=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 but actual=%v", w.Code)
	}

	var resp struct {
		Data dto.RunListResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if manager.lastOff != 5 || manager.lastLimit != 5 {
		t.Errorf("Expected offset 5 limit 5 but actual=(%v, %v)", manager.lastOff, manager.lastLimit)
	}
	expected := dto.PaginationInfo{CurrentPage: 2, TotalPages: 5, PageSize: 5, TotalItems: 21}
	if resp.Data.Pagination != expected || len(resp.Data.Runs) != 1 {
		t.Errorf("Expected %+v but actual=%+v", expected, resp.Data)
	}
}
