package controllers

import (
	"context"
	"net/http"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/app/models/dto"
	"github.com/coursetable/ferry/internal/app/services"
	"github.com/coursetable/ferry/internal/middleware"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/coursetable/ferry/internal/pkg/helpers"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunManager starts pipeline runs and reads their history
type RunManager interface {
	Start(ctx context.Context, req services.RunRequest) (*models.PipelineRun, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error)
	Latest(ctx context.Context) (*models.PipelineRun, error)
	List(ctx context.Context, offset uint64, limit int) ([]models.PipelineRun, int64, error)
}

// RunController handles the pipeline run endpoints
type RunController struct {
	runs RunManager
	// persistByDefault applies when a trigger request does not say
	persistByDefault bool
	log              zerolog.Logger
}

// NewRunController creates a new RunController
func NewRunController(runs RunManager, persistByDefault bool) *RunController {
	return &RunController{
		runs:             runs,
		persistByDefault: persistByDefault,
		log:              logger.Component("run_controller"),
	}
}

// TriggerRun starts a full rebuild in the background and answers 202 with
// the RUNNING run. 409 while another run is active.
func (c *RunController) TriggerRun(ctx *gin.Context) {
	req := services.RunRequest{Trigger: services.TriggerAPI, Persist: c.persistByDefault}
	if body, ok := ctx.Get(middleware.ValidatedBodyKey); ok {
		if trigger, ok := body.(*dto.TriggerRunRequest); ok {
			if trigger.Persist != nil {
				req.Persist = *trigger.Persist
			}
			req.Seasons = trigger.Seasons
		}
	}

	run, err := c.runs.Start(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.log.Info().Str("run_id", run.ID.String()).Str("operator", ctx.GetString(auth.OperatorContextKey)).
		Msg("Run triggered")
	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(dto.FromPipelineRun(run), "Pipeline run started"))
}

// ListRuns returns a page of runs, newest first
func (c *RunController) ListRuns(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	runs, total, err := c.runs.List(ctx.Request.Context(), offset, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RunListResponse{
		Runs:       dto.FromPipelineRuns(runs),
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, ""))
}

// GetLatestRun returns the most recently started run
func (c *RunController) GetLatestRun(ctx *gin.Context) {
	run, err := c.runs.Latest(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromPipelineRun(run), ""))
}

// GetRun returns one run by id
func (c *RunController) GetRun(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid run ID"))
		return
	}

	run, err := c.runs.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromPipelineRun(run), ""))
}
