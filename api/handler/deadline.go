package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/campushub/backend/api/transport"
	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/pkg/httpcontext"
	"github.com/campushub/backend/repository"
	deadlineUC "github.com/campushub/backend/usecase/deadline"
)

type DeadlineHandler struct {
	baseHandler
	uc *deadlineUC.UseCase
}

func NewDeadlineHandler(uc *deadlineUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *DeadlineHandler {
	return &DeadlineHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List the user's deadlines
// @Tags deadlines
// @Router /api/v1/deadlines [get]
func (h *DeadlineHandler) List(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	filter := repository.DeadlineFilter{UserID: userID}
	args := ctx.QueryArgs()
	if args.Has("completed") {
		completed := args.GetBool("completed")
		filter.Completed = &completed
	}
	if limit, err := args.GetUint("limit"); err == nil {
		filter.Limit = limit
	}
	if offset, err := args.GetUint("offset"); err == nil {
		filter.Offset = offset
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	deadlines, err := h.uc.ListDeadlines(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(deadlines, map[string]int{"count": len(deadlines)}))
}

// @Summary Mark a deadline completed or uncompleted
// @Tags deadlines
// @Router /api/v1/deadlines/{id}/complete [post]
func (h *DeadlineHandler) Complete(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	idValue, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(idValue, 10, 64)
	if err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	req := transport.CompleteRequest{Completed: true}
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondError(ctx, domain.ErrInvalidPayload)
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.SetCompleted(stdCtx, userID, id, req.Completed); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"id":        id,
		"completed": req.Completed,
	})
}

// @Summary Ingest scraped deadlines
// @Tags deadlines
// @Router /api/v1/deadlines/ingest [post]
func (h *DeadlineHandler) Ingest(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	var req transport.DeadlineIngestRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || len(req.Rows) == 0 {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	rows := make([]domain.Deadline, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, row.ToDomain())
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stored, err := h.uc.Ingest(stdCtx, userID, rows)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, map[string]int{"stored": stored})
}
