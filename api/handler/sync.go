package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/internal/infrastructure/journal"
	"github.com/campushub/backend/internal/services"
	"github.com/campushub/backend/pkg/httpcontext"
)

type SyncHandler struct {
	baseHandler
	coordinator *services.SyncCoordinator
	journal     *journal.Store
}

func NewSyncHandler(coordinator *services.SyncCoordinator, journalStore *journal.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		baseHandler: newBaseHandler(adapter, logger),
		coordinator: coordinator,
		journal:     journalStore,
	}
}

// @Summary Trigger a mirror reconciliation pass
// @Tags sync
// @Router /api/v1/sync/mirror [post]
func (h *SyncHandler) TriggerMirror(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	if err := h.coordinator.TriggerMirror(userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, map[string]string{
		"user_id": userID,
		"kind":    journal.KindMirror,
		"state":   "started",
	})
}

// @Summary Trigger a study-plan pass
// @Tags sync
// @Router /api/v1/sync/plan [post]
func (h *SyncHandler) TriggerStudyPlan(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	if err := h.coordinator.TriggerStudyPlan(userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, map[string]string{
		"user_id": userID,
		"kind":    journal.KindStudyPlan,
		"state":   "started",
	})
}

// @Summary List recent sync runs for the user
// @Tags sync
// @Router /api/v1/sync/runs [get]
func (h *SyncHandler) ListRuns(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	limit, _ := ctx.QueryArgs().GetUint("limit")
	records, err := h.journal.ListByUser(userID, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"running": h.coordinator.IsRunning(userID),
		"runs":    records,
	})
}
