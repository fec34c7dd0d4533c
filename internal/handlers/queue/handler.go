package queue

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"medibook/infras/otel"
	"medibook/internal/domains/queue/model/dto"
	"medibook/internal/domains/queue/service"
	"medibook/shared/constant"
	"medibook/shared/failure"
	"medibook/shared/validator"
	"medibook/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

const (
	streamHeartbeatInterval = 15 * time.Second
)

type Handler struct {
	service service.Queue
	otel    otel.Otel
}

func New(service service.Queue, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/queue", func(routerGroup chi.Router) {
		routerGroup.Get("/{slug}", handler.GetQueue)
		routerGroup.Get("/{slug}/stream", handler.StreamQueue)
		routerGroup.Post("/{slug}/increment", handler.IncrementQueue)
		routerGroup.Post("/{slug}/decrement", handler.DecrementQueue)
		routerGroup.Post("/{slug}/reset", handler.ResetQueue)
	})
}

// GetQueue retrieves the live queue position for a doctor.
// @Summary Get queue state
// @Description Retrieve the current live queue position for a doctor.
// @Tags Queue
// @Accept json
// @Produce json
// @Param slug path string true "Doctor slug"
// @Success 200 {object} response.Data[model.State] "Queue state"
// @Failure 500 {object} response.Error
// @Router /v1/queue/{slug} [get]
func (handler *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetQueue")
	defer scope.End()

	slug := chi.URLParam(r, constant.RequestParamSlug)

	state, err := handler.service.Get(ctx, slug)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get queue state")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, state)
}

// StreamQueue streams live queue updates over Server-Sent Events.
// @Summary Stream queue updates
// @Description Subscribe to live queue position updates for a doctor over Server-Sent Events.
// @Tags Queue
// @Produce text/event-stream
// @Param slug path string true "Doctor slug"
// @Success 200 {string} string "Event stream of queue states"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/queue/{slug}/stream [get]
func (handler *Handler) StreamQueue(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".StreamQueue")
	defer scope.End()

	slug := chi.URLParam(r, constant.RequestParamSlug)

	flusher, ok := w.(http.Flusher)
	if !ok {
		err := failure.InternalError(fmt.Errorf("streaming not supported"))
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	states, cancel, err := handler.service.Watch(ctx, slug)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to watch queue")

		response.WithError(w, err)

		return
	}
	defer cancel()

	w.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeEventStream)
	w.Header().Set(constant.RequestHeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Send the current state immediately so clients don't wait for the
	// first mutation.
	if state, err := handler.service.Get(ctx, slug); err == nil {
		writeEvent(w, state)
		flusher.Flush()
	}

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case state, open := <-states:
			if !open {
				return
			}

			writeEvent(w, state)
			flusher.Flush()
		}
	}
}

// IncrementQueue advances the queue to the next serial.
// @Summary Increment queue
// @Description Advance the live queue position by one.
// @Tags Queue
// @Accept json
// @Produce json
// @Param slug path string true "Doctor slug"
// @Success 200 {object} response.Data[model.State] "Updated queue state"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/queue/{slug}/increment [post]
// @Security BearerAuth
func (handler *Handler) IncrementQueue(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".IncrementQueue")
	defer scope.End()

	slug := chi.URLParam(r, constant.RequestParamSlug)

	state, err := handler.service.Increment(ctx, slug)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to increment queue")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Queue incremented successfully by user " + user)

	response.WithJSON(w, http.StatusOK, state)
}

// DecrementQueue steps the queue back one position.
// @Summary Decrement queue
// @Description Step the live queue position back by one. A device whose displayed position is already zero is a no-op.
// @Tags Queue
// @Accept json
// @Produce json
// @Param slug path string true "Doctor slug"
// @Param request body dto.DecrementRequest true "Position currently displayed by the caller"
// @Success 200 {object} response.Data[model.State] "Updated queue state"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/queue/{slug}/decrement [post]
// @Security BearerAuth
func (handler *Handler) DecrementQueue(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DecrementQueue")
	defer scope.End()

	slug := chi.URLParam(r, constant.RequestParamSlug)

	var req dto.DecrementRequest
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	state, err := handler.service.Decrement(ctx, slug, req.CurrentPosition)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decrement queue")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Queue decremented successfully by user " + user)

	response.WithJSON(w, http.StatusOK, state)
}

// ResetQueue resets the queue at the end of a session.
// @Summary Reset queue
// @Description Reset the live queue to position zero and mark it off-live. Booked appointments are not affected.
// @Tags Queue
// @Accept json
// @Produce json
// @Param slug path string true "Doctor slug"
// @Success 200 {object} response.Data[model.State] "Reset queue state"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/queue/{slug}/reset [post]
// @Security BearerAuth
func (handler *Handler) ResetQueue(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ResetQueue")
	defer scope.End()

	slug := chi.URLParam(r, constant.RequestParamSlug)

	state, err := handler.service.Reset(ctx, slug)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reset queue")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Queue reset successfully by user " + user)

	response.WithJSON(w, http.StatusOK, state)
}

func writeEvent(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode stream event")

		return
	}

	fmt.Fprintf(w, "data: %s\n\n", data)
}
