package doctor

import (
	"net/http"

	"medibook/infras/otel"
	"medibook/internal/domains/doctor/model"
	"medibook/internal/domains/doctor/model/dto"
	"medibook/internal/domains/doctor/service"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	"medibook/shared/validator"
	"medibook/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Doctor
	otel    otel.Otel
}

func New(service service.Doctor, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/doctors", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetDoctors)
		routerGroup.Get("/{slug}/availability", handler.GetAvailability)
		routerGroup.Put("/{slug}/windows", handler.ReplaceWindows)
	})
}

// GetDoctors retrieves all doctors based on query parameters.
// @Summary Get all doctors
// @Description Retrieve all doctors with optional filtering and pagination.
// @Tags Doctor
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param specialty query string false "Filter by specialty"
// @Success 200 {object} response.Data[dto.GetDoctorsResponse] "List of doctors"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/doctors [get]
func (handler *Handler) GetDoctors(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetDoctors")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	specialty := r.URL.Query().Get(model.FieldSpecialty)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldActive,
				Operator: gDto.FilterOperatorEq,
				Value:    true,
				Table:    model.TableName,
			},
		},
	}

	if specialty != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldSpecialty,
			Operator: gDto.FilterOperatorEq,
			Value:    specialty,
			Table:    model.TableName,
		})
	}

	doctors, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get doctors")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Doctors retrieved successfully")

	response.WithJSON(w, http.StatusOK, doctors)
}

// GetAvailability retrieves a doctor's weekly availability.
// @Summary Get doctor availability
// @Description Retrieve a doctor's locations, weekly availability windows, and the next date with open slots.
// @Tags Doctor
// @Accept json
// @Produce json
// @Param slug path string true "Doctor slug"
// @Success 200 {object} response.Data[dto.AvailabilityResponse] "Doctor availability"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/doctors/{slug}/availability [get]
func (handler *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailability")
	defer scope.End()

	slug := chi.URLParam(r, constant.RequestParamSlug)

	availability, err := handler.service.GetAvailability(ctx, slug)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get doctor availability")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Doctor availability retrieved successfully")

	response.WithJSON(w, http.StatusOK, availability)
}

// ReplaceWindows replaces a doctor's weekly availability windows.
// @Summary Replace availability windows
// @Description Replace the full set of weekly availability windows for a doctor.
// @Tags Doctor
// @Accept json
// @Produce json
// @Param slug path string true "Doctor slug"
// @Param request body dto.ReplaceWindowsRequest true "Replace Windows Request"
// @Success 200 {object} response.Message "Availability windows replaced successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/doctors/{slug}/windows [put]
// @Security BearerAuth
func (handler *Handler) ReplaceWindows(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReplaceWindows")
	defer scope.End()

	slug := chi.URLParam(r, constant.RequestParamSlug)

	req := dto.ReplaceWindowsRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.ReplaceWindows(ctx, slug, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to replace availability windows")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Availability windows replaced successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Availability windows replaced successfully")
}
