package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/availability"
)

func slotsHandler(svc AvailabilityService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionalID, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		date := r.URL.Query().Get("data")
		if date == "" {
			handleError(w, r, log, apperr.New(apperr.InvalidInput, "data is required (YYYY-MM-DD)"))
			return
		}

		schedule, err := svc.SlotsForDate(r.Context(), professionalID, date)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotsResponse(schedule))
	}
}

func toSlotsResponse(s *availability.DaySchedule) SlotsResponse {
	slots := make([]SlotResponse, 0, len(s.Slots))
	for _, slot := range s.Slots {
		slots = append(slots, SlotResponse{
			Horario:    slot.Start.In(s.Location),
			Hora:       slot.Start.In(s.Location).Format("15:04"),
			Disponivel: true,
		})
	}
	return SlotsResponse{
		Data:  s.Date,
		Slots: slots,
		Total: len(slots),
		Configuracao: SlotConfigResponse{
			DuracaoMinutos:   int(s.Duration / time.Minute),
			IntervaloMinutos: int(s.Gap / time.Minute),
			FusoHorario:      s.Location.String(),
		},
	}
}

func createRuleHandler(svc AvailabilityService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req CreateRuleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}

		rule, err := svc.CreateRule(r.Context(), caller, availability.RuleInput{
			DayOfWeek: req.DiaSemana,
			Date:      req.Data,
			StartTime: req.HoraInicio,
			EndTime:   req.HoraFim,
		})
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, RuleResponse{Success: true, Disponibilidade: rule})
	}
}

func listRulesHandler(svc AvailabilityService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		rules, err := svc.ListRules(r.Context(), caller)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		if rules == nil {
			rules = []availability.Rule{}
		}

		writeJSON(w, http.StatusOK, RulesResponse{Success: true, Disponibilidade: rules})
	}
}

func deleteRuleHandler(svc AvailabilityService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		ruleID, err := parseUUIDParam(chi.URLParam(r, "ruleId"), "ruleId")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		if err := svc.DeleteRule(r.Context(), caller, ruleID); err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

func createBlackoutHandler(svc AvailabilityService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req CreateBlackoutRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}

		blackout, err := svc.CreateBlackout(r.Context(), caller, req.Inicio, req.Fim, req.Motivo)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, BlackoutResponse{Success: true, Bloqueio: blackout})
	}
}

func listBlackoutsHandler(svc AvailabilityService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		blackouts, err := svc.ListBlackouts(r.Context(), caller)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		if blackouts == nil {
			blackouts = []availability.Blackout{}
		}

		writeJSON(w, http.StatusOK, BlackoutsResponse{Success: true, Bloqueios: blackouts})
	}
}

func deleteBlackoutHandler(svc AvailabilityService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		blackoutID, err := parseUUIDParam(chi.URLParam(r, "blackoutId"), "blackoutId")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		if err := svc.DeleteBlackout(r.Context(), caller, blackoutID); err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}
