package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/appointment"
)

// actions maps the path verbs to appointment actions.
var actions = map[string]appointment.Action{
	"confirmar": appointment.ActionConfirm,
	"rejeitar":  appointment.ActionReject,
	"cancelar":  appointment.ActionCancel,
	"concluir":  appointment.ActionComplete,
}

func bookAppointmentHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req BookRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}
		professionalID, err := parseUUIDParam(req.ProfissionalID, "profissional_id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		appt, err := svc.Book(r.Context(), caller, professionalID, req.Horario, req.Observacoes)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, AppointmentResponse{Success: true, Consulta: appt})
	}
}

func listAppointmentsHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		p := pageParams(r)
		page, err := svc.ListForUser(r.Context(), caller, p.Limit, p.Offset)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentsResponse{
			Success:   true,
			Consultas: page.Appointments,
			Total:     page.Total,
			Count:     len(page.Appointments),
			Limit:     page.Limit,
			Offset:    page.Offset,
			HasNext:   hasNext(page.Limit, page.Offset, page.Total),
		})
	}
}

func getAppointmentHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		detail, err := svc.GetAppointment(r.Context(), caller, id)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentDetailResponse{Success: true, Consulta: detail})
	}
}

func transitionAppointmentHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		action, ok := actions[chi.URLParam(r, "action")]
		if !ok {
			handleError(w, r, log, appointment.ErrUnknownAction)
			return
		}

		appt, err := svc.Transition(r.Context(), caller, id, action)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{Success: true, Consulta: appt})
	}
}
