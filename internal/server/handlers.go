package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/javiermolinar/defensegrid/internal/api"
	"github.com/javiermolinar/defensegrid/internal/availability"
)

const maxRequestBody = 1 << 20

var errBadRequest = errors.New("bad request")

type scopeParams struct {
	Member string `json:"member" validate:"required,max=128"`
}

type slotParams struct {
	Member string `json:"member" validate:"required,max=128"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string `json:"time" validate:"required"`
}

func (s *Server) handleOfferings(w http.ResponseWriter, r *http.Request) {
	period, err := api.ParsePeriodQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	offerings, err := s.Store.FetchOfferings(r.Context(), period)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]api.Offering, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, api.FromOffering(o))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := api.ParsePeriodQuery(q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	params := scopeParams{Member: q.Get(api.ParamMember)}
	if err := availability.ValidateStruct(params); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	offering := availability.Offering{
		ID:    period.OfferingID,
		Year:  period.Year,
		Term:  period.Term,
		Phase: period.Phase,
	}
	grid, err := s.Store.FetchGrid(r.Context(), availability.MemberID(params.Member), offering)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromGrid(grid))
}

func (s *Server) handleDefenses(w http.ResponseWriter, r *http.Request) {
	period, err := api.ParsePeriodQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	defenses, err := s.Store.FetchScheduledDefenses(r.Context(), period)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]api.Defense, 0, len(defenses))
	for _, d := range defenses {
		out = append(out, api.FromDefense(d))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReplaceAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := api.ParsePeriodQuery(q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	params := scopeParams{Member: q.Get(api.ParamMember)}
	if err := availability.ValidateStruct(params); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	var slots []api.Slot
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&slots); err != nil {
		s.writeError(w, fmt.Errorf("%w: decoding body: %w", errBadRequest, err))
		return
	}
	for i, slot := range slots {
		if err := availability.ValidateStruct(slot); err != nil {
			s.writeError(w, fmt.Errorf("%w: slot %d: %w", errBadRequest, i, err))
			return
		}
	}
	records, err := api.ToRecords(slots)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	scope := availability.Scope{Period: period, Member: availability.MemberID(params.Member)}
	if err := s.Store.ReplaceAvailability(r.Context(), scope, records); err != nil {
		s.writeError(w, err)
		return
	}

	s.Log.WithField("scope", scope.String()).Infof("replaced %d availability records", len(records))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := api.ParsePeriodQuery(q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	params := slotParams{
		Member: q.Get(api.ParamMember),
		Date:   q.Get(api.ParamDate),
		Time:   q.Get(api.ParamTime),
	}
	if err := availability.ValidateStruct(params); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	key, err := availability.ParseKey(params.Date, params.Time)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	scope := availability.Scope{Period: period, Member: availability.MemberID(params.Member)}
	if err := s.Store.DeleteAvailability(r.Context(), scope, key); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.WithError(err).Warn("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Log.WithError(err).Error("store error")
	}
	s.writeJSON(w, status, api.Error{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, availability.ErrInvalidPeriod),
		errors.Is(err, availability.ErrMalformedGrid):
		return http.StatusBadRequest
	case errors.Is(err, availability.ErrOfferingNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
