package http

import (
	"net/http"

	"kilometri/internal/auth"
)

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Generate(r.Context(), userID, req.Year, req.Month)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toReportResponse(rep))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	reports, err := s.reports.List(r.Context(), userID)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportResponse(rep))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Get(r.Context(), userID, id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toReportResponse(rep))
}
