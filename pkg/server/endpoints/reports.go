package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/report"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

const reportPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body>
%s</body></html>
`

// RegisterReportsEndpoints registers monthly and weekly activity reports
func RegisterReportsEndpoints(s *server.Server) {
	rep := authed(s, "/reports")
	rep.HandleFunc("/monthly", handleGenerateReport(s, model.ReportKindMonthly)).Methods("POST")
	rep.HandleFunc("/weekly", handleGenerateReport(s, model.ReportKindWeekly)).Methods("POST")
	rep.HandleFunc("/monthly", handleListReports(s)).Methods("GET")
	rep.HandleFunc("/monthly/{id}", handleGetReport(s)).Methods("GET")
	rep.HandleFunc("/monthly/{id}", handleDeleteReport(s)).Methods("DELETE")
}

func handleGenerateReport(s *server.Server, kind model.ReportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var date [3]int
		for i, name := range []string{"year", "month", "day"} {
			v, ok := queryInt(r, name, 0)
			if !ok {
				respondWithMessage(w, http.StatusUnprocessableEntity, name+" must be an integer")
				return
			}
			date[i] = v
		}

		userID := currentIdentity(r).UserID
		var (
			rep *model.Report
			err error
		)
		if kind == model.ReportKindWeekly {
			rep, err = s.Reports.Weekly(userID, date[0], date[1], date[2])
		} else {
			rep, err = s.Reports.Monthly(userID, date[0], date[1])
		}
		if err != nil {
			if errors.Is(err, report.ErrInvalidPeriod) {
				respondWithMessage(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			respondInternal(w, s.Logger, "failed to generate report", err)
			return
		}
		respondWithJSON(w, http.StatusOK, rep)
	}
}

func handleListReports(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := s.ReportsStore.ListReports(currentIdentity(r).UserID)
		if err != nil {
			respondInternal(w, s.Logger, "failed to list reports", err)
			return
		}
		respondWithJSON(w, http.StatusOK, reports)
	}
}

func handleGetReport(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "报告不存在")
			return
		}
		rep, err := s.ReportsStore.GetReport(currentIdentity(r).UserID, id)
		if err != nil {
			if errors.Is(err, store.ErrReportNotFound) {
				respondWithMessage(w, http.StatusNotFound, "报告不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load report", err)
			return
		}

		if r.URL.Query().Get("format") != "html" {
			respondWithJSON(w, http.StatusOK, rep)
			return
		}
		body, err := report.HTML(rep.ReportText)
		if err != nil {
			respondInternal(w, s.Logger, "failed to render report", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, reportPage, rep.PeriodStart.Format("2006-01-02"), body)
	}
}

func handleDeleteReport(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": false})
			return
		}
		if err := s.ReportsStore.DeleteReport(currentIdentity(r).UserID, id); err != nil {
			if errors.Is(err, store.ErrReportNotFound) {
				respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": false})
				return
			}
			respondInternal(w, s.Logger, "failed to delete report", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}
