package app

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fishnet-edu/fishnet/internal/attendance"
	"github.com/fishnet-edu/fishnet/internal/backup"
	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/export"
	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/planner"
	"github.com/fishnet-edu/fishnet/internal/roster"
	"github.com/fishnet-edu/fishnet/internal/schedule"
)

// API is the operational JSON surface of the engine. Authentication sits in
// front of it at the gateway; this service trusts its callers.
type API struct {
	DB        *sql.DB
	Scheduler *Scheduler
	Workflow  *backup.Workflow
	Machine   *attendance.Machine
	Log       *zap.Logger
	Location  *time.Location
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/plans/generate", a.handleGenerate)
	mux.HandleFunc("GET /api/plans", a.handleListPlans)
	mux.HandleFunc("GET /api/plans/export", a.handleExport)
	mux.HandleFunc("POST /api/absences", a.handleAbsence)
	mux.HandleFunc("POST /api/attendance/toggle", a.handleToggle)
	mux.HandleFunc("POST /api/attendance/reason", a.handleReason)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

type generateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.Scheduler.GeneratePlan(r.Context(), from, to)
	if err != nil {
		var genErr *planner.GenerationError
		var collision *roster.ErrIdentityCollision
		switch {
		case errors.Is(err, schedule.ErrNoScheduledDates), errors.Is(err, schedule.ErrEmptyRoster):
			writeErr(w, http.StatusUnprocessableEntity, err)
		case errors.As(err, &genErr):
			// distinct from constraint warnings: no plan was produced
			writeErr(w, http.StatusBadGateway, err)
		case errors.As(err, &collision):
			writeErr(w, http.StatusConflict, err)
		default:
			a.Log.Error("generate plan", zap.Error(err))
			writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result.Plan)
}

func (a *API) handleListPlans(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	rows, err := db.ListAssignmentsInRange(r.Context(), a.DB, from, to)
	if err != nil {
		a.Log.Error("list plans", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	type jsonRow struct {
		Date        string                  `json:"date"`
		Role        models.Role             `json:"role"`
		BackupOrder int                     `json:"backupOrder"`
		Status      models.AssignmentStatus `json:"status"`
		StudentID   int64                   `json:"studentId"`
		StudentName string                  `json:"studentName"`
	}
	out := make([]jsonRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, jsonRow{
			Date:        row.Date.Format("2006-01-02"),
			Role:        row.Role,
			BackupOrder: row.BackupOrder,
			Status:      row.Status,
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	rows, err := db.ListAssignmentsInRange(r.Context(), a.DB, from, to)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	f, err := export.BuildPlanWorkbook(rows)
	if err != nil {
		a.Log.Error("build workbook", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.BuildPlanFilename(from, to)+`"`)
	if err := f.Write(w); err != nil {
		a.Log.Error("write workbook", zap.Error(err))
	}
}

type absenceRequest struct {
	DateID int64  `json:"dateId"`
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

func (a *API) handleAbsence(w http.ResponseWriter, r *http.Request) {
	var req absenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	outcome, err := a.Workflow.ReportAbsence(r.Context(), backup.Report{
		DateID:     req.DateID,
		Role:       role,
		Reason:     req.Reason,
		ReportedAt: time.Now().In(a.Location),
	})
	if err != nil {
		if errors.Is(err, db.ErrSlotNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		a.Log.Error("report absence", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	type jsonOutcome struct {
		NeedsManual bool     `json:"needsManual"`
		Substitutes []int64  `json:"substituteStudentIds"`
		DraftBody   string   `json:"draftBody,omitempty"`
		DraftTo     string   `json:"draftTo,omitempty"`
		Warnings    []string `json:"warnings,omitempty"`
	}
	jo := jsonOutcome{NeedsManual: outcome.NeedsManual}
	for _, s := range outcome.Substitutes {
		jo.Substitutes = append(jo.Substitutes, s.StudentID)
	}
	if outcome.Draft != nil {
		jo.DraftBody = outcome.Draft.Body
		jo.DraftTo = outcome.Draft.RecipientKey
	}
	writeJSON(w, http.StatusOK, jo)
}

type attendanceRequest struct {
	StudentID int64  `json:"studentId"`
	Date      string `json:"date"`
	Reason    string `json:"reason,omitempty"`
}

func (a *API) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	rec, err := a.Machine.Toggle(r.Context(), req.StudentID, day)
	if err != nil {
		a.Log.Error("attendance toggle", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleReason(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	rec, err := a.Machine.SetReason(r.Context(), req.StudentID, day, req.Reason)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func rangeParams(r *http.Request) (time.Time, time.Time, error) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
