package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScheduleRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishnet", Name: "schedule_runs_total", Help: "Scheduling runs by outcome",
	}, []string{"outcome"})
	PlanWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishnet", Name: "plan_warnings_total", Help: "Repair warnings by category",
	}, []string{"category"})
	OracleCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishnet", Name: "oracle_calls_total", Help: "Plan generator calls by outcome",
	}, []string{"outcome"})
	OracleLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fishnet", Name: "oracle_call_seconds", Help: "Plan generator call latency",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	AbsenceReports = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fishnet", Name: "absence_reports_total", Help: "Emergency absence reports",
	})
	AttendanceWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishnet", Name: "attendance_writes_total", Help: "Attendance upserts by provenance",
	}, []string{"confirmed_by"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fishnet", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(ScheduleRuns, PlanWarnings, OracleCalls, OracleLatency, AbsenceReports, AttendanceWrites, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
