// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"NotesWebService/statistics"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_errors_total",
		Help: "Total number of errors occurred in the application.",
	}, []string{"endpoint"})
	EndPointCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_endpoint_calls_total",
		Help: "Total number of calls per endpoint.",
	}, []string{"endpoint"})
	ActivePercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "notes_tasks_active_percent",
		Help: "Percentage of active tasks per account.",
	}, []string{"account"})
	CompletedPercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "notes_tasks_completed_percent",
		Help: "Percentage of completed tasks per account.",
	}, []string{"account"})
)

// Register adds every collector of the package to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{ErrorCounter, EndPointCounter, ActivePercent, CompletedPercent} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// StatsGauges publishes statistics results as a pair of gauges.
type StatsGauges struct {
	Active    *prometheus.GaugeVec
	Completed *prometheus.GaugeVec
}

// NewStatsGauges returns gauges backed by the package level collectors.
func NewStatsGauges() *StatsGauges {
	return &StatsGauges{Active: ActivePercent, Completed: CompletedPercent}
}

func (g *StatsGauges) Publish(account string, result statistics.Result) {
	g.Active.WithLabelValues(account).Set(result.ActivePercent)
	g.Completed.WithLabelValues(account).Set(result.CompletedPercent)
}
