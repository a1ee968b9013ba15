package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Commands        *prometheus.CounterVec
	ChatRequests    *prometheus.CounterVec
	ChatTruncated   prometheus.Counter
	StoreOperations *prometheus.CounterVec
	UpdatesTotal    prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cogitator",
				Name:      "commands_total",
				Help:      "Total slash commands dispatched, by command and outcome",
			}, []string{"command", "outcome"}),
			ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cogitator",
				Name:      "chat_requests_total",
				Help:      "Total chat gateway calls, by outcome",
			}, []string{"outcome"}),
			ChatTruncated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "cogitator",
				Name:      "chat_truncated_total",
				Help:      "Total chat replies cut off by the token limit",
			}),
			StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cogitator",
				Name:      "store_operations_total",
				Help:      "Total record store operations, by kind, operation and outcome",
			}, []string{"kind", "op", "outcome"}),
			UpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "cogitator",
				Name:      "telegram_updates_total",
				Help:      "Total telegram updates received",
			}),
		}
		prometheus.MustRegister(global.Commands, global.ChatRequests, global.ChatTruncated, global.StoreOperations, global.UpdatesTotal)
	})
	return global
}

func Outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
