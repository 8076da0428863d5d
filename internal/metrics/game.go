package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del plugin. Paquete standalone para evitar ciclos
// de import entre game/alliance y HTTP.

var (
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "niuniu_commands_total",
		Help: "Comandos procesados, por verbo",
	}, []string{"command"})

	CommandLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "niuniu_command_latency_ms",
		Help:    "Latencia de procesamiento de comandos en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	PartitionSaves = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "niuniu_partition_saves_total",
		Help: "Escrituras de particiones a disco",
	})

	BroadcastFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "niuniu_broadcast_failures_total",
		Help: "Entregas de difusión fallidas (best-effort)",
	})

	AllianceMembers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "niuniu_alliance_members",
		Help: "Grupos miembros por alianza",
	}, []string{"alliance"})
)

// Register registra las métricas en el registry dado (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		CommandsTotal,
		CommandLatency,
		PartitionSaves,
		BroadcastFailures,
		AllianceMembers,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
