package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"solar-orrery/simulator/simulation"
)

type Collector struct {
	ticks   prometheus.Counter
	paused  prometheus.Gauge
	speed   *prometheus.GaugeVec
	intents *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	m := &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_ticks_total",
			Help: "Frames rendered by the animation driver",
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_paused",
			Help: "1 while the simulation clock is paused",
		}),
		speed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orrery_body_speed_radians",
				Help: "Current angular speed per frame",
			},
			[]string{"body"},
		),
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_intents_total",
				Help: "User intents handled",
			},
			[]string{"intent", "result"},
		),
	}

	reg.MustRegister(m.ticks, m.paused, m.speed, m.intents)
	return m
}

// Publish lets the collector sit on the frame buffer as a sink.
func (m *Collector) Publish(f simulation.Frame) {
	m.ticks.Inc()
	if f.Paused {
		m.paused.Set(1)
	} else {
		m.paused.Set(0)
	}
}

func (m *Collector) RecordIntent(intent string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.intents.WithLabelValues(intent, result).Inc()
}

func (m *Collector) ObserveSpeeds(states []simulation.BodyState) {
	for _, s := range states {
		m.speed.WithLabelValues(s.Name).Set(s.Speed)
	}
}
