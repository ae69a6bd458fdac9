package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// generationSteps counts pipeline steps by name and outcome (ok/error).
	generationSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hatch_generation_steps_total",
			Help: "Total number of generation pipeline steps by outcome.",
		},
		[]string{"step", "outcome"},
	)

	// generationLatency records provider-bound step durations in seconds.
	generationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hatch_generation_step_duration_seconds",
			Help:    "Duration of generation pipeline steps in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(generationSteps, generationLatency)
}

// Step names used as metric labels.
const (
	stepEggImage      = "egg_image"
	stepAnalyze       = "analyze_image"
	stepConcept       = "creature_concept"
	stepCreatureImage = "creature_image"
	stepVoice         = "voice_description"
	stepSpeech        = "speech"
	stepDownload      = "download"
)

// track starts timing step and returns a func recording its outcome.
//
//	done := track(stepConcept)
//	reply, err := ...
//	done(err)
func track(step string) func(error) {
	start := time.Now()
	return func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		generationSteps.WithLabelValues(step, outcome).Inc()
		generationLatency.WithLabelValues(step).Observe(time.Since(start).Seconds())
	}
}
