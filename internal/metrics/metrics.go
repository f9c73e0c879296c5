package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Logins counts login attempts by outcome (admin, user, error).
var Logins = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "concerndesk_logins_total",
	Help: "Login attempts by outcome.",
}, []string{"outcome"})

// ConcernsSubmitted counts accepted concern submissions.
var ConcernsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "concerndesk_concerns_submitted_total",
	Help: "Concern records written.",
})

// LiveEvents counts insert events applied to the dashboard feed.
var LiveEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "concerndesk_feed_live_events_total",
	Help: "Live insert events merged into the feed.",
})

// ActiveStreams tracks open SSE connections.
var ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "concerndesk_sse_active_streams",
	Help: "Currently open admin event streams.",
})
