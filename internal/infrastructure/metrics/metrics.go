package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupchat",
		Name:      "messages_sent_total",
		Help:      "Messages written to the log, by channel and kind.",
	}, []string{"channel", "kind"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupchat",
		Name:      "message_rejections_total",
		Help:      "Composer rejections by reason.",
	}, []string{"reason"})

	BotReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupchat",
		Name:      "bot_replies_total",
		Help:      "Bot replies written, by command.",
	}, []string{"command"})

	ContentAPIFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupchat",
		Name:      "content_api_failures_total",
		Help:      "Failed calls to third-party content APIs.",
	}, []string{"api"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "groupchat",
		Name:      "active_sessions",
		Help:      "Sessions currently in the active state.",
	})

	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "groupchat",
		Name:      "websocket_connections",
		Help:      "Open WebSocket connections.",
	})
)
