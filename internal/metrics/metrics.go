package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the chat counters so tests can use a private registry.
type Metrics struct {
	ConversationsCreated     prometheus.Counter
	ConversationDedupHits    prometheus.Counter
	MessagesSent             prometheus.Counter
	NotificationsDispatched  *prometheus.CounterVec
	NotificationDispatchFail *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConversationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_conversations_created_total",
			Help: "Conversations created by find-or-create",
		}),
		ConversationDedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_conversation_dedup_hits_total",
			Help: "Find-or-create calls answered with an existing conversation",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Messages persisted",
		}),
		NotificationsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_notifications_dispatched_total",
			Help: "Notifications created or enqueued",
		}, []string{"title"}),
		NotificationDispatchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_notification_dispatch_failures_total",
			Help: "Notification dispatch attempts that failed",
		}, []string{"title"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ConversationsCreated,
			m.ConversationDedupHits,
			m.MessagesSent,
			m.NotificationsDispatched,
			m.NotificationDispatchFail,
		)
	}
	return m
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
