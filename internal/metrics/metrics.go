package metrics

import (
	"errors"
	"strconv"
	"time"

	"printshop-api/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printshop_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "printshop_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	authzDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printshop_authz_denied_total",
		Help: "Requests rejected for a missing permission",
	}, []string{"permission"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printshop_status_transitions_total",
		Help: "Workflow status changes by entity and target status",
	}, []string{"entity", "status"})

	activityLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printshop_activity_log_failures_total",
		Help: "Activity log writes that failed and were dropped",
	})

	ticketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printshop_tickets_created_total",
		Help: "Support tickets opened",
	})

	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printshop_orders_created_total",
		Help: "Orders placed",
	})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "printshop_ws_clients",
		Help: "Connected WebSocket clients",
	})

	wsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printshop_ws_events_dropped_total",
		Help: "Realtime events dropped because the hub buffer was full",
	})
)

// Middleware records request count and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = apperror.KindOf(err).HTTPStatus()
			}
		}
		route := c.Route().Path
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func AuthzDenied(permission string) { authzDenied.WithLabelValues(permission).Inc() }

func StatusTransition(entity, status string) {
	statusTransitions.WithLabelValues(entity, status).Inc()
}

func ActivityLogFailed() { activityLogFailures.Inc() }

func TicketCreated() { ticketsCreated.Inc() }

func OrderCreated() { ordersCreated.Inc() }

func WSClientConnected()    { wsClients.Inc() }
func WSClientDisconnected() { wsClients.Dec() }
func WSEventDropped()       { wsDropped.Inc() }
