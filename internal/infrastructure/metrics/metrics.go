package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics holds every billing and notification metric. All Record*
// methods are safe on a nil receiver so components can run without metrics.
type BillingMetrics struct {
	// Checkout
	CheckoutsTotal      *prometheus.CounterVec
	CheckoutAmountTotal *prometheus.CounterVec
	CheckoutDuration    *prometheus.HistogramVec

	// Verification of gateway payments
	VerificationsTotal *prometheus.CounterVec
	OrdersPaidTotal    *prometheus.CounterVec
	OrdersPaidAmount   *prometheus.CounterVec

	// Wallet ledger
	WalletOperationsTotal *prometheus.CounterVec
	WalletAmountTotal     *prometheus.CounterVec

	RefundsTotal       *prometheus.CounterVec
	StockShortfall     *prometheus.CounterVec
	ReconciliationRuns *prometheus.CounterVec

	// Notification queue
	NotificationDeliveriesTotal *prometheus.CounterVec
	NotificationQueueDepth      prometheus.Gauge

	ErrorsTotal *prometheus.CounterVec
}

// NewBillingMetrics registers the metrics on reg. A nil reg falls back to
// the default registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &BillingMetrics{
		CheckoutsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_checkouts_total",
				Help: "Checkout attempts by payment method and result",
			},
			[]string{"payment_method", "result"},
		),
		CheckoutAmountTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_checkout_amount_total",
				Help: "Sum of accepted checkout amounts",
			},
			[]string{"payment_method"},
		),
		CheckoutDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billing_checkout_duration_seconds",
				Help:    "Time spent in checkout including gateway calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"payment_method"},
		),

		VerificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_verifications_total",
				Help: "Gateway payment verifications by method and outcome",
			},
			[]string{"payment_method", "outcome"},
		),
		OrdersPaidTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_orders_paid_total",
				Help: "Orders that reached a paid or awaiting-transfer state",
			},
			[]string{"payment_method", "status"},
		),
		OrdersPaidAmount: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_orders_paid_amount_total",
				Help: "Sum of paid order amounts",
			},
			[]string{"payment_method"},
		),

		WalletOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_wallet_operations_total",
				Help: "Wallet debits, credits and transfers by result",
			},
			[]string{"operation", "result"},
		),
		WalletAmountTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_wallet_amount_total",
				Help: "Sum of amounts moved through wallets",
			},
			[]string{"operation"},
		),

		RefundsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_refunds_total",
				Help: "Card refunds by result",
			},
			[]string{"result"},
		),
		StockShortfall: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_stock_shortfall_total",
				Help: "Units sold beyond available stock at verification time",
			},
			[]string{"product_id"},
		),
		ReconciliationRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_reconciliation_checked_total",
				Help: "Pending transactions re-verified by the reconciler",
			},
			[]string{"outcome"},
		),

		NotificationDeliveriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_deliveries_total",
				Help: "Notification delivery attempts by kind and result",
			},
			[]string{"kind", "result"},
		),
		NotificationQueueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "notification_queue_depth",
				Help: "Jobs waiting in the notification queue",
			},
		),

		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_errors_total",
				Help: "Errors by operation and error type",
			},
			[]string{"operation", "error_type"},
		),
	}
}

func (m *BillingMetrics) RecordCheckout(paymentMethod, result string, amount float64, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CheckoutsTotal.WithLabelValues(paymentMethod, result).Inc()
	m.CheckoutDuration.WithLabelValues(paymentMethod).Observe(durationSeconds)
	if result == "success" {
		m.CheckoutAmountTotal.WithLabelValues(paymentMethod).Add(amount)
	}
}

func (m *BillingMetrics) RecordVerification(paymentMethod, outcome string) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(paymentMethod, outcome).Inc()
}

func (m *BillingMetrics) RecordOrderPaid(paymentMethod, status string, amount float64) {
	if m == nil {
		return
	}
	m.OrdersPaidTotal.WithLabelValues(paymentMethod, status).Inc()
	m.OrdersPaidAmount.WithLabelValues(paymentMethod).Add(amount)
}

func (m *BillingMetrics) RecordWalletOperation(operation, result string, amount float64) {
	if m == nil {
		return
	}
	m.WalletOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "success" {
		m.WalletAmountTotal.WithLabelValues(operation).Add(amount)
	}
}

func (m *BillingMetrics) RecordRefund(result string) {
	if m == nil {
		return
	}
	m.RefundsTotal.WithLabelValues(result).Inc()
}

func (m *BillingMetrics) RecordStockShortfall(productID string, units int) {
	if m == nil {
		return
	}
	m.StockShortfall.WithLabelValues(productID).Add(float64(units))
}

func (m *BillingMetrics) RecordReconciliation(outcome string) {
	if m == nil {
		return
	}
	m.ReconciliationRuns.WithLabelValues(outcome).Inc()
}

func (m *BillingMetrics) RecordNotificationDelivery(kind, result string) {
	if m == nil {
		return
	}
	m.NotificationDeliveriesTotal.WithLabelValues(kind, result).Inc()
}

func (m *BillingMetrics) SetNotificationQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.NotificationQueueDepth.Set(float64(depth))
}

func (m *BillingMetrics) RecordError(operation, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}
