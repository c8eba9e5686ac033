// Package metrics defines per-strategy metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Strategy gauge vectors
var (
	StrategyNav = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "strategy_nav",
		Help:      "Last reported NAV for each strategy",
	}, []string{"strategy_name"})

	StrategyUpdateAgeMinutes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "strategy_update_age_minutes",
		Help:      "Minutes since the last update for each strategy, labelled by freshness status",
	}, []string{"strategy_name", "status"})
)

// UpdateStrategyNav sets the reported NAV for a strategy.
func UpdateStrategyNav(strategyName string, nav float64) {
	StrategyNav.WithLabelValues(strategyName).Set(nav)
}

// UpdateStrategyAge sets the update age for a strategy. Series for the
// strategy's other statuses are removed so only the current one is exported.
func UpdateStrategyAge(strategyName, status string, minutes float64) {
	StrategyUpdateAgeMinutes.DeletePartialMatch(prometheus.Labels{"strategy_name": strategyName})
	StrategyUpdateAgeMinutes.WithLabelValues(strategyName, status).Set(minutes)
}
