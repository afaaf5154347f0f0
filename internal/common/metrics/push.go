package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends everything gathered by g to a Prometheus Pushgateway under job,
// replacing that job's previous metrics.
func Push(ctx context.Context, gatewayURL, job string, g prometheus.Gatherer) error {
	if err := push.New(gatewayURL, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
