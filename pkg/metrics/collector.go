package metrics

import (
	"context"
	"time"

	"github.com/meridian/orchestrator/pkg/storage"
)

// Collector periodically samples entity counts from the persistence
// layer into EntitiesTotal and AssignmentsTotal.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over store.
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if hosts, err := c.store.ListHosts(ctx); err == nil {
		EntitiesTotal.WithLabelValues("Host").Set(float64(len(hosts)))
	}
	if targets, err := c.store.ListTargets(ctx); err == nil {
		EntitiesTotal.WithLabelValues("Target").Set(float64(len(targets)))
	}
	if workloads, err := c.store.ListWorkloads(ctx); err == nil {
		EntitiesTotal.WithLabelValues("Workload").Set(float64(len(workloads)))
	}
	if deployments, err := c.store.ListDeployments(ctx); err == nil {
		EntitiesTotal.WithLabelValues("Deployment").Set(float64(len(deployments)))
	}
	if assignments, err := c.store.ListAssignments(ctx); err == nil {
		AssignmentsTotal.Set(float64(len(assignments)))
		EntitiesTotal.WithLabelValues("Assignment").Set(float64(len(assignments)))
	}
}
