package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/wheelcache/internal/cache"
	"github.com/any-hub/wheelcache/internal/server"
)

const metricsNamespace = "wheelcache"

// InventoryCollector 在每次抓取时重新扫描缓存并输出 gauge，不在进程内保留状态。
type InventoryCollector struct {
	scanner server.Scanner
	logger  logrus.FieldLogger
	timeout time.Duration

	wheels  *prometheus.Desc
	size    *prometheus.Desc
	invalid *prometheus.Desc
	origins *prometheus.Desc
	up      *prometheus.Desc
}

// NewInventoryCollector 创建 collector；timeout 为单次扫描的上限。
func NewInventoryCollector(scanner server.Scanner, logger logrus.FieldLogger, timeout time.Duration) *InventoryCollector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	constLabels := prometheus.Labels{"root": scanner.Root()}
	return &InventoryCollector{
		scanner: scanner,
		logger:  logger,
		timeout: timeout,
		wheels: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "wheels"),
			"Number of well-formed cached wheel files.", nil, constLabels),
		size: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "size_bytes"),
			"Total size of cached wheel files in bytes.", nil, constLabels),
		invalid: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "invalid_files"),
			"Number of .whl files skipped because their names could not be parsed.", nil, constLabels),
		origins: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "origins"),
			"Number of origin subtrees holding at least one wheel.", nil, constLabels),
		up: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "scan_success"),
			"Whether the last cache scan succeeded.", nil, constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *InventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.wheels
	ch <- c.size
	ch <- c.invalid
	ch <- c.origins
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *InventoryCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	inv, err := c.scanner.Scan(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.WithField("action", "metrics_scan").WithError(err).Warn("cache scan for metrics failed")
		}
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.wheels, prometheus.GaugeValue, float64(len(inv.Records)))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(cache.TotalSize(inv.Records)))
	ch <- prometheus.MustNewConstMetric(c.invalid, prometheus.GaugeValue, float64(len(inv.Invalid)))
	ch <- prometheus.MustNewConstMetric(c.origins, prometheus.GaugeValue, float64(inv.Origins()))
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
}

// RegisterMetricsRoute 在独立 registry 上注册 collector 并暴露 /metrics。
func RegisterMetricsRoute(app *fiber.App, collector prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return err
	}
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	app.Get("/metrics", adaptor.HTTPHandler(handler))
	return nil
}
