package monitoring

import (
	"github.com/gin-gonic/gin"
	"github.com/ika-tensei/relayer/src/utils/monitoring/report"
	"github.com/prometheus/client_golang/prometheus"
)

// Implemented by per-application monitors
type Monitor interface {
	GetReport() *report.Report
	GetPrometheusCollector() prometheus.Collector
	IsOK() bool
	OnGetState(c *gin.Context)
	OnGetHealth(c *gin.Context)
}
