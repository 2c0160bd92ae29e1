// Package monitoring 提供预测服务的运行指标
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// PredictionMetrics 预测指标（仅内存计数，不保存预测记录）
type PredictionMetrics struct {
	metricsLock sync.RWMutex

	startTime   time.Time
	predictions map[string]int64
	rejected    map[string]int64
	failures    int64
}

// NewPredictionMetrics 创建预测指标
func NewPredictionMetrics() *PredictionMetrics {
	return &PredictionMetrics{
		startTime:   time.Now(),
		predictions: make(map[string]int64),
		rejected:    make(map[string]int64),
	}
}

// RecordPrediction 记录一次成功预测
func (pm *PredictionMetrics) RecordPrediction(label string) {
	pm.metricsLock.Lock()
	defer pm.metricsLock.Unlock()

	pm.predictions[label]++
}

// RecordRejected 记录被拒绝的输入
func (pm *PredictionMetrics) RecordRejected(reason string) {
	pm.metricsLock.Lock()
	defer pm.metricsLock.Unlock()

	pm.rejected[reason]++
}

// RecordFailure 记录分类器失败
func (pm *PredictionMetrics) RecordFailure() {
	pm.metricsLock.Lock()
	defer pm.metricsLock.Unlock()

	pm.failures++
}

// GetUptime 获取运行时间
func (pm *PredictionMetrics) GetUptime() time.Duration {
	return time.Since(pm.startTime)
}

// GetStats 获取统计
func (pm *PredictionMetrics) GetStats() map[string]interface{} {
	pm.metricsLock.RLock()
	defer pm.metricsLock.RUnlock()

	predictions := make(map[string]int64, len(pm.predictions))
	var total int64
	for label, count := range pm.predictions {
		predictions[label] = count
		total += count
	}
	rejected := make(map[string]int64, len(pm.rejected))
	for reason, count := range pm.rejected {
		rejected[reason] = count
	}

	return map[string]interface{}{
		"uptime":            pm.GetUptime().String(),
		"goroutines":        runtime.NumGoroutine(),
		"predictions":       predictions,
		"predictions_total": total,
		"rejected":          rejected,
		"failures":          pm.failures,
	}
}

// ExportPrometheus 导出Prometheus文本格式
func (pm *PredictionMetrics) ExportPrometheus() string {
	pm.metricsLock.RLock()
	defer pm.metricsLock.RUnlock()

	var b strings.Builder
	b.WriteString("# HELP predictions_total Classified submissions by label.\n")
	b.WriteString("# TYPE predictions_total counter\n")
	for _, label := range sortedKeys(pm.predictions) {
		fmt.Fprintf(&b, "predictions_total{label=%q} %d\n", label, pm.predictions[label])
	}
	b.WriteString("# HELP predictions_rejected_total Submissions rejected before classification.\n")
	b.WriteString("# TYPE predictions_rejected_total counter\n")
	for _, reason := range sortedKeys(pm.rejected) {
		fmt.Fprintf(&b, "predictions_rejected_total{reason=%q} %d\n", reason, pm.rejected[reason])
	}
	b.WriteString("# HELP prediction_failures_total Classifier errors.\n")
	b.WriteString("# TYPE prediction_failures_total counter\n")
	fmt.Fprintf(&b, "prediction_failures_total %d\n", pm.failures)
	b.WriteString("# HELP uptime_seconds Process uptime.\n")
	b.WriteString("# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(&b, "uptime_seconds %f\n", pm.GetUptime().Seconds())
	return b.String()
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
