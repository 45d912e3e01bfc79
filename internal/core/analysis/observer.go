package analysis

import "time"

// Observer 分析流程的指標收集介面
type Observer interface {
	ObserveStage(stage string, duration time.Duration, err error)
	ObserveAnalysis(result *Result)
	ObserveRetrain(model string, duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration, error)   {}
func (nopObserver) ObserveAnalysis(*Result)                     {}
func (nopObserver) ObserveRetrain(string, time.Duration, error) {}
