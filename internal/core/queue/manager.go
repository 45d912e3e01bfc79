package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"go.uber.org/zap"
)

var errClosed = errors.New("queue manager is closed")

// Job 隊列中執行的工作
type Job func(ctx context.Context) (interface{}, error)

// Request 隊列請求
type Request struct {
	Context context.Context
	Job     Job
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Value interface{}
	Error error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 隊列管理器，固定數量的 worker 依序取出工作執行
type Manager struct {
	config    config.QueueConfig
	queue     chan *Request
	done      chan struct{}
	processed int64
	failed    int64
	wg        sync.WaitGroup
	closeOnce sync.Once

	// mu 讓送入隊列與關閉互斥，關閉後清空隊列時不會再有新工作進來
	mu     sync.RWMutex
	closed bool
}

// NewManager 創建隊列管理器並啟動 worker
func NewManager(cfg config.QueueConfig) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}

	m := &Manager{
		config: cfg,
		queue:  make(chan *Request, cfg.MaxSize),
		done:   make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogInfo("隊列管理員已初始化",
		zap.Int("workers", cfg.Workers),
		zap.Int("max_queue_size", cfg.MaxSize),
	)
	return m
}

// Enqueue 將工作加入隊列，隊列已滿時立即回傳 ErrQueueFull
func (m *Manager) Enqueue(ctx context.Context, job Job) (<-chan Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errClosed
	}

	req := &Request{
		Context: ctx,
		Job:     job,
		Result:  make(chan Result, 1),
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
		return req.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, common.ErrQueueFull
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case req := <-m.queue:
			m.process(id, req)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) process(id int, req *Request) {
	var res Result
	defer func() {
		if r := recover(); r != nil {
			common.LogError("隊列工作發生 panic",
				zap.Int("worker", id),
				zap.Any("panic", r),
			)
			res = Result{Error: fmt.Errorf("job panicked: %v", r)}
		}
		if res.Error != nil {
			atomic.AddInt64(&m.failed, 1)
		}
		atomic.AddInt64(&m.processed, 1)
		req.Result <- res
	}()

	if err := req.Context.Err(); err != nil {
		res = Result{Error: err}
		return
	}

	value, err := req.Job(req.Context)
	res = Result{Value: value, Error: err}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		FailedCount:    atomic.LoadInt64(&m.failed),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// Close 關閉隊列管理器並等待 worker 結束，尚未取出的工作會收到錯誤
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.done)
		m.mu.Unlock()

		m.wg.Wait()

		for {
			select {
			case req := <-m.queue:
				req.Result <- Result{Error: errClosed}
			default:
				common.LogInfo("隊列管理員已關閉",
					zap.Int64("processed", atomic.LoadInt64(&m.processed)),
				)
				return
			}
		}
	})
}
