// Package watcher 監看菜單資料檔，變更時重新載入並重新訓練
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc 檔案變更後執行的動作
type ReloadFunc func(ctx context.Context) error

// Watcher 監看單一檔案。編輯器多半以「寫入暫存檔再改名」的方式存檔，
// 因此監看所在目錄再依檔名過濾，並以 debounce 合併連續事件。
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

// New 建立監看器
func New(path string, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		reload:   reload,
		debounce: debounce,
		watcher:  fw,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 開始監看
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
	common.LogInfo("菜單資料監看已啟動", zap.String("path", w.path))
}

// Stop 停止監看
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			common.LogWarn("檔案監看錯誤", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	if w.ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := w.reload(w.ctx); err != nil {
		// 正在進行的重新訓練可能讀到的是舊檔案，稍後再試一次
		if errors.Is(err, common.ErrRetrainInProgress) {
			common.LogInfo("重新訓練進行中，稍後重新載入", zap.String("path", w.path))
			w.schedule()
			return
		}
		common.LogError("菜單資料重新載入失敗",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}
	common.LogInfo("菜單資料已重新載入",
		zap.String("path", w.path),
		zap.Duration("耗時", time.Since(start)),
	)
}
