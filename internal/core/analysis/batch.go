package analysis

import (
	"context"
	"errors"
	"fmt"

	"allergy-menu-guard/internal/pkg/common"

	"go.uber.org/zap"
)

// AnalyzeBatch 以相同過敏原分析多筆菜單文字，結果依輸入順序排列。
// 有隊列時交給 worker 執行，隊列已滿則改在目前的 goroutine 執行；單筆失敗不影響其他筆。
func (e *Engine) AnalyzeBatch(ctx context.Context, texts, allergies []string, requestID string) ([]BatchItem, error) {
	if len(texts) == 0 {
		return nil, common.NewValidationError("texts must not be empty")
	}
	if len(texts) > e.opts.MaxBatchSize {
		return nil, common.Wrap(common.ErrInvalidRequest,
			fmt.Errorf("batch of %d exceeds the limit of %d", len(texts), e.opts.MaxBatchSize))
	}

	items := make([]BatchItem, len(texts))
	pending := make([]<-chan resultOrErr, len(texts))

	for i, text := range texts {
		req := Request{
			Text:      text,
			Allergies: allergies,
			RequestID: fmt.Sprintf("%s-%d", requestID, i),
		}
		pending[i] = e.submit(ctx, req)
	}

	for i, ch := range pending {
		items[i] = BatchItem{MenuIndex: i}
		select {
		case r := <-ch:
			if r.err != nil {
				items[i].Error = newStageError("analysis", r.err)
				continue
			}
			items[i].Result = r.result
		case <-ctx.Done():
			items[i].Error = newStageError("analysis", ctx.Err())
		}
	}

	return items, nil
}

type resultOrErr struct {
	result *Result
	err    error
}

func (e *Engine) submit(ctx context.Context, req Request) <-chan resultOrErr {
	out := make(chan resultOrErr, 1)

	if e.queue != nil {
		ch, err := e.queue.Enqueue(ctx, func(ctx context.Context) (interface{}, error) {
			return e.Analyze(ctx, req)
		})
		if err == nil {
			go func() {
				r := <-ch
				res, _ := r.Value.(*Result)
				out <- resultOrErr{result: res, err: r.Error}
			}()
			return out
		}
		if !errors.Is(err, common.ErrQueueFull) {
			out <- resultOrErr{err: err}
			return out
		}
		common.LogDebug("隊列已滿，改為直接分析", zap.String("request_id", req.RequestID))
	}

	res, err := e.Analyze(ctx, req)
	out <- resultOrErr{result: res, err: err}
	return out
}
