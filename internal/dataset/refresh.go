package dataset

import (
	"context"
	"errors"
	"time"

	"votemap-api/internal/harmonize"
	"votemap-api/internal/logger"
	"votemap-api/internal/metrics"
)

// LoadFunc：一次完整加载（拉取 + 合并），失败时不得返回部分结果
type LoadFunc func(ctx context.Context) (*harmonize.Index, harmonize.Stats, error)

// ErrNilIndex：加载函数未报错却没有返回索引
var ErrNilIndex = errors.New("dataset: load returned no index")

// Reload：执行一次加载；成功才替换数据集，失败保留旧数据集继续服务
func (h *Holder) Reload(ctx context.Context, fn LoadFunc) error {
	ix, st, err := fn(ctx)
	if err == nil && ix == nil {
		err = ErrNilIndex
	}
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		logger.L().Error("dataset_load_error", "err", err, "version", h.Version())
		return err
	}
	v := h.Set(ix)
	metrics.DatasetLoadsTotal.WithLabelValues("ok").Inc()
	metrics.ReconcileMatched.Set(float64(st.Matched))
	metrics.ReconcileUnmatched.Set(float64(st.Unmatched))
	metrics.ReconcileDuplicates.Set(float64(st.DuplicateChanges))
	logger.L().Info("dataset_load_ok", "version", v, "records", ix.Len(), "years", ix.Years())
	return nil
}

// 文档注释：定时刷新
// 背景：上游文件可能被替换（例如重新发布结果）；按固定间隔重载，错误只记日志，调度继续。
// 约束：every<=0 时不启动；ctx 取消后退出。
func (h *Holder) StartRefresh(ctx context.Context, every time.Duration, fn LoadFunc) {
	if every <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				logger.L().Debug("dataset_refresh_tick")
				_ = h.Reload(ctx, fn)
			}
		}
	}()
}
