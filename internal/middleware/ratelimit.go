package middleware

import (
	"net/http"
	"sync"
	"time"

	"votemap-api/internal/metrics"
	"votemap-api/internal/utils"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：图层接口输出整张 GeoJSON，峰值时对入口限速，避免缓存未命中时反复序列化压垮进程。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int) *TokenBucket {
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Limit：超出速率时返回 429 并计数
func (tb *TokenBucket) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			metrics.RateLimitedTotal.Inc()
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// 文档注释：入口中间件组装
// 背景：先做国家识别（写入上下文供访问日志读取），再按 RATE_LIMIT_ENABLED / RATE_LIMIT_QPS 决定是否限流。
// 约束：geo 为空时跳过国家识别。
func Wrap(next http.Handler, geo *GeoTagger) http.Handler {
	h := next
	if geo != nil {
		h = geo.Wrap(h)
	}
	if utils.GetenvBool("RATE_LIMIT_ENABLED", false) {
		h = NewTokenBucket(utils.GetenvInt("RATE_LIMIT_QPS", 200)).Limit(h)
	}
	return h
}
