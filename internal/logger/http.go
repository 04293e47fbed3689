// 包 logger：http访问日志中间件，记录方法、路径、状态、耗时、字节数、远端地址与访客国家
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ctxKey struct{}

// WithCountry：由上游中间件写入访客国家代码，供访问日志读取
func WithCountry(ctx context.Context, iso string) context.Context {
	return context.WithValue(ctx, ctxKey{}, iso)
}

func CountryFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// statusWriter：包装 ResponseWriter 以捕获状态码与写出字节数
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// AccessMiddleware：生成访问日志中间件
// 约束：不读取请求体；国家代码依赖外层中间件注入，未注入时为空
func AccessMiddleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)
			l.Debug("http_access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", r.RemoteAddr,
				"country", CountryFrom(r.Context()),
			)
		})
	}
}
