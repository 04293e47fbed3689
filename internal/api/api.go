// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"votemap-api/internal/cache"
	"votemap-api/internal/dataset"
	"votemap-api/internal/harmonize"
	"votemap-api/internal/metrics"
	"votemap-api/internal/panel"
	"votemap-api/internal/series"
)

// 文档注释：路由依赖
// 约束：Holder 与 Config 必填；Cache 为 nil 时每次重新渲染；Reload 为 nil 或 AdminToken 为空时 /reload 恒返回 403。
type Deps struct {
	Holder     *dataset.Holder
	Config     series.Config
	Cache      *cache.LayerCache
	Labels     panel.Labels
	Reload     dataset.LoadFunc
	AdminToken string
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	h := &handlers{Deps: d}
	apiMux := http.NewServeMux()
	apiMux.Handle("/series", instrument("series", h.series))
	apiMux.Handle("/years", instrument("years", h.years))
	apiMux.Handle("/layer", instrument("layer", h.layer))
	apiMux.Handle("/highlight", instrument("highlight", h.highlight))
	apiMux.Handle("/timeline", instrument("timeline", h.timeline))
	apiMux.Handle("/panel", instrument("panel", h.panel))
	apiMux.Handle("/tooltip", instrument("tooltip", h.tooltip))
	apiMux.Handle("/legend", instrument("legend", h.legend))
	apiMux.Handle("/reload", instrument("reload", h.reload))
	return apiMux
}

// instrument：按路由计数与计时
func instrument(route string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		fn(w, r)
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// yearParam：缺省取最新年份；数据集为空时为 0（得到空快照）
func yearParam(r *http.Request, ix *harmonize.Index) (int, bool) {
	s := r.URL.Query().Get("year")
	if s == "" {
		ys := ix.Years()
		if len(ys) == 0 {
			return 0, true
		}
		return ys[len(ys)-1], true
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return y, true
}

// codeParam：行政动编码按与数据集相同的规则规范化；缺失或空白视为未提供
func codeParam(r *http.Request, name string) (string, bool) {
	k, _ := harmonize.NormalizeKey(r.URL.Query().Get(name))
	return k, k != ""
}
