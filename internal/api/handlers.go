package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"votemap-api/internal/cache"
	"votemap-api/internal/classify"
	"votemap-api/internal/harmonize"
	"votemap-api/internal/highlight"
	"votemap-api/internal/logger"
	"votemap-api/internal/metrics"
	"votemap-api/internal/panel"
	"votemap-api/internal/render"
	"votemap-api/internal/series"
)

// 面板为空时的提示文案
const emptyPanelMessage = "행정동을 선택하세요"

type handlers struct {
	Deps
}

func (h *handlers) lookupSeries(w http.ResponseWriter, r *http.Request) (series.Series, bool) {
	s, err := h.Config.Catalog.Lookup(r.URL.Query().Get("series"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return series.Series{}, false
	}
	return s, true
}

type seriesResponse struct {
	Default string          `json:"default"`
	Series  []series.Series `json:"series"`
}

func (h *handlers) series(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, seriesResponse{Default: h.Config.Catalog.Default().Value, Series: h.Config.Catalog.All()})
}

type yearsResponse struct {
	Years   []int  `json:"years"`
	Latest  *int   `json:"latest"`
	Records int    `json:"records"`
	Tag     string `json:"tag"`
}

func (h *handlers) years(w http.ResponseWriter, r *http.Request) {
	ix, tag := h.Holder.Load()
	res := yearsResponse{Years: append([]int{}, ix.Years()...), Records: ix.Len(), Tag: tag}
	if n := len(res.Years); n > 0 {
		res.Latest = &res.Years[n-1]
	}
	writeJSON(w, http.StatusOK, res)
}

// 文档注释：着色图层
// 背景：同一数据集标签下 (序列, 年份) 的输出不变，序列化结果进入两级缓存；数据集为空时返回空集合。
// 约束：索引与标签取自同一次 Holder.Load，重载并发发生时旧快照只会写入旧标签的键。
func (h *handlers) layer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSeries(w, r)
	if !ok {
		return
	}
	ix, tag := h.Holder.Load()
	year, ok := yearParam(r, ix)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	ctx := r.Context()
	key := cache.LayerKey(tag, s.Value, year)
	if h.Cache != nil {
		if b, hit := h.Cache.Get(ctx, key); hit {
			writeGeoJSON(w, b)
			return
		}
	}
	fc, neutral := render.Layer(ix.Snapshot(year), s, h.Config.Ladder)
	b, err := json.Marshal(fc)
	if err != nil {
		logger.L().Error("layer_marshal_error", "series", s.Value, "year", year, "err", err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	metrics.NeutralFeaturesTotal.Add(float64(neutral))
	logger.L().Debug("layer_rendered", "series", s.Value, "year", year, "features", len(fc.Features), "neutral", neutral)
	if h.Cache != nil {
		h.Cache.Set(ctx, key, b)
	}
	writeGeoJSON(w, b)
}

func writeGeoJSON(w http.ResponseWriter, b []byte) {
	w.Header().Set("content-type", "application/geo+json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write(b)
}

type highlightResponse struct {
	Hover      *string             `json:"hover"`
	HoverGroup *string             `json:"hover_group"`
	Selected   *string             `json:"selected"`
	Outlines   []highlight.Outline `json:"outlines"`
}

func targetPtr(t highlight.Target) *string {
	if k, ok := t.Value(); ok {
		return &k
	}
	return nil
}

// 文档注释：描边解析
// 背景：渲染端持有选择状态，每次变化把 hover/selected 传入；未携带的参数表示“无”，与空编码区分。
// 约束：hover 的上级分组优先取数据集中该要素的分组编码，找不到时按编码截断推导。
func (h *handlers) highlight(w http.ResponseWriter, r *http.Request) {
	ix := h.Holder.Current()
	year, ok := yearParam(r, ix)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	q := r.URL.Query()
	var st highlight.State
	if q.Has("hover") {
		hover, _ := harmonize.NormalizeKey(q.Get("hover"))
		group := harmonize.ParentGroup(hover)
		if rec, found := ix.Find(hover, year); found {
			group = rec.ParentGroupKey
		}
		st = st.OnHover(hover, group)
	}
	if q.Has("selected") {
		sel, _ := harmonize.NormalizeKey(q.Get("selected"))
		st = st.OnClick(sel)
	}
	writeJSON(w, http.StatusOK, highlightResponse{
		Hover:      targetPtr(st.Hover),
		HoverGroup: targetPtr(st.HoverGroup),
		Selected:   targetPtr(st.Selected),
		Outlines:   render.Highlights(ix.Snapshot(year), st),
	})
}

type timelineResponse struct {
	JoinKey string             `json:"join_key"`
	Records []harmonize.Record `json:"records"`
}

func (h *handlers) timeline(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(r, "code")
	if !ok {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}
	writeJSON(w, http.StatusOK, timelineResponse{JoinKey: code, Records: h.Holder.Current().Timeline(code)})
}

type panelResponse struct {
	Chart   *panel.Chart `json:"chart"`
	Message string       `json:"message,omitempty"`
}

// panel：未选择或时间线不完整时返回空面板与提示文案
func (h *handlers) panel(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(r, "code")
	if !ok {
		writeJSON(w, http.StatusOK, panelResponse{Message: emptyPanelMessage})
		return
	}
	chart, err := panel.Build(h.Holder.Current().Timeline(code), h.Config.Ladder, h.Labels)
	if errors.Is(err, panel.ErrIncompleteTimeline) {
		logger.L().Debug("panel_incomplete", "code", code)
		writeJSON(w, http.StatusOK, panelResponse{Message: emptyPanelMessage})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, panelResponse{Chart: chart})
}

func (h *handlers) tooltip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSeries(w, r)
	if !ok {
		return
	}
	code, ok := codeParam(r, "code")
	if !ok {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}
	ix := h.Holder.Current()
	year, ok := yearParam(r, ix)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	rec, found := ix.Find(code, year)
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, render.NewTooltip(rec, s))
}

type legendResponse struct {
	Series  string                 `json:"series"`
	Neutral string                 `json:"neutral"`
	Entries []classify.LegendEntry `json:"entries"`
}

func (h *handlers) legend(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSeries(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, legendResponse{
		Series:  s.Value,
		Neutral: h.Config.Ladder.Neutral(),
		Entries: h.Config.Ladder.Legend(s.Multiplier),
	})
}

// reload：管理员触发立即重载；失败时保留旧数据集
func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t := r.Header.Get("x-admin-token")
	if h.Reload == nil || h.AdminToken == "" || t != h.AdminToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if err := h.Holder.Reload(r.Context(), h.Reload); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
