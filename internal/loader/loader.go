// 包 loader：读取基础 GeoJSON 与变化数据集并完成合并，作为核心的唯一数据入口
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"votemap-api/internal/harmonize"
	"votemap-api/internal/logger"
	"votemap-api/internal/series"

	"github.com/paulmach/orb/geojson"
)

// 文档注释：原始字段名映射
// 背景：上游数据集字段命名随数据源变化；集中在此处声明，核心只处理类型化字段。
type Schema struct {
	JoinKey      string
	Name         string
	Year         string
	RatioA       string
	RatioB       string
	ChangeRatioA string
	ChangeRatioB string
}

var DefaultSchema = Schema{
	JoinKey:      "adm_cd",
	Name:         "adm_nm",
	Year:         "year",
	RatioA:       series.FieldRatioA,
	RatioB:       series.FieldRatioB,
	ChangeRatioA: series.FieldChangeRatioA,
	ChangeRatioB: series.FieldChangeRatioB,
}

// DecodeBase：解析基础 FeatureCollection；缺少连接键或年份的要素跳过并记日志，几何原样透传
func DecodeBase(r io.Reader, sc Schema) ([]harmonize.Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("decode base geojson: %w", err)
	}
	out := make([]harmonize.Record, 0, len(fc.Features))
	skipped := 0
	for i, f := range fc.Features {
		p := map[string]any(f.Properties)
		key, ok := harmonize.NormalizeKey(p[sc.JoinKey])
		if !ok {
			skipped++
			logger.L().Debug("loader_skip_feature", "idx", i, "reason", "join_key")
			continue
		}
		year, ok := yearOf(p[sc.Year])
		if !ok {
			skipped++
			logger.L().Debug("loader_skip_feature", "idx", i, "key", key, "reason", "year")
			continue
		}
		name, _ := p[sc.Name].(string)
		attrs := make(map[string]any, len(p))
		for k, v := range p {
			attrs[k] = v
		}
		out = append(out, harmonize.Record{
			JoinKey:  key,
			RawName:  name,
			Year:     year,
			RatioA:   harmonize.MeasureOf(p[sc.RatioA]),
			RatioB:   harmonize.MeasureOf(p[sc.RatioB]),
			Attrs:    attrs,
			Geometry: f.Geometry,
		})
	}
	if skipped > 0 {
		logger.L().Warn("loader_base_skipped", "count", skipped, "kept", len(out))
	}
	return out, nil
}

// DecodeChanges：解析变化数据集（JSON 对象数组）
func DecodeChanges(r io.Reader, sc Schema) ([]harmonize.Change, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode change json: %w", err)
	}
	out := make([]harmonize.Change, 0, len(raw))
	skipped := 0
	for _, m := range raw {
		key, ok := harmonize.NormalizeKey(m[sc.JoinKey])
		if !ok {
			skipped++
			continue
		}
		out = append(out, harmonize.Change{
			JoinKey:      key,
			ChangeRatioA: harmonize.MeasureOf(m[sc.ChangeRatioA]),
			ChangeRatioB: harmonize.MeasureOf(m[sc.ChangeRatioB]),
			Attrs:        m,
		})
	}
	if skipped > 0 {
		logger.L().Warn("loader_change_skipped", "count", skipped, "kept", len(out))
	}
	return out, nil
}

func yearOf(v any) (int, bool) {
	m := harmonize.MeasureOf(v)
	if !m.Present || m.Value != math.Trunc(m.Value) {
		return 0, false
	}
	return int(m.Value), true
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Open：本地路径或 http(s) URL
func Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if src == "" {
		return nil, errors.New("loader: empty source")
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("loader: fetch %s: status %d", src, resp.StatusCode)
		}
		return resp.Body, nil
	}
	return os.Open(src)
}

// 文档注释：加载并合并
// 背景：两个数据源都成功交付后才调用核心；任一失败直接返回错误，调用方保持空视图而不是喂入残缺输入。
func Load(ctx context.Context, baseSrc, changeSrc string, sc Schema) (*harmonize.Index, harmonize.Stats, error) {
	var st harmonize.Stats
	br, err := Open(ctx, baseSrc)
	if err != nil {
		return nil, st, fmt.Errorf("open base: %w", err)
	}
	base, err := DecodeBase(br, sc)
	br.Close()
	if err != nil {
		return nil, st, err
	}
	cr, err := Open(ctx, changeSrc)
	if err != nil {
		return nil, st, fmt.Errorf("open change: %w", err)
	}
	changes, err := DecodeChanges(cr, sc)
	cr.Close()
	if err != nil {
		return nil, st, err
	}
	recs, st := harmonize.Reconcile(base, changes)
	logger.L().Info("dataset_reconciled", "base", st.Base, "matched", st.Matched, "unmatched", st.Unmatched, "duplicates", st.DuplicateChanges)
	if st.DuplicateChanges > 0 {
		logger.L().Warn("reconcile_duplicates", "count", st.DuplicateChanges)
	}
	return harmonize.NewIndex(recs), st, nil
}
