package render

import (
	"encoding/json"
	"testing"

	"votemap-api/internal/classify"
	"votemap-api/internal/harmonize"
	"votemap-api/internal/highlight"
	"votemap-api/internal/series"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot2024() []harmonize.Record {
	square := orb.Polygon{{{126.96, 37.57}, {126.97, 37.57}, {126.97, 37.58}, {126.96, 37.57}}}
	recs, _ := harmonize.Reconcile([]harmonize.Record{
		{JoinKey: "1101053", RawName: "서울특별시 종로구 사직동", Year: 2024, RatioA: harmonize.Some(0.504), RatioB: harmonize.Some(0.286),
			Attrs: map[string]any{"adm_cd": "1101053", "선거인수": 8202.0}, Geometry: square},
		{JoinKey: "1101054", RawName: "서울특별시 종로구 삼청동", Year: 2024, RatioA: harmonize.Some(0.3), RatioB: harmonize.Some(0.3)},
	}, []harmonize.Change{{JoinKey: "1101053", ChangeRatioA: harmonize.Some(0.19), ChangeRatioB: harmonize.Some(0.02)}})
	return recs
}

func TestLayer(t *testing.T) {
	l := classify.DefaultLadder()
	fc, neutral := Layer(snapshot2024(), series.Result, l)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, 1, neutral)

	f := fc.Features[0]
	assert.Equal(t, "종로구 사직동", f.Properties[PropName])
	assert.Equal(t, "11010", f.Properties[PropGroupCode])
	assert.Equal(t, 8202.0, f.Properties["선거인수"])
	// 0.504 > 0.286，倍率 2.5：0.504 >= 0.2*2.5 → 第 4 级
	assert.Equal(t, l.ColorsA()[4], f.Properties[PropFillColor])
	assert.Equal(t, classify.Neutral, fc.Features[1].Properties[PropFillColor])

	b, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"FeatureCollection"`)
	assert.Contains(t, string(b), `"GeometryCollection"`)
}

func TestLayerChangeSeries(t *testing.T) {
	l := classify.DefaultLadder()
	fc, neutral := Layer(snapshot2024(), series.Change, l)
	assert.Equal(t, l.ColorsA()[3], fc.Features[0].Properties[PropFillColor])
	assert.Equal(t, 1, neutral, "records without change data fall back to neutral")
}

func TestHighlights(t *testing.T) {
	st := highlight.State{}.OnHover("1101054", "11010")
	out := Highlights(snapshot2024(), st)
	require.Len(t, out, 2)
	assert.Equal(t, highlight.TierGroup, out[0].Tier)
	assert.Equal(t, highlight.TierHoverExact, out[1].Tier)
}

func TestTooltip(t *testing.T) {
	recs := snapshot2024()
	tip := NewTooltip(recs[0], series.Result)
	require.NotNil(t, tip.Value)
	assert.Equal(t, 0.504, *tip.Value)
	assert.Equal(t, "50.40%", tip.Label)
	assert.Equal(t, "11010", tip.GroupKey)

	tip = NewTooltip(recs[1], series.Change)
	assert.Nil(t, tip.Value)
	assert.Equal(t, "-", tip.Label)
}

func TestLayerNeutralCountIgnoresRampColours(t *testing.T) {
	l, err := classify.NewLadder([]float64{0, 0.5}, []string{"grey", "blue"}, []string{"grey", "red"}, "")
	require.NoError(t, err)
	fc, neutral := Layer(snapshot2024(), series.Result, l)
	require.Len(t, fc.Features, 2)
	// 第一条落入色阶第 0 级（颜色恰为 grey），第二条为平局
	assert.Equal(t, "grey", fc.Features[0].Properties[PropFillColor])
	assert.Equal(t, "grey", fc.Features[1].Properties[PropFillColor])
	assert.Equal(t, 1, neutral)
}
