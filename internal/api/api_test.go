package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"votemap-api/internal/cache"
	"votemap-api/internal/classify"
	"votemap-api/internal/dataset"
	"votemap-api/internal/harmonize"
	"votemap-api/internal/highlight"
	"votemap-api/internal/panel"
	"votemap-api/internal/series"

	"github.com/alicebob/miniredis/v2"
	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureIndex() *harmonize.Index {
	sq := orb.Polygon{{{126.96, 37.57}, {126.97, 37.57}, {126.97, 37.58}, {126.96, 37.57}}}
	base := []harmonize.Record{
		{JoinKey: "1101053", RawName: "서울특별시 종로구 사직동", Year: 2016, RatioA: harmonize.Some(0.41), RatioB: harmonize.Some(0.33), Geometry: sq},
		{JoinKey: "1101053", RawName: "서울특별시 종로구 사직동", Year: 2024, RatioA: harmonize.Some(0.504), RatioB: harmonize.Some(0.286), Geometry: sq},
		{JoinKey: "1101054", RawName: "서울특별시 종로구 삼청동", Year: 2024, RatioA: harmonize.Some(0.3), RatioB: harmonize.Some(0.3), Geometry: sq},
		{JoinKey: "1102052", RawName: "서울특별시 중구 소공동", Year: 2024, RatioA: harmonize.Some(0.2), RatioB: harmonize.Some(0.45)},
	}
	recs, _ := harmonize.Reconcile(base, []harmonize.Change{
		{JoinKey: "1101053", ChangeRatioA: harmonize.Some(0.02), ChangeRatioB: harmonize.Some(-0.01)},
	})
	return harmonize.NewIndex(recs)
}

func newServer(t *testing.T, lc *cache.LayerCache, reload dataset.LoadFunc) (*httptest.Server, *dataset.Holder) {
	t.Helper()
	h := &dataset.Holder{}
	h.Set(fixtureIndex())
	srv := httptest.NewServer(BuildRoutes(Deps{
		Holder:     h,
		Config:     series.Defaults(),
		Cache:      lc,
		Labels:     panel.DefaultLabels,
		Reload:     reload,
		AdminToken: "secret",
	}))
	t.Cleanup(srv.Close)
	return srv, h
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestSeriesAndYears(t *testing.T) {
	srv, _ := newServer(t, nil, nil)

	var sr seriesResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/series", &sr))
	assert.Equal(t, "result", sr.Default)
	assert.Len(t, sr.Series, 2)

	var yr yearsResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/years", &yr))
	assert.Equal(t, []int{2016, 2024}, yr.Years)
	require.NotNil(t, yr.Latest)
	assert.Equal(t, 2024, *yr.Latest)
	assert.Equal(t, 4, yr.Records)
}

type layerBody struct {
	Type     string `json:"type"`
	Features []struct {
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

func TestLayer(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	lc := cache.NewLayerCache(rc, cache.NewLRU(16, time.Minute), time.Minute)
	srv, h := newServer(t, lc, nil)

	var body layerBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/layer?year=2024&series=result", &body))
	assert.Equal(t, "FeatureCollection", body.Type)
	require.Len(t, body.Features, 3)
	l := classify.DefaultLadder()
	colors := map[string]any{}
	for _, f := range body.Features {
		colors[f.Properties["join_key"].(string)] = f.Properties["fill_color"]
	}
	assert.Equal(t, l.ColorsA()[4], colors["1101053"])
	assert.Equal(t, "grey", colors["1101054"])
	assert.Equal(t, l.ColorsB()[3], colors["1102052"])

	assert.True(t, mr.Exists(cache.LayerKey(h.Tag(), "result", 2024)))

	var again layerBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/layer?year=2024&series=result", &again))
	assert.Equal(t, body, again)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/layer?series=nope", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/layer?year=abc", nil))

	var empty layerBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/layer?year=1999", &empty))
	assert.Empty(t, empty.Features)
}

func TestLayerEmptyHolder(t *testing.T) {
	srv := httptest.NewServer(BuildRoutes(Deps{Holder: &dataset.Holder{}, Config: series.Defaults()}))
	defer srv.Close()
	var body layerBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/layer", &body))
	assert.Equal(t, "FeatureCollection", body.Type)
	assert.Empty(t, body.Features)
}

type highlightBody struct {
	Hover      *string `json:"hover"`
	HoverGroup *string `json:"hover_group"`
	Selected   *string `json:"selected"`
	Outlines   []struct {
		JoinKey string  `json:"join_key"`
		Tier    string  `json:"tier"`
		Opacity float64 `json:"opacity"`
		Width   float64 `json:"width"`
	} `json:"outlines"`
}

func (b highlightBody) tiers() map[string]string {
	out := map[string]string{}
	for _, o := range b.Outlines {
		out[o.JoinKey] = o.Tier
	}
	return out
}

func TestHighlight(t *testing.T) {
	srv, _ := newServer(t, nil, nil)

	var res highlightBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/highlight?year=2024&hover=1101054&selected=1102052", &res))
	require.NotNil(t, res.HoverGroup)
	assert.Equal(t, "11010", *res.HoverGroup)
	assert.Equal(t, map[string]string{
		"1101053": highlight.TierGroup.String(),
		"1101054": highlight.TierHoverExact.String(),
		"1102052": highlight.TierSelectedExact.String(),
	}, res.tiers())

	res = highlightBody{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/highlight?year=2024", &res))
	assert.Nil(t, res.Hover)
	assert.Nil(t, res.Selected)
	assert.Empty(t, res.Outlines)

	// 悬停与选中为同一要素：以悬停为准
	res = highlightBody{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/highlight?year=2024&hover=1101053&selected=1101053", &res))
	require.NotNil(t, res.Selected)
	assert.Equal(t, highlight.TierHoverExact.String(), res.tiers()["1101053"])
	for _, o := range res.Outlines {
		if o.JoinKey == "1101053" {
			assert.Equal(t, highlight.WeightHover.Width, o.Width)
			assert.Equal(t, highlight.WeightHover.Opacity, o.Opacity)
		}
	}
}

func TestTimelinePanelTooltip(t *testing.T) {
	srv, _ := newServer(t, nil, nil)

	var tl struct {
		Records []map[string]any `json:"records"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/timeline?code=1101053", &tl))
	require.Len(t, tl.Records, 2)
	assert.Equal(t, float64(2016), tl.Records[0]["year"])
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/timeline", nil))

	var pr panelResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/panel?code=1101053", &pr))
	require.NotNil(t, pr.Chart)
	assert.Equal(t, "종로구 사직동", pr.Chart.Title)

	pr = panelResponse{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/panel?code=1101054", &pr))
	assert.Nil(t, pr.Chart)
	assert.Equal(t, emptyPanelMessage, pr.Message)

	var tip struct {
		Label string `json:"label"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/tooltip?code=1101053&year=2024", &tip))
	assert.Equal(t, "50.40%", tip.Label)
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/tooltip?code=1101053&year=2024&series=change", &tip))
	assert.Equal(t, "2.00%", tip.Label)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/tooltip?code=9999999&year=2024", nil))
}

func TestLegend(t *testing.T) {
	srv, _ := newServer(t, nil, nil)
	var lr legendResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/legend?series=result", &lr))
	require.Len(t, lr.Entries, 5)
	assert.Equal(t, "12%", lr.Entries[0].Label)
	assert.Equal(t, "grey", lr.Neutral)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/legend?series=change", &lr))
	assert.Equal(t, "5%", lr.Entries[0].Label)
}

func TestReload(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context) (*harmonize.Index, harmonize.Stats, error) {
		calls++
		if calls > 1 {
			return nil, harmonize.Stats{}, errors.New("upstream down")
		}
		return harmonize.NewIndex(nil), harmonize.Stats{}, nil
	}
	srv, h := newServer(t, nil, fn)

	post := func(token string) int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/reload", nil)
		if token != "" {
			req.Header.Set("x-admin-token", token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusForbidden, post(""))
	assert.Equal(t, http.StatusForbidden, post("wrong"))
	assert.Equal(t, http.StatusNoContent, post("secret"))
	assert.Equal(t, uint64(2), h.Version())
	assert.Equal(t, http.StatusBadGateway, post("secret"))
	assert.Equal(t, uint64(2), h.Version())
	assert.Equal(t, http.StatusMethodNotAllowed, getJSON(t, srv.URL+"/reload", nil))
}

func TestLayerAfterReloadIsNotStale(t *testing.T) {
	lc := cache.NewLayerCache(nil, cache.NewLRU(16, time.Minute), time.Minute)
	srv, h := newServer(t, lc, nil)

	var before layerBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/layer?year=2024", &before))
	require.Len(t, before.Features, 3)
	_, oldTag := h.Load()
	_, hit := lc.Get(context.Background(), cache.LayerKey(oldTag, "result", 2024))
	assert.True(t, hit)

	h.Set(harmonize.NewIndex(fixtureIndex().Snapshot(2016)))
	var after layerBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/layer?year=2016", &after))
	assert.Len(t, after.Features, 1)
	var gone layerBody
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/layer?year=2024", &gone))
	assert.Empty(t, gone.Features, "previous dataset's layer is not served under the new tag")
}
