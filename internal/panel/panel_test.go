package panel

import (
	"errors"
	"testing"

	"votemap-api/internal/classify"
	"votemap-api/internal/harmonize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeline() []harmonize.Record {
	recs, _ := harmonize.Reconcile([]harmonize.Record{
		{JoinKey: "1101053", RawName: "서울특별시 종로구 사직동", Year: 2016, RatioA: harmonize.Some(0.50442256399476038), RatioB: harmonize.Some(0.28575640678105296)},
		{JoinKey: "1101053", RawName: "서울특별시 종로구 사직동", Year: 2024, RatioA: harmonize.Some(0.52), RatioB: harmonize.None},
	}, nil)
	return recs
}

func TestBuild(t *testing.T) {
	l := classify.DefaultLadder()
	c, err := Build(timeline(), l, DefaultLabels)
	require.NoError(t, err)
	assert.Equal(t, "종로구 사직동", c.Title)
	require.Len(t, c.Bars, 2)

	a := c.Bars[0]
	assert.Equal(t, "민주당계열", a.Name)
	assert.Equal(t, l.ColorsA()[1], a.Color)
	require.NotNil(t, a.Values["2016"])
	assert.Equal(t, 50.44, *a.Values["2016"])
	assert.Equal(t, 52.0, *a.Values["2024"])

	b := c.Bars[1]
	assert.Equal(t, l.ColorsB()[1], b.Color)
	assert.Equal(t, 28.58, *b.Values["2016"])
	assert.Nil(t, b.Values["2024"])
}

func TestBuildIncomplete(t *testing.T) {
	_, err := Build(timeline()[:1], classify.DefaultLadder(), DefaultLabels)
	assert.True(t, errors.Is(err, ErrIncompleteTimeline))
	_, err = Build(nil, classify.DefaultLadder(), DefaultLabels)
	assert.True(t, errors.Is(err, ErrIncompleteTimeline))
}
