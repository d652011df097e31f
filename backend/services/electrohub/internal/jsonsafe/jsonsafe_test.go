package jsonsafe

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Gain float64 `json:"gain"`
}

type Embedded struct {
	Phase float64 `json:"phase"`
}

type outer struct {
	Embedded
	Cutoff  float64            `json:"cutoff_frequency"`
	Tau     float64            `json:"time_constant"`
	Opt     *float64           `json:"opt,omitempty"`
	Empty   []float64          `json:"empty,omitempty"`
	Series  []float64          `json:"series"`
	ByName  map[string]float64 `json:"by_name"`
	Nested  inner              `json:"nested"`
	At      time.Time          `json:"at"`
	Hidden  float64            `json:"-"`
	private float64
}

func TestMarshalKeepsFiniteOutputUnchanged(t *testing.T) {
	v := inner{Gain: 1.5}
	got, err := Marshal(v)
	require.NoError(t, err)
	want, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestMarshalNullsNonFiniteFloats(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	v := outer{
		Embedded: Embedded{Phase: math.NaN()},
		Cutoff:   math.Inf(1),
		Tau:      0,
		Series:   []float64{1, math.Inf(-1)},
		ByName:   map[string]float64{"a": math.NaN(), "b": 2},
		Nested:   inner{Gain: math.Inf(1)},
		At:       at,
		Hidden:   math.Inf(1),
		private:  math.Inf(1),
	}

	raw, err := Marshal(v)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Contains(t, out, "cutoff_frequency")
	assert.Nil(t, out["cutoff_frequency"])
	assert.Equal(t, 0.0, out["time_constant"])
	assert.Contains(t, out, "phase")
	assert.Nil(t, out["phase"])
	assert.NotContains(t, out, "opt")
	assert.NotContains(t, out, "empty")
	assert.NotContains(t, out, "Hidden")
	assert.NotContains(t, out, "private")
	assert.Equal(t, []interface{}{1.0, nil}, out["series"])
	assert.Equal(t, map[string]interface{}{"a": nil, "b": 2.0}, out["by_name"])
	assert.Equal(t, map[string]interface{}{"gain": nil}, out["nested"])
	assert.Equal(t, "2024-01-02T03:04:05Z", out["at"])
}

func TestMarshalNilAndPointers(t *testing.T) {
	inf := math.Inf(1)
	raw, err := Marshal(map[string]*float64{"x": &inf, "y": nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":null,"y":null}`, string(raw))

	raw, err = Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestMarshalReportsOtherErrors(t *testing.T) {
	_, err := Marshal(map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
}
