package deck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dp "avdeck/internal/dataprocessing"
)

func constStep(id string, sources, inputs []string) Step {
	return NewStep(id, "step "+id, sources, inputs, func(context.Context, *BuildState) (*dp.Table, error) {
		return rawTable(id, []string{"x"}, []string{id}), nil
	})
}

func TestRegistry_RegisterInOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(constStep("a", []string{"src1"}, nil)))
	require.NoError(t, r.Register(constStep("b", []string{"src2", "src1"}, []string{"a"})))
	require.NoError(t, r.Register(constStep("c", nil, []string{"a", "b"})))

	assert.Equal(t, 3, r.Count())
	assert.Equal(t, []string{"a", "b", "c"}, r.ListIDs())
	assert.Equal(t, []string{"src1", "src2"}, r.SourceIDs())
	assert.True(t, r.Has("b"))

	got, err := r.Get("c")
	require.NoError(t, err)
	assert.Equal(t, "step c", got.Name())

	_, err = r.Get("zzz")
	assert.Error(t, err)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(constStep("", nil, nil)))

	require.NoError(t, r.Register(constStep("a", nil, nil)))
	assert.Error(t, r.Register(constStep("a", nil, nil)))

	err := r.Register(constStep("b", nil, []string{"later"}))
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, ErrorTypeDependency, stepErr.Type)
	assert.Equal(t, "later", stepErr.Context["depends_on"])
	assert.False(t, r.Has("b"))
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry().MustRegister(constStep("a", nil, []string{"missing"}))
	})
}

func TestNewAviationDeck(t *testing.T) {
	r := NewAviationDeck()
	assert.Equal(t, []string{
		StepTraffic, StepAirportBoxplot, StepTopAirports, StepDailyFlights,
		StepDailyFlightsMarkers, StepANSPCosts, StepAirportMap, StepCountryTraffic,
	}, r.ListIDs())
	assert.Equal(t, []string{SourceTraffic, SourceANSPFinance, SourceANSPCountries, SourceAirportCoords}, r.SourceIDs())
}
