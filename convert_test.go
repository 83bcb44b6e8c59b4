package gridprop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-data/gridprop/errors"
)

func TestConversionRoundTrip(t *testing.T) {
	t.Parallel()
	p, err := New(3, 2, 2, Params{Name: "zone", Values: []float64{
		1.7, Undef, 3.9, -2.3,
		0, Undef, 7.2, 8.8,
		9.1, 10.5, -11.6, 12,
	}})
	require.NoError(t, err)
	require.Equal(t, 10, p.NDefined())

	maskedBefore := make([]bool, 0, p.Len())
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				_, ok := p.At(i, j, k)
				maskedBefore = append(maskedBefore, !ok)
			}
		}
	}

	p.ContinuousToDiscrete()
	p.DiscreteToContinuous()

	ncol, nrow, nlay := p.Dimensions()
	assert.Equal(t, 3, ncol)
	assert.Equal(t, 2, nrow)
	assert.Equal(t, 2, nlay)
	assert.Equal(t, 10, p.NDefined())
	assert.False(t, p.IsDiscrete())

	idx := 0
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				_, ok := p.At(i, j, k)
				assert.Equal(t, maskedBefore[idx], !ok, "cell (%d, %d, %d)", i, j, k)
				idx++
			}
		}
	}

	// Values truncated toward zero on the way through discrete storage.
	v, _ := p.At(0, 0, 0)
	assert.Equal(t, 1.0, v)
	v, _ = p.At(0, 1, 1)
	assert.Equal(t, -2.0, v)
	v, _ = p.At(2, 1, 1)
	assert.Equal(t, 12.0, v)
}

func TestContinuousToDiscrete(t *testing.T) {
	t.Parallel()

	t.Run("builds an identity code table from defined values", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 2, 1, Params{Values: []float64{1.2, Undef, 2.9, 1.4}})
		require.NoError(t, err)

		p.ContinuousToDiscrete()
		assert.True(t, p.IsDiscrete())
		assert.Equal(t, Int32, p.DType())
		assert.Equal(t, CodeTable{1: "1", 2: "2"}, p.Codes())
	})

	t.Run("values outside int32 range become undefined", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 2, 1, Params{Values: []float64{1, 3e9, 2, 4}})
		require.NoError(t, err)
		require.Equal(t, 4, p.NDefined())

		p.ContinuousToDiscrete()
		assert.Equal(t, 3, p.NDefined())
		_, ok := p.At(0, 1, 0)
		assert.False(t, ok)
		assert.Equal(t, CodeTable{1: "1", 2: "2", 4: "4"}, p.Codes())
	})

	t.Run("already discrete is a no-op", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 1, 1, Params{Discrete: true, Values: []int32{3, 4}, Codes: CodeTable{3: "silt", 4: "marl"}})
		require.NoError(t, err)

		p.ContinuousToDiscrete()
		assert.True(t, p.IsDiscrete())
		v, _ := p.At(0, 0, 0)
		assert.Equal(t, 3.0, v)
		assert.Equal(t, CodeTable{3: "silt", 4: "marl"}, p.Codes())
	})
}

func TestDiscreteToContinuous(t *testing.T) {
	t.Parallel()

	t.Run("widens values and drops the code table", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 2, 1, Params{Discrete: true, Values: []int32{5, UndefInt, 6, 7}, Codes: CodeTable{5: "a", 6: "b", 7: "c"}})
		require.NoError(t, err)

		p.DiscreteToContinuous()
		assert.False(t, p.IsDiscrete())
		assert.Equal(t, Float64, p.DType())
		assert.Nil(t, p.Codes())
		assert.Equal(t, 3, p.NDefined())
		_, ok := p.At(0, 1, 0)
		assert.False(t, ok)
		v, ok := p.At(1, 1, 0)
		assert.True(t, ok)
		assert.Equal(t, 7.0, v)
	})

	t.Run("already continuous is a no-op", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 1, 1, Params{Values: []float64{1.5, 2.5}})
		require.NoError(t, err)

		p.DiscreteToContinuous()
		assert.False(t, p.IsDiscrete())
		v, _ := p.At(1, 0, 0)
		assert.Equal(t, 2.5, v)
	})
}

func TestSetValuesAuto(t *testing.T) {
	t.Parallel()

	t.Run("float assignment flips a discrete property", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 2, 1, Params{Discrete: true, Values: []int32{1, 2, 3, 4}})
		require.NoError(t, err)
		require.NoError(t, p.SetDType(UInt8))

		require.NoError(t, p.SetValuesAuto([]float64{0.5, 1.5, Undef, 3.5}))
		assert.False(t, p.IsDiscrete())
		assert.Equal(t, Float64, p.DType())
		assert.Nil(t, p.Codes())
		assert.Equal(t, 3, p.NDefined())
		v, ok := p.At(0, 1, 0)
		assert.True(t, ok)
		assert.Equal(t, 1.5, v)
	})

	t.Run("integer assignment flips a continuous property", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 2, 1, Params{Values: []float64{1, 2, 3, 4}})
		require.NoError(t, err)

		require.NoError(t, p.SetValuesAuto([]int32{5, 6, 6, 8}))
		assert.True(t, p.IsDiscrete())
		assert.Equal(t, Int32, p.DType())
		assert.Equal(t, CodeTable{5: "5", 6: "6", 8: "8"}, p.Codes())
	})

	t.Run("same-kind assignment keeps the kind", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 2, 1, Params{Values: []float64{1, 2, 3, 4}})
		require.NoError(t, err)

		require.NoError(t, p.SetValuesAuto([]float64{9, 8, 7, 6}))
		assert.False(t, p.IsDiscrete())
		v, _ := p.At(0, 0, 0)
		assert.Equal(t, 9.0, v)
	})

	t.Run("count mismatch fails before any state change", func(t *testing.T) {
		t.Parallel()
		codes := CodeTable{1: "sand", 2: "shale"}
		p, err := New(2, 2, 1, Params{Discrete: true, Values: []int32{1, 2, 1, 2}, Codes: codes})
		require.NoError(t, err)

		err = p.SetValuesAuto([]float64{1})
		require.Error(t, err)
		assert.True(t, errors.IsShapeError(err))
		assert.True(t, p.IsDiscrete())
		assert.Equal(t, codes, p.Codes())
		v, _ := p.At(0, 0, 0)
		assert.Equal(t, 1.0, v)
	})

	t.Run("float32 and int inputs are accepted", func(t *testing.T) {
		t.Parallel()
		p, err := New(2, 1, 1, DefaultParams())
		require.NoError(t, err)

		require.NoError(t, p.SetValuesAuto([]float32{1.5, 2.5}))
		v, _ := p.At(1, 0, 0)
		assert.Equal(t, 2.5, v)

		require.NoError(t, p.SetValuesAuto([]int{3, 4}))
		assert.True(t, p.IsDiscrete())
		v, _ = p.At(1, 0, 0)
		assert.Equal(t, 4.0, v)
	})

	t.Run("unsupported element type", func(t *testing.T) {
		t.Parallel()
		p, err := New(1, 1, 1, DefaultParams())
		require.NoError(t, err)

		err = p.SetValuesAuto([]string{"x"})
		require.Error(t, err)
		assert.True(t, errors.IsValueError(err))
	})
}
