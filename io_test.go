package gridprop

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-data/gridprop/errors"
	"github.com/strata-data/gridprop/internal/eclbin"
	"github.com/strata-data/gridprop/internal/testutil"
)

func TestRoffRoundTrip_Binary(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "poro.roff")

	vals := testutil.Ramp(24, 0.01, 0.01)
	vals[5] = Undef
	p, err := New(3, 4, 2, Params{Name: "PORO", Values: vals})
	require.NoError(t, err)
	require.Equal(t, 23, p.NDefined())

	require.NoError(t, p.ToFile(path, ExportOptions{}))

	got, err := FromFile(path, ImportOptions{Name: "PORO"})
	require.NoError(t, err)

	ncol, nrow, nlay := got.Dimensions()
	assert.Equal(t, 3, ncol)
	assert.Equal(t, 4, nrow)
	assert.Equal(t, 2, nlay)
	assert.Equal(t, "PORO", got.Name())
	assert.Equal(t, path, got.FileSrc())
	assert.False(t, got.IsDiscrete())
	assert.Equal(t, Float64, got.DType())
	assert.Equal(t, 23, got.NDefined())

	want, err := p.DenseFloat64s()
	require.NoError(t, err)
	dense, err := got.DenseFloat64s()
	require.NoError(t, err)
	if diff := cmp.Diff(want, dense); diff != "" {
		t.Errorf("values mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestRoffRoundTrip_ASCIIDiscrete(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "facies.roffasc")

	codes := CodeTable{1: "coarse sand", 2: "shale", 3: "silt"}
	p, err := New(2, 2, 2, Params{Name: "FACIES", Discrete: true, Values: []int32{1, 2, UndefInt, 3, 1, 1, 2, 3}, Codes: codes})
	require.NoError(t, err)
	require.NoError(t, p.SetDType(UInt8))

	require.NoError(t, p.ToFile(path, ExportOptions{Format: FormatRoffASCII}))

	// Extension alone selects the ASCII decoder.
	got, err := FromFile(path, ImportOptions{})
	require.NoError(t, err)

	assert.True(t, got.IsDiscrete())
	assert.Equal(t, "FACIES", got.Name())
	assert.Equal(t, UInt8, got.DType())
	assert.Equal(t, 7, got.NDefined())
	if diff := cmp.Diff(codes, got.Codes()); diff != "" {
		t.Errorf("codes mismatch after round trip (-want +got):\n%s", diff)
	}

	want, err := p.DenseInt32s()
	require.NoError(t, err)
	dense, err := got.DenseInt32s()
	require.NoError(t, err)
	if diff := cmp.Diff(want, dense); diff != "" {
		t.Errorf("values mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestRoffRoundTrip_Float32Tag(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "perm.roff")

	p, err := New(2, 2, 1, Params{Name: "PERMX", Values: []float64{0.5, 1.25, 2.75, 3.5}})
	require.NoError(t, err)
	require.NoError(t, p.SetDType(Float32))

	require.NoError(t, p.ToFile(path, ExportOptions{}))
	got, err := FromFile(path, ImportOptions{})
	require.NoError(t, err)

	// The tag travels as metadata; the values stay at full precision.
	assert.Equal(t, Float32, got.DType())
	v, ok := got.At(0, 1, 0)
	require.True(t, ok)
	assert.Equal(t, 1.25, v)
}

func TestToFile_NameOverride(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.roff")

	p, err := New(2, 1, 1, Params{Name: "poro", Values: []float64{1, 2}})
	require.NoError(t, err)
	require.NoError(t, p.ToFile(path, ExportOptions{Name: "PORO_EXPORT"}))

	got, err := FromFile(path, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "PORO_EXPORT", got.Name())
}

func TestToFile_UnsupportedFormat(t *testing.T) {
	t.Parallel()
	p, err := New(1, 1, 1, DefaultParams())
	require.NoError(t, err)

	err = p.ToFile(filepath.Join(t.TempDir(), "case.init"), ExportOptions{Format: FormatInit})
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))

	err = p.ToFile(filepath.Join(t.TempDir(), "case.unrst"), ExportOptions{Format: FormatUnrst})
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
}

func TestFromFile_UnknownExtension(t *testing.T) {
	t.Parallel()
	_, err := FromFile(filepath.Join(t.TempDir(), "prop.bin"), ImportOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
}

func TestFromFile_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := FromFile(filepath.Join(t.TempDir(), "absent.roff"), ImportOptions{})
	require.Error(t, err)
}

func TestFromFile_KeywordNotFound(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "poro.roff")
	p, err := New(2, 1, 1, Params{Name: "PORO", Values: []float64{1, 2}})
	require.NoError(t, err)
	require.NoError(t, p.ToFile(path, ExportOptions{}))

	_, err = FromFile(path, ImportOptions{Name: "PERMX"})
	require.Error(t, err)
	assert.True(t, errors.IsKeywordNotFoundError(err))
	assert.Contains(t, err.Error(), "PERMX")
}

func TestFromFile_GeometryLinkAndRegister(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "poro.roff")
	p, err := New(3, 4, 2, Params{Name: "PORO", Values: testutil.Ramp(24, 0, 1)})
	require.NoError(t, err)
	require.NoError(t, p.ToFile(path, ExportOptions{}))

	t.Run("matching grid is linked and registered", func(t *testing.T) {
		t.Parallel()
		grid, err := NewUniformGrid(3, 4, 2, UniformGridParams{})
		require.NoError(t, err)

		got, err := FromFile(path, ImportOptions{Geometry: grid})
		require.NoError(t, err)
		assert.Same(t, grid, got.Geometry())

		reg, ok := grid.PropertyByName("PORO")
		require.True(t, ok)
		assert.Same(t, got, reg)
	})

	t.Run("mismatched grid is a shape error", func(t *testing.T) {
		t.Parallel()
		grid, err := NewUniformGrid(2, 2, 2, UniformGridParams{})
		require.NoError(t, err)

		_, err = FromFile(path, ImportOptions{Geometry: grid})
		require.Error(t, err)
		assert.True(t, errors.IsShapeError(err))
	})
}

// ---------------------------------------------------------------------------
// INIT import
// ---------------------------------------------------------------------------

func TestImportInit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "CASE.INIT")
	porv := testutil.Ramp(24, 0, 0.25)
	fipnum := testutil.IntConst(24, 3)
	fipnum[0] = 1
	writeInitFixture(t, path, 3, 4, 2, []eclbin.Array{
		{Name: "PORV", Type: eclbin.TypeReal, FVals: porv},
		{Name: "FIPNUM", Type: eclbin.TypeInte, IVals: fipnum},
	})

	grid, err := NewUniformGrid(3, 4, 2, UniformGridParams{})
	require.NoError(t, err)

	t.Run("real keyword imports as continuous", func(t *testing.T) {
		t.Parallel()
		p, err := FromFile(path, ImportOptions{Name: "PORV", Geometry: grid})
		require.NoError(t, err)

		assert.False(t, p.IsDiscrete())
		assert.Equal(t, "PORV", p.Name())
		dense, err := p.DenseFloat64s()
		require.NoError(t, err)
		if diff := cmp.Diff(porv, dense); diff != "" {
			t.Errorf("values mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("inte keyword imports as discrete with identity codes", func(t *testing.T) {
		t.Parallel()
		p, err := FromFile(path, ImportOptions{Name: "FIPNUM", Geometry: grid})
		require.NoError(t, err)

		assert.True(t, p.IsDiscrete())
		assert.Equal(t, CodeTable{1: "1", 3: "3"}, p.Codes())
		v, ok := p.At(0, 0, 0)
		require.True(t, ok)
		assert.Equal(t, 1.0, v)
	})

	t.Run("missing keyword", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(path, ImportOptions{Name: "PERMX", Geometry: grid})
		require.Error(t, err)
		assert.True(t, errors.IsKeywordNotFoundError(err))
	})

	t.Run("geometry is required", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(path, ImportOptions{Name: "PORV"})
		require.Error(t, err)
		assert.True(t, errors.IsPreconditionError(err))
	})

	t.Run("keyword name is required", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(path, ImportOptions{Geometry: grid})
		require.Error(t, err)
		assert.True(t, errors.IsPreconditionError(err))
	})

	t.Run("mismatched grid dimensions", func(t *testing.T) {
		t.Parallel()
		small, err := NewUniformGrid(2, 2, 2, UniformGridParams{})
		require.NoError(t, err)

		_, err = FromFile(path, ImportOptions{Name: "PORV", Geometry: small})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "do not match")
	})
}

func TestImportInit_UnsupportedType(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "CASE.INIT")

	// A lone CHAR keyword record; the reader bails before any data records.
	rec := make([]byte, 24)
	binary.BigEndian.PutUint32(rec[0:4], 16)
	copy(rec[4:12], "PORO    ")
	binary.BigEndian.PutUint32(rec[12:16], 24)
	copy(rec[16:20], eclbin.TypeChar)
	binary.BigEndian.PutUint32(rec[20:24], 16)
	require.NoError(t, os.WriteFile(path, rec, 0o644))

	grid, err := NewUniformGrid(3, 4, 2, UniformGridParams{})
	require.NoError(t, err)

	_, err = FromFile(path, ImportOptions{Name: "PORO", Geometry: grid})
	require.Error(t, err)
	assert.True(t, errors.IsImportFailedError(err))
	assert.Contains(t, err.Error(), "status 26")
}

// ---------------------------------------------------------------------------
// Restart import
// ---------------------------------------------------------------------------

func TestImportUnrst(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "CASE.UNRST")
	pressJan := testutil.Ramp(24, 100, 1)
	pressFeb := testutil.Ramp(24, 200, 1)
	swat := testutil.Ramp(24, 0, 0.025)
	writeRestartFixture(t, path, 3, 4, 2, []eclbin.Step{
		{Date: "20200101", Arrays: []eclbin.Array{
			{Name: "PRESSURE", Type: eclbin.TypeDobl, FVals: pressJan},
		}},
		{Date: "20200201", Arrays: []eclbin.Array{
			{Name: "PRESSURE", Type: eclbin.TypeDobl, FVals: pressFeb},
			{Name: "SWAT", Type: eclbin.TypeDobl, FVals: swat},
		}},
	})

	grid, err := NewUniformGrid(3, 4, 2, UniformGridParams{})
	require.NoError(t, err)

	t.Run("first equals the explicit earliest date", func(t *testing.T) {
		t.Parallel()
		byAlias, err := FromFile(path, ImportOptions{Name: "PRESSURE", Geometry: grid, Date: "first"})
		require.NoError(t, err)
		byDate, err := FromFile(path, ImportOptions{Name: "PRESSURE", Geometry: grid, Date: "20200101"})
		require.NoError(t, err)

		assert.Equal(t, "20200101", byAlias.Date())
		assert.Equal(t, "20200101", byDate.Date())
		a, err := byAlias.DenseFloat64s()
		require.NoError(t, err)
		b, err := byDate.DenseFloat64s()
		require.NoError(t, err)
		if diff := cmp.Diff(b, a); diff != "" {
			t.Errorf("first/explicit mismatch (-explicit +first):\n%s", diff)
		}
	})

	t.Run("last resolves to the latest step", func(t *testing.T) {
		t.Parallel()
		p, err := FromFile(path, ImportOptions{Name: "PRESSURE", Geometry: grid, Date: "last"})
		require.NoError(t, err)

		assert.Equal(t, "20200201", p.Date())
		v, ok := p.At(0, 0, 0)
		require.True(t, ok)
		assert.Equal(t, 200.0, v)
	})

	t.Run("literal date selects its step", func(t *testing.T) {
		t.Parallel()
		p, err := FromFile(path, ImportOptions{Name: "SWAT", Geometry: grid, Date: "20200201"})
		require.NoError(t, err)

		assert.Equal(t, "20200201", p.Date())
		dense, err := p.DenseFloat64s()
		require.NoError(t, err)
		if diff := cmp.Diff(swat, dense); diff != "" {
			t.Errorf("values mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("date not in the file", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(path, ImportOptions{Name: "PRESSURE", Geometry: grid, Date: "20300101"})
		require.Error(t, err)
		assert.True(t, errors.IsDateNotFoundError(err))
	})

	t.Run("keyword not in the file", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(path, ImportOptions{Name: "PERMX", Geometry: grid, Date: "first"})
		require.Error(t, err)
		assert.True(t, errors.IsKeywordNotFoundError(err))
	})

	t.Run("keyword exists but not at the date", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(path, ImportOptions{Name: "SWAT", Geometry: grid, Date: "20200101"})
		require.Error(t, err)
		assert.True(t, errors.IsKeywordFoundNoDateError(err))
	})

	t.Run("date is required", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(path, ImportOptions{Name: "PRESSURE", Geometry: grid})
		require.Error(t, err)
		assert.True(t, errors.IsPreconditionError(err))
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeInitFixture(t *testing.T, path string, ncol, nrow, nlay int, arrays []eclbin.Array) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, eclbin.WriteInit(f, ncol, nrow, nlay, arrays))
	require.NoError(t, f.Close())
}

func writeRestartFixture(t *testing.T, path string, ncol, nrow, nlay int, steps []eclbin.Step) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, eclbin.WriteRestart(f, ncol, nrow, nlay, steps))
	require.NoError(t, f.Close())
}
