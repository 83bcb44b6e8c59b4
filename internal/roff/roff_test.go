package roff

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryRoundTrip_Float(t *testing.T) {
	t.Parallel()
	want := &Parameter{
		Name:  "PORO",
		NCol:  2,
		NRow:  3,
		NLay:  2,
		Kind:  KindFloat,
		Width: 8,
		FVals: []float64{0.1, 0.2, UndefFloat, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.1, 1.2},
	}

	var buf bytes.Buffer
	n, err := Write(&buf, want, false)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	got, status, err := Read(&buf, "PORO")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.NCol, got.NCol)
	assert.Equal(t, want.NRow, got.NRow)
	assert.Equal(t, want.NLay, got.NLay)
	assert.Equal(t, KindFloat, got.Kind)
	assert.Equal(t, 8, got.Width)
	assert.Equal(t, want.FVals, got.FVals)
	assert.Nil(t, got.IVals)
	assert.Nil(t, got.Codes)
}

func TestBinaryRoundTrip_IntWithCodes(t *testing.T) {
	t.Parallel()
	want := &Parameter{
		Name:  "FACIES",
		NCol:  2,
		NRow:  2,
		NLay:  1,
		Kind:  KindInt,
		Width: 1,
		IVals: []int32{1, UndefInt, 2, 1},
		Codes: map[int32]string{1: "coarse sand", 2: "shale"},
	}

	var buf bytes.Buffer
	_, err := Write(&buf, want, false)
	require.NoError(t, err)

	got, status, err := Read(&buf, "FACIES")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)

	assert.Equal(t, KindInt, got.Kind)
	assert.Equal(t, 1, got.Width)
	assert.Equal(t, want.IVals, got.IVals)
	assert.Equal(t, want.Codes, got.Codes)
}

func TestASCIIRoundTrip_Float(t *testing.T) {
	t.Parallel()
	want := &Parameter{
		Name:  "PERMX",
		NCol:  2,
		NRow:  1,
		NLay:  2,
		Kind:  KindFloat,
		Width: 4,
		FVals: []float64{0.1, 123.456, UndefFloat, -7.25e-4},
	}

	var buf bytes.Buffer
	n, err := Write(&buf, want, true)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, status, err := Read(&buf, "PERMX")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)

	// The shortest decimal form parses back to the identical float64.
	assert.Equal(t, want.FVals, got.FVals)
	assert.Equal(t, 4, got.Width)
}

func TestASCIIRoundTrip_IntWithCodes(t *testing.T) {
	t.Parallel()
	want := &Parameter{
		Name:  "ZONE",
		NCol:  1,
		NRow:  2,
		NLay:  1,
		Kind:  KindInt,
		Width: 2,
		IVals: []int32{-3, 12000},
		Codes: map[int32]string{-3: "below contact", 12000: "upper shale"},
	}

	var buf bytes.Buffer
	_, err := Write(&buf, want, true)
	require.NoError(t, err)

	got, status, err := Read(&buf, "ZONE")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, want.IVals, got.IVals)
	assert.Equal(t, want.Codes, got.Codes)
	assert.Equal(t, 2, got.Width)
}

func TestRead_EmptyNameSelectsFirstParameter(t *testing.T) {
	t.Parallel()
	p := &Parameter{Name: "PORO", NCol: 1, NRow: 1, NLay: 1, Kind: KindFloat, Width: 8, FVals: []float64{0.25}}
	var buf bytes.Buffer
	_, err := Write(&buf, p, false)
	require.NoError(t, err)

	got, status, err := Read(&buf, "")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, "PORO", got.Name)
}

func TestRead_NameNotFound(t *testing.T) {
	t.Parallel()
	p := &Parameter{Name: "PORO", NCol: 1, NRow: 1, NLay: 1, Kind: KindFloat, Width: 8, FVals: []float64{0.25}}

	for _, ascii := range []bool{false, true} {
		var buf bytes.Buffer
		_, err := Write(&buf, p, ascii)
		require.NoError(t, err)

		got, status, err := Read(&buf, "PERMX")
		require.NoError(t, err)
		assert.Equal(t, StatusNameNotFound, status)
		assert.Nil(t, got)
	}
}

func TestRead_SkipsNonMatchingParameters(t *testing.T) {
	t.Parallel()

	// Two parameters in one stream; Write emits single-parameter files, so
	// build the stream by hand.
	var buf bytes.Buffer
	bw := &binWriter{w: &buf}
	bw.bytes(magicBinary)
	bw.uint32(byteOrderProbe)
	bw.cstring("dims")
	bw.int32(2)
	bw.int32(1)
	bw.int32(1)

	bw.cstring("parameter")
	bw.cstring("PORO")
	bw.cstring(string(KindFloat))
	bw.int32(8)
	bw.int32(0)
	bw.uint64(math.Float64bits(0.1))
	bw.uint64(math.Float64bits(0.2))

	bw.cstring("parameter")
	bw.cstring("FACIES")
	bw.cstring(string(KindInt))
	bw.int32(4)
	bw.int32(1)
	bw.int32(7)
	bw.cstring("seven")
	bw.int32(10)
	bw.int32(20)

	bw.cstring("eof")
	require.NoError(t, bw.err)

	got, status, err := Read(bytes.NewReader(buf.Bytes()), "FACIES")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, "FACIES", got.Name)
	assert.Equal(t, []int32{10, 20}, got.IVals)
	assert.Equal(t, map[int32]string{7: "seven"}, got.Codes)

	// The first parameter is still reachable by name.
	got, status, err = Read(bytes.NewReader(buf.Bytes()), "PORO")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, []float64{0.1, 0.2}, got.FVals)
}

func TestRead_BigEndianStream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	be := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	be64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
	cstr := func(s string) {
		buf.WriteString(s)
		buf.WriteByte(0)
	}

	buf.Write(magicBinary)
	be(byteOrderProbe)
	cstr("dims")
	be(1)
	be(2)
	be(1)
	cstr("parameter")
	cstr("PORO")
	cstr(string(KindFloat))
	be(8)
	be(0)
	be64(math.Float64bits(1.5))
	be64(math.Float64bits(-2.5))
	cstr("eof")

	got, status, err := Read(&buf, "PORO")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, []float64{1.5, -2.5}, got.FVals)
	assert.Equal(t, 2, got.NRow)
}

func TestRead_ASCIIToleratesBlankLines(t *testing.T) {
	t.Parallel()
	text := "roff-asc\n" +
		"dims 1 2 1\n" +
		"\n" +
		"parameter ZONE\n" +
		"kind int 4\n" +
		"codes 1\n" +
		"5 upper shale\n" +
		"values\n" +
		"5\n" +
		"\n" +
		"6\n" +
		"eof\n"

	got, status, err := Read(bytes.NewReader([]byte(text)), "ZONE")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, []int32{5, 6}, got.IVals)
	assert.Equal(t, map[int32]string{5: "upper shale"}, got.Codes)
}

func TestRead_BadMagic(t *testing.T) {
	t.Parallel()
	_, _, err := Read(bytes.NewReader([]byte("not-roff\x00garbage")), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestRead_TruncatedStream(t *testing.T) {
	t.Parallel()
	p := &Parameter{Name: "PORO", NCol: 2, NRow: 2, NLay: 2, Kind: KindFloat, Width: 8, FVals: make([]float64, 8)}
	var buf bytes.Buffer
	_, err := Write(&buf, p, false)
	require.NoError(t, err)

	cut := buf.Bytes()[:buf.Len()/2]
	_, _, err = Read(bytes.NewReader(cut), "PORO")
	require.Error(t, err)
}

func TestWrite_ValidationErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		param *Parameter
	}{
		{
			name:  "non-positive dimensions",
			param: &Parameter{Name: "X", NCol: 0, NRow: 1, NLay: 1, Kind: KindFloat, Width: 8},
		},
		{
			name:  "float count mismatch",
			param: &Parameter{Name: "X", NCol: 2, NRow: 1, NLay: 1, Kind: KindFloat, Width: 8, FVals: []float64{1}},
		},
		{
			name:  "invalid float width",
			param: &Parameter{Name: "X", NCol: 1, NRow: 1, NLay: 1, Kind: KindFloat, Width: 2, FVals: []float64{1}},
		},
		{
			name:  "int count mismatch",
			param: &Parameter{Name: "X", NCol: 2, NRow: 1, NLay: 1, Kind: KindInt, Width: 4, IVals: []int32{1, 2, 3}},
		},
		{
			name:  "invalid int width",
			param: &Parameter{Name: "X", NCol: 1, NRow: 1, NLay: 1, Kind: KindInt, Width: 8, IVals: []int32{1}},
		},
		{
			name:  "invalid kind",
			param: &Parameter{Name: "X", NCol: 1, NRow: 1, NLay: 1, Kind: Kind("bool"), Width: 4},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			_, err := Write(&buf, tc.param, false)
			require.Error(t, err)
			assert.Zero(t, buf.Len())
		})
	}
}
