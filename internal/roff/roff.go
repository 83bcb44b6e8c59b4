// Package roff implements a self-describing single-property grid codec
// with binary and ASCII encodings sharing one logical layout:
//
//	magic ("roff-bin\x00" or "roff-asc\n")
//	byte-order probe int32 0x01020304 (binary only)
//	dims tag: ncol nrow nlay
//	zero or more parameter sections:
//	    name, kind (float or int) with declared width in bytes,
//	    optional codes block, ncol*nrow*nlay values
//	eof tag
//
// Data values are written at canonical width (float64 or int32) regardless
// of the declared width, which travels as metadata only. Masked cells are
// encoded as the kind's undef sentinel (1e33 for float, 2000000000 for int).
package roff

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Import status codes. Zero is success; the dispatcher translates the rest.
const (
	StatusOK           = 0
	StatusNameNotFound = 25
)

// Kind discriminates parameter element kinds on the wire.
type Kind string

const (
	KindFloat Kind = "float"
	KindInt   Kind = "int"
)

// Undef sentinels used on the wire for masked cells.
const (
	UndefFloat       = 1e33
	UndefInt   int32 = 2000000000
)

var (
	magicBinary = []byte("roff-bin\x00")
	magicASCII  = []byte("roff-asc\n")
)

const byteOrderProbe uint32 = 0x01020304

// Parameter is one named grid array as carried by the codec. Exactly one of
// FVals and IVals is set, matching Kind. Width is the declared element
// width in bytes (metadata, not the encoded width).
type Parameter struct {
	Name             string
	NCol, NRow, NLay int
	Kind             Kind
	Width            int
	FVals            []float64
	IVals            []int32
	Codes            map[int32]string
}

func (p *Parameter) size() int { return p.NCol * p.NRow * p.NLay }

func (p *Parameter) validate() error {
	if p.NCol <= 0 || p.NRow <= 0 || p.NLay <= 0 {
		return fmt.Errorf("roff: dimensions must be positive, got (%d, %d, %d)", p.NCol, p.NRow, p.NLay)
	}
	switch p.Kind {
	case KindFloat:
		if len(p.FVals) != p.size() {
			return fmt.Errorf("roff: parameter %q has %d values, want %d", p.Name, len(p.FVals), p.size())
		}
		if p.Width != 4 && p.Width != 8 {
			return fmt.Errorf("roff: invalid float width %d, want 4 or 8", p.Width)
		}
	case KindInt:
		if len(p.IVals) != p.size() {
			return fmt.Errorf("roff: parameter %q has %d values, want %d", p.Name, len(p.IVals), p.size())
		}
		if p.Width != 1 && p.Width != 2 && p.Width != 4 {
			return fmt.Errorf("roff: invalid int width %d, want 1, 2 or 4", p.Width)
		}
	default:
		return fmt.Errorf("roff: invalid kind %q", string(p.Kind))
	}
	return nil
}

// Read scans the stream for the parameter with the given name ("" selects
// the first one). It returns StatusNameNotFound when the stream is well
// formed but carries no such parameter; structural problems are errors.
func Read(r io.Reader, name string) (*Parameter, int, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(magicBinary))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, 0, fmt.Errorf("roff: read magic: %w", err)
	}
	switch {
	case bytes.Equal(magic, magicBinary):
		return readBinary(br, name)
	case bytes.Equal(magic, magicASCII):
		return readASCII(br, name)
	default:
		return nil, 0, fmt.Errorf("roff: bad magic %q", magic)
	}
}

func readBinary(br *bufio.Reader, name string) (*Parameter, int, error) {
	var probe [4]byte
	if _, err := io.ReadFull(br, probe[:]); err != nil {
		return nil, 0, fmt.Errorf("roff: read byte-order probe: %w", err)
	}
	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(probe[:]) == byteOrderProbe:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(probe[:]) == byteOrderProbe:
		order = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("roff: unrecognized byte-order probe % x", probe)
	}

	tag, err := readCString(br)
	if err != nil {
		return nil, 0, fmt.Errorf("roff: read dims tag: %w", err)
	}
	if tag != "dims" {
		return nil, 0, fmt.Errorf("roff: expected dims tag, got %q", tag)
	}
	ncol, err := readInt32(br, order)
	if err != nil {
		return nil, 0, fmt.Errorf("roff: read dims: %w", err)
	}
	nrow, err := readInt32(br, order)
	if err != nil {
		return nil, 0, fmt.Errorf("roff: read dims: %w", err)
	}
	nlay, err := readInt32(br, order)
	if err != nil {
		return nil, 0, fmt.Errorf("roff: read dims: %w", err)
	}
	if ncol <= 0 || nrow <= 0 || nlay <= 0 {
		return nil, 0, fmt.Errorf("roff: non-positive dimensions (%d, %d, %d)", ncol, nrow, nlay)
	}
	n := int(ncol) * int(nrow) * int(nlay)

	for {
		tag, err := readCString(br)
		if err != nil {
			return nil, 0, fmt.Errorf("roff: read section tag: %w", err)
		}
		switch tag {
		case "eof":
			return nil, StatusNameNotFound, nil
		case "parameter":
			p, err := readBinaryParameter(br, order, n)
			if err != nil {
				return nil, 0, err
			}
			if name == "" || p.Name == name {
				p.NCol, p.NRow, p.NLay = int(ncol), int(nrow), int(nlay)
				return p, StatusOK, nil
			}
		default:
			return nil, 0, fmt.Errorf("roff: unexpected tag %q", tag)
		}
	}
}

func readBinaryParameter(br *bufio.Reader, order binary.ByteOrder, n int) (*Parameter, error) {
	name, err := readCString(br)
	if err != nil {
		return nil, fmt.Errorf("roff: read parameter name: %w", err)
	}
	kindStr, err := readCString(br)
	if err != nil {
		return nil, fmt.Errorf("roff: parameter %q: read kind: %w", name, err)
	}
	kind := Kind(kindStr)
	if kind != KindFloat && kind != KindInt {
		return nil, fmt.Errorf("roff: parameter %q: invalid kind %q", name, kindStr)
	}
	width, err := readInt32(br, order)
	if err != nil {
		return nil, fmt.Errorf("roff: parameter %q: read width: %w", name, err)
	}
	ncodes, err := readInt32(br, order)
	if err != nil {
		return nil, fmt.Errorf("roff: parameter %q: read code count: %w", name, err)
	}
	var codes map[int32]string
	if ncodes > 0 {
		codes = make(map[int32]string, ncodes)
		for c := int32(0); c < ncodes; c++ {
			code, err := readInt32(br, order)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: read code: %w", name, err)
			}
			label, err := readCString(br)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: read code label: %w", name, err)
			}
			codes[code] = label
		}
	}

	p := &Parameter{Name: name, Kind: kind, Width: int(width), Codes: codes}
	switch kind {
	case KindFloat:
		buf := make([]byte, 8*n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("roff: parameter %q: read values: %w", name, err)
		}
		p.FVals = make([]float64, n)
		for i := range p.FVals {
			p.FVals[i] = math.Float64frombits(order.Uint64(buf[8*i:]))
		}
	case KindInt:
		buf := make([]byte, 4*n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("roff: parameter %q: read values: %w", name, err)
		}
		p.IVals = make([]int32, n)
		for i := range p.IVals {
			p.IVals[i] = int32(order.Uint32(buf[4*i:]))
		}
	}
	return p, nil
}

func readCString(br *bufio.Reader) (string, error) {
	s, err := br.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func readInt32(br *bufio.Reader, order binary.ByteOrder) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return int32(order.Uint32(buf[:])), nil
}

func readASCII(br *bufio.Reader, name string) (*Parameter, int, error) {
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fields, err := nextFields(sc)
	if err != nil {
		return nil, 0, fmt.Errorf("roff: read dims: %w", err)
	}
	if len(fields) != 4 || fields[0] != "dims" {
		return nil, 0, fmt.Errorf("roff: expected dims line, got %q", strings.Join(fields, " "))
	}
	dims := make([]int, 3)
	for i, f := range fields[1:] {
		dims[i], err = strconv.Atoi(f)
		if err != nil || dims[i] <= 0 {
			return nil, 0, fmt.Errorf("roff: bad dimension %q", f)
		}
	}
	n := dims[0] * dims[1] * dims[2]

	for {
		fields, err := nextFields(sc)
		if err != nil {
			return nil, 0, fmt.Errorf("roff: read section: %w", err)
		}
		switch fields[0] {
		case "eof":
			return nil, StatusNameNotFound, nil
		case "parameter":
			if len(fields) < 2 {
				return nil, 0, fmt.Errorf("roff: parameter line missing name")
			}
			p, err := readASCIIParameter(sc, strings.Join(fields[1:], " "), n)
			if err != nil {
				return nil, 0, err
			}
			if name == "" || p.Name == name {
				p.NCol, p.NRow, p.NLay = dims[0], dims[1], dims[2]
				return p, StatusOK, nil
			}
		default:
			return nil, 0, fmt.Errorf("roff: unexpected line %q", strings.Join(fields, " "))
		}
	}
}

func readASCIIParameter(sc *bufio.Scanner, name string, n int) (*Parameter, error) {
	fields, err := nextFields(sc)
	if err != nil {
		return nil, fmt.Errorf("roff: parameter %q: read kind: %w", name, err)
	}
	if len(fields) != 3 || fields[0] != "kind" {
		return nil, fmt.Errorf("roff: parameter %q: expected kind line, got %q", name, strings.Join(fields, " "))
	}
	kind := Kind(fields[1])
	if kind != KindFloat && kind != KindInt {
		return nil, fmt.Errorf("roff: parameter %q: invalid kind %q", name, fields[1])
	}
	width, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("roff: parameter %q: bad width %q", name, fields[2])
	}
	p := &Parameter{Name: name, Kind: kind, Width: width}

	fields, err = nextFields(sc)
	if err != nil {
		return nil, fmt.Errorf("roff: parameter %q: read codes: %w", name, err)
	}
	if fields[0] == "codes" {
		if len(fields) != 2 {
			return nil, fmt.Errorf("roff: parameter %q: bad codes line", name)
		}
		ncodes, err := strconv.Atoi(fields[1])
		if err != nil || ncodes < 0 {
			return nil, fmt.Errorf("roff: parameter %q: bad code count %q", name, fields[1])
		}
		p.Codes = make(map[int32]string, ncodes)
		for c := 0; c < ncodes; c++ {
			line, err := nextLine(sc)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: read code entry: %w", name, err)
			}
			parts := strings.SplitN(line, " ", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("roff: parameter %q: bad code entry %q", name, line)
			}
			code, err := strconv.ParseInt(parts[0], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: bad code %q", name, parts[0])
			}
			p.Codes[int32(code)] = parts[1]
		}
		fields, err = nextFields(sc)
		if err != nil {
			return nil, fmt.Errorf("roff: parameter %q: read values tag: %w", name, err)
		}
	}
	if fields[0] != "values" {
		return nil, fmt.Errorf("roff: parameter %q: expected values line, got %q", name, strings.Join(fields, " "))
	}

	switch p.Kind {
	case KindFloat:
		p.FVals = make([]float64, n)
		for i := 0; i < n; i++ {
			line, err := nextLine(sc)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: read value %d: %w", name, i, err)
			}
			p.FVals[i], err = strconv.ParseFloat(line, 64)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: bad value %q", name, line)
			}
		}
	case KindInt:
		p.IVals = make([]int32, n)
		for i := 0; i < n; i++ {
			line, err := nextLine(sc)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: read value %d: %w", name, i, err)
			}
			v, err := strconv.ParseInt(line, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("roff: parameter %q: bad value %q", name, line)
			}
			p.IVals[i] = int32(v)
		}
	}
	return p, nil
}

func nextLine(sc *bufio.Scanner) (string, error) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}

func nextFields(sc *bufio.Scanner) ([]string, error) {
	line, err := nextLine(sc)
	if err != nil {
		return nil, err
	}
	return strings.Fields(line), nil
}

// Write encodes a single parameter, binary by default or ASCII when
// requested, and returns the number of data values written.
func Write(w io.Writer, p *Parameter, ascii bool) (int, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	if ascii {
		return writeASCII(w, p)
	}
	return writeBinary(w, p)
}

func writeBinary(w io.Writer, p *Parameter) (int, error) {
	bw := &binWriter{w: w}
	bw.bytes(magicBinary)
	bw.uint32(byteOrderProbe)
	bw.cstring("dims")
	bw.int32(int32(p.NCol))
	bw.int32(int32(p.NRow))
	bw.int32(int32(p.NLay))

	bw.cstring("parameter")
	bw.cstring(p.Name)
	bw.cstring(string(p.Kind))
	bw.int32(int32(p.Width))
	bw.int32(int32(len(p.Codes)))
	for _, code := range sortedCodes(p.Codes) {
		bw.int32(code)
		bw.cstring(p.Codes[code])
	}
	switch p.Kind {
	case KindFloat:
		for _, v := range p.FVals {
			bw.uint64(math.Float64bits(v))
		}
	case KindInt:
		for _, v := range p.IVals {
			bw.int32(v)
		}
	}
	bw.cstring("eof")
	if bw.err != nil {
		return 0, fmt.Errorf("roff: write parameter %q: %w", p.Name, bw.err)
	}
	return p.size(), nil
}

func writeASCII(w io.Writer, p *Parameter) (int, error) {
	bw := bufio.NewWriter(w)
	bw.Write(magicASCII)
	fmt.Fprintf(bw, "dims %d %d %d\n", p.NCol, p.NRow, p.NLay)
	fmt.Fprintf(bw, "parameter %s\n", p.Name)
	fmt.Fprintf(bw, "kind %s %d\n", p.Kind, p.Width)
	if len(p.Codes) > 0 {
		fmt.Fprintf(bw, "codes %d\n", len(p.Codes))
		for _, code := range sortedCodes(p.Codes) {
			fmt.Fprintf(bw, "%d %s\n", code, p.Codes[code])
		}
	}
	fmt.Fprintln(bw, "values")
	switch p.Kind {
	case KindFloat:
		for _, v := range p.FVals {
			fmt.Fprintln(bw, strconv.FormatFloat(v, 'g', -1, 64))
		}
	case KindInt:
		for _, v := range p.IVals {
			fmt.Fprintln(bw, strconv.FormatInt(int64(v), 10))
		}
	}
	fmt.Fprintln(bw, "eof")
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("roff: write parameter %q: %w", p.Name, err)
	}
	return p.size(), nil
}

func sortedCodes(codes map[int32]string) []int32 {
	out := make([]int32, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// binWriter accumulates the first write error; output is little-endian.
type binWriter struct {
	w   io.Writer
	err error
}

func (bw *binWriter) bytes(b []byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(b)
}

func (bw *binWriter) cstring(s string) {
	bw.bytes(append([]byte(s), 0))
}

func (bw *binWriter) uint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	bw.bytes(buf[:])
}

func (bw *binWriter) int32(v int32) {
	bw.uint32(uint32(v))
}

func (bw *binWriter) uint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	bw.bytes(buf[:])
}
