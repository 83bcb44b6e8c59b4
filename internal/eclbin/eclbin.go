// Package eclbin reads and writes Eclipse-style unformatted binary files
// for grid property import: INIT files (static arrays) and UNRST restart
// files (report steps keyed by date).
//
// The on-disk layout is Fortran unformatted records, big-endian: every
// record is framed by int32 byte-count guards. A keyword record carries an
// 8-char space-padded name, an int32 element count and a 4-char element
// type (INTE, REAL, DOBL, CHAR, LOGI); the data follow in records of at
// most 1000 elements each. INIT carries grid dimensions in INTEHEAD at
// indices 8, 9, 10; UNRST report steps open with SEQNUM and an INTEHEAD
// holding day/month/year at indices 64, 65, 66.
package eclbin

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Import status codes. Zero is success; the dispatcher translates the rest.
const (
	StatusOK                  = 0
	StatusDateNotFound        = 22
	StatusKeywordNotAtAnyDate = 23
	StatusKeywordNotAtDate    = 24
	StatusKeywordNotFound     = 25
	StatusUnsupportedType     = 26
)

// Element types as written in keyword records.
const (
	TypeInte = "INTE"
	TypeReal = "REAL"
	TypeDobl = "DOBL"
	TypeChar = "CHAR"
	TypeLogi = "LOGI"
)

const maxBlockElems = 1000

const inteheadLen = 95

func elemSize(typ string) int {
	switch typ {
	case TypeInte, TypeReal, TypeLogi:
		return 4
	case TypeChar, TypeDobl:
		return 8
	default:
		return 0
	}
}

// Array is one keyword array. Exactly one of IVals and FVals is set:
// IVals for INTE, FVals for REAL and DOBL (REAL is widened on read and
// narrowed on write).
type Array struct {
	Name  string
	Type  string
	IVals []int32
	FVals []float64
}

func (a *Array) count() int {
	if a.Type == TypeInte {
		return len(a.IVals)
	}
	return len(a.FVals)
}

// Step is one UNRST report step for WriteRestart.
type Step struct {
	Date   string // YYYYMMDD
	Arrays []Array
}

func readRecord(br *bufio.Reader) ([]byte, error) {
	head, err := readGuard(br)
	if err != nil {
		return nil, err
	}
	if head < 0 {
		return nil, fmt.Errorf("eclbin: negative record length %d", head)
	}
	payload := make([]byte, head)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, fmt.Errorf("eclbin: read record payload: %w", err)
	}
	tail, err := readGuard(br)
	if err != nil {
		return nil, fmt.Errorf("eclbin: read record tail guard: %w", err)
	}
	if tail != head {
		return nil, fmt.Errorf("eclbin: record guards disagree: %d != %d", head, tail)
	}
	return payload, nil
}

func readGuard(br *bufio.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// readKeyword reads the next keyword header. A clean EOF at a record
// boundary is returned as io.EOF so scans can stop.
func readKeyword(br *bufio.Reader) (name string, count int, typ string, err error) {
	rec, err := readRecord(br)
	if err != nil {
		if err == io.EOF {
			return "", 0, "", io.EOF
		}
		return "", 0, "", err
	}
	if len(rec) != 16 {
		return "", 0, "", fmt.Errorf("eclbin: keyword record has %d bytes, want 16", len(rec))
	}
	name = trimKeyword(string(rec[:8]))
	count = int(int32(binary.BigEndian.Uint32(rec[8:12])))
	typ = string(rec[12:16])
	if count < 0 {
		return "", 0, "", fmt.Errorf("eclbin: keyword %q has negative count %d", name, count)
	}
	if elemSize(typ) == 0 {
		return "", 0, "", fmt.Errorf("eclbin: keyword %q has unknown element type %q", name, typ)
	}
	return name, count, typ, nil
}

func trimKeyword(s string) string {
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

// readElems decodes count data elements of numeric type into IVals or
// FVals. CHAR and LOGI payloads are not decoded; use skipElems.
func readElems(br *bufio.Reader, count int, typ string) ([]int32, []float64, error) {
	var ivals []int32
	var fvals []float64
	switch typ {
	case TypeInte:
		ivals = make([]int32, 0, count)
	case TypeReal, TypeDobl:
		fvals = make([]float64, 0, count)
	default:
		return nil, nil, fmt.Errorf("eclbin: cannot decode element type %q", typ)
	}
	size := elemSize(typ)
	remaining := count
	for remaining > 0 {
		rec, err := readRecord(br)
		if err != nil {
			return nil, nil, fmt.Errorf("eclbin: read data record: %w", err)
		}
		want := remaining
		if want > maxBlockElems {
			want = maxBlockElems
		}
		if len(rec) != want*size {
			return nil, nil, fmt.Errorf("eclbin: data record has %d bytes, want %d", len(rec), want*size)
		}
		for i := 0; i < want; i++ {
			switch typ {
			case TypeInte:
				ivals = append(ivals, int32(binary.BigEndian.Uint32(rec[i*4:])))
			case TypeReal:
				fvals = append(fvals, float64(math.Float32frombits(binary.BigEndian.Uint32(rec[i*4:]))))
			case TypeDobl:
				fvals = append(fvals, math.Float64frombits(binary.BigEndian.Uint64(rec[i*8:])))
			}
		}
		remaining -= want
	}
	return ivals, fvals, nil
}

func skipElems(br *bufio.Reader, count int, typ string) error {
	size := elemSize(typ)
	remaining := count
	for remaining > 0 {
		rec, err := readRecord(br)
		if err != nil {
			return fmt.Errorf("eclbin: skip data record: %w", err)
		}
		want := remaining
		if want > maxBlockElems {
			want = maxBlockElems
		}
		if len(rec) != want*size {
			return fmt.Errorf("eclbin: data record has %d bytes, want %d", len(rec), want*size)
		}
		remaining -= want
	}
	return nil
}

// ReadInit scans an INIT stream for the named keyword. The INTEHEAD
// dimensions must match the given grid dimensions, and the array length
// must equal ncol*nrow*nlay. Keywords with non-numeric element types
// return StatusUnsupportedType.
func ReadInit(r io.Reader, name string, ncol, nrow, nlay int) (*Array, int, error) {
	br := bufio.NewReader(r)
	n := ncol * nrow * nlay
	for {
		kw, count, typ, err := readKeyword(br)
		if err == io.EOF {
			return nil, StatusKeywordNotFound, nil
		}
		if err != nil {
			return nil, 0, err
		}
		if kw == "INTEHEAD" && typ == TypeInte {
			head, _, err := readElems(br, count, typ)
			if err != nil {
				return nil, 0, err
			}
			if err := checkHeaderDims(head, ncol, nrow, nlay); err != nil {
				return nil, 0, err
			}
			continue
		}
		if kw != name {
			if err := skipElems(br, count, typ); err != nil {
				return nil, 0, err
			}
			continue
		}
		switch typ {
		case TypeInte, TypeReal, TypeDobl:
			if count != n {
				return nil, 0, fmt.Errorf("eclbin: keyword %q has %d elements, want %d for grid (%d, %d, %d)",
					kw, count, n, ncol, nrow, nlay)
			}
			ivals, fvals, err := readElems(br, count, typ)
			if err != nil {
				return nil, 0, err
			}
			return &Array{Name: kw, Type: typ, IVals: ivals, FVals: fvals}, StatusOK, nil
		default:
			return nil, StatusUnsupportedType, nil
		}
	}
}

func checkHeaderDims(head []int32, ncol, nrow, nlay int) error {
	if len(head) < 11 {
		return fmt.Errorf("eclbin: INTEHEAD has %d elements, want at least 11", len(head))
	}
	if int(head[8]) != ncol || int(head[9]) != nrow || int(head[10]) != nlay {
		return fmt.Errorf("eclbin: file dimensions (%d, %d, %d) do not match grid (%d, %d, %d)",
			head[8], head[9], head[10], ncol, nrow, nlay)
	}
	return nil
}

// ReadRestart scans a UNRST stream for the named keyword at a date.
// date is a literal YYYYMMDD, or "first"/"last" resolved to the earliest or
// latest report step in the stream; the resolved date is returned. Report
// steps are assumed chronological in file order.
func ReadRestart(r io.Reader, name, date string, ncol, nrow, nlay int) (*Array, string, int, error) {
	br := bufio.NewReader(r)
	n := ncol * nrow * nlay

	var dates []string
	currentDate := ""
	keywordSeen := false
	unsupportedAtMatch := false
	var match *Array
	matchDate := ""

	for {
		kw, count, typ, err := readKeyword(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", 0, err
		}
		switch {
		case kw == "SEQNUM":
			if err := skipElems(br, count, typ); err != nil {
				return nil, "", 0, err
			}
		case kw == "INTEHEAD" && typ == TypeInte:
			head, _, err := readElems(br, count, typ)
			if err != nil {
				return nil, "", 0, err
			}
			if err := checkHeaderDims(head, ncol, nrow, nlay); err != nil {
				return nil, "", 0, err
			}
			if len(head) < 67 {
				return nil, "", 0, fmt.Errorf("eclbin: INTEHEAD has %d elements, want at least 67", len(head))
			}
			currentDate = fmt.Sprintf("%04d%02d%02d", head[66], head[65], head[64])
			dates = append(dates, currentDate)
		case kw == name:
			keywordSeen = true
			if currentDate == "" {
				return nil, "", 0, fmt.Errorf("eclbin: keyword %q before any report step header", kw)
			}
			wanted := date == "last" ||
				(date == "first" && currentDate == dates[0] && match == nil) ||
				currentDate == date
			if !wanted {
				if err := skipElems(br, count, typ); err != nil {
					return nil, "", 0, err
				}
				continue
			}
			switch typ {
			case TypeInte, TypeReal, TypeDobl:
				if count != n {
					return nil, "", 0, fmt.Errorf("eclbin: keyword %q has %d elements, want %d for grid (%d, %d, %d)",
						kw, count, n, ncol, nrow, nlay)
				}
				ivals, fvals, err := readElems(br, count, typ)
				if err != nil {
					return nil, "", 0, err
				}
				match = &Array{Name: kw, Type: typ, IVals: ivals, FVals: fvals}
				matchDate = currentDate
				unsupportedAtMatch = false
			default:
				if err := skipElems(br, count, typ); err != nil {
					return nil, "", 0, err
				}
				unsupportedAtMatch = true
				matchDate = currentDate
			}
		default:
			if err := skipElems(br, count, typ); err != nil {
				return nil, "", 0, err
			}
		}
	}

	if len(dates) == 0 {
		return nil, "", 0, fmt.Errorf("eclbin: no report steps in stream")
	}
	target := date
	switch date {
	case "first":
		target = dates[0]
	case "last":
		target = dates[len(dates)-1]
	default:
		if !containsDate(dates, date) {
			return nil, "", StatusDateNotFound, nil
		}
	}
	if match != nil && matchDate == target {
		return match, target, StatusOK, nil
	}
	if unsupportedAtMatch && matchDate == target {
		return nil, "", StatusUnsupportedType, nil
	}
	if !keywordSeen {
		return nil, "", StatusKeywordNotAtAnyDate, nil
	}
	return nil, "", StatusKeywordNotAtDate, nil
}

func containsDate(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}

// WriteInit writes an INIT stream: an INTEHEAD carrying the grid
// dimensions, then the given arrays. Every array must hold ncol*nrow*nlay
// elements.
func WriteInit(w io.Writer, ncol, nrow, nlay int, arrays []Array) error {
	bw := &recWriter{w: w}
	bw.keyword("INTEHEAD", inteheadLen, TypeInte)
	bw.inteBlocks(initHeader(ncol, nrow, nlay))
	n := ncol * nrow * nlay
	for i := range arrays {
		if err := writeArray(bw, &arrays[i], n); err != nil {
			return err
		}
	}
	return bw.err
}

// WriteRestart writes a UNRST stream of report steps in the given order.
// Dates must be YYYYMMDD and chronological.
func WriteRestart(w io.Writer, ncol, nrow, nlay int, steps []Step) error {
	bw := &recWriter{w: w}
	n := ncol * nrow * nlay
	for si := range steps {
		day, month, year, err := splitDate(steps[si].Date)
		if err != nil {
			return err
		}
		bw.keyword("SEQNUM", 1, TypeInte)
		bw.inteBlocks([]int32{int32(si)})
		head := initHeader(ncol, nrow, nlay)
		head[64] = int32(day)
		head[65] = int32(month)
		head[66] = int32(year)
		bw.keyword("INTEHEAD", inteheadLen, TypeInte)
		bw.inteBlocks(head)
		for ai := range steps[si].Arrays {
			if err := writeArray(bw, &steps[si].Arrays[ai], n); err != nil {
				return err
			}
		}
	}
	return bw.err
}

func writeArray(bw *recWriter, a *Array, n int) error {
	if len(a.Name) > 8 {
		return fmt.Errorf("eclbin: keyword %q longer than 8 chars", a.Name)
	}
	if a.count() != n {
		return fmt.Errorf("eclbin: keyword %q has %d elements, want %d", a.Name, a.count(), n)
	}
	switch a.Type {
	case TypeInte:
		bw.keyword(a.Name, len(a.IVals), TypeInte)
		bw.inteBlocks(a.IVals)
	case TypeReal:
		bw.keyword(a.Name, len(a.FVals), TypeReal)
		bw.realBlocks(a.FVals)
	case TypeDobl:
		bw.keyword(a.Name, len(a.FVals), TypeDobl)
		bw.doblBlocks(a.FVals)
	default:
		return fmt.Errorf("eclbin: cannot write element type %q", a.Type)
	}
	return bw.err
}

func initHeader(ncol, nrow, nlay int) []int32 {
	head := make([]int32, inteheadLen)
	head[8] = int32(ncol)
	head[9] = int32(nrow)
	head[10] = int32(nlay)
	return head
}

func splitDate(date string) (day, month, year int, err error) {
	if len(date) != 8 {
		return 0, 0, 0, fmt.Errorf("eclbin: date %q is not YYYYMMDD", date)
	}
	year, err = strconv.Atoi(date[:4])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("eclbin: date %q is not YYYYMMDD", date)
	}
	month, err = strconv.Atoi(date[4:6])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("eclbin: date %q has invalid month", date)
	}
	day, err = strconv.Atoi(date[6:8])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("eclbin: date %q has invalid day", date)
	}
	return day, month, year, nil
}

// recWriter writes big-endian Fortran records, accumulating the first
// error.
type recWriter struct {
	w   io.Writer
	err error
}

func (bw *recWriter) record(payload []byte) {
	if bw.err != nil {
		return
	}
	var guard [4]byte
	binary.BigEndian.PutUint32(guard[:], uint32(len(payload)))
	if _, bw.err = bw.w.Write(guard[:]); bw.err != nil {
		return
	}
	if _, bw.err = bw.w.Write(payload); bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(guard[:])
}

func (bw *recWriter) keyword(name string, count int, typ string) {
	payload := make([]byte, 16)
	copy(payload, []byte(fmt.Sprintf("%-8s", name)))
	binary.BigEndian.PutUint32(payload[8:12], uint32(count))
	copy(payload[12:16], []byte(typ))
	bw.record(payload)
}

func (bw *recWriter) inteBlocks(vals []int32) {
	for start := 0; start < len(vals); start += maxBlockElems {
		end := start + maxBlockElems
		if end > len(vals) {
			end = len(vals)
		}
		payload := make([]byte, 4*(end-start))
		for i, v := range vals[start:end] {
			binary.BigEndian.PutUint32(payload[4*i:], uint32(v))
		}
		bw.record(payload)
	}
}

func (bw *recWriter) realBlocks(vals []float64) {
	for start := 0; start < len(vals); start += maxBlockElems {
		end := start + maxBlockElems
		if end > len(vals) {
			end = len(vals)
		}
		payload := make([]byte, 4*(end-start))
		for i, v := range vals[start:end] {
			binary.BigEndian.PutUint32(payload[4*i:], math.Float32bits(float32(v)))
		}
		bw.record(payload)
	}
}

func (bw *recWriter) doblBlocks(vals []float64) {
	for start := 0; start < len(vals); start += maxBlockElems {
		end := start + maxBlockElems
		if end > len(vals) {
			end = len(vals)
		}
		payload := make([]byte, 8*(end-start))
		for i, v := range vals[start:end] {
			binary.BigEndian.PutUint64(payload[8*i:], math.Float64bits(v))
		}
		bw.record(payload)
	}
}
