// Package jpegquality estimates the compression quality of a JPEG stream from
// its quantization tables. The estimate inverts the scaling libjpeg applies to
// the Annex K reference tables, so it is accurate for images produced by
// libjpeg-compatible encoders and approximate for everything else.
package jpegquality

import (
	"bytes"
	"errors"
	"io"
	"math"
)

var (
	ErrInvalidJPEG  = errors.New("invalid JPEG header")
	ErrWrongTable   = errors.New("wrong size for quantization table")
	ErrShortSegment = errors.New("short segment length")
	ErrShortDQT     = errors.New("section DQT is too short")
	ErrMissingDQT   = errors.New("no quantization tables present")
)

const (
	markerSOI = 0xffd8
	markerEOI = 0xffd9
	markerSOS = 0xffda
	markerDQT = 0xffdb
)

type quantTable struct {
	id     int
	values [64]int
}

type jpegReader struct {
	rs      io.ReadSeeker
	err     error
	quality int
}

// New reads JPEG markers from rs and estimates the encoding quality from the
// quantization tables. The reader is rewound first, so it can be reused.
func New(rs io.ReadSeeker) (*jpegReader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	jr := &jpegReader{rs: rs}
	if m := jr.readMarker(); m != markerSOI {
		if jr.err != nil {
			return nil, jr.err
		}
		return nil, ErrInvalidJPEG
	}

	var tables []quantTable

scan:
	for {
		m := jr.readMarker()
		switch {
		case m == 0:
			if jr.err != nil && !errors.Is(jr.err, io.EOF) {
				return nil, jr.err
			}
			break scan
		case m == markerEOI || m == markerSOS:
			// quantization tables always precede entropy coded data
			break scan
		case m>>8 != 0xff:
			return nil, ErrInvalidJPEG
		case m == markerDQT:
			data, err := jr.readSegment()
			if err != nil {
				return nil, err
			}
			tbls, err := parseDQT(data)
			if err != nil {
				return nil, err
			}
			tables = append(tables, tbls...)
		default:
			if _, err := jr.readSegment(); err != nil {
				return nil, err
			}
		}
	}

	if len(tables) == 0 {
		return nil, ErrMissingDQT
	}
	jr.quality = estimateQuality(tables)
	return jr, nil
}

// NewWithBytes estimates the encoding quality of an in-memory JPEG image.
func NewWithBytes(data []byte) (*jpegReader, error) {
	return New(bytes.NewReader(data))
}

// Quality returns the estimated encoder quality setting, from 1 to 100.
func (jr *jpegReader) Quality() int {
	return jr.quality
}

// readMarker returns the next two-byte marker or 0 when none can be read.
func (jr *jpegReader) readMarker() int {
	var buf [2]byte
	if _, err := io.ReadFull(jr.rs, buf[:]); err != nil {
		jr.err = err
		return 0
	}
	return int(buf[0])<<8 | int(buf[1])
}

// readSegment reads a marker segment payload, the two length bytes count
// themselves but not the marker.
func (jr *jpegReader) readSegment() ([]byte, error) {
	var buf [2]byte
	if _, err := io.ReadFull(jr.rs, buf[:]); err != nil {
		return nil, err
	}
	length := int(buf[0])<<8 | int(buf[1])
	if length < 2 {
		return nil, ErrShortSegment
	}
	data := make([]byte, length-2)
	if _, err := io.ReadFull(jr.rs, data); err != nil {
		return nil, err
	}
	return data, nil
}

// parseDQT extracts quantization tables from a DQT segment. A segment may
// carry several tables, each one byte of precision/id followed by 64 values.
func parseDQT(data []byte) ([]quantTable, error) {
	if len(data) < 65 {
		return nil, ErrShortDQT
	}

	var tables []quantTable
	for len(data) > 0 {
		precision := int(data[0] >> 4)
		id := int(data[0] & 0x0f)
		data = data[1:]

		if precision > 1 || id > 3 {
			return nil, ErrWrongTable
		}

		n := 64
		if precision == 1 {
			n = 128
		}
		if len(data) < n {
			return nil, ErrWrongTable
		}

		t := quantTable{id: id}
		if precision == 0 {
			for i := range 64 {
				t.values[i] = int(data[i])
			}
		} else {
			for i := range 64 {
				t.values[i] = int(data[2*i])<<8 | int(data[2*i+1])
			}
		}
		tables = append(tables, t)
		data = data[n:]
	}
	return tables, nil
}

// unzig maps zig-zag scan positions, the order table values appear on the
// wire, to natural row-major positions in the reference tables.
var unzig = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Reference quantization tables from ITU-T T.81 Annex K, natural order.
var (
	annexKLuminance = [64]int{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	}
	annexKChrominance = [64]int{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	}
)

// estimateQuality recovers the libjpeg quality setting from scaled tables.
// libjpeg computes value = (reference*scale + 50) / 100 with scale = 5000/q
// below 50 and 200 - 2q above, so each unclipped coefficient yields a scale
// sample and the average converts back to quality.
func estimateQuality(tables []quantTable) int {
	var sum float64
	var cnt int

	for _, t := range tables {
		base := annexKChrominance
		if t.id == 0 {
			base = annexKLuminance
		}
		for k := range 64 {
			v := t.values[k]
			if v >= 255 {
				// clipped, carries no scale information
				continue
			}
			sum += (float64(v)*100 - 50) / float64(base[unzig[k]])
			cnt++
		}
	}
	if cnt == 0 {
		return 1
	}

	scale := sum / float64(cnt)
	var q float64
	if scale <= 100 {
		q = (200 - scale) / 2
	} else {
		q = 5000 / scale
	}

	quality := int(math.Round(q))
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return quality
}
