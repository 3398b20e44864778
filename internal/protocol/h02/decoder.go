package h02

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

var (
	ErrPacketTooShort     = errors.New("data too short for H02 protocol")
	ErrInvalidHeader      = errors.New("invalid H02 protocol header")
	ErrInvalidFormat      = errors.New("invalid H02 data format")
	ErrInvalidCoordinate  = errors.New("invalid H02 coordinate")
	ErrInvalidTimestamp   = errors.New("invalid H02 timestamp")
	ErrUnsupportedMessage = errors.New("unsupported H02 message type")
)

const (
	startSequence = "*HQ"
	frameEnd      = '#'
	minLength     = 20

	locationReport = "V1"

	knotsToMetersPerSecond = 0.514444
)

// Message is one decoded location report.
type Message struct {
	DeviceID string
	Valid    bool // GPS fix flag, 'A' = valid
	Status   string
	Position model.Position
}

type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses a frame of the form
// *HQ,<imei>,V1,<hhmmss>,<A|V>,<ddmm.mmmm>,<N|S>,<dddmm.mmmm>,<E|W>,<knots>,<course>,<ddmmyy>[,<status>]#
func (d *Decoder) Decode(data []byte) (*Message, error) {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte(startSequence)) {
		return nil, ErrInvalidHeader
	}
	if len(data) < minLength {
		return nil, ErrPacketTooShort
	}

	parts := strings.Split(strings.TrimSuffix(string(data), string(frameEnd)), ",")
	if len(parts) < 3 {
		return nil, ErrInvalidFormat
	}
	if parts[2] != locationReport {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMessage, parts[2])
	}
	if len(parts) < 12 {
		return nil, ErrInvalidFormat
	}

	msg := &Message{
		DeviceID: parts[1],
		Valid:    parts[4] == "A",
	}
	if len(parts) > 12 {
		msg.Status = parts[12]
	}

	lat, err := parseCoordinate(parts[5], parts[6], 90)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, parts[5])
	}
	lon, err := parseCoordinate(parts[7], parts[8], 180)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, parts[7])
	}

	ts, err := time.ParseInLocation("150405020106", parts[3]+parts[11], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}

	msg.Position = model.Position{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: ts,
		Provider:  "h02",
	}

	// speed and course are optional in practice, keep zero when unparsable
	if knots, err := strconv.ParseFloat(parts[9], 64); err == nil {
		msg.Position.Speed = knots * knotsToMetersPerSecond
	}
	if course, err := strconv.ParseFloat(parts[10], 64); err == nil {
		msg.Position.Bearing = course
	}

	return msg, nil
}

// parseCoordinate converts (d)ddmm.mmmm plus hemisphere to decimal degrees.
func parseCoordinate(coord, hemisphere string, limit float64) (float64, error) {
	dot := strings.IndexByte(coord, '.')
	if dot < 0 {
		dot = len(coord)
	}
	if dot < 3 {
		return 0, errors.New("coordinate string too short")
	}

	degrees, err := strconv.ParseFloat(coord[:dot-2], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(coord[dot-2:], 64)
	if err != nil {
		return 0, err
	}
	if minutes >= 60 {
		return 0, errors.New("minutes out of range")
	}

	value := degrees + minutes/60.0
	if value > limit {
		return 0, errors.New("coordinate out of range")
	}

	switch hemisphere {
	case "S", "W":
		value = -value
	case "N", "E":
	default:
		return 0, fmt.Errorf("invalid hemisphere %q", hemisphere)
	}
	return value, nil
}

// SplitFrames is a bufio.SplitFunc that yields one '#'-terminated frame at a
// time, dropping bytes before the next start sequence.
func SplitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, []byte(startSequence))
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// keep a possible partial start sequence
		if len(data) > len(startSequence) {
			return len(data) - len(startSequence), nil, nil
		}
		return 0, nil, nil
	}

	if end := bytes.IndexByte(data[start:], frameEnd); end >= 0 {
		return start + end + 1, data[start : start+end+1], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return start, nil, nil
}
