package source

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// Frame is the JSON form of a sample message. Timestamps may be omitted, in
// which case they follow the source's sample clock.
type Frame struct {
	Timestamps []float64   `json:"timestamps,omitempty"`
	Samples    [][]float64 `json:"samples"`
}

// Connect dials a NATS server with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// NATS consumes sample frames from a subject. Messages are buffered by the
// client library; Pull never blocks waiting for one.
type NATS struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	msgs       chan *nats.Msg
	channels   int
	sampleRate float64
	position   int
}

// NewNATS subscribes to subject on nc. Binary frames are decoded as
// little-endian float32 values interleaved across channels.
func NewNATS(nc *nats.Conn, subject string, channels int, sampleRate float64, buffer int) (*NATS, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %v Hz", ErrOpen, channels, sampleRate)
	}
	s := &NATS{
		conn:       nc,
		msgs:       make(chan *nats.Msg, max(buffer, 1)),
		channels:   channels,
		sampleRate: sampleRate,
	}
	sub, err := nc.ChanSubscribe(subject, s.msgs)
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe %q: %w", ErrOpen, subject, err)
	}
	s.sub = sub
	return s, nil
}

func (s *NATS) Name() string { return "nats" }

// Pull returns the next buffered frame or an empty block if none arrived.
func (s *NATS) Pull(ctx context.Context) (model.SampleBlock, error) {
	select {
	case <-ctx.Done():
		return model.SampleBlock{}, ctx.Err()
	case msg := <-s.msgs:
		block, err := DecodeFrame(msg.Data, s.channels, s.sampleRate, s.position)
		if err != nil {
			return model.SampleBlock{}, err
		}
		s.position += block.Len()
		return block, nil
	default:
		return model.SampleBlock{}, nil
	}
}

// Close unsubscribes and closes the connection.
func (s *NATS) Close() error {
	err := s.sub.Unsubscribe()
	s.conn.Close()
	return err
}

// DecodeFrame parses a JSON or binary frame. Synthesized timestamps start at
// sample index position. Binary frames carrying NaN or infinite values are
// rejected.
func DecodeFrame(data []byte, channels int, sampleRate float64, position int) (model.SampleBlock, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return decodeJSON(trimmed, sampleRate, position)
	}

	stride := 4 * channels
	if channels <= 0 || len(data)%stride != 0 {
		return model.SampleBlock{}, fmt.Errorf("%w: %d bytes is not a whole number of %d-channel samples", ErrDecode, len(data), channels)
	}
	n := len(data) / stride
	block := model.SampleBlock{
		Samples:    make([][]float64, n),
		Timestamps: make([]float64, n),
	}
	for j := range n {
		row := make([]float64, channels)
		for ch := range row {
			off := j*stride + ch*4
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return model.SampleBlock{}, fmt.Errorf("%w: sample %d channel %d is %v", ErrDecode, j, ch, v)
			}
			row[ch] = v
		}
		block.Samples[j] = row
		block.Timestamps[j] = float64(position+j) / sampleRate
	}
	return block, nil
}

func decodeJSON(data []byte, sampleRate float64, position int) (model.SampleBlock, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return model.SampleBlock{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if f.Timestamps == nil {
		f.Timestamps = make([]float64, len(f.Samples))
		for j := range f.Timestamps {
			f.Timestamps[j] = float64(position+j) / sampleRate
		}
	}
	return model.SampleBlock{Samples: f.Samples, Timestamps: f.Timestamps}, nil
}

// EncodeFrame packs samples into the binary frame format DecodeFrame reads.
func EncodeFrame(samples [][]float64) []byte {
	var buf []byte
	for _, row := range samples {
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
		}
	}
	return buf
}
