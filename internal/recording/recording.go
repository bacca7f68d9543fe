// Package recording writes simulated EEG sessions to EDF files for replay.
package recording

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/google/uuid"

	"github.com/bloodyt3ars/neural-interfaces/internal/eegsim"
)

// Physical range of every written signal, µV.
const (
	physicalMin = -500.0
	physicalMax = 500.0
)

var labels = []string{"Fp1", "Fp2", "C3", "F3", "F4", "C4", "O1", "O2"}

// Label returns the electrode name used for channel i.
func Label(i int) string {
	if i < len(labels) {
		return "EEG " + labels[i]
	}
	return fmt.Sprintf("EEG Ch%d", i+1)
}

// Info describes a written recording.
type Info struct {
	RecordingID string
	Records     int
	Samples     int
}

// Write runs sim for the given number of one-second records and writes them
// to w. The simulator's sample rate must be a whole number of Hz.
func Write(w io.WriteSeeker, sim *eegsim.Sim, records int, start time.Time) (Info, error) {
	cfg := sim.Config()
	perRecord := int(math.Round(cfg.SampleRate))
	if perRecord <= 0 || float64(perRecord) != cfg.SampleRate {
		return Info{}, fmt.Errorf("sample rate %v is not a whole number of Hz", cfg.SampleRate)
	}

	info := Info{RecordingID: uuid.NewString()}
	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "X X X X",
		RecordingID:        info.RecordingID,
		StartTime:          start,
		DataRecordDuration: time.Second,
		SignalCount:        cfg.Channels,
	}
	for i := 0; i < cfg.Channels; i++ {
		hdr.Signals = append(hdr.Signals, edf.SignalHeader{
			Label:             Label(i),
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       physicalMin,
			PhysicalMax:       physicalMax,
			DigitalMin:        math.MinInt16,
			DigitalMax:        math.MaxInt16,
			Prefiltering:      "None",
			SamplesPerRecord:  perRecord,
		})
	}

	ew, err := edf.Create(w, hdr)
	if err != nil {
		return Info{}, fmt.Errorf("create edf: %w", err)
	}

	signals := make([][]float64, cfg.Channels)
	for i := range signals {
		signals[i] = make([]float64, perRecord)
	}
	for r := 0; r < records; r++ {
		for j := 0; j < perRecord; j++ {
			sample, _ := sim.Next()
			for ch, v := range sample {
				signals[ch][j] = clamp(v)
			}
		}
		if err := ew.WriteRecord(signals); err != nil {
			return Info{}, fmt.Errorf("write record %d: %w", r, err)
		}
		info.Records++
		info.Samples += perRecord
	}

	if err := ew.Close(); err != nil {
		return Info{}, fmt.Errorf("finalize edf: %w", err)
	}
	return info, nil
}

func clamp(v float64) float64 {
	return math.Max(physicalMin, math.Min(physicalMax, v))
}
