package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// FormatVersion is written in the header line of every trace file.
const FormatVersion = 1

// fileHeader is the first JSON line of a trace file.
type fileHeader struct {
	Version     int   `json:"version"`
	Level       Level `json:"level"`
	Seed        int64 `json:"seed"`
	Generations int   `json:"generations"`
	Exits       int   `json:"exits"`
}

// line is one JSON line after the header; exactly one field is set.
type line struct {
	Generation *GenerationRecord `json:"g,omitempty"`
	Exit       *ExitRecord       `json:"e,omitempty"`
}

// Write encodes st as zstd-compressed JSON lines: a header followed by generation and exit records.
func Write(w io.Writer, st *SimulationTrace) error {
	if st == nil {
		return fmt.Errorf("write trace: nil trace")
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	je := json.NewEncoder(bw)

	hdr := fileHeader{
		Version:     FormatVersion,
		Level:       st.Level,
		Seed:        st.Seed,
		Generations: len(st.Generations),
		Exits:       len(st.Exits),
	}
	if err := je.Encode(hdr); err != nil {
		enc.Close()
		return fmt.Errorf("write trace header: %w", err)
	}
	for i := range st.Generations {
		if err := je.Encode(line{Generation: &st.Generations[i]}); err != nil {
			enc.Close()
			return fmt.Errorf("write generation record: %w", err)
		}
	}
	for i := range st.Exits {
		if err := je.Encode(line{Exit: &st.Exits[i]}); err != nil {
			enc.Close()
			return fmt.Errorf("write exit record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("flush trace: %w", err)
	}
	return enc.Close()
}

// Read decodes a trace produced by Write.
func Read(r io.Reader) (*SimulationTrace, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	defer dec.Close()

	jd := json.NewDecoder(bufio.NewReaderSize(dec, 64*1024))
	var hdr fileHeader
	if err := jd.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("read trace header: %w", err)
	}
	if hdr.Version != FormatVersion {
		return nil, fmt.Errorf("read trace: unsupported version %d", hdr.Version)
	}
	st := NewSimulationTrace(hdr.Level, hdr.Seed)
	for {
		var l line
		if err := jd.Decode(&l); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("read trace record: %w", err)
		}
		switch {
		case l.Generation != nil:
			st.RecordGeneration(*l.Generation)
		case l.Exit != nil:
			st.RecordExit(*l.Exit)
		}
	}
	if len(st.Generations) != hdr.Generations || len(st.Exits) != hdr.Exits {
		return nil, fmt.Errorf("read trace: truncated (%d/%d generations, %d/%d exits)",
			len(st.Generations), hdr.Generations, len(st.Exits), hdr.Exits)
	}
	return st, nil
}

// WriteFile writes st to path, truncating any existing file.
func WriteFile(path string, st *SimulationTrace) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Write(f, st)
}

// ReadFile reads a trace written by WriteFile.
func ReadFile(path string) (*SimulationTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
