package notes

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnknownFormat is returned for file extensions without a codec.
var ErrUnknownFormat = errors.New("notes: unknown file format")

// Reader decodes a note list.
type Reader interface {
	ReadNotes(r io.Reader) ([]Note, error)
}

// Writer encodes a note list.
type Writer interface {
	WriteNotes(w io.Writer, notes []Note) error
}

// Codec reads and writes one on-disk format.
type Codec interface {
	Reader
	Writer
}

var csvHeader = []string{"onset", "offset", "pitch", "velocity", "track", "drum"}

// CSVCodec handles onset,offset,pitch[,velocity[,track[,drum]]] rows. Columns
// are matched by header name; a file whose first row is numeric is read
// positionally.
type CSVCodec struct{}

func (CSVCodec) ReadNotes(r io.Reader) ([]Note, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, name := range csvHeader {
		cols[name] = i
	}
	start := 0
	if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][0]), 64); err != nil {
		cols = map[string]int{}
		for i, name := range rows[0] {
			cols[strings.ToLower(strings.TrimSpace(name))] = i
		}
		for _, req := range csvHeader[:3] {
			if _, ok := cols[req]; !ok {
				return nil, fmt.Errorf("csv header missing column %q", req)
			}
		}
		start = 1
	}

	out := make([]Note, 0, len(rows)-start)
	for i, row := range rows[start:] {
		line := i + start + 1
		n, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseRow(row []string, cols map[string]int) (Note, error) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}

	var (
		n   Note
		err error
	)
	onset, _ := field("onset")
	if n.Onset, err = strconv.ParseFloat(onset, 64); err != nil {
		return n, fmt.Errorf("bad onset %q", onset)
	}
	offset, _ := field("offset")
	if n.Offset, err = strconv.ParseFloat(offset, 64); err != nil {
		return n, fmt.Errorf("bad offset %q", offset)
	}
	pitch, _ := field("pitch")
	if n.Pitch, err = strconv.Atoi(pitch); err != nil {
		return n, fmt.Errorf("bad pitch %q", pitch)
	}
	if v, ok := field("velocity"); ok {
		if n.Velocity, err = strconv.Atoi(v); err != nil {
			return n, fmt.Errorf("bad velocity %q", v)
		}
	}
	if v, ok := field("track"); ok {
		n.Track = v
	}
	if v, ok := field("drum"); ok {
		if n.Drum, err = strconv.ParseBool(v); err != nil {
			return n, fmt.Errorf("bad drum flag %q", v)
		}
	}
	return n, nil
}

func (CSVCodec) WriteNotes(w io.Writer, notes []Note) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, n := range notes {
		rec := []string{
			strconv.FormatFloat(n.Onset, 'f', -1, 64),
			strconv.FormatFloat(n.Offset, 'f', -1, 64),
			strconv.Itoa(n.Pitch),
			strconv.Itoa(n.Velocity),
			n.Track,
			strconv.FormatBool(n.Drum),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONCodec handles a JSON array of notes.
type JSONCodec struct{}

func (JSONCodec) ReadNotes(r io.Reader) ([]Note, error) {
	var out []Note
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding json notes: %w", err)
	}
	for i, n := range out {
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
	}
	return out, nil
}

func (JSONCodec) WriteNotes(w io.Writer, notes []Note) error {
	if notes == nil {
		notes = []Note{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(notes)
}

// CodecFor picks a codec from the file extension.
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVCodec{}, nil
	case ".json":
		return JSONCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ReadFile loads the notes stored at path.
func ReadFile(path string) ([]Note, error) {
	c, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := c.ReadNotes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// WriteFile stores notes at path, creating parent directories as needed.
func WriteFile(path string, notes []Note) error {
	c, err := CodecFor(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WriteNotes(f, notes); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
