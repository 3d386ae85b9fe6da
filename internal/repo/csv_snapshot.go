// Package repo implements the snapshot backends behind the record store.
// This file provides the CSV snapshot file, the default backend.
//
// File layout (header row first):
//
//	category,user,channel,command,time,timestamp,reactions
//
// time is RFC 3339 with nanoseconds; an empty reactions cell means the entry
// has not been enriched yet. Files written by the earlier pandas-based bot
// (leading index column, "2006-01-02 15:04:05.999999" times, float
// reaction counts) are accepted on read.
//
// Saves never modify the file in place: the full sequence is written to a
// temp file in the same directory and renamed over the target.
package repo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-retrobot/internal/domain"
)

// Columns is the snapshot header, in write order.
var Columns = []string{"category", "user", "channel", "command", "time", "timestamp", "reactions"}

// legacyTimeLayout is how pandas serialized datetime64 values.
const legacyTimeLayout = "2006-01-02 15:04:05.999999"

// CSVFile stores the feedback sequence as a CSV file at Path.
type CSVFile struct {
	Path string
}

// NewCSVFile returns a CSV snapshot backend for path.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{Path: path}
}

// Load reads the snapshot. A missing file yields (nil, nil).
func (f *CSVFile) Load(ctx context.Context) ([]domain.FeedbackEntry, error) {
	fh, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return decodeCSV(ctx, fh, f.Path)
}

// Save overwrites the snapshot with entries.
func (f *CSVFile) Save(ctx context.Context, entries []domain.FeedbackEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := encodeCSV(tmp, entries); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return err
	}
	committed = true
	return nil
}

func encodeCSV(w io.Writer, entries []domain.FeedbackEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	rec := make([]string, len(Columns))
	for _, e := range entries {
		rec[0] = string(e.Category)
		rec[1] = e.Author
		rec[2] = e.Channel
		rec[3] = e.Command
		rec[4] = e.RecordedAt.Format(time.RFC3339Nano)
		rec[5] = e.Ref.Timestamp
		rec[6] = ""
		if e.Reactions != nil {
			rec[6] = strconv.Itoa(*e.Reactions)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeCSV(ctx context.Context, r io.Reader, name string) ([]domain.FeedbackEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: header: %v", ErrCorrupt, name, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrCorrupt, name, col)
		}
	}

	var out []domain.FeedbackEntry
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrCorrupt, name, line, err)
		}
		e, err := decodeRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrCorrupt, name, line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeRecord(rec []string, idx map[string]int) (domain.FeedbackEntry, error) {
	get := func(col string) (string, error) {
		i := idx[col]
		if i >= len(rec) {
			return "", fmt.Errorf("short record: no %s", col)
		}
		return rec[i], nil
	}

	var vals [7]string
	for i, col := range Columns {
		v, err := get(col)
		if err != nil {
			return domain.FeedbackEntry{}, err
		}
		vals[i] = v
	}

	cat, ok := domain.ParseCategory(vals[0])
	if !ok {
		return domain.FeedbackEntry{}, fmt.Errorf("unknown category %q", vals[0])
	}
	at, err := parseTime(vals[4])
	if err != nil {
		return domain.FeedbackEntry{}, err
	}
	reactions, err := parseReactions(vals[6])
	if err != nil {
		return domain.FeedbackEntry{}, err
	}

	return domain.FeedbackEntry{
		Category:   cat,
		Author:     vals[1],
		Channel:    vals[2],
		Command:    vals[3],
		RecordedAt: at,
		Ref:        domain.MessageRef{Channel: vals[2], Timestamp: vals[5]},
		Reactions:  reactions,
	}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// parseReactions accepts "", integers, and integral floats ("3.0").
func parseReactions(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return nil, fmt.Errorf("negative reactions %d", n)
		}
		return &n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("bad reactions %q", s)
	}
	n := int(f)
	return &n, nil
}
