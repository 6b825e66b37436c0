package sim

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
)

// Sample is the infected count observed after a tick. Step 0 is the freshly generated
// graph.
type Sample struct {
	Step     int `json:"step"`
	Infected int `json:"infected"`
}

// TimeSeries is append-only and ordered by step.
type TimeSeries []Sample

// NewTimeSeries starts a series at step 0 from g.
func NewTimeSeries(g Graph) TimeSeries {
	return TimeSeries{{Step: 0, Infected: g.InfectedCount()}}
}

// Last returns the most recent sample, or the zero sample for an empty series.
func (ts TimeSeries) Last() Sample {
	if len(ts) == 0 {
		return Sample{}
	}
	return ts[len(ts)-1]
}

// Append records infected as the sample following the last one.
func (ts TimeSeries) Append(infected int) TimeSeries {
	step := 0
	if len(ts) > 0 {
		step = ts.Last().Step + 1
	}
	return append(ts, Sample{Step: step, Infected: infected})
}

func (ts TimeSeries) Clone() TimeSeries {
	if ts == nil {
		return nil
	}
	c := make(TimeSeries, len(ts))
	copy(c, ts)
	return c
}

// CSVHeader is the header row of exported series.
var CSVHeader = []string{"Step", "Infected Nodes"}

// CSVFilename is the suggested download name for exported series.
const CSVFilename = "simulation_results.csv"

// WriteCSV writes the header and one row per sample, rows separated by LF with no
// trailing line break.
func (ts TimeSeries) WriteCSV(w io.Writer) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range ts {
		if err := cw.Write([]string{strconv.Itoa(s.Step), strconv.Itoa(s.Infected)}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

// CSV returns the series as exported by WriteCSV.
func (ts TimeSeries) CSV() string {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail.
	_ = ts.WriteCSV(&buf)
	return buf.String()
}
