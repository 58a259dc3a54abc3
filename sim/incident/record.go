package incident

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/incident-sim/incident-sim/sim"
)

// timeSeriesColumns maps CSV headers to the window series they come from.
var timeSeriesColumns = []struct {
	header string
	series string
}{
	{"tick", StatTick},
	{"client_load", StatClientLoad},
	{"service_load", StatServiceLoad},
	{"database_load", StatDatabaseLoad},
	{"client_mean_latency", StatClientMeanLatency},
	{"service_mean_latency", StatServiceMeanLatency},
	{"client_mean_availability", StatClientMeanAvail},
	{"service_mean_availability", StatServiceMeanAvail},
	{"throughput", StatServiceThroughput},
	{"service_queue_size", StatServiceQueueSize},
	{"database_capacity", StatDatabaseCapacity},
}

// TimeSeriesHeader returns the CSV header row.
func TimeSeriesHeader() []string {
	header := make([]string, len(timeSeriesColumns))
	for i, c := range timeSeriesColumns {
		header[i] = c.header
	}
	return header
}

// TimeSeriesRows renders one row per statistics window.
// Windows a series is missing are written as NaN.
func TimeSeriesRows(stats *sim.StatWindow) [][]string {
	series := make([][]float64, len(timeSeriesColumns))
	n := 0
	for i, c := range timeSeriesColumns {
		series[i] = stats.Series(c.series)
		n = max(n, len(series[i]))
	}
	rows := make([][]string, n)
	for w := range rows {
		row := make([]string, len(series))
		for i, s := range series {
			if w < len(s) {
				row[i] = strconv.FormatFloat(s[w], 'f', -1, 64)
			} else {
				row[i] = "NaN"
			}
		}
		rows[w] = row
	}
	return rows
}

// WriteTimeSeries writes the run's window series to path as CSV.
func WriteTimeSeries(path string, stats *sim.StatWindow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating time series file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(TimeSeriesHeader()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for w, row := range TimeSeriesRows(stats) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", w, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return file.Close()
}
