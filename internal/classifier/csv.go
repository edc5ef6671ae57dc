package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JaimeStill/soilguardian/internal/soil"
)

// LabelColumn is the CSV header naming the crop label.
const LabelColumn = "crop"

// ReadCSV parses a labeled dataset. The first row is a header naming
// soil features (canonical names, case-insensitive) and the label column.
// Empty cells in optional columns are treated as unmeasured.
func ReadCSV(r io.Reader) ([]soil.Sample, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyDataset
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[int]string, len(header))
	label := -1
	for i, h := range header {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, LabelColumn) {
			label = i
			continue
		}
		if name, ok := canonical(h); ok {
			columns[i] = name
		}
	}
	if label < 0 {
		return nil, nil, fmt.Errorf("csv header missing %q column", LabelColumn)
	}

	var (
		samples []soil.Sample
		labels  []string
	)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		f := make(soil.Features, len(columns))
		for i, name := range columns {
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("csv line %d column %s: %w", line, name, err)
			}
			f[name] = v
		}

		s, err := soil.FromFeatures(f)
		if err != nil {
			return nil, nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		samples = append(samples, s)
		labels = append(labels, strings.TrimSpace(record[label]))
	}

	if len(samples) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	return samples, labels, nil
}

func canonical(h string) (string, bool) {
	for _, name := range soil.All {
		if strings.EqualFold(h, name) {
			return name, true
		}
	}
	return "", false
}
