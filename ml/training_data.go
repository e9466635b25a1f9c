package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// TrainingSet holds feature rows and their targets, columns named by the
// CSV header.
type TrainingSet struct {
	FeatureNames []string
	Features     [][]float64
	Targets      []float64
}

func (s *TrainingSet) Len() int { return len(s.Targets) }

// Frame pivots the rows into feature columns.
func (s *TrainingSet) Frame() Frame {
	frame := make(Frame, len(s.FeatureNames))
	for j, name := range s.FeatureNames {
		column := make([]float64, len(s.Features))
		for i, row := range s.Features {
			column[i] = row[j]
		}
		frame[name] = column
	}
	return frame
}

func LoadTrainingCSV(path, target string) (*TrainingSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadTrainingCSV(file, target)
}

// ReadTrainingCSV parses a headered CSV. The target column becomes the
// label; every other column is a feature.
func ReadTrainingCSV(r io.Reader, target string) (*TrainingSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("training data is empty")
	}
	if err != nil {
		return nil, err
	}

	targetIdx := -1
	set := &TrainingSet{}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == target {
			targetIdx = i
			continue
		}
		set.FeatureNames = append(set.FeatureNames, name)
	}
	if targetIdx < 0 {
		return nil, fmt.Errorf("target column %q not found", target)
	}
	if len(set.FeatureNames) == 0 {
		return nil, errors.New("training data has no feature columns")
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]float64, 0, len(set.FeatureNames))
		var y float64
		for i, raw := range record {
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[i], err)
			}
			if i == targetIdx {
				y = value
			} else {
				row = append(row, value)
			}
		}
		set.Features = append(set.Features, row)
		set.Targets = append(set.Targets, y)
	}
	if set.Len() == 0 {
		return nil, errors.New("training data has no rows")
	}
	return set, nil
}

// Split keeps the first (1-testRatio) share of rows for training. A ratio
// outside (0, 1) trains on everything and returns a nil test set.
func (s *TrainingSet) Split(testRatio float64) (train, test *TrainingSet) {
	if testRatio <= 0 || testRatio >= 1 {
		return s, nil
	}
	split := int(float64(s.Len()) * (1 - testRatio))
	if split == 0 || split == s.Len() {
		return s, nil
	}
	train = &TrainingSet{FeatureNames: s.FeatureNames, Features: s.Features[:split], Targets: s.Targets[:split]}
	test = &TrainingSet{FeatureNames: s.FeatureNames, Features: s.Features[split:], Targets: s.Targets[split:]}
	return train, test
}

// Evaluate returns the coefficient of determination and root mean squared
// error of r over set.
func Evaluate(r Regressor, set *TrainingSet) (r2, rmse float64, err error) {
	if set == nil || set.Len() == 0 {
		return 0, 0, errors.New("evaluation set is empty")
	}
	predictions, err := r.Predict(set.Frame())
	if err != nil {
		return 0, 0, err
	}
	mean := 0.0
	for _, y := range set.Targets {
		mean += y
	}
	mean /= float64(set.Len())

	var ssRes, ssTot float64
	for i, y := range set.Targets {
		ssRes += (y - predictions[i]) * (y - predictions[i])
		ssTot += (y - mean) * (y - mean)
	}
	rmse = math.Sqrt(ssRes / float64(set.Len()))
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, rmse, nil
		}
		return 0, rmse, nil
	}
	return 1 - ssRes/ssTot, rmse, nil
}
