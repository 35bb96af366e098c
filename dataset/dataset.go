// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset loads and prepares (x, y) regression data for
// structure search: two-column CSV input, min-max rescaling to the unit
// interval (the grammar's parameter priors assume unit-scale inputs),
// and a deterministic train/test split.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Dataset is a paired set of input locations and observations.
type Dataset struct {
	Xs []float64
	Ys []float64
}

// Len returns the number of points.
func (d *Dataset) Len() int { return len(d.Xs) }

// LoadCSV reads a two-column (x, y) CSV file. A non-numeric first row
// is treated as a header and skipped.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	d := &Dataset{}
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("dataset %s: row %d has %d columns, want 2", path, i+1, len(row))
		}
		x, errX := strconv.ParseFloat(row[0], 64)
		y, errY := strconv.ParseFloat(row[1], 64)
		if errX != nil || errY != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("dataset %s: row %d is not numeric", path, i+1)
		}
		d.Xs = append(d.Xs, x)
		d.Ys = append(d.Ys, y)
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("dataset %s: no data rows", path)
	}
	return d, nil
}

// Rescale returns a copy with both columns min-max rescaled to [0, 1].
// A constant column rescales to all zeros.
func (d *Dataset) Rescale() *Dataset {
	return &Dataset{
		Xs: rescale(d.Xs),
		Ys: rescale(d.Ys),
	}
}

func rescale(vs []float64) []float64 {
	lo, hi := vs[0], vs[0]
	for _, v := range vs {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(vs))
	if hi == lo {
		return out
	}
	for i, v := range vs {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// Split partitions the dataset into a leading train segment of
// round(trainFraction * len) points and the trailing test remainder.
// Deterministic: same input, same split.
func (d *Dataset) Split(trainFraction float64) (train, test *Dataset) {
	cut := int(trainFraction*float64(d.Len()) + 0.5)
	if cut < 1 {
		cut = 1
	}
	if cut > d.Len() {
		cut = d.Len()
	}
	train = &Dataset{Xs: d.Xs[:cut], Ys: d.Ys[:cut]}
	test = &Dataset{Xs: d.Xs[cut:], Ys: d.Ys[cut:]}
	return train, test
}
