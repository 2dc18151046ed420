// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/linkedin/goavro/v2"
)

// sampleSchema is the Avro schema of one archived telemetry sample.
const sampleSchema = `{
  "type": "record",
  "name": "gpu_sample",
  "fields": [
    {"name": "gpu", "type": "string"},
    {"name": "metric", "type": "string"},
    {"name": "timestamp", "type": "long"},
    {"name": "value", "type": "double"}
  ]
}`

// writeSampleArchive dumps the raw samples of one measurement window
// into an Avro object container file, one file per window.
func writeSampleArchive(dir string, samples map[string]map[string][]sample) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	name := fmt.Sprintf("telemetry-%d.avro", time.Now().UnixNano())
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               f,
		Schema:          sampleSchema,
		CompressionName: goavro.CompressionSnappyLabel,
	})
	if err != nil {
		return err
	}

	var records []any
	for gpu, metrics := range samples {
		for metric, values := range metrics {
			for _, s := range values {
				records = append(records, map[string]any{
					"gpu":       gpu,
					"metric":    metric,
					"timestamp": s.Timestamp,
					"value":     s.Value,
				})
			}
		}
	}

	return w.Append(records)
}
