// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runconfig

import "strconv"

// VariantNamer hands out stable variant names for server-side model
// configurations. The same configuration (by fingerprint) always maps to
// the same name, so resumed runs reuse their variant names.
type VariantNamer struct {
	counts map[string]int
	names  map[string]string
}

func NewVariantNamer() *VariantNamer {
	return &VariantNamer{
		counts: make(map[string]int),
		names:  make(map[string]string),
	}
}

// Name returns the variant name for the given model configuration.
func (vn *VariantNamer) Name(model string, mc *ModelConfig) string {
	fingerprint := mc.Fingerprint()
	if fingerprint == "default" {
		return model + "_config_default"
	}

	key := model + "|" + fingerprint
	if name, ok := vn.names[key]; ok {
		return name
	}

	name := model + "_config_" + strconv.Itoa(vn.counts[model])
	vn.counts[model]++
	vn.names[key] = name
	return name
}
