// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

//go:embed holdings.toml
var defaultHoldings []byte

type holdingsFile struct {
	Holdings []Holding `toml:"holding"`
}

// DefaultHoldings returns the built-in holdings list of the Global Leaders fund
func DefaultHoldings() []Holding {
	holdings, err := ParseHoldings(defaultHoldings)
	if err != nil {
		log.Panic().Err(err).Msg("embedded holdings file is invalid")
	}
	return holdings
}

// LoadHoldings reads a holdings list from a TOML file. Each holding is a [[holding]] table.
func LoadHoldings(fn string) ([]Holding, error) {
	contents, err := os.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not read holdings file")
		return nil, err
	}

	holdings, err := ParseHoldings(contents)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not parse holdings file")
		return nil, err
	}

	return holdings, nil
}

// ParseHoldings decodes and validates a holdings list
func ParseHoldings(contents []byte) ([]Holding, error) {
	var doc holdingsFile
	if err := toml.Unmarshal(contents, &doc); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(doc.Holdings))
	total := 0.0
	for idx := range doc.Holdings {
		h := &doc.Holdings[idx]
		h.Ticker = strings.TrimSpace(h.Ticker)
		if h.Ticker == "" {
			return nil, fmt.Errorf("%w: holding %d has no ticker", ErrInvalidHolding, idx)
		}
		if h.Weight < 0 {
			return nil, fmt.Errorf("%w: %s has a negative weight", ErrInvalidHolding, h.Ticker)
		}
		if seen[h.Ticker] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHolding, h.Ticker)
		}
		seen[h.Ticker] = true
		total += h.Weight
	}

	if total >= 100 {
		log.Warn().Float64("TotalWeight", total).Msg("holding weights leave no room for cash")
	}

	return doc.Holdings, nil
}
