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
	"context"
	"fmt"
	"time"

	"github.com/penny-vault/pv-risk/dataframe"
)

// Provider is a source of adjusted daily closing prices
type Provider interface {
	DataType() string

	// GetEOD returns a single column dataframe named after the ticker holding the adjusted close
	// for every trading day in [begin, end]
	GetEOD(ctx context.Context, ticker string, begin, end time.Time) (*dataframe.DataFrame, error)
}

// NewProvider constructs the named provider
func NewProvider(name string, tiingoToken string) (Provider, error) {
	switch name {
	case "pvdb":
		return NewPvDb(), nil
	case "tiingo":
		return NewTiingo(tiingoToken), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}
