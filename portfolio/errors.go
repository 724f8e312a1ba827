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

package portfolio

import "errors"

var (
	ErrInsufficientUniverse = errors.New("too few holdings have usable price data")
	ErrNoPriceData          = errors.New("price table is empty")
	ErrZeroTotalWeight      = errors.New("analyzed holdings have zero total weight")
	ErrUnknownRuleKind      = errors.New("unknown scenario rule kind")
	ErrInvalidScenario      = errors.New("invalid scenario definition")
)
