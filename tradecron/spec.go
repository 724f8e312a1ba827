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

package tradecron

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const minutesPerDay = 24 * 60

// expandBriefFormat fills fields omitted for brevity with wildcards
func expandBriefFormat(tokens []string) []string {
	special := 0
	for _, token := range tokens {
		if strings.HasPrefix(token, "@") {
			special++
		}
	}

	expanded := append([]string{}, tokens...)
	for len(expanded) < 5+special {
		expanded = append(expanded, "*")
	}

	return expanded
}

func parseOffset(token, field string) (int, error) {
	if token == "*" {
		return 0, nil
	}
	val, err := strconv.Atoi(token)
	if err != nil {
		log.Error().Str("Field", field).Str("Token", token).Msg("could not parse time offset")
		return 0, ErrMalformedTimeSpec
	}
	return val, nil
}

// parseTimeRelativeTo reads the minute and hour fields as an offset from base (HHMM) and
// returns a standard 5 field cron spec
func parseTimeRelativeTo(tokens []string, base int) (string, error) {
	if len(tokens) != 5 {
		return "", ErrMalformedTimeSpec
	}

	mins, err := parseOffset(tokens[0], "minutes")
	if err != nil {
		return "", err
	}

	hrs, err := parseOffset(tokens[1], "hours")
	if err != nil {
		return "", err
	}

	offset := (base/100)*60 + base%100 + hrs*60 + mins
	if offset < 0 || offset >= minutesPerDay {
		return "", ErrFieldOutOfBounds
	}

	return fmt.Sprintf("%d %d %s %s %s", offset%60, offset/60, tokens[2], tokens[3], tokens[4]), nil
}
