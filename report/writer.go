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

package report

import (
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-risk/common"
	"github.com/rs/zerolog/log"
)

// CompressedSuffix marks report files that are written lz4 compressed
const CompressedSuffix = ".lz4"

// Marshal encodes the report as indented JSON
func Marshal(rep *Report) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// Write encodes the report as indented JSON to w
func Write(w io.Writer, rep *Report) error {
	buf, err := Marshal(rep)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// WriteFile saves the report to fn. Files ending in .lz4 are compressed.
func WriteFile(fn string, rep *Report) error {
	buf, err := Marshal(rep)
	if err != nil {
		log.Error().Err(err).Msg("could not marshal report")
		return err
	}

	fh, err := os.Create(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not create report file")
		return err
	}
	defer fh.Close()

	if strings.HasSuffix(fn, CompressedSuffix) {
		err = common.CompressTo(fh, buf)
	} else {
		_, err = fh.Write(buf)
	}

	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not write report")
		return err
	}

	log.Info().Str("FileName", fn).Int("NumBytes", len(buf)).Msg("wrote report")
	return fh.Sync()
}

// ReadFile loads a report previously saved with WriteFile
func ReadFile(fn string) (*Report, error) {
	buf, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(fn, CompressedSuffix) {
		if buf, err = common.Decompress(buf); err != nil {
			return nil, err
		}
	}

	rep := &Report{}
	if err := json.Unmarshal(buf, rep); err != nil {
		return nil, err
	}
	return rep, nil
}
