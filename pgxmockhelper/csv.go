// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pgxmockhelper

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/pashagolub/pgxmock"
	"github.com/rs/zerolog/log"
)

type CSVRows struct {
	rows    [][]any
	header  []string
	dateCol int
}

// NewCSVRows loads a comma separated file with a header line into memory. typeMap converts the
// named columns to "date", "float64", "int" or "bool"; all other columns are kept as strings.
func NewCSVRows(csvFn string, typeMap map[string]string) *CSVRows {
	subLog := log.With().Str("CsvFn", csvFn).Logger()

	rows := &CSVRows{
		dateCol: -1,
		rows:    make([][]any, 0),
	}
	rawData, err := os.ReadFile(csvFn)
	if err != nil {
		subLog.Panic().Err(err).Msg("could not read file")
	}

	lines := strings.Split(string(rawData), "\n")
	if len(lines) < 2 {
		subLog.Panic().Int("NumLines", len(lines)).Msg("input file does not have enough lines, need at least 2 (header + trailing new line)")
	}
	if lines[len(lines)-1] != "" {
		subLog.Panic().Msg("input file is missing a trailing new line")
	}

	rows.header = strings.Split(lines[0], ",")
	for _, ll := range lines[1 : len(lines)-1] {
		cols := make([]any, len(rows.header))
		for idx, val := range strings.Split(ll, ",") {
			switch typeMap[rows.header[idx]] {
			case "date":
				parsed, err := time.Parse("2006-01-02", val)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to datetime of format 2006-01-02")
				}
				cols[idx] = parsed
				rows.dateCol = idx
			case "float64":
				parsed, err := strconv.ParseFloat(val, 64)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to float64")
				}
				cols[idx] = parsed
			case "int":
				parsed, err := strconv.Atoi(val)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to int")
				}
				cols[idx] = parsed
			case "bool":
				parsed, err := strconv.ParseBool(val)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to bool")
				}
				cols[idx] = parsed
			default:
				cols[idx] = val
			}
		}
		rows.rows = append(rows.rows, cols)
	}

	return rows
}

func (csvRows *CSVRows) colIndex(name string) int {
	for idx, col := range csvRows.header {
		if col == name {
			return idx
		}
	}
	log.Panic().Str("Column", name).Msg("column not found in csv")
	return -1
}

// Between keeps rows whose date column falls in [a, b]
func (csvRows *CSVRows) Between(a time.Time, b time.Time) *CSVRows {
	newRows := make([][]any, 0, len(csvRows.rows))
	if len(csvRows.rows) == 0 {
		return csvRows
	}
	if csvRows.dateCol == -1 {
		log.Panic().Time("a", a).Time("b", b).Msg("no date column found")
	}
	for _, row := range csvRows.rows {
		t := row[csvRows.dateCol].(time.Time)
		if (t.Before(b) || t.Equal(b)) && (t.After(a) || t.Equal(a)) {
			newRows = append(newRows, row)
		}
	}
	csvRows.rows = newRows
	return csvRows
}

// Where keeps rows whose column equals val
func (csvRows *CSVRows) Where(column string, val any) *CSVRows {
	idx := csvRows.colIndex(column)
	newRows := make([][]any, 0, len(csvRows.rows))
	for _, row := range csvRows.rows {
		if row[idx] == val {
			newRows = append(newRows, row)
		}
	}
	csvRows.rows = newRows
	return csvRows
}

// Columns projects the rows onto the named columns, in the given order
func (csvRows *CSVRows) Columns(names ...string) *CSVRows {
	indices := make([]int, len(names))
	for ii, name := range names {
		indices[ii] = csvRows.colIndex(name)
	}

	newRows := make([][]any, len(csvRows.rows))
	for rowIdx, row := range csvRows.rows {
		newRow := make([]any, len(indices))
		for ii, idx := range indices {
			newRow[ii] = row[idx]
		}
		newRows[rowIdx] = newRow
	}

	dateCol := -1
	for ii, idx := range indices {
		if idx == csvRows.dateCol {
			dateCol = ii
		}
	}
	csvRows.dateCol = dateCol

	csvRows.header = names
	csvRows.rows = newRows
	return csvRows
}

func (csvRows *CSVRows) Len() int {
	return len(csvRows.rows)
}

func (csvRows *CSVRows) Rows() *pgxmock.Rows {
	r := pgxmock.NewRows(csvRows.header)
	for _, row := range csvRows.rows {
		r.AddRow(row...)
	}
	return r
}

// MockEODQuery expects a read only transaction that selects the adjusted close of ticker
// between begin and end, answered from the eod csv file fn
func MockEODQuery(db pgxmock.PgxConnIface, fn string, ticker string, begin, end time.Time) {
	db.ExpectBegin()
	db.ExpectExec("SET TRANSACTION READ ONLY").WillReturnResult(pgconn.CommandTag("SET"))
	db.ExpectQuery("SELECT event_date, adj_close FROM eod").WillReturnRows(
		NewCSVRows(fn, map[string]string{
			"event_date": "date",
			"adj_close":  "float64",
		}).Where("ticker", ticker).Between(begin, end).Columns("event_date", "adj_close").Rows())
	db.ExpectCommit()
}

// MockHolidays expects a read only transaction that selects every market holiday, answered
// from the holidays csv file fn
func MockHolidays(db pgxmock.PgxConnIface, fn string) {
	db.ExpectBegin()
	db.ExpectExec("SET TRANSACTION READ ONLY").WillReturnResult(pgconn.CommandTag("SET"))
	db.ExpectQuery("SELECT event_date, early_close").WillReturnRows(
		NewCSVRows(fn, map[string]string{
			"event_date":  "date",
			"early_close": "bool",
			"close_time":  "int",
		}).Rows())
	db.ExpectCommit()
}
