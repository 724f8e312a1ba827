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

package database

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
)

// readOnlyTx wraps a pgx transaction so that it can be tracked until it is committed or rolled
// back. Operations that could write are refused with ErrReadOnly.
type readOnlyTx struct {
	id string
	tx pgx.Tx
}

func (t *readOnlyTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, ErrReadOnly
}

func (t *readOnlyTx) BeginFunc(ctx context.Context, f func(pgx.Tx) error) error {
	return ErrReadOnly
}

func (t *readOnlyTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, ErrReadOnly
}

func (t *readOnlyTx) LargeObjects() pgx.LargeObjects {
	return t.tx.LargeObjects()
}

// Commit stops tracking the transaction and commits it
func (t *readOnlyTx) Commit(ctx context.Context) error {
	t.finish("commit")
	return t.tx.Commit(ctx)
}

// Rollback stops tracking the transaction and rolls it back; safe to call after Commit
func (t *readOnlyTx) Rollback(ctx context.Context) error {
	t.finish("rollback")
	return t.tx.Rollback(ctx)
}

func (t *readOnlyTx) finish(how string) {
	if trx, ok := untrack(t.id); ok {
		log.Trace().Str("TrxID", t.id).Str("Caller", trx.caller).Dur("Duration", time.Since(trx.started)).Msg(how)
	}
}

func (t *readOnlyTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return t.tx.SendBatch(ctx, b)
}

func (t *readOnlyTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return t.tx.Prepare(ctx, name, sql)
}

func (t *readOnlyTx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, arguments...)
}

func (t *readOnlyTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *readOnlyTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *readOnlyTx) QueryFunc(ctx context.Context, sql string, args []interface{}, scans []interface{}, f func(pgx.QueryFuncRow) error) (pgconn.CommandTag, error) {
	return t.tx.QueryFunc(ctx, sql, args, scans, f)
}

func (t *readOnlyTx) Conn() *pgx.Conn {
	return t.tx.Conn()
}
