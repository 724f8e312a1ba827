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
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

var (
	ErrNotConnected = errors.New("database pool has not been configured")
	ErrReadOnly     = errors.New("pvrisk only reads from the database")
)

type openTrx struct {
	caller  string
	started time.Time
}

var (
	pool             PgxIface
	openTransactions map[string]openTrx
	trxLock          sync.Mutex
)

func track(id, caller string) {
	trxLock.Lock()
	defer trxLock.Unlock()
	openTransactions[id] = openTrx{
		caller:  caller,
		started: time.Now(),
	}
}

func untrack(id string) (openTrx, bool) {
	trxLock.Lock()
	defer trxLock.Unlock()
	trx, ok := openTransactions[id]
	delete(openTransactions, id)
	return trx, ok
}

// SetPool replaces the connection pool and forgets any tracked transactions
func SetPool(myPool PgxIface) {
	trxLock.Lock()
	openTransactions = make(map[string]openTrx)
	trxLock.Unlock()
	pool = myPool
}

// Connect opens a pool to database.url and checks that the server is reachable
func Connect(ctx context.Context) error {
	myPool, err := pgxpool.Connect(ctx, viper.GetString("database.url"))
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to pool")
		return err
	}
	if err = myPool.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database server")
		return err
	}
	SetPool(myPool)
	return nil
}

// LogOpenTransactions writes a WARN log for each transaction that has not been finished
func LogOpenTransactions() {
	trxLock.Lock()
	defer trxLock.Unlock()
	for k, v := range openTransactions {
		log.Warn().Str("TrxID", k).Str("Caller", v.caller).Dur("Age", time.Since(v.started)).Msg("open transaction")
	}
}

// OpenTransactionCount returns the number of transactions that have not been committed or rolled back
func OpenTransactionCount() int {
	trxLock.Lock()
	defer trxLock.Unlock()
	return len(openTransactions)
}

// ReadOnlyTrx begins a read only transaction. Price history and holidays are never written by
// pvrisk so all queries run inside one of these.
func ReadOnlyTrx(ctx context.Context) (pgx.Tx, error) {
	if pool == nil {
		return nil, ErrNotConnected
	}

	trx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	_, file, lineno, ok := runtime.Caller(1)
	caller := fmt.Sprintf("[%v] %s:%d", ok, file, lineno)
	trxID := uuid.New().String()
	track(trxID, caller)

	wrappedTrx := &readOnlyTx{
		id: trxID,
		tx: trx,
	}

	if _, err = wrappedTrx.Exec(ctx, "SET TRANSACTION READ ONLY"); err != nil {
		log.Error().Stack().Err(err).Msg("could not set transaction read only")
		if err := wrappedTrx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	return wrappedTrx, nil
}
