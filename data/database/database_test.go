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

package database_test

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/penny-vault/pv-risk/data/database"
)

var _ = Describe("Database", func() {
	var (
		dbPool pgxmock.PgxConnIface
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("requires a pool", func() {
		database.SetPool(nil)
		_, err := database.ReadOnlyTrx(ctx)
		Expect(err).To(MatchError(database.ErrNotConnected))
	})

	It("tracks transactions until they are committed", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectExec("SET TRANSACTION READ ONLY").WillReturnResult(pgconn.CommandTag("SET"))
		dbPool.ExpectCommit()

		trx, err := database.ReadOnlyTrx(ctx)
		Expect(err).To(BeNil())
		Expect(database.OpenTransactionCount()).To(Equal(1))

		Expect(trx.Commit(ctx)).To(Succeed())
		Expect(database.OpenTransactionCount()).To(Equal(0))
	})

	It("refuses writes", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectExec("SET TRANSACTION READ ONLY").WillReturnResult(pgconn.CommandTag("SET"))
		dbPool.ExpectRollback()

		trx, err := database.ReadOnlyTrx(ctx)
		Expect(err).To(BeNil())

		_, err = trx.CopyFrom(ctx, pgx.Identifier{"eod"}, []string{"ticker"}, pgx.CopyFromRows(nil))
		Expect(err).To(MatchError(database.ErrReadOnly))

		_, err = trx.Begin(ctx)
		Expect(err).To(MatchError(database.ErrReadOnly))

		Expect(trx.Rollback(ctx)).To(Succeed())
		Expect(database.OpenTransactionCount()).To(Equal(0))
	})

	It("rolls back when the transaction cannot be made read only", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectExec("SET TRANSACTION READ ONLY").WillReturnError(errors.New("permission denied"))
		dbPool.ExpectRollback()

		_, err := database.ReadOnlyTrx(ctx)
		Expect(err).To(MatchError("permission denied"))
		Expect(database.OpenTransactionCount()).To(Equal(0))
	})
})
