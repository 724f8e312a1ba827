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

package messenger

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const DefaultSubject = "pvrisk.report"

var (
	ErrNotConnected = errors.New("nats connection has not been initialized")
)

var natsConnection *nats.Conn
var jetStream nats.JetStreamContext

// Enabled is true when a NATS server has been configured
func Enabled() bool {
	return viper.GetString("nats.server") != ""
}

// Initialize connects to the nats server and opens a jetstream context
func Initialize() error {
	var err error
	url := viper.GetString("nats.server")
	credentialsFile := viper.GetString("nats.credentials")
	log.Info().Str("NATSServer", url).Str("Credentials", credentialsFile).Msg("connecting to NATS server")

	opts := []nats.Option{nats.Name("pvrisk")}
	if credentialsFile != "" {
		opts = append(opts, nats.UserCredentials(credentialsFile))
	}

	if natsConnection, err = nats.Connect(url, opts...); err != nil {
		log.Error().Err(err).Msg("could not connect to NATS server")
		return err
	}

	jetStream, err = natsConnection.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		log.Error().Err(err).Msg("could not create jetstream context")
		return err
	}

	return nil
}

// Close flushes pending messages and closes the connection
func Close() {
	if natsConnection == nil {
		return
	}
	if err := natsConnection.Drain(); err != nil {
		log.Warn().Err(err).Msg("could not drain NATS connection")
	}
	natsConnection = nil
	jetStream = nil
}

func subject() string {
	if s := viper.GetString("nats.subject"); s != "" {
		return s
	}
	return DefaultSubject
}

// PublishReport announces a generated report. The run id is used as the jetstream message id so
// a retried publish is de-duplicated by the server.
func PublishReport(ctx context.Context, event *ReportEvent) error {
	if jetStream == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(subject())
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, event.RunID)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ack, err := jetStream.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		log.Error().Err(err).Str("Subject", msg.Subject).Str("RunID", event.RunID).Msg("could not publish report event")
		return err
	}

	log.Info().Str("Subject", msg.Subject).Str("Stream", ack.Stream).Uint64("Sequence", ack.Sequence).Bool("Duplicate", ack.Duplicate).Msg("published report event")
	return nil
}
