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
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/penny-vault/pv-risk/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrRequestsNotConfigured = errors.New("nats.requests_subject has not been configured")
	ErrMalformedRequest      = errors.New("malformed generation request")
)

// GenerationRequest asks for a report outside of the regular schedule
type GenerationRequest struct {
	RequestedBy string `json:"requested_by"`
	AsOf        string `json:"as_of_date,omitempty"`
	RequestTime string `json:"request_time"`
}

// AsOfDate is the requested as-of date, or the zero time when the request should use the most
// recent trading day
func (req *GenerationRequest) AsOfDate() (time.Time, error) {
	if req.AsOf == "" {
		return time.Time{}, nil
	}
	dt, err := time.Parse(common.DateFormat, req.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of_date %q", ErrMalformedRequest, req.AsOf)
	}
	return dt, nil
}

// DecodeRequest parses the body of a request message
func DecodeRequest(data []byte) (*GenerationRequest, error) {
	req := &GenerationRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedRequest, err)
	}
	if _, err := req.AsOfDate(); err != nil {
		return nil, err
	}
	return req, nil
}

// NextRequest returns a single generation request from the durable consumer, waiting up to
// wait for one to arrive. Both return values are nil when the queue is empty. The caller must
// Ack the message once the request has been handled.
func NextRequest(wait time.Duration) (*GenerationRequest, *nats.Msg, error) {
	if jetStream == nil {
		return nil, nil, ErrNotConnected
	}

	subject := viper.GetString("nats.requests_subject")
	if subject == "" {
		return nil, nil, ErrRequestsNotConfigured
	}

	sub, err := jetStream.PullSubscribe(subject, viper.GetString("nats.requests_consumer"))
	if err != nil {
		log.Error().Err(err).Msg("could not connect to durable consumer (note: make sure the consumer already exists)")
		return nil, nil, err
	}

	msgs, err := sub.Fetch(1, nats.MaxWait(wait))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, nil
		}
		log.Error().Err(err).Msg("could not fetch new messages")
		return nil, nil, err
	}

	if len(msgs) == 0 {
		return nil, nil, nil
	}

	req, err := DecodeRequest(msgs[0].Data)
	if err != nil {
		log.Warn().Err(err).Bytes("Body", msgs[0].Data).Msg("dropping malformed generation request")
		if err := msgs[0].Term(); err != nil {
			log.Error().Err(err).Msg("could not terminate malformed request")
		}
		return nil, nil, err
	}

	return req, msgs[0], nil
}

// CreateRequest queues a generation request. A zero asOf leaves the date to the consumer.
func CreateRequest(requestedBy string, asOf time.Time) error {
	if jetStream == nil {
		return ErrNotConnected
	}

	subject := viper.GetString("nats.requests_subject")
	if subject == "" {
		return ErrRequestsNotConfigured
	}

	req := GenerationRequest{
		RequestedBy: requestedBy,
		RequestTime: time.Now().UTC().Format(time.RFC3339),
	}
	if !asOf.IsZero() {
		req.AsOf = asOf.Format(common.DateFormat)
	}

	jsonReq, err := json.Marshal(req)
	if err != nil {
		log.Error().Err(err).Msg("could not serialize request to JSON")
		return err
	}

	if _, err := jetStream.Publish(subject, jsonReq); err != nil {
		log.Error().Err(err).Msg("could not publish a generation request")
		return err
	}

	return nil
}
