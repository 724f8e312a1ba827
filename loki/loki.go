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

// Package loki ships zerolog output to a Grafana Loki server
package loki

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/common/model"
)

const (
	contentType  = "application/json"
	postPath     = "/loki/api/v1/push"
	maxErrMsgLen = 1024

	DefaultBatchSize = 100 * 1024
	DefaultBatchWait = time.Second
)

var (
	ErrClosed = errors.New("loki writer has been closed")
)

type line struct {
	ts    time.Time
	level string
	text  string
}

type stream struct {
	labels model.LabelSet
	values [][2]string
}

type pushStream struct {
	Stream model.LabelSet `json:"stream"`
	Values [][2]string    `json:"values"`
}

type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

// Writer batches log lines and pushes them to loki. Lines are grouped into one stream per
// level; every stream also carries the static labels given to New.
type Writer struct {
	URL       string
	BatchWait time.Duration
	BatchSize int

	labels model.LabelSet
	client *http.Client
	lines  chan line
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a writer pushing to the loki server at lokiURL
func New(lokiURL string, labels map[string]string, batchSize int, batchWait time.Duration) (*Writer, error) {
	u, err := url.Parse(lokiURL)
	if err != nil {
		return nil, err
	}
	if u.Path != postPath {
		u.Path = postPath
	}

	labelSet := model.LabelSet{}
	for k, v := range labels {
		labelSet[model.LabelName(k)] = model.LabelValue(v)
	}
	if err := labelSet.Validate(); err != nil {
		return nil, err
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchWait <= 0 {
		batchWait = DefaultBatchWait
	}

	w := &Writer{
		URL:       u.String(),
		BatchWait: batchWait,
		BatchSize: batchSize,
		labels:    labelSet,
		client:    &http.Client{Timeout: 5 * time.Second},
		lines:     make(chan line, 1024),
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Write accepts a single zerolog JSON event
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return 0, ErrClosed
	}

	var event struct {
		Level string `json:"level"`
	}
	// non-json output is still shipped, just without a level
	_ = json.Unmarshal(p, &event)
	if event.Level == "" {
		event.Level = "unknown"
	}

	w.lines <- line{
		ts:    time.Now(),
		level: event.Level,
		text:  string(bytes.TrimRight(p, "\n")),
	}
	return len(p), nil
}

// Close flushes any buffered lines and stops the writer
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.lines)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *Writer) run() {
	var (
		lastTS    time.Time
		maxWait   = time.NewTimer(w.BatchWait)
		batch     = map[model.Fingerprint]*stream{}
		batchSize = 0
	)
	defer w.wg.Done()
	defer maxWait.Stop()

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		if err := w.sendBatch(batch); err != nil {
			// the global logger writes to this writer
			fmt.Fprintf(os.Stderr, "%v ERROR: loki %s: %v\n", time.Now(), reason, err)
		}
		batchSize = 0
		batch = map[model.Fingerprint]*stream{}
	}

	for {
		select {
		case ll, ok := <-w.lines:
			if !ok {
				flush("flush")
				return
			}

			// loki rejects entries that are out of order within a stream
			ts := ll.ts
			if ts.Before(lastTS) {
				ts = lastTS
			}
			lastTS = ts

			if batchSize+len(ll.text) > w.BatchSize {
				flush("send size batch")
				maxWait.Reset(w.BatchWait)
			}

			labels := w.labels.Clone()
			labels["level"] = model.LabelValue(ll.level)
			fp := labels.FastFingerprint()

			s, ok := batch[fp]
			if !ok {
				s = &stream{labels: labels}
				batch[fp] = s
			}
			s.values = append(s.values, [2]string{strconv.FormatInt(ts.UnixNano(), 10), ll.text})
			batchSize += len(ll.text)

		case <-maxWait.C:
			flush("send time batch")
			maxWait.Reset(w.BatchWait)
		}
	}
}

func encodeBatch(batch map[model.Fingerprint]*stream) ([]byte, error) {
	req := pushRequest{
		Streams: make([]pushStream, 0, len(batch)),
	}
	for _, s := range batch {
		req.Streams = append(req.Streams, pushStream{
			Stream: s.labels,
			Values: s.values,
		})
	}
	sort.Slice(req.Streams, func(i, j int) bool {
		return req.Streams[i].Stream.Before(req.Streams[j].Stream)
	})
	return json.Marshal(req)
}

func (w *Writer) sendBatch(batch map[model.Fingerprint]*stream) error {
	buf, err := encodeBatch(batch)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxErrMsgLen))
		msg := ""
		if scanner.Scan() {
			msg = scanner.Text()
		}
		return fmt.Errorf("server returned HTTP status %s (%d): %s", resp.Status, resp.StatusCode, msg)
	}
	return nil
}
