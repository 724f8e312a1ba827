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

package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrCacheMiss     = errors.New("key not found in cache")
	ErrCacheDisabled = errors.New("cache has not been configured")
)

const defaultLocalCacheSize = 128

var (
	rdb        *redis.Client
	cache      *lru.Cache
	cacheMutex sync.RWMutex
)

// SetupCache configures the local LRU cache and, when cache.redis is true, a shared redis cache.
// Values are lz4 compressed before being stored in either layer.
func SetupCache() error {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return fmt.Errorf("parse redis url: %w", err)
		}

		rdb = redis.NewClient(opt)
	}

	size := viper.GetInt("cache.local_size")
	if size <= 0 {
		size = defaultLocalCacheSize
	}

	var err error
	cache, err = lru.New(size)
	if err != nil {
		log.Error().Err(err).Int("Size", size).Msg("could not create LRU cache")
		return err
	}

	return nil
}

// CacheSet stores bytes under key in the local cache and, if configured, in redis
func CacheSet(ctx context.Context, key string, bytes []byte) error {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()

	if cache == nil {
		return ErrCacheDisabled
	}

	b2, err := Compress(bytes)
	if err != nil {
		return err
	}
	cache.Add(key, b2)

	if rdb != nil {
		expires := time.Duration(viper.GetInt("cache.ttl")) * time.Second
		return rdb.Set(ctx, key, b2, expires).Err()
	}
	return nil
}

// CacheGet retrieves the value stored under key. The local cache is consulted first, then redis.
// ErrCacheMiss is returned when neither layer holds the key.
func CacheGet(ctx context.Context, key string) ([]byte, error) {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()

	if cache == nil {
		return nil, ErrCacheDisabled
	}

	if v2, ok := cache.Get(key); ok {
		return Decompress(v2.([]byte))
	}

	if rdb != nil {
		expires := time.Duration(viper.GetInt("cache.ttl")) * time.Second
		val, err := rdb.GetEx(ctx, key, expires).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		if err != nil {
			return nil, err
		}
		// promote to the local layer
		cache.Add(key, val)
		return Decompress(val)
	}

	return nil, ErrCacheMiss
}
