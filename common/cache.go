// Copyright 2025-2026
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

package common

import (
	"errors"
	"os"

	lru "github.com/hashicorp/golang-lru"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var cache *lru.Cache

var (
	ErrCacheMiss    = errors.New("key not found in cache")
	ErrCacheBadItem = errors.New("cached item is not a byte array")
)

// SetupCache initializes the in-process result cache. Cached values are
// lz4 compressed.
func SetupCache() {
	var err error
	size := viper.GetInt("cache.local_size")
	if size == 0 {
		size = 128
	}

	cache, err = lru.New(size)
	if err != nil {
		log.Error().Err(err).Msg("could not create LRU cache")
		os.Exit(1)
	}
}

func CacheSet(key string, data []byte) error {
	b2, err := Compress(data)
	if err != nil {
		return err
	}
	cache.Add(key, b2)
	return nil
}

func CacheGet(key string) ([]byte, error) {
	item, ok := cache.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	compressed, ok := item.([]byte)
	if !ok {
		return nil, ErrCacheBadItem
	}

	return Decompress(compressed)
}
