package models

import "time"

type Stats struct {
	CacheHits      int64     `json:"cacheHits"`
	CacheMisses    int64     `json:"cacheMisses"`
	UpstreamCalls  int64     `json:"upstreamCalls"`
	StoreErrors    int64     `json:"storeErrors"`
	StartTime      time.Time `json:"startTime"`
	LastUpdateTime time.Time `json:"lastUpdateTime"`
}
