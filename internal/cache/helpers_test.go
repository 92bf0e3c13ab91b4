package cache

import (
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func domainCacheSettings() domain.CacheSettings {
	return domain.CacheSettings{
		ContextCapacity: 4,
		SearchCapacity:  2,
		ContextTTL:      time.Hour,
		SearchTTL:       time.Minute,
		Shards:          1,
	}
}
