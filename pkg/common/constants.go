package common

import "time"

const (
	RedisStreamSyncRequest = "idea.tracker.sync.request"

	RedisStreamGroup    = "syncer-group"
	RedisStreamConsumer = "syncer-consumer"

	RedisKeyLastPrice    = "idea_tracker:last_price:%s"
	RedisKeyLastPriceTTL = 10 * time.Minute

	SyncKindSnapshot   = "position_snapshot"
	SyncKindDisclosure = "disclosure_feed"
	SyncKindSummary    = "portfolio_summary"
)
