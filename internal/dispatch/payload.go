package dispatch

import (
	"github.com/spf13/cast"

	"github.com/testops/orchestrator/internal/biz/execution"
)

// executionParameters 各平台共享的执行参数
func executionParameters(item *execution.QueueItem) map[string]any {
	params := map[string]any{
		"execution_id": cast.ToString(item.ID),
		"test_suite":   item.TestSuite,
		"environment":  item.Environment,
	}
	if item.IsShard() {
		params["shard_index"] = item.ShardIndex
		params["total_shards"] = item.TotalShards
	}
	for k, v := range item.Metadata {
		params[k] = v
	}
	return params
}
