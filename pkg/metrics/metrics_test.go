package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncrementSlowQuery(t *testing.T) {
	before := testutil.ToFloat64(SlowQueryCount)

	IncrementSlowQuery()
	IncrementSlowQuery()

	assert.Equal(t, before+2, testutil.ToFloat64(SlowQueryCount))
}

func TestIncrementReorder(t *testing.T) {
	before := testutil.ToFloat64(ReorderCount.WithLabelValues("tasks", "ok"))

	IncrementReorder("tasks", "ok")

	assert.Equal(t, before+1, testutil.ToFloat64(ReorderCount.WithLabelValues("tasks", "ok")))
}

func TestRecordDBQueryDuration(t *testing.T) {
	RecordDBQueryDuration("bulk_upsert", "tasks", 25*time.Millisecond)

	count := testutil.CollectAndCount(DBQueryDuration)
	assert.GreaterOrEqual(t, count, 1)
}
