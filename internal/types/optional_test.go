package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRow struct {
	ID string `json:"id"`
}

type sampleEnvelope struct {
	Rows OptionalTable[sampleRow] `json:"rows"`
}

func TestOptionalTable(t *testing.T) {
	t.Run("absent_table_is_empty", func(t *testing.T) {
		tbl := NoTable[sampleRow]()
		assert.False(t, tbl.IsPresent())
		assert.NotNil(t, tbl.OrEmpty())
		assert.Len(t, tbl.OrEmpty(), 0)
	})

	t.Run("present_nil_table_is_empty", func(t *testing.T) {
		tbl := SomeTable[sampleRow](nil)
		assert.True(t, tbl.IsPresent())
		assert.Len(t, tbl.OrEmpty(), 0)
	})

	t.Run("json_missing_field_is_absent", func(t *testing.T) {
		var env sampleEnvelope
		require.NoError(t, json.Unmarshal([]byte(`{}`), &env))
		assert.False(t, env.Rows.IsPresent())
	})

	t.Run("json_null_is_absent", func(t *testing.T) {
		var env sampleEnvelope
		require.NoError(t, json.Unmarshal([]byte(`{"rows":null}`), &env))
		assert.False(t, env.Rows.IsPresent())
	})

	t.Run("json_rows", func(t *testing.T) {
		var env sampleEnvelope
		require.NoError(t, json.Unmarshal([]byte(`{"rows":[{"id":"a"},{"id":"b"}]}`), &env))
		assert.True(t, env.Rows.IsPresent())
		assert.Equal(t, []sampleRow{{ID: "a"}, {ID: "b"}}, env.Rows.OrEmpty())
	})
}

func TestSegmentationPolicy(t *testing.T) {
	assert.NoError(t, SegmentationPolicySixBucket.Validate())
	assert.Error(t, SegmentationPolicy("ten_bucket").Validate())

	assert.Len(t, SegmentationPolicySixBucket.Segments(), 6)
	assert.Len(t, SegmentationPolicySevenBucket.Segments(), 7)
	assert.Equal(t, SegmentPotential, SegmentationPolicySixBucket.Fallback())
	assert.Equal(t, SegmentRiskCustomers, SegmentationPolicySevenBucket.Fallback())

	for _, p := range []SegmentationPolicy{SegmentationPolicySixBucket, SegmentationPolicySevenBucket} {
		for _, s := range p.Segments() {
			assert.NoError(t, s.RetentionClass().Validate(), "segment %s", s)
		}
	}
	assert.Equal(t, RetentionClassAtRisk, SegmentAtRiskLost.RetentionClass())
	assert.Equal(t, RetentionClassPotential, Segment("Unknown").RetentionClass())
}
