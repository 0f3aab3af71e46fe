package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_Deterministic(t *testing.T) {
	build := func() []Event {
		s := quietScheduler()
		s.Publish(started{})
		_ = s.AdvanceTime(time.Minute)
		s.Publish(scored{Runner: "a"})
		return s.Events()
	}

	d1, err := Digest(build())
	require.NoError(t, err)
	d2, err := Digest(build())
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestDigest_SensitiveToContent(t *testing.T) {
	s1 := quietScheduler()
	s1.Publish(scored{Runner: "a"})

	s2 := quietScheduler()
	s2.Publish(scored{Runner: "b"})

	s3 := quietScheduler()
	_ = s3.AdvanceTime(time.Second)
	s3.Publish(scored{Runner: "a"})

	d1, _ := Digest(s1.Events())
	d2, _ := Digest(s2.Events())
	d3, _ := Digest(s3.Events())

	assert.NotEqual(t, d1, d2, "payload change must change digest")
	assert.NotEqual(t, d1, d3, "timestamp change must change digest")
}

func TestDigestRecords_MatchesDigest(t *testing.T) {
	s := quietScheduler()
	s.Publish(out{Outs: 2})
	s.Publish(scored{Runner: "x"})

	records, err := ToRecords(s.Events())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"outs":2}`, string(records[0].Payload))

	fromEvents, err := Digest(s.Events())
	require.NoError(t, err)
	fromRecords, err := DigestRecords(records)
	require.NoError(t, err)

	assert.Equal(t, fromEvents, fromRecords)
}
