package baseball

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/event"
)

func TestDecodeRecord_PreservesDigest(t *testing.T) {
	res := runGame(t, newTestGame(t), 7)
	records, err := event.ToRecords(res.Events)
	require.NoError(t, err)

	decoded := make([]event.Event, 0, len(records))
	for _, rec := range records {
		ev, err := DecodeRecord(rec)
		require.NoError(t, err)
		decoded = append(decoded, ev)
	}

	assert.Equal(t, res.Events, decoded)
	digest, err := event.Digest(decoded)
	require.NoError(t, err)
	assert.Equal(t, res.Digest, digest)
}

func TestDecodeRecord_Errors(t *testing.T) {
	_, err := DecodeRecord(event.Record{Seq: 1, Type: "WeatherChanged", Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, err = DecodeRecord(event.Record{Seq: 2, Type: TypeRunScored, Payload: []byte(`{"outcome":"bunt"}`)})
	assert.Error(t, err)
}
