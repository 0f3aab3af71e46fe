package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// DomainLog is the domain prefix mixed into event-log digests.
// The version suffix allows the encoding to change without colliding with
// digests stored by older builds.
const DomainLog = "diamondx/eventlog/v1"

// Record is the canonical, storage-ready form of an event.
type Record struct {
	Seq     int64           `json:"seq"`
	TimeNs  int64           `json:"time_ns"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ToRecord converts an event to its storage form.
func ToRecord(ev Event) (Record, error) {
	payload, err := ev.MarshalPayload()
	if err != nil {
		return Record{}, fmt.Errorf("marshal payload seq=%d type=%s: %w", ev.Seq, ev.Type, err)
	}
	return Record{
		Seq:     ev.Seq,
		TimeNs:  int64(ev.Time),
		Type:    ev.Type,
		Payload: payload,
	}, nil
}

// Event rebuilds the event with a decoded payload.
func (r Record) Event(p Payload) Event {
	return Event{
		Seq:     r.Seq,
		Time:    time.Duration(r.TimeNs),
		Type:    r.Type,
		Payload: p,
	}
}

// ToRecords converts an ordered log to storage form.
func ToRecords(events []Event) ([]Record, error) {
	out := make([]Record, 0, len(events))
	for _, ev := range events {
		rec, err := ToRecord(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Digest computes a content hash over an ordered event log.
// Two runs produce the same digest iff they produced the same events with the
// same sequence numbers, timestamps and payloads in the same order.
func Digest(events []Event) (string, error) {
	records, err := ToRecords(events)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return DigestRecords(records)
}

// DigestRecords computes the digest over records already in storage form.
//
// Format: SHA256(domain + 0x00 + line_1 + 0x0a + ... + line_n + 0x0a) where
// each line is the JSON encoding of one record.
func DigestRecords(records []Record) (string, error) {
	h := sha256.New()
	h.Write([]byte(DomainLog))
	h.Write([]byte{0x00})
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("digest seq=%d: %w", rec.Seq, err)
		}
		h.Write(line)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
