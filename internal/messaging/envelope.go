package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const metadataKey = "_metadata"

// Metadata travels with every message under the "_metadata" field, flattened
// into the payload object: {...payload, _metadata:{messageId, timestamp}}.
// Business handlers never see it; Open strips it before dispatch.
type Metadata struct {
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

// Wrap serializes payload and injects metadata. A fresh messageId and the
// current unix-milli timestamp are attached when the caller supplies none.
func Wrap(payload interface{}, meta Metadata) ([]byte, Metadata, error) {
	if meta.MessageID == "" {
		meta.MessageID = uuid.New().String()
	}
	if meta.Timestamp == 0 {
		meta.Timestamp = time.Now().UnixMilli()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, meta, fmt.Errorf("envelope payload serialization error: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, meta, fmt.Errorf("envelope payload must be a JSON object: %v", err)
	}

	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return nil, meta, fmt.Errorf("envelope metadata serialization error: %v", err)
	}
	fields[metadataKey] = metaRaw

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, meta, fmt.Errorf("envelope serialization error: %v", err)
	}
	return body, meta, nil
}

// Open splits a wire message into the bare payload bytes and its metadata.
// Messages without "_metadata" are malformed and must be rejected.
func Open(body []byte) ([]byte, Metadata, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, Metadata{}, fmt.Errorf("envelope deserialization error: %v", err)
	}

	metaRaw, ok := fields[metadataKey]
	if !ok {
		return nil, Metadata{}, fmt.Errorf("envelope is missing %s", metadataKey)
	}

	var meta Metadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, Metadata{}, fmt.Errorf("envelope metadata deserialization error: %v", err)
	}
	if meta.MessageID == "" {
		return nil, Metadata{}, fmt.Errorf("envelope metadata is missing messageId")
	}

	delete(fields, metadataKey)
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("envelope payload serialization error: %v", err)
	}
	return payload, meta, nil
}
