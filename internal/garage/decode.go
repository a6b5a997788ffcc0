package garage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// errPayloadNotObject is reported when a state payload is valid JSON but not an object.
var errPayloadNotObject = errors.New("state payload is not a JSON object")

// StatePatch is the partial snapshot decoded from one state message.
// The zero value is an empty patch that changes nothing.
type StatePatch struct {
	GarageState DeviceState
	CooldownMs  *int64
	LastUpdate  int64
}

// Empty reports whether the patch carries no fields.
func (p StatePatch) Empty() bool {
	return p.GarageState == ""
}

// Apply merges the patch into s.
//
// A non-empty patch always overwrites the cooldown, so a state message
// without a numeric cooldownMs clears the previous one.
func (p StatePatch) Apply(s Snapshot) Snapshot {
	if p.Empty() {
		return s
	}
	s.GarageState = p.GarageState
	s.CooldownMs = p.CooldownMs
	lastUpdate := p.LastUpdate
	s.LastUpdate = &lastUpdate
	return s
}

// Decoder turns raw state payloads into StatePatches.
type Decoder struct {
	logger Logger
	now    func() time.Time
}

// NewDecoder creates a Decoder. A nil logger discards warnings and a nil
// clock falls back to time.Now.
func NewDecoder(logger Logger, now func() time.Time) *Decoder {
	if logger == nil {
		logger = nopLogger{}
	}
	if now == nil {
		now = time.Now
	}
	return &Decoder{logger: logger, now: now}
}

// Decode parses a state payload.
//
// Malformed payloads are never fatal: they are logged at warn level and an
// empty patch is returned.
func (d *Decoder) Decode(payload []byte) StatePatch {
	data, err := parseStatePayload(payload)
	if err != nil {
		d.logger.Warn("failed to parse state payload", "error", err, "bytes", len(payload))
		return StatePatch{}
	}

	patch := StatePatch{GarageState: StateUnknown}

	if v, ok := data["state"].(string); ok {
		patch.GarageState = parseDeviceState(v)
	}

	if cooldown, ok := millis(data["cooldownMs"]); ok {
		patch.CooldownMs = &cooldown
	}

	if ts, ok := millis(data["timestamp"]); ok {
		patch.LastUpdate = ts
	} else {
		patch.LastUpdate = d.now().UnixMilli()
	}

	return patch
}

// millis converts a JSON number to whole milliseconds, rounding to the
// nearest one. Values that do not fit in an int64 are not numeric.
func millis(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Round(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseStatePayload decodes UTF-8 JSON text into an object.
func parseStatePayload(payload []byte) (map[string]any, error) {
	if !utf8.Valid(payload) {
		return nil, errors.New("state payload is not valid UTF-8")
	}

	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decoding state payload: %w", err)
	}
	if data == nil {
		return nil, errPayloadNotObject
	}
	return data, nil
}
