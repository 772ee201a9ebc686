package main

import (
	"encoding/json"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestMoveDataJSONRoundTrip(t *testing.T) {
	var m MoveData
	if err := json.Unmarshal([]byte(`[3, 120.5, 64, "walk_left"]`), &m); err != nil {
		t.Fatal(err)
	}
	if m.X != 120.5 || m.Y != 64 || m.AnimationKey != "walk_left" {
		t.Errorf("decoded = %+v", m)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var back MoveData
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back.X != m.X || back.Y != m.Y || back.AnimationKey != m.AnimationKey {
		t.Errorf("round trip = %+v", back)
	}
}

func TestMoveDataStringRef(t *testing.T) {
	// clients before serial assignment send their connection id as ref
	var m MoveData
	if err := json.Unmarshal([]byte(`["abc123", 1, 2, "idle"]`), &m); err != nil {
		t.Fatal(err)
	}
	if ref, ok := m.Ref.(string); !ok || ref != "abc123" {
		t.Errorf("ref = %v", m.Ref)
	}
}

func TestMoveDataMalformed(t *testing.T) {
	cases := []string{
		`[1, 2, 3]`,
		`[1, 2, 3, "k", "extra"]`,
		`{"x":1}`,
		`[1, "not a number", 3, "k"]`,
		`[1, 2, 3, 4]`,
	}
	for _, raw := range cases {
		var m MoveData
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			t.Errorf("accepted malformed payload %s", raw)
		}
	}
}

func TestBinaryMoveRoundTrip(t *testing.T) {
	in := MoveData{Ref: int64(2), X: 99.25, Y: -4, AnimationKey: "walk_up"}
	frame, err := EncodeBinaryMove(in)
	if err != nil {
		t.Fatal(err)
	}
	if frame[0] != binaryMoveMarker {
		t.Errorf("frame marker = %#x", frame[0])
	}

	out, err := DecodeBinaryMove(frame)
	if err != nil {
		t.Fatal(err)
	}
	if out.X != in.X || out.Y != in.Y || out.AnimationKey != in.AnimationKey {
		t.Errorf("decoded = %+v", out)
	}
}

func TestBinaryMoveRejectsBadFrames(t *testing.T) {
	if _, err := DecodeBinaryMove(nil); err == nil {
		t.Error("accepted empty frame")
	}
	if _, err := DecodeBinaryMove([]byte{0x00, 0x01, 0x02}); err == nil {
		t.Error("accepted frame with wrong marker")
	}
	if _, err := DecodeBinaryMove([]byte{binaryMoveMarker, 0xc0}); err == nil {
		t.Error("accepted frame with non-array body")
	}

	// right length, wrong element types
	raw, err := msgpack.Marshal([]interface{}{1, "not a number", 3, "k"})
	if err != nil {
		t.Fatal(err)
	}
	frame := append([]byte{binaryMoveMarker}, raw...)
	if _, err := DecodeBinaryMove(frame); err == nil {
		t.Error("accepted frame with non-numeric x")
	}
	raw, err = msgpack.Marshal([]interface{}{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	frame = append([]byte{binaryMoveMarker}, raw...)
	if _, err := DecodeBinaryMove(frame); err == nil {
		t.Error("accepted frame with non-string animation key")
	}
}
