package protocol

import (
	"fmt"

	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/vmihailenco/msgpack/v5"
)

// FrameData is one frame's event batch as broadcast to clients
type FrameData struct {
	Frame  int
	Events []game.Event
}

type wireEvent struct {
	K game.EventKind     `msgpack:"k"`
	B msgpack.RawMessage `msgpack:"b"`
}

type wireFrame struct {
	F int         `msgpack:"f"`
	E []wireEvent `msgpack:"e"`
}

// EncodeFrameData serializes a batch, keeping each event's kind next to
// its payload
func EncodeFrameData(fd FrameData) ([]byte, error) {
	w := wireFrame{F: fd.Frame, E: make([]wireEvent, 0, len(fd.Events))}
	for _, e := range fd.Events {
		b, err := msgpack.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode %v: %w", e.Kind(), err)
		}
		w.E = append(w.E, wireEvent{K: e.Kind(), B: b})
	}
	return msgpack.Marshal(w)
}

// DecodeFrameData is the inverse of EncodeFrameData
func DecodeFrameData(b []byte) (FrameData, error) {
	var w wireFrame
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return FrameData{}, fmt.Errorf("decode frame data: %w", err)
	}
	fd := FrameData{Frame: w.F, Events: make([]game.Event, 0, len(w.E))}
	for _, we := range w.E {
		e, err := decodeEvent(we.K, we.B)
		if err != nil {
			return FrameData{}, err
		}
		fd.Events = append(fd.Events, e)
	}
	return fd, nil
}

func decodeEvent(k game.EventKind, raw []byte) (game.Event, error) {
	var (
		e   game.Event
		err error
	)
	switch k {
	case game.KindGameStart:
		var v game.GameStartEvent
		err = msgpack.Unmarshal(raw, &v)
		e = v
	case game.KindGameState:
		var v game.GameStateEvent
		err = msgpack.Unmarshal(raw, &v)
		e = v
	case game.KindSoundEffect:
		var v game.SoundEffectEvent
		err = msgpack.Unmarshal(raw, &v)
		e = v
	case game.KindGameStatus:
		var v game.GameStatusEvent
		err = msgpack.Unmarshal(raw, &v)
		e = v
	case game.KindExplosion:
		var v game.ExplosionEvent
		err = msgpack.Unmarshal(raw, &v)
		e = v
	case game.KindGameOver:
		var v game.GameOverEvent
		err = msgpack.Unmarshal(raw, &v)
		e = v
	default:
		return nil, fmt.Errorf("decode frame data: unknown event kind %d", uint8(k))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", k, err)
	}
	return e, nil
}
