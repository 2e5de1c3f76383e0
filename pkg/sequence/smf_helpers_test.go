package sequence

import (
	"bytes"
)

// trackEvent is one raw event of a hand-built test track.
type trackEvent struct {
	delta int
	data  []byte
}

func tempoEvent(delta int, bpm float64) trackEvent {
	micros := int(60000000 / bpm)
	return trackEvent{delta, []byte{0xFF, 0x51, 0x03, byte(micros >> 16), byte(micros >> 8), byte(micros)}}
}

func noteOn(delta int, ch, key, vel byte) trackEvent {
	return trackEvent{delta, []byte{0x90 | ch, key, vel}}
}

func noteOff(delta int, ch, key byte) trackEvent {
	return trackEvent{delta, []byte{0x80 | ch, key, 0x00}}
}

func trackName(delta int, name []byte) trackEvent {
	data := append([]byte{0xFF, 0x03}, encodeVarInt(len(name))...)
	return trackEvent{delta, append(data, name...)}
}

// buildSMF creates a format 1 MIDI file at 480 PPQ with the given tracks.
func buildSMF(tracks ...[]trackEvent) []byte {
	var buf bytes.Buffer

	buf.Write([]byte("MThd"))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x06})
	buf.Write([]byte{0x00, 0x01})
	buf.Write([]byte{0x00, byte(len(tracks))})
	buf.Write([]byte{0x01, 0xE0}) // 480 PPQ

	for _, tr := range tracks {
		var data bytes.Buffer
		for _, ev := range tr {
			data.Write(encodeVarInt(ev.delta))
			data.Write(ev.data)
		}
		data.Write([]byte{0x00, 0xFF, 0x2F, 0x00}) // End of Track

		buf.Write([]byte("MTrk"))
		n := data.Len()
		buf.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
		buf.Write(data.Bytes())
	}

	return buf.Bytes()
}

// encodeVarInt encodes an integer as a variable-length quantity
func encodeVarInt(value int) []byte {
	if value == 0 {
		return []byte{0}
	}

	var result []byte
	for value > 0 {
		b := byte(value & 0x7F)
		value >>= 7
		if len(result) > 0 {
			b |= 0x80
		}
		result = append([]byte{b}, result...)
	}
	return result
}
