package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errNotWAV = errors.New("not a RIFF/WAVE payload")

// Duration computes the playback length in seconds of a WAV payload by
// walking its RIFF chunks. Only used advisorily: callers log and continue
// when the payload is not a parseable WAV file.
func Duration(data []byte) (float64, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, errNotWAV
	}

	var byteRate uint32
	var dataLen uint32
	seenFmt := false
	seenData := false

	// Chunks follow the 12-byte RIFF header: 4-byte ID, 4-byte little-endian
	// size, then payload padded to an even length.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkLen := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 || body+16 > len(data) {
				return 0, fmt.Errorf("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			seenFmt = true
		case "data":
			dataLen = chunkLen
			seenData = true
		}

		next := body + int(chunkLen)
		if chunkLen%2 == 1 {
			next++
		}
		if next <= offset {
			return 0, fmt.Errorf("malformed chunk at offset %d", offset)
		}
		offset = next
	}

	if !seenFmt || !seenData {
		return 0, errNotWAV
	}
	if byteRate == 0 {
		return 0, fmt.Errorf("fmt chunk reports zero byte rate")
	}
	return float64(dataLen) / float64(byteRate), nil
}
