package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE packs palette ids as base64 of uvarint (id, run) pairs.
func EncodeRLE(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	put := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}
	for i := 0; i < len(ids); {
		j := i + 1
		for j < len(ids) && ids[j] == ids[i] {
			j++
		}
		put(uint64(ids[i]))
		put(uint64(j - i))
		i = j
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. If want > 0 the decoded length must match.
func DecodeRLE(b64 string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, max(want, 0))
	next := func(i int) (uint64, int, error) {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return 0, 0, fmt.Errorf("bad varint at %d", i)
		}
		return v, i + n, nil
	}
	for i := 0; i < len(raw); {
		id, j, err := next(i)
		if err != nil {
			return nil, err
		}
		run, k, err := next(j)
		if err != nil {
			return nil, err
		}
		i = k
		if id > 0xFFFF {
			return nil, fmt.Errorf("block id too large: %d", id)
		}
		if want > 0 && len(out)+int(run) > want {
			return nil, fmt.Errorf("run overflows %d cells", want)
		}
		for r := uint64(0); r < run; r++ {
			out = append(out, uint16(id))
		}
	}
	if want > 0 && len(out) != want {
		return nil, fmt.Errorf("decoded %d cells, want %d", len(out), want)
	}
	return out, nil
}
