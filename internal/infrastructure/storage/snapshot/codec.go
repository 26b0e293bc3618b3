package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vector file layout: 4-byte magic, uint32 dim, uint32 count, then
// count*dim little-endian float32 values. The format carries its own
// dimensions so a loader never has to trust file size alone.
var vectorsMagic = [4]byte{'M', 'R', 'V', '1'}

const vectorsHeaderLen = 12

func encodeVectors(dim int, vectors [][]float32) ([]byte, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("encode vectors: non-positive dim %d", dim)
	}
	buf := make([]byte, vectorsHeaderLen, vectorsHeaderLen+4*dim*len(vectors))
	copy(buf[0:4], vectorsMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(dim))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(vectors)))

	var scratch [4]byte
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("encode vectors: vector %d has dim %d, want %d", i, len(vec), dim)
		}
		for _, v := range vec {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			buf = append(buf, scratch[:]...)
		}
	}
	return buf, nil
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	if len(data) < vectorsHeaderLen {
		return 0, nil, fmt.Errorf("decode vectors: short header (%d bytes)", len(data))
	}
	if [4]byte(data[0:4]) != vectorsMagic {
		return 0, nil, fmt.Errorf("decode vectors: bad magic %q", data[0:4])
	}
	dim := int(binary.LittleEndian.Uint32(data[4:8]))
	count := int(binary.LittleEndian.Uint32(data[8:12]))
	if dim <= 0 {
		return 0, nil, fmt.Errorf("decode vectors: non-positive dim %d", dim)
	}

	payload := data[vectorsHeaderLen:]
	want := 4 * dim * count
	if len(payload) != want {
		return 0, nil, fmt.Errorf("decode vectors: payload %d bytes, want %d", len(payload), want)
	}

	vectors := make([][]float32, count)
	offset := 0
	for row := range vectors {
		vec := make([]float32, dim)
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[offset : offset+4]))
			offset += 4
		}
		vectors[row] = vec
	}
	return dim, vectors, nil
}
