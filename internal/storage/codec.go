package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

// Формат снимка чанка до сжатия:
//
//	magic "PXC" | version u8 | key.X i32 | key.Y i32 | flags u8 | pixels | [background]
//
// Каждый пиксель занимает instanceSize байт: ID u16, physics u8, RGBA, light RGB.
const (
	codecVersion = 1
	headerSize   = 3 + 1 + 4 + 4 + 1
	instanceSize = 2 + 1 + 4 + 3

	flagBackground = 1 << 0
)

var codecMagic = [3]byte{'P', 'X', 'C'}

// ErrCorruptChunk данные чанка в хранилище не разбираются
var ErrCorruptChunk = errors.New("corrupt chunk payload")

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// EncodeChunk сериализует и сжимает снимок чанка
func EncodeChunk(snap world.ChunkSnapshot) ([]byte, error) {
	if len(snap.Pixels) != world.ChunkArea {
		return nil, fmt.Errorf("чанк %s: %d пикселей вместо %d", snap.Key, len(snap.Pixels), world.ChunkArea)
	}
	withBackground := len(snap.Background) == world.ChunkArea

	size := headerSize + world.ChunkArea*instanceSize
	if withBackground {
		size += world.ChunkArea * instanceSize
	}
	buf := make([]byte, 0, size)
	buf = append(buf, codecMagic[:]...)
	buf = append(buf, codecVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(snap.Key.X))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(snap.Key.Y))
	var flags byte
	if withBackground {
		flags |= flagBackground
	}
	buf = append(buf, flags)

	buf = appendInstances(buf, snap.Pixels)
	if withBackground {
		buf = appendInstances(buf, snap.Background)
	}
	return encoder.EncodeAll(buf, nil), nil
}

// DecodeChunk распаковывает снимок чанка
func DecodeChunk(data []byte) (world.ChunkSnapshot, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return world.ChunkSnapshot{}, fmt.Errorf("%w: %w", ErrCorruptChunk, err)
	}
	if len(raw) < headerSize || [3]byte(raw[:3]) != codecMagic {
		return world.ChunkSnapshot{}, fmt.Errorf("%w: неверный заголовок", ErrCorruptChunk)
	}
	if raw[3] != codecVersion {
		return world.ChunkSnapshot{}, fmt.Errorf("%w: версия %d не поддерживается", ErrCorruptChunk, raw[3])
	}

	snap := world.ChunkSnapshot{
		Key: world.ChunkKey{
			X: int32(binary.LittleEndian.Uint32(raw[4:8])),
			Y: int32(binary.LittleEndian.Uint32(raw[8:12])),
		},
	}
	flags := raw[12]
	body := raw[headerSize:]

	want := world.ChunkArea * instanceSize
	if flags&flagBackground != 0 {
		want *= 2
	}
	if len(body) != want {
		return world.ChunkSnapshot{}, fmt.Errorf("%w: %d байт данных вместо %d", ErrCorruptChunk, len(body), want)
	}

	snap.Pixels = readInstances(body[:world.ChunkArea*instanceSize])
	if flags&flagBackground != 0 {
		snap.Background = readInstances(body[world.ChunkArea*instanceSize:])
	}
	return snap, nil
}

func appendInstances(buf []byte, list []material.Instance) []byte {
	for _, in := range list {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(in.ID))
		buf = append(buf,
			byte(in.Physics),
			in.Color.R, in.Color.G, in.Color.B, in.Color.A,
			in.Light.R, in.Light.G, in.Light.B,
		)
	}
	return buf
}

func readInstances(b []byte) []material.Instance {
	out := make([]material.Instance, len(b)/instanceSize)
	for i := range out {
		o := b[i*instanceSize:]
		out[i] = material.Instance{
			ID:      material.ID(binary.LittleEndian.Uint16(o)),
			Physics: material.PhysicsType(o[2]),
			Color:   material.Color{R: o[3], G: o[4], B: o[5], A: o[6]},
			Light:   material.Light{R: o[7], G: o[8], B: o[9]},
		}
	}
	return out
}
