package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec сжимает и распаковывает плотные сетки блоков.
// EncodeAll/DecodeAll безопасны для параллельного использования.
type Codec struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewCodec создаёт кодек zstd
func NewCodec() (*Codec, error) {
	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		compressor.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}
	return &Codec{
		compressor:   compressor,
		decompressor: decompressor,
	}, nil
}

// Compress сжимает данные
func (c *Codec) Compress(data []byte) []byte {
	return c.compressor.EncodeAll(data, make([]byte, 0, len(data)/4))
}

// Decompress распаковывает данные, сжатые Compress
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	out, err := c.decompressor.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки zstd: %w", err)
	}
	return out, nil
}

// Close освобождает ресурсы кодека
func (c *Codec) Close() {
	c.compressor.Close()
	c.decompressor.Close()
}
