// Package codec encodes processes and property bags for snapshots and
// blob storage.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns values into bytes and back.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// Compression selects the compression stage of a Serializer.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// ParseCompression accepts "none", "zstd" or "" (none).
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd:
		return CompressionZstd, nil
	}
	return "", fmt.Errorf("codec: unknown compression %q", s)
}

// Serializer runs a codec followed by optional compression.
type Serializer struct {
	codec       Codec
	compression Compression
}

// New returns a serializer using c and compression.
func New(c Codec, compression Compression) *Serializer {
	return &Serializer{codec: c, compression: compression}
}

// Default encodes with msgpack and compresses with zstd.
func Default() *Serializer {
	return New(MsgPack{}, CompressionZstd)
}

// Serialize encodes and compresses v.
func (s *Serializer) Serialize(v any) ([]byte, error) {
	data, err := s.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("codec: %s encode: %w", s.codec.Name(), err)
	}
	if s.compression != CompressionZstd {
		return data, nil
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Deserialize decompresses and decodes data into v.
func (s *Serializer) Deserialize(data []byte, v any) error {
	if s.compression == CompressionZstd {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return fmt.Errorf("codec: zstd reader: %w", err)
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return fmt.Errorf("codec: zstd decode: %w", err)
		}
	}
	if err := s.codec.Decode(data, v); err != nil {
		return fmt.Errorf("codec: %s decode: %w", s.codec.Name(), err)
	}
	return nil
}

// JSON implements Codec with encoding/json.
type JSON struct{}

func (JSON) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (JSON) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                    { return "json" }

// MsgPack implements Codec with MessagePack, reusing the json struct tags so
// both encodings agree on field names.
type MsgPack struct{}

func (MsgPack) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgPack) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (MsgPack) Name() string { return "msgpack" }
