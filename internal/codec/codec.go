// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	flagRaw byte = iota
	flagZstd
)

// CompressionThreshold is the encoded size above which frames are zstd compressed
const CompressionThreshold = 4096

// ErrEmptyFrame is returned when decoding an empty frame
var ErrEmptyFrame = errors.New("codec: empty frame")

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

// Marshal encodes v with msgpack and prefixes the frame with a compression flag.
// Frames larger than CompressionThreshold are zstd compressed.
func Marshal(v any) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}

	if len(raw) <= CompressionThreshold {
		frame := make([]byte, 0, len(raw)+1)
		frame = append(frame, flagRaw)
		return append(frame, raw...), nil
	}

	frame := make([]byte, 1, len(raw)/2+1)
	frame[0] = flagZstd
	return zstdEncoder().EncodeAll(raw, frame), nil
}

// Unmarshal decodes a frame produced by Marshal into v
func Unmarshal(frame []byte, v any) error {
	if len(frame) == 0 {
		return ErrEmptyFrame
	}

	payload := frame[1:]
	switch frame[0] {
	case flagRaw:
	case flagZstd:
		decoded, err := zstdDecoder().DecodeAll(payload, nil)
		if err != nil {
			return fmt.Errorf("codec: decompress: %w", err)
		}
		payload = decoded
	default:
		return fmt.Errorf("codec: unknown frame flag %d", frame[0])
	}

	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("codec: unmarshal: %w", err)
	}
	return nil
}

func zstdEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		// a nil writer is allowed when only EncodeAll is used
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	return encoder
}

func zstdDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return decoder
}
