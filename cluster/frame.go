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

package cluster

import (
	"github.com/tochemey/distro/internal/codec"
)

// frame is the memberlist payload exchanged between nodes
type frame struct {
	ID      string `msgpack:"id"`
	From    string `msgpack:"from"`
	Reply   bool   `msgpack:"reply"`
	Payload []byte `msgpack:"payload"`
	Error   string `msgpack:"error,omitempty"`
}

// nodeMeta is advertised through memberlist node metadata
type nodeMeta struct {
	Ready     bool  `msgpack:"ready"`
	CreatedAt int64 `msgpack:"created_at"`
}

func encodeFrame(f *frame) ([]byte, error) {
	return codec.Marshal(f)
}

func decodeFrame(bytea []byte) (*frame, error) {
	f := new(frame)
	if err := codec.Unmarshal(bytea, f); err != nil {
		return nil, err
	}
	return f, nil
}
