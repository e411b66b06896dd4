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

package distro

import (
	"bytes"
	"fmt"
)

// Key identifies one unit of replicated data. It is also the unit of ownership.
type Key struct {
	BusinessType string `msgpack:"type"`
	ResourceID   string `msgpack:"resource"`
}

// NewKey creates a Key
func NewKey(businessType, resourceID string) Key {
	return Key{BusinessType: businessType, ResourceID: resourceID}
}

// String returns the key as type/resource
func (k Key) String() string {
	return k.BusinessType + "/" + k.ResourceID
}

// Datum is one version of a replicated value
type Datum struct {
	Key       Key    `msgpack:"key"`
	Payload   []byte `msgpack:"payload"`
	Digest    []byte `msgpack:"digest"`
	Timestamp uint64 `msgpack:"ts"`
}

// Equal reports whether both datums carry the same version of the same key
func (d Datum) Equal(other Datum) bool {
	return d.Key == other.Key &&
		d.Timestamp == other.Timestamp &&
		bytes.Equal(d.Digest, other.Digest)
}

// DataOperation is the kind of change carried by a SYNC message
type DataOperation int

const (
	// Add is a new datum
	Add DataOperation = iota + 1
	// Change is a new version of an existing datum
	Change
	// Delete removes a datum
	Delete
)

// String returns the operation name
func (op DataOperation) String() string {
	switch op {
	case Add:
		return "ADD"
	case Change:
		return "CHANGE"
	case Delete:
		return "DELETE"
	default:
		return fmt.Sprintf("DataOperation(%d)", int(op))
	}
}

// VerifyEntry is the digest of a key advertised during anti-entropy
type VerifyEntry struct {
	Key    Key    `msgpack:"key"`
	Digest []byte `msgpack:"digest"`
}
