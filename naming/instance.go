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

package naming

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tochemey/distro/distro"
)

// BusinessType is the business type of the ephemeral instances
const BusinessType = "instances"

const keySeparator = "#"

// Instance is one ephemeral instance of a service
type Instance struct {
	ID       string            `msgpack:"id"`
	IP       string            `msgpack:"ip"`
	Port     int               `msgpack:"port"`
	Weight   float64           `msgpack:"weight"`
	Healthy  bool              `msgpack:"healthy"`
	Metadata map[string]string `msgpack:"metadata,omitempty"`
}

// Address returns ip:port
func (i Instance) Address() string {
	return fmt.Sprintf("%s:%d", i.IP, i.Port)
}

// InstanceKey returns the key holding the instances a client registered for a service.
// Each client session writes its own key so concurrent clients never overwrite each other.
func InstanceKey(service, clientID string) distro.Key {
	return distro.NewKey(BusinessType, service+keySeparator+clientID)
}

// ParseInstanceKey returns the service and the client of an instance key
func ParseInstanceKey(key distro.Key) (service, clientID string, ok bool) {
	if key.BusinessType != BusinessType {
		return "", "", false
	}
	index := strings.LastIndex(key.ResourceID, keySeparator)
	if index <= 0 {
		return "", "", false
	}
	return key.ResourceID[:index], key.ResourceID[index+1:], true
}

// EncodeInstances encodes a list of instances. The encoding is deterministic so equal lists
// have equal digests on every member.
func EncodeInstances(instances []Instance) ([]byte, error) {
	sorted := slices.Clone(instances)
	slices.SortFunc(sorted, func(a, b Instance) int {
		return strings.Compare(a.ID, b.ID)
	})

	var buffer bytes.Buffer
	encoder := msgpack.NewEncoder(&buffer)
	encoder.SetSortMapKeys(true)
	if err := encoder.Encode(sorted); err != nil {
		return nil, fmt.Errorf("failed to encode instances: %w", err)
	}
	return buffer.Bytes(), nil
}

// DecodeInstances decodes a list of instances
func DecodeInstances(payload []byte) ([]Instance, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	var instances []Instance
	if err := msgpack.Unmarshal(payload, &instances); err != nil {
		return nil, fmt.Errorf("failed to decode instances: %w", err)
	}
	return instances, nil
}

// EncodeInstance encodes a single instance, as carried by a redo entry
func EncodeInstance(instance Instance) ([]byte, error) {
	return msgpack.Marshal(instance)
}

// DecodeInstance decodes a single instance
func DecodeInstance(payload []byte) (Instance, error) {
	var instance Instance
	if err := msgpack.Unmarshal(payload, &instance); err != nil {
		return Instance{}, fmt.Errorf("failed to decode instance: %w", err)
	}
	return instance, nil
}
