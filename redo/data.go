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

package redo

// DataType is the kind of client request tracked for redo
type DataType int

const (
	// Instance is an instance registration
	Instance DataType = iota
	// Subscriber is a service subscription
	Subscriber
)

// String returns the data type name
func (t DataType) String() string {
	switch t {
	case Instance:
		return "INSTANCE"
	case Subscriber:
		return "SUBSCRIBER"
	default:
		return "UNKNOWN"
	}
}

// Type is the action the redo loop takes for an entry
type Type int

const (
	// Register replays the registration
	Register Type = iota
	// Unregister replays the deregistration
	Unregister
	// None means the server already agrees with the client
	None
	// Remove drops the entry, the server and the client agree it is gone
	Remove
)

// String returns the redo type name
func (t Type) String() string {
	switch t {
	case Register:
		return "REGISTER"
	case Unregister:
		return "UNREGISTER"
	case None:
		return "NONE"
	case Remove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// Data is the desired state of one client request and what the server confirmed of it
type Data struct {
	Key     string
	Type    DataType
	Payload []byte

	registered         bool
	expectedRegistered bool
	unregistering      bool
}

func newData(dataType DataType, key string, payload []byte) *Data {
	return &Data{
		Key:                key,
		Type:               dataType,
		Payload:            payload,
		expectedRegistered: true,
	}
}

// Registered reports whether the server confirmed the registration
func (d *Data) Registered() bool {
	return d.registered
}

// ExpectedRegistered reports whether the application wants the data registered
func (d *Data) ExpectedRegistered() bool {
	return d.expectedRegistered
}

// Unregistering reports whether a deregistration is in flight
func (d *Data) Unregistering() bool {
	return d.unregistering
}

// RedoType returns what the redo loop must do to make the server agree with the application
func (d *Data) RedoType() Type {
	switch {
	case d.registered && !d.unregistering:
		if d.expectedRegistered {
			return None
		}
		return Unregister
	case d.registered && d.unregistering:
		return Unregister
	case !d.registered && !d.unregistering:
		return Register
	default:
		if d.expectedRegistered {
			return Register
		}
		return Remove
	}
}

// NeedRedo reports whether the entry must be replayed
func (d *Data) NeedRedo() bool {
	return d.RedoType() != None
}

func (d *Data) clone() *Data {
	clone := *d
	return &clone
}
