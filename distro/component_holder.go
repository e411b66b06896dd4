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
	"fmt"
	"slices"

	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/xsync"
)

// Component binds the storage and the processor of one business type
type Component struct {
	Storage   DataStorage
	Processor DataProcessor
}

// ComponentHolder is the registry of business types known to the replication engine.
// Components are resolved once at registration.
type ComponentHolder struct {
	components *xsync.Map[string, Component]
}

// NewComponentHolder creates an empty ComponentHolder
func NewComponentHolder() *ComponentHolder {
	return &ComponentHolder{
		components: xsync.NewMap[string, Component](),
	}
}

// Register adds the storage and processor of a business type
func (h *ComponentHolder) Register(storage DataStorage, processor DataProcessor) error {
	businessType := storage.BusinessType()
	if businessType == "" {
		return fmt.Errorf("%w: empty business type", gerrors.ErrUnknownBusinessType)
	}

	if processor.ProcessType() != businessType {
		return fmt.Errorf("processor type=%s does not match storage type=%s", processor.ProcessType(), businessType)
	}

	if _, loaded := h.components.GetOrSet(businessType, func() Component {
		return Component{Storage: storage, Processor: processor}
	}); loaded {
		return fmt.Errorf("%w: %s", gerrors.ErrDuplicateBusinessType, businessType)
	}
	return nil
}

// Get returns the component of a business type
func (h *ComponentHolder) Get(businessType string) (Component, error) {
	component, ok := h.components.Get(businessType)
	if !ok {
		return Component{}, fmt.Errorf("%w: %s", gerrors.ErrUnknownBusinessType, businessType)
	}
	return component, nil
}

// BusinessTypes returns the registered business types sorted by name
func (h *ComponentHolder) BusinessTypes() []string {
	types := h.components.Keys()
	slices.Sort(types)
	return types
}

// IsInitialized reports whether every registered storage finished its initial load
func (h *ComponentHolder) IsInitialized() bool {
	for _, component := range h.components.Values() {
		if !component.Storage.IsFinishInitial() {
			return false
		}
	}
	return true
}
