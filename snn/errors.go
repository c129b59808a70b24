// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds, for use with errors.Is.  Every error returned by the
// network wraps exactly one of these.
var (
	ErrInvalidState     = errors.New("invalid state")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
	ErrTopology         = errors.New("topology error")
	ErrDuplicateMonitor = errors.New("duplicate monitor")
	ErrBackend          = errors.New("backend error")
)

// InvalidStateError is returned when an operation is called in a state where
// it is not allowed
type InvalidStateError struct {
	Op   string   `desc:"name of the operation"`
	Need []States `desc:"states where the operation is allowed"`
	Have States   `desc:"current state of the network"`
}

func (e *InvalidStateError) Error() string {
	nd := make([]string, len(e.Need))
	for i, s := range e.Need {
		nd[i] = s.String()
	}
	return fmt.Sprintf("snn.%s: invalid state: %v, must be one of: %s", e.Op, e.Have, strings.Join(nd, ", "))
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// ConfigurationError is returned for invalid parameters or an inconsistent
// network description
type ConfigurationError struct {
	Op  string
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("snn.%s: %s", e.Op, e.Msg)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NotFoundError is returned for an unknown group, connection, neuron or synapse
type NotFoundError struct {
	Op   string
	Kind string `desc:"kind of item: group, connection, neuron, synapse, monitor"`
	Key  string `desc:"name or index that was not found"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snn.%s: %s not found: %s", e.Op, e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TopologyError is returned when a connectivity rule cannot be applied to the
// groups it connects, e.g., one-to-one between groups of different sizes
type TopologyError struct {
	Conn int        `desc:"connection ID, -1 if not yet assigned"`
	Topo Topologies `desc:"topology of the connection"`
	Msg  string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("snn: connection %d (%v): %s", e.Conn, e.Topo, e.Msg)
}

func (e *TopologyError) Is(target error) bool { return target == ErrTopology }

// DuplicateMonitorError is returned when a second monitor of the same kind is
// set on a group or group pair
type DuplicateMonitorError struct {
	Kind   MonitorKinds
	Target string
}

func (e *DuplicateMonitorError) Error() string {
	return fmt.Sprintf("snn: %v already set for: %s", e.Kind, e.Target)
}

func (e *DuplicateMonitorError) Is(target error) bool { return target == ErrDuplicateMonitor }

// BackendError is returned when the execution backend cannot be set up:
// unavailable device, insufficient device memory, or a device context held
// by another network
type BackendError struct {
	Backend Backends
	Device  int
	Msg     string
	Err     error `desc:"underlying cause, if any"`
}

func (e *BackendError) Error() string {
	s := fmt.Sprintf("snn: %v device %d: %s", e.Backend, e.Device, e.Msg)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

func (e *BackendError) Unwrap() error { return e.Err }
