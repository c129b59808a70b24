// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/c2h5oh/datasize"
)

// Device describes an accelerator: a number of lanes that execute kernel work
// groups in parallel, and a memory capacity for the device copy of the network
type Device struct {
	ID       int    `desc:"device index"`
	Name     string `desc:"device name"`
	Lanes    int    `desc:"number of parallel execution lanes"`
	MemBytes int64  `desc:"device memory capacity"`
	WGSize   int    `def:"64" desc:"neurons or synapses per work group"`
}

// DeviceInfo is the status of a device in a registry
type DeviceInfo struct {
	Device
	InUse bool
	Owner string
}

func (di DeviceInfo) String() string {
	own := "free"
	if di.InUse {
		own = "in use by: " + di.Owner
	}
	return fmt.Sprintf("%d: %s\tlanes: %d\tmem: %s\t%s", di.ID, di.Name, di.Lanes, datasize.ByteSize(di.MemBytes).HumanReadable(), own)
}

// DeviceRegistry owns the accelerator devices of a process.  A device context
// is exclusive: a second network cannot acquire a device until the first
// releases it, and acquisition fails instead of waiting.
type DeviceRegistry struct {
	mu     sync.Mutex
	devs   []Device
	owners map[int]string
}

// NewDeviceRegistry returns a registry of the given devices, re-indexed in order
func NewDeviceRegistry(devs ...Device) *DeviceRegistry {
	dr := &DeviceRegistry{owners: make(map[int]string)}
	for i, dv := range devs {
		dv.ID = i
		if dv.Lanes <= 0 {
			dv.Lanes = 1
		}
		if dv.WGSize <= 0 {
			dv.WGSize = 64
		}
		dr.devs = append(dr.devs, dv)
	}
	return dr
}

var (
	defDevsOnce sync.Once
	defDevs     *DeviceRegistry
)

// DefaultDevices returns the process-wide registry, with one device using all
// the host cores as lanes and 4 GiB of memory
func DefaultDevices() *DeviceRegistry {
	defDevsOnce.Do(func() {
		defDevs = NewDeviceRegistry(Device{Name: "host-lanes", Lanes: runtime.NumCPU(), MemBytes: int64(4 * datasize.GB)})
	})
	return defDevs
}

// Devices returns the status of all devices
func (dr *DeviceRegistry) Devices() []DeviceInfo {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	dis := make([]DeviceInfo, len(dr.devs))
	for i, dv := range dr.devs {
		own, inUse := dr.owners[i]
		dis[i] = DeviceInfo{Device: dv, InUse: inUse, Owner: own}
	}
	return dis
}

// Acquire returns an exclusive context on device id, or the first free device
// if id < 0.  owner names the network in error messages.
func (dr *DeviceRegistry) Acquire(id int, owner string) (*DeviceCtx, error) {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	if len(dr.devs) == 0 {
		return nil, &BackendError{Backend: AccelBackend, Device: id, Msg: "no accelerator devices available"}
	}
	if id < 0 {
		ids := make([]int, 0, len(dr.devs))
		for i := range dr.devs {
			if _, used := dr.owners[i]; !used {
				ids = append(ids, i)
			}
		}
		if len(ids) == 0 {
			return nil, &BackendError{Backend: AccelBackend, Device: id, Msg: "all devices are in use"}
		}
		sort.Ints(ids)
		id = ids[0]
	}
	if id >= len(dr.devs) {
		return nil, &BackendError{Backend: AccelBackend, Device: id, Msg: fmt.Sprintf("device not available: %d devices", len(dr.devs))}
	}
	if own, used := dr.owners[id]; used {
		return nil, &BackendError{Backend: AccelBackend, Device: id, Msg: "device context held by network: " + own}
	}
	dr.owners[id] = owner
	dc := &DeviceCtx{Dev: dr.devs[id], reg: dr}
	dc.start()
	return dc, nil
}

func (dr *DeviceRegistry) release(id int) {
	dr.mu.Lock()
	delete(dr.owners, id)
	dr.mu.Unlock()
}

// laneWork is one work group: a kernel over elements [st, ed)
type laneWork struct {
	fun    func(st, ed int)
	st, ed int
}

// DeviceCtx is an exclusive context on a device: the lanes are goroutines
// that execute the work groups of each dispatched kernel
type DeviceCtx struct {
	Dev Device

	reg    *DeviceRegistry
	work   chan laneWork
	wg     sync.WaitGroup
	closed bool
}

func (dc *DeviceCtx) start() {
	dc.work = make(chan laneWork, dc.Dev.Lanes)
	for l := 0; l < dc.Dev.Lanes; l++ {
		go dc.lane()
	}
}

func (dc *DeviceCtx) lane() {
	for lw := range dc.work {
		lw.fun(lw.st, lw.ed)
		dc.wg.Done()
	}
}

// Dispatch runs kernel fun over n elements in work groups of wgSize and
// waits for completion
func (dc *DeviceCtx) Dispatch(n, wgSize int, fun func(st, ed int)) {
	if n <= 0 {
		return
	}
	if wgSize <= 0 {
		wgSize = dc.Dev.WGSize
	}
	if n <= wgSize {
		dc.wg.Add(1)
		dc.work <- laneWork{fun: fun, st: 0, ed: n}
		dc.wg.Wait()
		return
	}
	for st := 0; st < n; st += wgSize {
		dc.wg.Add(1)
		dc.work <- laneWork{fun: fun, st: st, ed: min(st+wgSize, n)}
	}
	dc.wg.Wait()
}

// Release stops the lanes and returns the device to the registry
func (dc *DeviceCtx) Release() {
	if dc.closed {
		return
	}
	dc.closed = true
	close(dc.work)
	dc.reg.release(dc.Dev.ID)
}
