// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package learn

import "fmt"

// WtUpdateParams control when accumulated weight changes are applied to the weights
type WtUpdateParams struct {
	Interval int     `def:"1000" desc:"interval between weight updates in msec: 10, 100 or 1000"`
	DecayOn  bool    `desc:"decay the pending weight change by Decay after each update instead of zeroing it"`
	Decay    float32 `def:"0.9" desc:"retained fraction of the pending weight change after an update"`
}

// Defaults sets a 1000 msec interval with no decay
func (wp *WtUpdateParams) Defaults() {
	wp.Interval = 1000
	wp.DecayOn = false
	wp.Decay = 0.9
}

// Update is a no-op, for consistency with the other params
func (wp *WtUpdateParams) Update() {
}

// Validate checks the interval and decay
func (wp *WtUpdateParams) Validate() error {
	switch wp.Interval {
	case 10, 100, 1000:
	default:
		return fmt.Errorf("learn.WtUpdateParams: interval: %d must be 10, 100 or 1000 msec", wp.Interval)
	}
	if wp.DecayOn && (wp.Decay < 0 || wp.Decay > 1) {
		return fmt.Errorf("learn.WtUpdateParams: decay: %g must be in [0,1]", wp.Decay)
	}
	return nil
}

// IsUpdate returns true if the weights are updated at the end of step t
func (wp *WtUpdateParams) IsUpdate(t int64) bool {
	return (t+1)%int64(wp.Interval) == 0
}

// Apply adds the pending change (times the modulation factor) to the weight,
// clipped to [0, maxWt], and returns the new weight and pending change
func (wp *WtUpdateParams) Apply(wt, wtChg, mod, maxWt float32) (float32, float32) {
	wt += mod * wtChg
	if wt < 0 {
		wt = 0
	} else if wt > maxWt {
		wt = maxWt
	}
	if wp.DecayOn {
		wtChg *= wp.Decay
	} else {
		wtChg = 0
	}
	return wt, wtChg
}
