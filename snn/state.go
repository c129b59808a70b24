// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"slices"
)

// checkState returns an InvalidStateError (and logs it) if the network is
// not in one of the allowed states for operation op
func (nt *Network) checkState(op string, allowed ...States) error {
	if slices.Contains(allowed, nt.State) {
		return nil
	}
	return nt.logErr(&InvalidStateError{Op: op, Need: allowed, Have: nt.State})
}

// logErr logs err at the point it is raised and returns it
func (nt *Network) logErr(err error) error {
	nt.Log.Error(err.Error(), "network", nt.Nm)
	return err
}

// configErr returns a logged ConfigurationError
func (nt *Network) configErr(op, format string, args ...any) error {
	return nt.logErr(&ConfigurationError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// notFound returns a logged NotFoundError
func (nt *Network) notFound(op, kind, key string) error {
	return nt.logErr(&NotFoundError{Op: op, Kind: kind, Key: key})
}

// setState moves forward to state st
func (nt *Network) setState(st States) {
	nt.Log.Info("state", "network", nt.Nm, "from", nt.State.String(), "to", st.String(), "time", nt.Time)
	nt.State = st
}
