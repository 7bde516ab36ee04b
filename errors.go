// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Public APIs fail fast: wrap one of these with
// fmt.Errorf("...: %w", ErrX) so callers can errors.Is against the kind
// while still getting a precise, call-site message.
var (
	// ErrBadIndex is returned when a wiring function is given a nil
	// layer.
	ErrBadIndex = errors.New("grownet: bad layer index")

	// ErrBadShape is returned for windowed wiring against a non-2D
	// source, an ND tick whose shape does not match the bound edge, or
	// a 2D tick against a non-2D input edge.
	ErrBadShape = errors.New("grownet: bad shape")

	// ErrBadConfig is returned for invalid padding modes, a
	// probabilistic proximity mode with no region RNG, an unknown
	// NeuronValue mode, or an invalid topographic preset (for example
	// sigma_surround <= sigma_center). A non-positive proximity radius
	// is not an error: ProximityEngine.Apply treats it as disabled.
	ErrBadConfig = errors.New("grownet: bad configuration")

	// ErrMissingPort is returned when tick/tick2D/tickND is called with
	// a port that was never bound.
	ErrMissingPort = errors.New("grownet: missing port")
)

func badIndexf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrBadIndex)...)
}

func badShapef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrBadShape)...)
}

func badConfigf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrBadConfig)...)
}

func missingPortf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrMissingPort)...)
}
