/*
device.go Device is the capability shared by every controllable household
load. A device is constructed once from immutable parameters, contributes its
variables and constraints to the assembly context exactly once, and holds no
state afterwards: all schedule state (state of charge, temperature, start
times) lives in solver variables, never in the device value.
*/

package device

import (
	"fmt"

	"github.com/ohowland/dres_core/internal/pkg/builder"
)

// Device adds one energy device's sub-model to the household identified by
// the label parameter. The household's net-load linking constraints must be
// declared before Contribute is called.
type Device interface {
	Label() string
	Contribute(ctx *builder.Context, household string) error
}

// ParameterError reports malformed or inconsistent device parameters. It is
// raised before any registry mutation so a failed build never leaves a
// partially populated registry behind.
type ParameterError struct {
	Device string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("device %s: %s", e.Device, e.Reason)
}
