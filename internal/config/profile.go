package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
)

// Profile is the decoded shape of a run-profile HCL file. Every attribute is
// optional; zero values mean "not set".
type Profile struct {
	// Python is the interpreter hint: a bare name, an executable path, or a
	// virtual-environment root.
	Python string `hcl:"python,optional"`
	// WorkDir is the server process working directory.
	WorkDir string `hcl:"work_dir,optional"`
	// KernelName selects the kernel spec for new sessions.
	KernelName string `hcl:"kernel_name,optional"`
	// BasePort is where the free-port probe starts.
	BasePort int `hcl:"base_port,optional"`
	// StartupTimeout bounds server startup, as a Go duration string.
	StartupTimeout string `hcl:"startup_timeout,optional"`
	// Notebook and Block narrow the run the same way the CLI flags do.
	Notebook string `hcl:"notebook,optional"`
	Block    string `hcl:"block,optional"`
	// Snapshot requests snapshot persistence after the run.
	Snapshot bool `hcl:"snapshot,optional"`

	// InputsRaw is the typed `inputs` object attribute; use Inputs to get
	// native Go values.
	InputsRaw cty.Value `hcl:"inputs,optional"`
}

// Load reads and decodes a profile file.
func Load(path string) (*Profile, error) {
	var p Profile
	if err := hclsimple.DecodeFile(path, nil, &p); err != nil {
		return nil, fmt.Errorf("failed to load run profile %s: %w", path, err)
	}
	return &p, nil
}

// Inputs converts the profile's `inputs` attribute into native Go values
// suitable for literal injection.
func (p *Profile) Inputs() (map[string]any, error) {
	if p.InputsRaw == cty.NilVal || p.InputsRaw.IsNull() {
		return nil, nil
	}
	native, err := ctyToNative(p.InputsRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid inputs in run profile: %w", err)
	}
	inputs, ok := native.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("inputs in run profile must be an object, got %s", p.InputsRaw.Type().FriendlyName())
	}
	return inputs, nil
}

// StartupTimeoutDuration parses the startup_timeout attribute. Zero means
// unset.
func (p *Profile) StartupTimeoutDuration() (time.Duration, error) {
	if p.StartupTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.StartupTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid startup_timeout in run profile: %w", err)
	}
	return d, nil
}
