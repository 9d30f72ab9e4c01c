package rules

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/colorfulnotion/evm/log"
	"golang.org/x/exp/slices"
)

//go:embed presets/*.json
var presetFS embed.FS

var presetFile = map[string]string{
	"devnet": "presets/devnet.json", // latest fork, EIP-170/3860 limits lifted, 32 MiB memory ceiling
	"legacy": "presets/legacy.json", // frontier with the memory ceiling and a shallow call stack
}

// RuleSetFile is the on-disk override format. Absent fields keep the base fork's value.
type RuleSetFile struct {
	Name              string          `json:"name,omitempty"`
	Base              string          `json:"base"`
	Gas               json.RawMessage `json:"gas,omitempty"`
	MaxCallDepth      *int            `json:"max_call_depth,omitempty"`
	MaxCodeSize       *int            `json:"max_code_size,omitempty"`
	MaxInitCodeSize   *int            `json:"max_init_code_size,omitempty"`
	MemoryLimit       *uint64         `json:"memory_limit,omitempty"`
	ForfeitGasOnError *bool           `json:"forfeit_gas_on_error,omitempty"`
	RefundQuotient    *uint64         `json:"refund_quotient,omitempty"`
	CallGasRetention  *uint64         `json:"call_gas_retention,omitempty"`
}

// ReadRuleSet resolves id as a fork name, an embedded preset, or a JSON file path, in that order.
func ReadRuleSet(id string) (*RuleSet, error) {
	if f, err := ParseFork(id); err == nil {
		return ForFork(f), nil
	}
	var (
		data []byte
		err  error
	)
	if path, ok := presetFile[id]; ok {
		data, err = presetFS.ReadFile(path)
	} else {
		data, err = os.ReadFile(id)
	}
	if err != nil {
		return nil, err
	}
	var file RuleSetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("rule set %s: %w", id, err)
	}
	rs, err := file.Build()
	if err != nil {
		return nil, fmt.Errorf("rule set %s: %w", id, err)
	}
	log.Debug(log.Rules, "ReadRuleSet", "id", id, "base", rs.Fork, "name", rs.Name)
	return rs, nil
}

// Build applies the overrides on top of the base fork.
func (f *RuleSetFile) Build() (*RuleSet, error) {
	base, err := ParseFork(f.Base)
	if err != nil {
		return nil, err
	}
	rs := ForFork(base)
	if f.Name != "" {
		rs.Name = f.Name
	}
	if len(f.Gas) > 0 {
		// decoding over the defaults only touches the listed keys
		if err := json.Unmarshal(f.Gas, &rs.Gas); err != nil {
			return nil, fmt.Errorf("gas: %w", err)
		}
	}
	if f.MaxCallDepth != nil {
		if *f.MaxCallDepth < 1 {
			return nil, fmt.Errorf("max_call_depth must be positive, got %d", *f.MaxCallDepth)
		}
		rs.MaxCallDepth = *f.MaxCallDepth
	}
	if f.MaxCodeSize != nil {
		rs.MaxCodeSize = *f.MaxCodeSize
	}
	if f.MaxInitCodeSize != nil {
		rs.MaxInitCodeSize = *f.MaxInitCodeSize
	}
	if f.MemoryLimit != nil {
		rs.MemoryLimit = *f.MemoryLimit
	}
	if f.ForfeitGasOnError != nil {
		rs.ForfeitGasOnError = *f.ForfeitGasOnError
	}
	if f.RefundQuotient != nil {
		rs.RefundQuotient = *f.RefundQuotient
	}
	if f.CallGasRetention != nil {
		rs.CallGasRetention = *f.CallGasRetention
	}
	return rs, nil
}

// Presets lists the embedded rule-set names.
func Presets() []string {
	out := make([]string, 0, len(presetFile))
	for name := range presetFile {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
