package rules

import (
	"fmt"
	"strings"
)

// Fork identifies a rule-set version. Later forks compare greater.
type Fork uint8

const (
	Frontier Fork = iota
	Homestead
	TangerineWhistle // EIP-150
	SpuriousDragon   // EIP-158/161/170
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	Berlin
	London
	Paris
	Shanghai
	Cancun
	Prague
	Osaka // Prague plus the EOF container format (EIP-7692)
	numForks
)

var forkNames = [numForks]string{
	Frontier:         "frontier",
	Homestead:        "homestead",
	TangerineWhistle: "tangerine",
	SpuriousDragon:   "spurious",
	Byzantium:        "byzantium",
	Constantinople:   "constantinople",
	Petersburg:       "petersburg",
	Istanbul:         "istanbul",
	Berlin:           "berlin",
	London:           "london",
	Paris:            "paris",
	Shanghai:         "shanghai",
	Cancun:           "cancun",
	Prague:           "prague",
	Osaka:            "osaka",
}

var forkAliases = map[string]Fork{
	"eip150":           TangerineWhistle,
	"tangerinewhistle": TangerineWhistle,
	"eip158":           SpuriousDragon,
	"spuriousdragon":   SpuriousDragon,
	"merge":            Paris,
	"latest":           Prague,
	"eof":              Osaka,
}

func (f Fork) String() string {
	if f < numForks {
		return forkNames[f]
	}
	return fmt.Sprintf("fork(%d)", uint8(f))
}

// ParseFork accepts the lower-case fork name or a common alias.
func ParseFork(name string) (Fork, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range forkNames {
		if n == name {
			return Fork(f), nil
		}
	}
	if f, ok := forkAliases[name]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown fork %q", name)
}

// Forks lists every supported fork in activation order.
func Forks() []Fork {
	out := make([]Fork, 0, numForks)
	for f := Frontier; f < numForks; f++ {
		out = append(out, f)
	}
	return out
}

func (f Fork) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fork) UnmarshalText(b []byte) error {
	parsed, err := ParseFork(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
