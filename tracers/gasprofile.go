package tracers

import (
	"cmp"
	"fmt"
	"io"

	"github.com/colorfulnotion/evm/vm"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/exp/slices"
)

// OpGas is the aggregate of one opcode in a GasProfile.
type OpGas struct {
	Op    vm.OpCode
	Count uint64
	Gas   uint64
}

// GasProfile sums charged gas per opcode. Gas forwarded to a child frame is
// counted against the CALL or CREATE that forwarded it.
type GasProfile struct {
	vm.NoopInspector
	ops map[vm.OpCode]*OpGas
}

func NewGasProfile() *GasProfile {
	return &GasProfile{ops: make(map[vm.OpCode]*OpGas)}
}

func (p *GasProfile) OnStep(s *vm.StepContext) vm.StepAction {
	e, ok := p.ops[s.Op]
	if !ok {
		e = &OpGas{Op: s.Op}
		p.ops[s.Op] = e
	}
	e.Count++
	e.Gas += s.Cost
	return vm.Continue
}

// Entries returns the profile, most expensive first.
func (p *GasProfile) Entries() []OpGas {
	out := make([]OpGas, 0, len(p.ops))
	for _, e := range p.ops {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b OpGas) int {
		if c := cmp.Compare(b.Gas, a.Gas); c != 0 {
			return c
		}
		return cmp.Compare(a.Op, b.Op)
	})
	return out
}

// Render writes an HTML page with a bar chart of the profile.
func (p *GasProfile) Render(w io.Writer, title string) error {
	entries := p.Entries()
	names := make([]string, len(entries))
	gas := make([]opts.BarData, len(entries))
	counts := make([]opts.BarData, len(entries))
	for i, e := range entries {
		names[i] = e.Op.String()
		gas[i] = opts.BarData{Value: e.Gas}
		counts[i] = opts.BarData{Value: e.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d distinct opcodes", len(entries)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("gas", gas).
		AddSeries("count", counts)

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
