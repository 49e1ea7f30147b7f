// Package metrics computes and renders the aggregate performance
// report written to PerformanceMetrics_Result.txt.
package metrics

import (
	"fmt"
	"io"
)

// PerformanceMetrics holds the cycle and instruction counts needed to
// compute CPI and IPC for one engine's run.
type PerformanceMetrics struct {
	Label        string
	Cycles       int
	Instructions int
}

// CPI returns cycles per instruction. Division by zero (no
// instructions retired) is left undefined, matching the source
// behavior: tests do not exercise it.
func (m PerformanceMetrics) CPI() float64 {
	return float64(m.Cycles) / float64(m.Instructions)
}

// IPC returns instructions per cycle, the reciprocal of CPI.
func (m PerformanceMetrics) IPC() float64 {
	return 1.0 / m.CPI()
}

// WriteBlock renders one metrics block:
//
//	Performance of <Label>
//	Cycles -> <n>
//	Instructions -> <n>
//	CPI -> <f>
//	IPC -> <f>
func (m PerformanceMetrics) WriteBlock(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Performance of %s\nCycles -> %d\nInstructions -> %d\nCPI -> %f\nIPC -> %f\n\n",
		m.Label, m.Cycles, m.Instructions, m.CPI(), m.IPC(),
	)
	return err
}

// WriteReport writes the single-stage block followed by the
// five-stage block to w, matching PerformanceMetrics_Result.txt's
// two-block layout. Truncating the file is left to the caller.
func WriteReport(w io.Writer, singleStage, fiveStage PerformanceMetrics) error {
	if err := singleStage.WriteBlock(w); err != nil {
		return err
	}
	return fiveStage.WriteBlock(w)
}
