// Package sim wires the image loaders, both engines, and the output
// formatters together and advances them in lockstep. This is the
// system's only orchestration layer; every concern it touches
// (decoding, hazards, rendering) lives in a lower package.
package sim

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/DemianMArin/rv32pipe/pkg/latch"
	"github.com/DemianMArin/rv32pipe/pkg/memory"
	"github.com/DemianMArin/rv32pipe/pkg/metrics"
	"github.com/DemianMArin/rv32pipe/pkg/pipeline"
	"github.com/DemianMArin/rv32pipe/pkg/register"
	"github.com/DemianMArin/rv32pipe/pkg/singlecycle"
)

// Config holds the two input directory knobs mirrored from the CLI.
type Config struct {
	IODir    string
	TestPath string
}

// resolveInputDir picks the directory images are read from: when
// TestPath is set, images come from <testpath>/TC1/ instead of IODir.
func (c Config) resolveInputDir() string {
	if c.TestPath != "" {
		return filepath.Join(c.TestPath, "TC1")
	}
	return c.IODir
}

// Run loads the instruction/data images once, builds both engines
// over independent copies of that state, steps them in lockstep until
// both halt, then writes the data-memory and performance-metrics
// reports. Any I/O or decode error aborts the run.
func Run(cfg Config) error {
	inputDir := cfg.resolveInputDir()
	log.Printf("loading images from %s", inputDir)

	ssRegs, fsRegs := new(register.File), new(register.File)

	ssIMem, ssDMem, err := loadImages(inputDir)
	if err != nil {
		return err
	}
	fsIMem, fsDMem, err := loadImages(inputDir)
	if err != nil {
		return err
	}

	ss := singlecycle.New(ssRegs, ssIMem, ssDMem)
	fs := pipeline.New(fsRegs, fsIMem, fsDMem)
	log.Printf("engines constructed, entering lockstep loop")

	ssRFPath := filepath.Join(cfg.IODir, "SS_RFResult.txt")
	fsRFPath := filepath.Join(cfg.IODir, "FS_RFResult.txt")
	ssStatePath := filepath.Join(cfg.IODir, "StateResult_SS.txt")
	fsStatePath := filepath.Join(cfg.IODir, "StateResult_FS.txt")

	ssCycle, fsCycle := 0, 0
	iterations := 0
	for !ss.Halted || !fs.Halted {
		iterations++
		if !ss.Halted {
			if err := ss.Step(); err != nil {
				return fmt.Errorf("sim: single-cycle engine: %w", err)
			}
			if err := appendOrTruncate(ssRFPath, ssCycle == 0, func(w *os.File) error {
				return ssRegs.Render(w, ssCycle)
			}); err != nil {
				return err
			}
			if err := appendOrTruncate(ssStatePath, ssCycle == 0, func(w *os.File) error {
				return latch.RenderSingleStageState(w, ssCycle, ss.PC, ss.Nop)
			}); err != nil {
				return err
			}
			ssCycle++
		}
		if !fs.Halted {
			if err := fs.Step(); err != nil {
				return fmt.Errorf("sim: pipeline engine: %w", err)
			}
			if err := appendOrTruncate(fsRFPath, fsCycle == 0, func(w *os.File) error {
				return fsRegs.Render(w, fsCycle)
			}); err != nil {
				return err
			}
			if err := appendOrTruncate(fsStatePath, fsCycle == 0, func(w *os.File) error {
				return latch.RenderPipelineState(w, fsCycle, fs.Snapshot())
			}); err != nil {
				return err
			}
			fsCycle++
		}
	}
	log.Printf("both engines halted after %d driver iterations", iterations)

	if err := dumpDataMem(filepath.Join(cfg.IODir, "SS_DMEMResult.txt"), ssDMem); err != nil {
		return err
	}
	if err := dumpDataMem(filepath.Join(cfg.IODir, "FS_DMEMResult.txt"), fsDMem); err != nil {
		return err
	}

	perfPath := filepath.Join(cfg.IODir, "PerformanceMetrics_Result.txt")
	f, err := os.Create(perfPath)
	if err != nil {
		return fmt.Errorf("sim: create %s: %w", perfPath, err)
	}
	defer f.Close()
	ssMetrics := metrics.PerformanceMetrics{Label: "Single Stage", Cycles: ss.Cycles, Instructions: ss.Retired}
	fsMetrics := metrics.PerformanceMetrics{Label: "Five Stage", Cycles: fs.Cycles, Instructions: fs.InstructionCount()}
	if err := metrics.WriteReport(f, ssMetrics, fsMetrics); err != nil {
		return fmt.Errorf("sim: write performance metrics: %w", err)
	}

	log.Printf("wrote results to %s", cfg.IODir)
	return nil
}

func loadImages(dir string) (*memory.InstrMem, *memory.DataMem, error) {
	imemFile, err := os.Open(filepath.Join(dir, "imem.txt"))
	if err != nil {
		return nil, nil, fmt.Errorf("sim: open imem.txt: %w", err)
	}
	defer imemFile.Close()
	imem, err := memory.LoadInstrMem(imemFile)
	if err != nil {
		return nil, nil, err
	}

	dmemFile, err := os.Open(filepath.Join(dir, "dmem.txt"))
	if err != nil {
		return nil, nil, fmt.Errorf("sim: open dmem.txt: %w", err)
	}
	defer dmemFile.Close()
	dmem, err := memory.LoadDataMem(dmemFile)
	if err != nil {
		return nil, nil, err
	}

	return imem, dmem, nil
}

func dumpDataMem(path string, dmem *memory.DataMem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sim: create %s: %w", path, err)
	}
	defer f.Close()
	if err := dmem.Dump(f); err != nil {
		return fmt.Errorf("sim: write %s: %w", path, err)
	}
	return nil
}

// appendOrTruncate opens path (truncating on the first cycle,
// appending afterward) and hands it to fn, matching the "cycle 0
// truncates, subsequent cycles append" rule (§4.2, §6).
func appendOrTruncate(path string, truncate bool, fn func(*os.File) error) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if truncate {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("sim: open %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("sim: write %s: %w", path, err)
	}
	return nil
}
