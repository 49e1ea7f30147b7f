package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func wordBits(w uint32) string {
	var sb strings.Builder
	for shift := 24; shift >= 0; shift -= 8 {
		b := byte(w >> uint(shift))
		for i := 7; i >= 0; i-- {
			if b&(1<<uint(i)) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestRunProducesAllOutputFiles(t *testing.T) {
	dir := t.TempDir()

	// ADDI x1,x0,5 ; ADDI x2,x0,7 ; ADD x3,x1,x2 ; HALT
	words := []uint32{0x00500093, 0x00700113, 0x002081B3, 0xFFFFFFFF}
	var imem strings.Builder
	for _, w := range words {
		imem.WriteString(wordBits(w))
	}
	if err := os.WriteFile(filepath.Join(dir, "imem.txt"), []byte(imem.String()), 0644); err != nil {
		t.Fatalf("write imem.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dmem.txt"), []byte(""), 0644); err != nil {
		t.Fatalf("write dmem.txt: %v", err)
	}

	if err := Run(Config{IODir: dir}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"SS_RFResult.txt", "FS_RFResult.txt",
		"StateResult_SS.txt", "StateResult_FS.txt",
		"SS_DMEMResult.txt", "FS_DMEMResult.txt",
		"PerformanceMetrics_Result.txt",
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}

	rf, err := os.ReadFile(filepath.Join(dir, "FS_RFResult.txt"))
	if err != nil {
		t.Fatalf("read FS_RFResult.txt: %v", err)
	}
	if !strings.Contains(string(rf), "State of RF after executing cycle:\t0") {
		t.Errorf("FS_RFResult.txt missing cycle-0 header: %q", string(rf))
	}
}

func TestResolveInputDirWithTestPath(t *testing.T) {
	cfg := Config{IODir: "/unused", TestPath: "/root/tests"}
	if got, want := cfg.resolveInputDir(), filepath.Join("/root/tests", "TC1"); got != want {
		t.Errorf("resolveInputDir = %q, want %q", got, want)
	}
}

func TestResolveInputDirWithoutTestPath(t *testing.T) {
	cfg := Config{IODir: "/some/iodir"}
	if got := cfg.resolveInputDir(); got != "/some/iodir" {
		t.Errorf("resolveInputDir = %q, want /some/iodir", got)
	}
}
