package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"relpack/internal/fileops"
)

// checkMinFreeBytes matches the workflow's own pre-run disk floor.
const checkMinFreeBytes = 500 << 20

type checkResult struct {
	name     string
	ok       bool
	required bool
	detail   string
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check system requirements and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []checkResult{
				checkBinary("ffmpeg", false, "required for clipping detection and repair"),
				checkBinary("ffprobe", false, "required for probing non-WAV audio"),
				checkWritable("runtime directory", "runtime"),
				checkWritable("history directory", filepath.Dir(defaultHistoryPath)),
				checkFreeSpace("."),
			}

			rows := make([][]string, 0, len(results))
			failed := false
			for _, result := range results {
				status := "ok"
				switch {
				case !result.ok && result.required:
					status = "failed"
					failed = true
				case !result.ok:
					status = "warning"
				}
				rows = append(rows, []string{result.name, status, result.detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Details"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if failed {
				return errors.New("system requirements not met")
			}
			fmt.Fprintln(out, "All required checks passed.")
			return nil
		},
	}
}

func checkBinary(name string, required bool, hint string) checkResult {
	result := checkResult{name: name, required: required}
	path, err := exec.LookPath(name)
	if err != nil {
		result.detail = "not found; " + hint
		return result
	}
	result.ok = true
	result.detail = path
	if version := binaryVersion(name); version != "" {
		result.detail = version
	}
	return result
}

// binaryVersion reports the first line of `<name> -version`, which both
// ffmpeg and ffprobe print their release on.
func binaryVersion(name string) string {
	output, err := exec.Command(name, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}

// checkWritable probes dir with a throwaway file. A missing directory is a
// warning, not a failure: the workflow creates its directories on demand.
func checkWritable(name, dir string) checkResult {
	result := checkResult{name: name, required: true}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		result.ok = true
		result.detail = dir + " does not exist yet (created on first run)"
		return result
	}

	probe := filepath.Join(dir, ".write-check")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		result.detail = dir + " is not writable"
		return result
	}
	os.Remove(probe)
	result.ok = true
	result.detail = dir + " is writable"
	return result
}

func checkFreeSpace(path string) checkResult {
	result := checkResult{name: "disk space", required: true}
	free, err := fileops.FreeSpace(path)
	if err != nil {
		result.detail = "could not check free space: " + err.Error()
		return result
	}
	result.detail = fmt.Sprintf("%d MB free", free>>20)
	if free < checkMinFreeBytes {
		result.detail += fmt.Sprintf(" (need at least %d MB)", checkMinFreeBytes>>20)
		return result
	}
	result.ok = true
	return result
}
