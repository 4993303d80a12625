// Package deps reports the availability of the external binaries gopromerge
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"gopromerge/internal/config"
)

// Requirement defines an external dependency the merge pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// Default lists the toolchain requirements for the given configuration.
func Default(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Stream-copy concatenation of chapter files",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Chapter duration probing for progress reporting",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: req.Description,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if resolved, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		} else {
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// Missing returns an error naming the first unavailable requirement, or nil.
func Missing(statuses []Status) error {
	for _, status := range statuses {
		if !status.Available {
			return fmt.Errorf("%s unavailable: %s", status.Name, status.Detail)
		}
	}
	return nil
}
