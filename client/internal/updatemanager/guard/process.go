package guard

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

type processTable struct{}

// NewProcessTable returns a ProcessTable backed by the operating system process list
func NewProcessTable() ProcessTable {
	return processTable{}
}

func (processTable) CommandLine(ctx context.Context) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return "", fmt.Errorf("open current process: %w", err)
	}

	// the windows command line is split on spaces, breaking quoted paths
	if runtime.GOOS != "windows" {
		args, err := p.CmdlineSliceWithContext(ctx)
		if err == nil && len(args) > 0 && args[0] != "" {
			return args[0], nil
		}
		if err != nil {
			log.Debugf("get process command line: %v", err)
		}
	}

	exe, err := p.ExeWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("get process executable: %w", err)
	}
	return exe, nil
}

func (processTable) CountByName(ctx context.Context, name string) (int, error) {
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	count := 0
	for _, p := range processes {
		pName, err := p.NameWithContext(ctx)
		if err != nil {
			// processes may exit while being listed
			continue
		}
		if strings.EqualFold(pName, name) {
			count++
		}
	}
	return count, nil
}
