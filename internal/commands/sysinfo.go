package commands

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// procRoot is where host readings come from. Tests point it at a fixture tree.
var procRoot = "/proc"

var errNoReading = errors.New("reading unavailable")

type memReading struct {
	Total     uint64
	Available uint64
}

func (m memReading) Used() uint64 { return m.Total - m.Available }

func (m memReading) UsedPercent() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Used()) / float64(m.Total) * 100
}

func readMemory() (memReading, error) {
	f, err := os.Open(filepath.Join(procRoot, "meminfo"))
	if err != nil {
		return memReading{}, err
	}
	defer f.Close()

	var m memReading
	var free uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			m.Total = kb * 1024
		case "MemAvailable:":
			m.Available = kb * 1024
		case "MemFree:":
			free = kb * 1024
		}
	}
	if m.Total == 0 {
		return memReading{}, errNoReading
	}
	if m.Available == 0 {
		m.Available = free
	}
	return m, nil
}

func readCPUModel() (string, error) {
	data, err := os.ReadFile(filepath.Join(procRoot, "cpuinfo"))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if found && strings.TrimSpace(key) == "model name" {
			return strings.TrimSpace(value), nil
		}
	}
	return "", errNoReading
}

func readLoadAverage() (float64, error) {
	data, err := os.ReadFile(filepath.Join(procRoot, "loadavg"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, errNoReading
	}
	return strconv.ParseFloat(fields[0], 64)
}

func readUptime() (time.Duration, error) {
	data, err := os.ReadFile(filepath.Join(procRoot, "uptime"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, errNoReading
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func readKernelRelease() string {
	data, err := os.ReadFile(filepath.Join(procRoot, "sys", "kernel", "osrelease"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

type procReading struct {
	PID      int
	Command  string
	CPUTicks uint64
}

// readTopProcesses returns the n processes with the most accumulated CPU time.
func readTopProcesses(n int) ([]procReading, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, err
	}
	var procs []procReading
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(procRoot, e.Name(), "stat"))
		if err != nil {
			continue
		}
		if p, ok := parseProcStat(pid, data); ok {
			procs = append(procs, p)
		}
	}
	if len(procs) == 0 {
		return nil, errNoReading
	}
	sort.Slice(procs, func(i, j int) bool {
		if procs[i].CPUTicks != procs[j].CPUTicks {
			return procs[i].CPUTicks > procs[j].CPUTicks
		}
		return procs[i].PID < procs[j].PID
	})
	if len(procs) > n {
		procs = procs[:n]
	}
	return procs, nil
}

// parseProcStat reads comm, utime and stime from a /proc/<pid>/stat line.
// comm is parenthesised and may itself contain spaces or parentheses.
func parseProcStat(pid int, data []byte) (procReading, bool) {
	open := bytes.IndexByte(data, '(')
	end := bytes.LastIndexByte(data, ')')
	if open < 0 || end < open {
		return procReading{}, false
	}
	rest := strings.Fields(string(data[end+1:]))
	// rest[0] is state; utime and stime are fields 14 and 15 of the full line.
	if len(rest) < 13 {
		return procReading{}, false
	}
	utime, err1 := strconv.ParseUint(rest[11], 10, 64)
	stime, err2 := strconv.ParseUint(rest[12], 10, 64)
	if err1 != nil || err2 != nil {
		return procReading{}, false
	}
	return procReading{PID: pid, Command: string(data[open+1 : end]), CPUTicks: utime + stime}, true
}
