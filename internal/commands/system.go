package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func (r *Router) registerSystem() {
	r.register(Command{Name: "status", Category: catSystem, Summary: "Complete system overview", Handler: r.status})
	r.register(Command{Name: "time", Category: catSystem, Summary: "Current time & timezone", Handler: r.timeNow})
	r.register(Command{Name: "date", Category: catSystem, Summary: "Today's date & calendar", Handler: r.date})
	r.register(Command{Name: "uptime", Category: catSystem, Summary: "System uptime", Handler: r.uptime})
	r.register(Command{Name: "memory", Category: catSystem, Summary: "RAM usage details", Handler: r.memory})
	r.register(Command{Name: "cpu", Category: catSystem, Summary: "CPU info & usage", Handler: r.cpu})
	r.register(Command{Name: "disk", Category: catSystem, Summary: "Storage information", Handler: r.disk})
	r.register(Command{Name: "network", Category: catSystem, Summary: "Network statistics", Handler: r.network})
	r.register(Command{Name: "processes", Category: catSystem, Summary: "Top running processes", Handler: r.processes})
	r.register(Command{Name: "ip", Category: catTools, Summary: "Network interfaces", Handler: r.ip})
	r.register(Command{Name: "syslog", Category: catTools, Summary: "System event log", Handler: r.syslog})
}

func (r *Router) hostUptime() time.Duration {
	if d, err := readUptime(); err == nil {
		return d
	}
	return r.now().Sub(r.started)
}

func formatHM(d time.Duration) string {
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func (r *Router) status(context.Context, []string) Result {
	cpu := "Unavailable"
	if load, err := readLoadAverage(); err == nil {
		cpu = fmt.Sprintf("load %.2f across %d cores", load, runtime.NumCPU())
	}
	mem := "Unavailable"
	if m, err := readMemory(); err == nil {
		mem = fmt.Sprintf("%.1f%% (%s used / %s total)", m.UsedPercent(), humanize.IBytes(m.Used()), humanize.IBytes(m.Total))
	}
	storage := "Unavailable"
	if total, free, err := readDisk(r.diskPath()); err == nil && total > 0 {
		storage = fmt.Sprintf("%.1f%% used", float64(total-free)/float64(total)*100)
	}
	platform := runtime.GOOS
	if rel := readKernelRelease(); rel != "" {
		platform += " " + rel
	}

	body := fmt.Sprintf("⏰ Time: %s\n🔥 CPU Usage: %s\n🧠 Memory: %s\n💾 Storage: %s\n🌐 Platform: %s\n⚡ Uptime: %s\n\nThe machine spirit appears to be functioning within acceptable parameters.",
		r.now().Format("1/2/2006, 3:04:05 PM"), cpu, mem, storage, platform, formatHM(r.hostUptime()))
	return ok(panel("🖥️ **SYSTEM STATUS REPORT**", body))
}

func (r *Router) timeNow(context.Context, []string) Result {
	now := r.now()
	zone, _ := now.Zone()
	if loc := now.Location().String(); loc != "Local" && loc != zone {
		zone = loc + " (" + zone + ")"
	}
	return ok(panel("⏰ **TEMPORAL COORDINATES**", fmt.Sprintf("Current Time: %s\nTimezone: %s\n\nTime flows ever onward in service to the Emperor.",
		now.Format("3:04:05 PM"), zone)))
}

func (r *Router) date(context.Context, []string) Result {
	now := r.now()
	return ok(panel("📅 **IMPERIAL CALENDAR**", fmt.Sprintf("%s\nDay %d of %d\n\nAnother day in the Emperor's service.",
		now.Format("Monday, January 2, 2006"), now.YearDay(), now.Year())))
}

func (r *Router) uptime(context.Context, []string) Result {
	d := r.hostUptime()
	days := int(d.Hours()) / 24
	return ok(panel("⚡ **MACHINE SPIRIT UPTIME**", fmt.Sprintf("%dd %dh %dm\n\nThe machine has served faithfully without rest.",
		days, int(d.Hours())%24, int(d.Minutes())%60)))
}

func (r *Router) memory(context.Context, []string) Result {
	m, err := readMemory()
	if err != nil {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return ok(panel("🧠 **MEMORY COGITATORS**", fmt.Sprintf("Host readings unavailable.\nCogitator heap: %s\nReserved from host: %s\n\nMemory banks operating within acceptable parameters.",
			humanize.IBytes(ms.HeapAlloc), humanize.IBytes(ms.Sys))))
	}
	return ok(panel("🧠 **MEMORY COGITATORS**", fmt.Sprintf("Total: %s\nUsed: %s (%.1f%%)\nFree: %s\n\nMemory banks operating within acceptable parameters.",
		humanize.IBytes(m.Total), humanize.IBytes(m.Used()), m.UsedPercent(), humanize.IBytes(m.Available))))
}

func (r *Router) cpu(context.Context, []string) Result {
	model, err := readCPUModel()
	if err != nil {
		model = runtime.GOARCH + " processor"
	}
	usage := "Calculating..."
	if load, err := readLoadAverage(); err == nil {
		usage = fmt.Sprintf("load %.2f", load)
	}
	return ok(panel("🔥 **PROCESSING CORES**", fmt.Sprintf("Model: %s\nCores: %d\nUsage: %s\n\nThe machine spirit's calculations proceed.",
		model, runtime.NumCPU(), usage)))
}

// diskPath is the filesystem reported by /disk: the one holding backups
// once that directory exists, the root otherwise.
func (r *Router) diskPath() string {
	if r.backupDir != "" {
		if _, err := os.Stat(r.backupDir); err == nil {
			return r.backupDir
		}
	}
	return "/"
}

func (r *Router) disk(context.Context, []string) Result {
	total, free, err := readDisk(r.diskPath())
	if err != nil || total == 0 {
		return ok(panel("💾 **DATA STORAGE VAULTS**", fmt.Sprintf("Status: Accessible\nFormat: %s compatible\nSecurity: Active\n\nData vaults maintain structural integrity.", runtime.GOOS)))
	}
	used := total - free
	return ok(panel("💾 **DATA STORAGE VAULTS**", fmt.Sprintf("Total: %s\nUsed: %s (%.1f%%)\nFree: %s\n\nData vaults maintain structural integrity.",
		humanize.Bytes(total), humanize.Bytes(used), float64(used)/float64(total)*100, humanize.Bytes(free))))
}

func activeInterfaces() []net.Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var out []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			out = append(out, iface)
		}
	}
	return out
}

func (r *Router) network(context.Context, []string) Result {
	ifaces := activeInterfaces()
	if len(ifaces) == 0 {
		return ok(panel("🌐 **NETWORK RELAYS**", "Interface: Unknown\nStatus: Disconnected\n\nVox channels are silent."))
	}
	primary := ifaces[0]
	return ok(panel("🌐 **NETWORK RELAYS**", fmt.Sprintf("Interface: %s\nStatus: Connected\nMTU: %d\nActive relays: %d\n\nVox channels operating nominally.",
		primary.Name, primary.MTU, len(ifaces))))
}

func (r *Router) processes(context.Context, []string) Result {
	procs, err := readTopProcesses(5)
	if err != nil {
		return ok(panel("⚙️ **ACTIVE PROCESSES**", "1. System Core - Active\n2. Memory Manager - Running\n3. Network Service - Online\n4. AI Assistant - Operational\n5. Background Tasks - Idle\n\nMachine spirits working in harmony."))
	}
	var b strings.Builder
	for i, p := range procs {
		fmt.Fprintf(&b, "%d. %s - %d CPU ticks\n", i+1, p.Command, p.CPUTicks)
	}
	b.WriteString("\nMachine spirits working in harmony.")
	return ok(panel("⚙️ **ACTIVE PROCESSES**", b.String()))
}

func (r *Router) ip(context.Context, []string) Result {
	var b strings.Builder
	for _, iface := range activeInterfaces() {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, isNet := addr.(*net.IPNet)
			if !isNet || ipnet.IP.To4() == nil {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", iface.Name, ipnet.IP)
			break
		}
	}
	return ok(panel("🌐 **NETWORK INTERFACES**", b.String()+"\nYour digital coordinates in the void."))
}

var (
	syslogThreats = []string{
		"Heretical process anomalies detected and purged",
		"Chaos corruption deep scan completed - system remains pure",
		"Xenos network intrusion blocked by sacred firewall protocols",
		"Daemon-touched files quarantined in blessed containment",
		"Warp-tainted data streams filtered and sanctified",
		"Heretek code injection attempt thwarted by machine spirit",
		"Data integrity verification completed - Emperor protects",
	}
	syslogMaintenance = []string{
		"Background purification rituals performed on data vaults",
		"Memory defragmentation blessed by Tech-Adepts",
		"Temporary file exorcism completed successfully",
		"Cache purification ceremony concluded",
		"System optimization litanies recited",
		"Network stack consecration completed",
		"Hardware diagnostic hymns completed",
	}
	syslogActivity = []string{
		"User authentication blessed by machine spirit",
		"Command execution matrices optimized for sacred purpose",
		"User interface blessed with divine illumination",
		"File operation sanctified and logged",
		"Configuration changes blessed and applied",
		"User data backup rituals scheduled and blessed",
	}
)

type logEvent struct {
	at   time.Time
	tag  string
	text string
}

func (r *Router) syslog(context.Context, []string) Result {
	now := r.now()
	up := r.hostUptime()
	boot := now.Add(-up)
	events := []logEvent{
		{boot, "INIT", fmt.Sprintf("Machine Spirit awakened on %s/%s", runtime.GOOS, runtime.GOARCH)},
		{boot, "INIT", "Omnissiah's blessing invoked upon all circuits"},
		{now, "INFO", fmt.Sprintf("%d processing cores consecrated and operational", runtime.NumCPU())},
		{now, "INFO", "Sacred algorithms running on " + runtime.Version()},
		{now, "PERF", "Machine spirit performance metrics within blessed parameters"},
		{now, "HOUR", fmt.Sprintf("Emperor's Hour %d - Machine spirit remains vigilant", now.Hour())},
	}

	if m, err := readMemory(); err == nil {
		pct := m.UsedPercent()
		switch {
		case pct > 80:
			events = append(events, logEvent{now, "WARN", fmt.Sprintf("Memory cogitators strained: %.1f%% capacity reached", pct)})
		case pct > 60:
			events = append(events, logEvent{now, "INFO", fmt.Sprintf("Memory banks operational: %.1f%% utilized efficiently", pct)})
		default:
			events = append(events, logEvent{now, "INFO", fmt.Sprintf("Memory cogitators blessed: %.1f%% capacity maintained", pct)})
		}
	}
	if n := len(activeInterfaces()); n > 0 {
		events = append(events, logEvent{now, "NET", fmt.Sprintf("%d network interfaces sanctified", n)})
	}
	if days := int(up.Hours()) / 24; days > 0 {
		events = append(events, logEvent{now, "INFO", fmt.Sprintf("Blessed machine has served for %d days without faltering", days)})
	} else {
		events = append(events, logEvent{now, "INFO", fmt.Sprintf("Recent awakening: %dh since last blessed restart", int(up.Hours()))})
	}

	scatter := func(n int, window time.Duration, tag string, pool []string) {
		for range n {
			at := now.Add(-time.Duration(r.rng.Int64N(int64(window))))
			events = append(events, logEvent{at, tag, r.pick(pool)})
		}
	}
	scatter(3, 2*time.Hour, "SCAN", syslogThreats)
	scatter(4, 3*time.Hour, "MAINT", syslogMaintenance)
	scatter(3, time.Hour, "USER", syslogActivity)

	sort.SliceStable(events, func(i, j int) bool { return events[i].at.After(events[j].at) })

	var b strings.Builder
	b.WriteString("📋 **MACHINE SPIRIT EVENT LOG**\n" + longRule + "\n")
	for _, e := range events {
		fmt.Fprintf(&b, "[%s] %s - %s\n", e.tag, e.at.Format("15:04:05"), e.text)
	}
	b.WriteString("\n" + longRule + "\nThe Emperor protects. Machine spirit chronicles maintained.")
	return ok(b.String())
}
