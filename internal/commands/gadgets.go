package commands

import (
	"context"
	"fmt"
	"strings"
)

// Simulated hardware and tooling readouts. None of these touch the host.

func (r *Router) registerGadgets() {
	static := func(name, category, summary, msg string) {
		r.register(Command{Name: name, Category: category, Summary: summary, Handler: func(context.Context, []string) Result {
			return ok(msg)
		}})
	}

	static("virus", catFun, "Virus scanner joke", panel("🦠 **DIGITAL PATHOGEN DETECTED**",
		"Just kidding! No viruses here.\nThe machine spirit remains pure.\nUnlike your browsing history..."))
	static("ports", catTools, "Common port reference", panel("🔌 **COMMON PORTS REFERENCE**",
		"22 - SSH\n23 - Telnet\n25 - SMTP\n53 - DNS\n80 - HTTP\n110 - POP3\n143 - IMAP\n443 - HTTPS\n993 - IMAPS\n995 - POP3S\n\nKnowledge is power. Guard it well."))
	static("services", catSystem, "System services", panel("⚙️ **SYSTEM SERVICES**",
		"Imperial Guard Service - Running\nChaos Detection Daemon - Running\nMachine Spirit Monitor - Running\nHeresy Scanner - Stopped\nPrayer Generator - Running\n\nServitor protocols active."))

	r.register(Command{Name: "ping", Category: catTools, Usage: "<target>", Summary: "Ping simulation", Handler: r.ping})
	r.register(Command{Name: "battery", Category: catSystem, Summary: "Power status", Handler: r.battery})
	r.register(Command{Name: "wifi", Category: catTools, Summary: "WiFi networks", Handler: r.wifi})
	r.register(Command{Name: "screenshot", Category: catTools, Summary: "Screen capture sim", Handler: r.screenshot})
	r.register(Command{Name: "temp", Category: catSystem, Summary: "Temperature readings", Handler: r.temp})
	r.register(Command{Name: "fan", Category: catSystem, Summary: "Fan speeds", Handler: r.fan})
	r.register(Command{Name: "gpu", Category: catSystem, Summary: "Graphics card info", Handler: r.gpu})
	r.register(Command{Name: "drives", Category: catSystem, Summary: "All storage drives", Handler: r.drives})
	r.register(Command{Name: "kill", Category: catTools, Usage: "<process>", Summary: "Terminate process", Handler: kill})
	r.register(Command{Name: "launch", Category: catTools, Usage: "<app>", Summary: "Launch application", Handler: launch})
	r.register(Command{Name: "files", Category: catTools, Usage: "[path]", Summary: "Directory listing", Handler: files})
	r.register(Command{Name: "size", Category: catTools, Usage: "<item>", Summary: "File size info", Handler: r.size})
	r.register(Command{Name: "compress", Category: catTools, Usage: "<file>", Summary: "Compression sim", Handler: r.compress})
}

func (r *Router) ping(_ context.Context, args []string) Result {
	target := firstOr(args, "localhost")
	var b strings.Builder
	fmt.Fprintf(&b, "Pinging %s...\n", target)
	for range 3 {
		fmt.Fprintf(&b, "64 bytes from %s: time=%dms\n", target, r.rng.IntN(50))
	}
	b.WriteString("\nConnection established. Vox channels open.")
	return ok(panel("📡 **PING SIMULATION**", b.String()))
}

func (r *Router) battery(context.Context, []string) Result {
	level := r.rng.IntN(100)
	status := "Critical"
	if level > 20 {
		status = "Operational"
	}
	return ok(panel("🔋 **POWER CORE STATUS**", fmt.Sprintf("Charge Level: %d%%\nStatus: %s\nEstimated Runtime: %dh %dm\n\nThe machine spirit's life force.",
		level, status, r.rng.IntN(8), r.rng.IntN(60))))
}

var wifiNetworks = []string{
	"IMPERIUM_SECURE", "Chaos_Undivided", "AdMech_Network",
	"Inquisition_Hidden", "Guard_Regiment_47", "Mechanicus_Sacred",
}

func (r *Router) wifi(context.Context, []string) Result {
	var b strings.Builder
	for _, name := range wifiNetworks {
		strength := r.rng.IntN(4) + 1
		fmt.Fprintf(&b, "%s%s %s\n", strings.Repeat("█", strength), strings.Repeat("░", 4-strength), name)
	}
	b.WriteString("\nVox frequencies detected.")
	return ok(panel("📶 **DETECTED NETWORKS**", b.String()))
}

func (r *Router) screenshot(context.Context, []string) Result {
	return ok(panel("📸 **VISUAL CAPTURE INITIATED**", fmt.Sprintf("*CLICK*\n\nImage captured at coordinates %dx%d\nStored in memory banks for analysis.\n\nSmile! You're being monitored.",
		r.rng.IntN(1920), r.rng.IntN(1080))))
}

func (r *Router) temp(context.Context, []string) Result {
	return ok(panel("🌡️ **THERMAL READINGS**", fmt.Sprintf("CPU: %d°C\nGPU: %d°C\nChassis: %d°C\n\nCooling systems nominal.",
		r.rng.IntN(40)+30, r.rng.IntN(50)+40, r.rng.IntN(20)+25)))
}

func (r *Router) fan(context.Context, []string) Result {
	var b strings.Builder
	for _, f := range []string{"CPU", "GPU", "Case Front", "Case Rear", "PSU"} {
		fmt.Fprintf(&b, "%s: %d RPM\n", f, r.rng.IntN(2000)+800)
	}
	b.WriteString("\nAtmospheric recycling systems active.")
	return ok(panel("🌪️ **COOLING SYSTEMS**", b.String()))
}

var gpuModels = []string{"RTX 4090", "RTX 4080", "RX 7900 XTX", "RTX 4070", "RX 7800 XT"}

func (r *Router) gpu(context.Context, []string) Result {
	return ok(panel("🎮 **GRAPHICS COGITATOR**", fmt.Sprintf("Model: %s\nVRAM: %dGB\nUsage: %d%%\nClock: %dMHz\n\nVisual processing matrix operational.",
		r.pick(gpuModels), r.rng.IntN(16)+8, r.rng.IntN(100), r.rng.IntN(1000)+1500)))
}

func (r *Router) drives(context.Context, []string) Result {
	var b strings.Builder
	for _, d := range []string{"C:", "D:", "E:"} {
		total := r.rng.IntN(2000) + 500
		used := total * 7 / 10
		fmt.Fprintf(&b, "%s %dGB / %dGB (%dGB free)\n", d, used, total, total-used)
	}
	b.WriteString("\nData vaults secured and catalogued.")
	return ok(panel("💾 **STORAGE ARRAYS**", b.String()))
}

func kill(_ context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /kill <process_name>")
	}
	return ok(panel("💀 **PROCESS TERMINATION**", fmt.Sprintf("Process \"%s\" marked for termination.\n*PURGE INITIATED*\n\nThe Emperor's justice is swift.", joinArgs(args))))
}

func launch(_ context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /launch <application>")
	}
	return ok(panel("🚀 **LAUNCHING APPLICATION**", fmt.Sprintf("Initializing \"%s\"...\nLoading sacred protocols...\nInvoking machine spirit...\n\nApplication blessed and launched.", joinArgs(args))))
}

func files(_ context.Context, args []string) Result {
	path := argsOr(args, "current directory")
	listing := "📁 Sacred_Texts/\n📄 Imperial_Decree.txt\n📄 Heretic_List.dat\n📁 Warp_Data/\n📄 Battle_Reports.log\n📄 Machine_Prayers.txt"
	return ok(panel("📂 **DIRECTORY LISTING: "+path+"**", listing+"\n\nArchives accessed. Knowledge preserved."))
}

func (r *Router) size(_ context.Context, args []string) Result {
	item := argsOr(args, "selected file")
	size := r.rng.IntN(1000) + 1
	unit := r.pick([]string{"KB", "MB", "GB"})
	return ok(panel("📏 **SIZE ANALYSIS**", fmt.Sprintf("Item: %s\nSize: %d.%d %s\nBlocks: %d\n\nData weight calculated.",
		item, size, r.rng.IntN(100), unit, size/4)))
}

func (r *Router) compress(_ context.Context, args []string) Result {
	file := argsOr(args, "target file")
	original := r.rng.IntN(1000) + 100
	compressed := original * 3 / 10
	ratio := (1 - float64(compressed)/float64(original)) * 100
	return ok(panel("🗜️ **COMPRESSION COMPLETE**", fmt.Sprintf("File: %s\nOriginal: %dMB\nCompressed: %dMB\nRatio: %.1f%%\n\nData compressed by sacred algorithms.",
		file, original, compressed, ratio)))
}
