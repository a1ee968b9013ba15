package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

func (r *Router) registerDisplay() {
	r.register(Command{Name: "json", Category: catDisplay, Summary: "JSON example", Handler: jsonSample})
	r.register(Command{Name: "csv", Category: catDisplay, Summary: "CSV example", Handler: csvSample})
	r.register(Command{Name: "table", Category: catDisplay, Summary: "Data table", Handler: tableSample})
	r.register(Command{Name: "chart", Category: catDisplay, Summary: "Performance chart", Handler: chart})
	r.register(Command{Name: "graph", Category: catDisplay, Summary: "Data visualization", Handler: graph})
	r.register(Command{Name: "progress", Category: catDisplay, Usage: "[%]", Summary: "Progress bar", Handler: r.progress})
	r.register(Command{Name: "ascii", Category: catDisplay, Usage: "<text>", Summary: "ASCII art", Handler: ascii})
	r.register(Command{Name: "figlet", Category: catDisplay, Usage: "<text>", Summary: "Big text art", Handler: figlet})
	r.register(Command{Name: "box", Category: catDisplay, Usage: "<text>", Summary: "Text in box", Handler: box})
	r.register(Command{Name: "qr", Category: catDisplay, Usage: "<text>", Summary: "QR code (ASCII)", Handler: qr})
	r.register(Command{Name: "barcode", Category: catDisplay, Usage: "<text>", Summary: "Barcode (ASCII)", Handler: barcode})
	r.register(Command{Name: "units", Category: catUtilities, Usage: "<val> <from> <to>", Summary: "Unit conversion", Handler: units})
	r.register(Command{Name: "matrix", Category: catFun, Summary: "Matrix code stream", Handler: r.matrix})
	r.register(Command{Name: "hacker", Category: catFun, Summary: "Hacker mode", Handler: hacker})
	r.register(Command{Name: "loading", Category: catFun, Summary: "Loading animation", Handler: r.loading})
	r.register(Command{Name: "spinner", Category: catFun, Summary: "Processing spinner", Handler: r.spinner})
}

func fence(s string) string { return "```\n" + s + "\n```" }

func jsonSample(context.Context, []string) Result {
	doc := struct {
		Emperor     string `json:"emperor"`
		HeresyLevel int    `json:"heresy_level"`
		PuritySeals int    `json:"purity_seals"`
		Blessed     bool   `json:"blessed"`
	}{"protects", 0, 42, true}
	raw, _ := json.MarshalIndent(doc, "", "  ")
	return ok(panel("📋 **JSON STRUCTURE**", "```json\n"+string(raw)+"\n```\nSacred data formatted for machine consumption."))
}

func csvSample(context.Context, []string) Result {
	rows := "Name,Rank,Loyalty,Purity\nBrother Marcus,Marine,100%,Pure\nSister Agatha,Battle Sister,100%,Pure\nCommissar Cain,Officer,95%,Mostly Pure"
	return ok(panel("📊 **CSV DATA FORMAT**", fence(rows)+"\nTabular data ready for Imperial analysis."))
}

func tableSample(context.Context, []string) Result {
	rows := "| Rank       | Name        | Loyalty | Purity |\n" +
		"|------------|-------------|---------|--------|\n" +
		"| Captain    | Marcus      | 100%    | Pure   |\n" +
		"| Sergeant   | Brutus      | 98%     | Pure   |\n" +
		"| Marine     | Gaius       | 95%     | Pure   |"
	return ok(panel("📊 **DATA TABLE**", fence(rows)+"\nTabular data formatted for Imperial review."))
}

// bar renders filled of width cells as solid blocks, the rest shaded.
func bar(filled, width int) string {
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func chart(context.Context, []string) Result {
	weeks := []int{85, 92, 78, 96, 89}
	peak := 0
	for _, v := range weeks {
		peak = max(peak, v)
	}
	var b strings.Builder
	for i, v := range weeks {
		fmt.Fprintf(&b, "Week %d: %s %d%%\n", i+1, bar(v*20/peak, 20), v)
	}
	return ok(panel("📈 **PERFORMANCE CHART**", "```\n"+b.String()+"```\nImperial efficiency metrics displayed."))
}

func graph(context.Context, []string) Result {
	points := []int{3, 7, 2, 8, 5, 9, 4}
	var b strings.Builder
	for y := 10; y >= 0; y-- {
		fmt.Fprintf(&b, "%2d│", y)
		for _, p := range points {
			if p >= y {
				b.WriteString("██")
			} else {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("  └" + strings.Repeat("──", len(points)) + "\n   ")
	for i := range points {
		fmt.Fprintf(&b, "%2d", i+1)
	}
	return ok(panel("📊 **DATA VISUALIZATION**", "```\n"+b.String()+"\n```\nGraphical data representation complete."))
}

func (r *Router) progress(_ context.Context, args []string) Result {
	pct := r.rng.IntN(101)
	if len(args) > 0 && args[0] != "" {
		v, parsed := leadingInt(args[0])
		if !parsed {
			return fail("Usage: /progress [0-100]")
		}
		pct = max(0, min(100, v))
	}
	return ok(panel("📊 **PROGRESS INDICATOR**", fmt.Sprintf("[%s] %d%%\n\nImperial objectives advancing.", bar(pct/5, 20), pct)))
}

const asciiBanner = " ██████╗ ██████╗ ██████╗ \n" +
	"██╔════╝██╔═══██╗██╔══██╗\n" +
	"██║     ██║   ██║██║  ██║\n" +
	"██║     ██║   ██║██║  ██║\n" +
	"╚██████╗╚██████╔╝██████╔╝\n" +
	" ╚═════╝ ╚═════╝ ╚═════╝ "

func ascii(_ context.Context, args []string) Result {
	return ok(panel("🎭 **ASCII ART GENERATOR**", fence(asciiBanner)+"\nASCII representation of: "+argsOr(args, "EMPEROR")))
}

var figletGlyphs = map[rune][]string{
	'A': {"  █  ", " ███ ", "█   █", "█████", "█   █"},
	'I': {"█████", "  █  ", "  █  ", "  █  ", "█████"},
	'E': {"█████", "█    ", "████ ", "█    ", "█████"},
}

func figlet(_ context.Context, args []string) Result {
	word := strings.ToUpper(firstOr(args, "AI"))
	first, _ := utf8.DecodeRuneInString(word)
	glyph, known := figletGlyphs[first]
	if !known {
		glyph = []string{"?????", "?????", "?????", "?????", "?????"}
	}
	return ok(panel("🎨 **ASCII ART**", fence(strings.Join(glyph, "\n"))+"\nMonumental text rendering complete."))
}

func box(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR PROTECTS")
	edge := strings.Repeat("─", utf8.RuneCountInString(text)+2)
	frame := "┌" + edge + "┐\n│ " + text + " │\n└" + edge + "┘"
	return ok(panel("📦 **TEXT CONTAINER**", fence(frame)+"\nSecure text containment achieved."))
}

const qrArt = "██████████████  ██████████████\n" +
	"██          ██  ██          ██\n" +
	"██  ██████  ██  ██  ██████  ██\n" +
	"██  ██████  ██  ██  ██████  ██\n" +
	"██  ██████  ██  ██  ██████  ██\n" +
	"██          ██  ██          ██\n" +
	"██████████████  ██████████████"

func qr(_ context.Context, args []string) Result {
	return ok(panel("📱 **QR CODE GENERATED**", fence(qrArt)+"\nEncoded: "+argsOr(args, "EMPEROR PROTECTS")))
}

func barcode(_ context.Context, args []string) Result {
	line := "█ ██ █ █ ██ █ █ ██ █ █ ██ █"
	return ok(panel("📊 **BARCODE GENERATED**", fence(line+"\n"+line+"\n"+line)+"\nEncoded: "+argsOr(args, "40000")))
}

var unitConversions = map[string]func(float64) float64{
	"kg_lb": func(v float64) float64 { return v * 2.20462 },
	"lb_kg": func(v float64) float64 { return v * 0.453592 },
	"c_f":   func(v float64) float64 { return v*9/5 + 32 },
	"f_c":   func(v float64) float64 { return (v - 32) * 5 / 9 },
	"km_mi": func(v float64) float64 { return v * 0.621371 },
	"mi_km": func(v float64) float64 { return v * 1.60934 },
}

// units passes the value through unchanged for unit pairs it does not know.
func units(_ context.Context, args []string) Result {
	if len(args) < 3 {
		return fail("Usage: /units <value> <from_unit> <to_unit>")
	}
	value, parsed := leadingFloat(args[0])
	if !parsed {
		return fail("Usage: /units <value> <from_unit> <to_unit>")
	}
	from, to := strings.ToLower(args[1]), strings.ToLower(args[2])
	result := value
	if conv, known := unitConversions[from+"_"+to]; known {
		result = conv(value)
	}
	return ok(panel("📐 **UNIT CONVERSION**", fmt.Sprintf("%s %s = %.2f %s\n\nImperial measurements blessed by the Mechanicus.",
		strconv.FormatFloat(value, 'f', -1, 64), from, result, to)))
}

func (r *Router) matrix(context.Context, []string) Result {
	var b strings.Builder
	for range 5 {
		for range 40 {
			b.WriteByte('0' + byte(r.rng.IntN(2)))
		}
		b.WriteByte('\n')
	}
	return ok(panel("🔮 **MATRIX CODE STREAM**", "```\n"+b.String()+"```\nThe digital realm reveals its secrets."))
}

func hacker(context.Context, []string) Result {
	return ok(panel("💻 **HACKER MODE ACTIVATED**", "ACCESSING MAINFRAME...\nBYPASSING FIREWALL...\nDOWNLOADING SACRED_DATA.exe...\nUPLOADING VIRUS.bat...\nHACKING THE PLANET...\n\n> Access Granted\n> Welcome, Tech-Adept"))
}

func (r *Router) loading(context.Context, []string) Result {
	frame := r.pick([]string{"|", "/", "-", `\`})
	return ok(panel("⏳ **LOADING SEQUENCE**", "Processing... "+frame+"\n\nMachine spirit calculating..."))
}

func (r *Router) spinner(context.Context, []string) Result {
	return ok(panel("🔄 **PROCESSING INDICATOR**", r.pick([]string{"◐", "◓", "◑", "◒"})+" Working...\n\nCogitators engaged."))
}
