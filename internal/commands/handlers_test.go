package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"cogitator/internal/gateway"
)

func TestRiddleParsesLabeledReply(t *testing.T) {
	f := newFixture(t)
	f.chat.reply = gateway.Result{Success: true, Message: "Riddle: I have a skull but no body. What am I?\nAnswer: A servo-skull"}

	res := f.run(t, "riddle")
	if !res.Success {
		t.Fatalf("riddle failed: %+v", res)
	}
	if !strings.Contains(res.Message, "I have a skull but no body. What am I?\n\n**Answer:** ||A servo-skull||") {
		t.Fatalf("unexpected riddle:\n%s", res.Message)
	}
	if !strings.HasSuffix(res.Message, revealHint) {
		t.Fatalf("missing reveal hint:\n%s", res.Message)
	}
}

func TestParseRiddleFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		riddle   string
		answer   string
		expected bool
	}{
		{"labels", "Riddle: What burns?\nAnswer: Heretics", "What burns?", "Heretics", true},
		{"inline answer", "What has teeth but never bites?\nThe answer is: a chainsword", "What has teeth but never bites?", "a chainsword", true},
		{"solution label", "Riddle: Who sits upon the throne?\n\nSolution: The Emperor", "Who sits upon the throne?", "The Emperor", true},
		{"unstructured", "The warp whispers nothing useful.", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			riddle, answer, parsed := parseRiddle(tc.in)
			if parsed != tc.expected {
				t.Fatalf("parsed=%v want %v (riddle=%q answer=%q)", parsed, tc.expected, riddle, answer)
			}
			if parsed && (riddle != tc.riddle || answer != tc.answer) {
				t.Fatalf("got (%q, %q) want (%q, %q)", riddle, answer, tc.riddle, tc.answer)
			}
		})
	}
}

func TestRiddleUnparseableReplyIsWhollyHidden(t *testing.T) {
	f := newFixture(t)
	f.chat.reply = gateway.Result{Success: true, Message: "  An enigma wrapped in ceramite.  "}
	res := f.run(t, "riddle")
	if !strings.Contains(res.Message, "||An enigma wrapped in ceramite.||") || !strings.HasSuffix(res.Message, "*Reveal to see the riddle and its answer.*") {
		t.Fatalf("unexpected fallback:\n%s", res.Message)
	}
}

func TestTriviaAndQuiz(t *testing.T) {
	f := newFixture(t)
	f.chat.reply = gateway.Result{Success: true, Message: "Question: How many loyal legions?\nAnswer: Nine"}
	res := f.run(t, "trivia legions")
	if !strings.Contains(res.Message, "**Question:** How many loyal legions?") || !strings.Contains(res.Message, "||Nine||") {
		t.Fatalf("unexpected trivia:\n%s", res.Message)
	}
	if !strings.Contains(f.chat.last(), "trivia question about legions.") {
		t.Fatalf("topic not forwarded: %q", f.chat.last())
	}

	f.chat.reply = gateway.Result{Success: true, Message: "just vibes"}
	if res := f.run(t, "trivia"); res.Message != "just vibes" {
		t.Fatalf("unparsed trivia should pass through, got %q", res.Message)
	}

	f.chat.reply = gateway.Result{Success: true, Message: "Question: Primarch of the Ultramarines?\nA) Guilliman\nB) Dorn\nC) Russ\nD) Sanguinius\nAnswer: A) Guilliman"}
	res = f.run(t, "quiz")
	want := "**Primarch of the Ultramarines?**\n\nA) Guilliman\nB) Dorn\nC) Russ\nD) Sanguinius\n\n**Answer:** ||A) Guilliman||"
	if !strings.Contains(res.Message, want) {
		t.Fatalf("unexpected quiz:\n%s", res.Message)
	}

	f.chat.reply = gateway.Result{Success: true, Message: "Question: Missing options?\nAnswer: yes"}
	if res := f.run(t, "quiz"); res.Message != "Question: Missing options?\nAnswer: yes" {
		t.Fatalf("quiz without four options should pass through, got %q", res.Message)
	}
}

func TestPasswordBounds(t *testing.T) {
	f := newFixture(t)
	for _, arg := range []string{"3", "51", "abc", "-5"} {
		if res := f.run(t, "password "+arg); res.Success || res.Message != "Password length must be between 4 and 50 characters." {
			t.Fatalf("password %s: %+v", arg, res)
		}
	}
	for arg, length := range map[string]int{"": 16, "4": 4, "50": 50, "12chars": 12} {
		res := f.run(t, strings.TrimSpace("password "+arg))
		if !res.Success {
			t.Fatalf("password %q failed: %+v", arg, res)
		}
		parts := strings.Split(res.Message, "`")
		if len(parts) < 3 || len(parts[1]) != length {
			t.Fatalf("password %q: unexpected body %q", arg, res.Message)
		}
		for _, c := range parts[1] {
			if !strings.ContainsRune(passwordAlphabet, c) {
				t.Fatalf("character %q outside alphabet", c)
			}
		}
	}
}

func TestRollAndChoose(t *testing.T) {
	f := newFixture(t)
	for _, arg := range []string{"1", "101", "d20"} {
		if res := f.run(t, "roll "+arg); res.Success || res.Message != "Dice must have between 2 and 100 sides." {
			t.Fatalf("roll %s: %+v", arg, res)
		}
	}
	if res := f.run(t, "roll"); !strings.Contains(res.Message, "Rolled d6: **") {
		t.Fatalf("default roll: %q", res.Message)
	}
	if res := f.run(t, "roll 100"); !res.Success {
		t.Fatalf("roll 100 failed: %+v", res)
	}

	if res := f.run(t, "choose bolter"); res.Success || res.Message != "Usage: /choose option1 option2 [option3...]" {
		t.Fatalf("choose with one option: %+v", res)
	}
	res := f.run(t, "choose bolter chainsword")
	if !strings.Contains(res.Message, "**bolter**") && !strings.Contains(res.Message, "**chainsword**") {
		t.Fatalf("choice not among options: %q", res.Message)
	}
}

func TestUUIDIsValid(t *testing.T) {
	f := newFixture(t)
	res := f.run(t, "uuid")
	line := strings.Split(res.Message, "\n")[2]
	id, err := uuid.Parse(line)
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	if id.Version() != 4 {
		t.Fatalf("expected version 4, got %d", id.Version())
	}
}

func TestEpoch(t *testing.T) {
	f := newFixture(t)
	res := f.run(t, "epoch")
	if !strings.Contains(res.Message, "Epoch: 1767323045000") || !strings.Contains(res.Message, "ISO: 2026-01-02T03:04:05.000Z") {
		t.Fatalf("unexpected epoch:\n%s", res.Message)
	}
}

func TestUnits(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"units 10 km mi":  "10 km = 6.21 mi",
		"units 100 C F":   "100 c = 212.00 f",
		"units 212 f c":   "212 f = 100.00 c",
		"units 1 kg lb":   "1 kg = 2.20 lb",
		"units 5 ft m":    "5 ft = 5.00 m",
		"units 2.5 mi km": "2.5 mi = 4.02 km",
	}
	for line, want := range cases {
		res := f.run(t, line)
		if !strings.Contains(res.Message, want) {
			t.Fatalf("%s: got %q want %q", line, res.Message, want)
		}
	}
	for _, line := range []string{"units 10 km", "units heavy kg lb"} {
		if res := f.run(t, line); res.Success || res.Message != "Usage: /units <value> <from_unit> <to_unit>" {
			t.Fatalf("%s: %+v", line, res)
		}
	}
}

func TestTextTransforms(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"rot13", rot13, "Hello, World", "Uryyb, Jbeyq"},
		{"rot13 twice", func(s string) string { return rot13(rot13(s)) }, "Emperor", "Emperor"},
		{"reverse", reverseRunes, "héllo", "olléh"},
		{"pig latin", pigLatin, "Emperor Protects", "Emperorway rotectsPay"},
		{"mock", mock, "this is fine", "tHiS Is fInE"},
		{"elite", elite, "EMPEROR PROTECTS", "4MP4R4R PR474C75"},
		{"component escape", componentEscape, "a b&c/é!~*'()", "a%20b%26c%2F%C3%A9!~*'()"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestTransformCommands(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"binary A":       "Binary: 01000001",
		"morse sos":      "Morse: ... --- ...",
		"morse hi 1":     "Morse: .... .. / 1",
		"caesar 3 abc":   "Shift: 3\nOriginal: ABC\nEncrypted: DEF",
		"caesar -1 abc":  "Shift: -1\nOriginal: ABC\nEncrypted: ZAB",
		"caesar 0 xyz":   "Shift: 3\nOriginal: XYZ\nEncrypted: ABC",
		"caesar x hi":    "Shift: 3\nOriginal: HI\nEncrypted: KL",
		"caesar 29 a":    "Encrypted: D",
		"upside Hello":   "Original: hello\nFlipped: ollǝɥ",
		"leet Elite":     "L33t: 31173",
		"clap for the":   "for 👏 the",
		"rainbow ab":     "🔴a🟠b",
		"encrypt hi":     "Encrypted: aGk=",
		"base64 hi":      "Encoded: aGk=",
		"decode aGk=":    "Decoded: hi",
		"decode aGk":     "Decoded: hi",
		"hash abc":       "SHA-256: ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		"url a b":        "Encoded: a%20b",
		"progress 150":   "[████████████████████] 100%",
		"progress -3":    "[░░░░░░░░░░░░░░░░░░░░] 0%",
		"progress 50":    "[██████████░░░░░░░░░░] 50%",
		"box hi":         "┌────┐\n│ hi │\n└────┘",
		"figlet ice":     "█████\n  █  \n  █  \n  █  \n█████",
		"figlet zz":      "?????",
		"kill heretek":   "Process \"heretek\" marked for termination.",
		"files":          "📂 **DIRECTORY LISTING: current directory**",
		"rps scissors":   "You: scissors",
		"currency usd":   "1 USD = ",
		"stocks tsla":    "Symbol: TSLA",
		"crypto":         "Coin: BTC",
		"8ball will it?": "Question: will it?",
	}
	for line, want := range cases {
		res := f.run(t, line)
		if !res.Success || !strings.Contains(res.Message, want) {
			t.Fatalf("%s: got %+v want substring %q", line, res, want)
		}
	}
	for line, want := range map[string]string{
		"caesar 3":    "Usage: /caesar <shift> <text>",
		"decode !!!":  msgDecodeFailed,
		"decode //8=": msgDecodeFailed,
		"hash":        "Usage: /hash <text>",
		"url":         "Usage: /url <text>",
		"encrypt":     "Usage: /encrypt <text>",
		"base64":      "Usage: /base64 <text>",
		"kill":        "Usage: /kill <process_name>",
		"launch":      "Usage: /launch <application>",
	} {
		if res := f.run(t, line); res.Success || res.Message != want {
			t.Fatalf("%s: got %+v want %q", line, res, want)
		}
	}
}

func TestZalgoKeepsBaseText(t *testing.T) {
	f := newFixture(t)
	res := f.run(t, "zalgo warp")
	line := strings.Split(res.Message, "\n")[3]
	corrupted := strings.TrimPrefix(line, "Corrupted: ")
	stripped := strings.Map(func(r rune) rune {
		for _, m := range zalgoMarks {
			if r == m {
				return -1
			}
		}
		return r
	}, corrupted)
	if stripped != "warp" {
		t.Fatalf("base text lost: %q -> %q", corrupted, stripped)
	}
}

func TestEveryStaticCommandSucceeds(t *testing.T) {
	f := newFixture(t)
	skip := map[string]bool{"caesar": true, "choose": true, "translate": true, "calculate": true,
		"decode": true, "encrypt": true, "hash": true, "base64": true, "url": true, "kill": true,
		"launch": true, "units": true, "search": true, "todo": true, "log": true, "export": true, "reminder": true}
	for _, name := range f.router.Names() {
		if skip[name] {
			continue
		}
		res := f.run(t, name)
		if !res.Success || res.Message == "" {
			t.Fatalf("/%s failed with no arguments: %+v", name, res)
		}
		if res.Message == MsgHandlerPanic {
			t.Fatalf("/%s panicked", name)
		}
	}
}

func writeFixture(t *testing.T, root, name, body string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func useProcFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	prev := procRoot
	procRoot = root
	t.Cleanup(func() { procRoot = prev })
	return root
}

func TestProcReaders(t *testing.T) {
	root := useProcFixture(t)
	writeFixture(t, root, "meminfo", "MemTotal:       16384000 kB\nMemFree:         1000000 kB\nMemAvailable:    4096000 kB\n")
	writeFixture(t, root, "loadavg", "0.42 0.30 0.25 1/123 4567\n")
	writeFixture(t, root, "uptime", "93784.50 180000.00\n")
	writeFixture(t, root, "cpuinfo", "processor\t: 0\nmodel name\t: Cogitator Mk IV @ 3.00GHz\n")
	writeFixture(t, root, "sys/kernel/osrelease", "6.1.0-imperial\n")
	writeFixture(t, root, "1/stat", "1 (init) S 0 1 1 0 -1 4194560 100 0 0 0 50 25 0 0 20 0 1 0 1 0 0\n")
	writeFixture(t, root, "42/stat", "42 (servo (skull)) R 1 42 42 0 -1 4194560 100 0 0 0 300 200 0 0 20 0 1 0 1 0 0\n")
	writeFixture(t, root, "7/stat", "garbage")
	writeFixture(t, root, "self/stat", "ignored")

	mem, err := readMemory()
	if err != nil {
		t.Fatalf("readMemory: %v", err)
	}
	if mem.Total != 16384000*1024 || mem.Available != 4096000*1024 || mem.UsedPercent() != 75 {
		t.Fatalf("unexpected memory reading: %+v", mem)
	}
	load, err := readLoadAverage()
	if err != nil || load != 0.42 {
		t.Fatalf("load=%v err=%v", load, err)
	}
	up, err := readUptime()
	if err != nil || up.Truncate(time.Second) != 26*time.Hour+3*time.Minute+4*time.Second {
		t.Fatalf("uptime=%v err=%v", up, err)
	}
	model, err := readCPUModel()
	if err != nil || model != "Cogitator Mk IV @ 3.00GHz" {
		t.Fatalf("model=%q err=%v", model, err)
	}
	if rel := readKernelRelease(); rel != "6.1.0-imperial" {
		t.Fatalf("kernel=%q", rel)
	}

	procs, err := readTopProcesses(5)
	if err != nil {
		t.Fatalf("readTopProcesses: %v", err)
	}
	want := []procReading{
		{PID: 42, Command: "servo (skull)", CPUTicks: 500},
		{PID: 1, Command: "init", CPUTicks: 75},
	}
	if diff := cmp.Diff(want, procs); diff != "" {
		t.Fatalf("processes mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemCommandsUseHostReadings(t *testing.T) {
	root := useProcFixture(t)
	writeFixture(t, root, "meminfo", "MemTotal: 2097152 kB\nMemAvailable: 1048576 kB\n")
	writeFixture(t, root, "uptime", "93784.00 0\n")
	writeFixture(t, root, "9/stat", "9 (bash) S 0 1 1 0 -1 0 0 0 0 0 7 3 0 0 20 0 1 0 1 0 0\n")

	f := newFixture(t)
	cases := map[string]string{
		"memory":    "Total: 2.0 GiB\nUsed: 1.0 GiB (50.0%)\nFree: 1.0 GiB",
		"uptime":    "1d 2h 3m",
		"processes": "1. bash - 10 CPU ticks",
		"date":      "Friday, January 2, 2026\nDay 2 of 2026",
	}
	for line, want := range cases {
		if res := f.run(t, line); !strings.Contains(res.Message, want) {
			t.Fatalf("%s: got %q want substring %q", line, res.Message, want)
		}
	}

	res := f.run(t, "syslog")
	if !strings.HasPrefix(res.Message, "📋 **MACHINE SPIRIT EVENT LOG**") || !strings.Contains(res.Message, "Blessed machine has served for 1 days without faltering") {
		t.Fatalf("unexpected syslog:\n%s", res.Message)
	}
}

func TestSystemCommandsFallBackWithoutProc(t *testing.T) {
	useProcFixture(t)
	f := newFixture(t)
	if res := f.run(t, "processes"); !strings.Contains(res.Message, "1. System Core - Active") {
		t.Fatalf("expected themed fallback, got %q", res.Message)
	}
	if res := f.run(t, "memory"); !strings.Contains(res.Message, "Host readings unavailable.") {
		t.Fatalf("expected memory fallback, got %q", res.Message)
	}
}
