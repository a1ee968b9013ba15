package commands

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

func (r *Router) registerText() {
	transform := func(name, usage, summary string, h Handler) {
		r.register(Command{Name: name, Category: catText, Usage: usage, Summary: summary, Handler: h})
	}
	transform("binary", "<text>", "Binary conversion", binaryText)
	transform("morse", "<text>", "Morse code", morseText)
	transform("reverse", "<text>", "Reverse text", reverseText)
	transform("upside", "<text>", "Upside down text", upsideText)
	transform("caesar", "<shift> <text>", "Caesar cipher", caesarText)
	transform("rot13", "<text>", "ROT13 cipher", rot13Text)
	transform("leet", "<text>", "L33t speak", leetText)
	transform("mock", "<text>", "mOcKiNg TeXt", mockText)
	transform("clap", "<text>", "Add 👏 between 👏 words", clapText)
	transform("rainbow", "<text>", "Rainbow colors", rainbowText)
	transform("zalgo", "<text>", "Chaos corruption", r.zalgoText)
	transform("pig", "<text>", "Pig Latin", pigText)
	transform("elite", "<text>", "Elite speak", eliteText)
}

func binaryText(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR")
	bits := make([]string, 0, len(text))
	for _, c := range text {
		bits = append(bits, fmt.Sprintf("%08b", c))
	}
	return ok(panel("🤖 **BINARY CONVERSION**", "Text: "+text+"\nBinary: "+strings.Join(bits, " ")+"\n\nMachine language decoded."))
}

var morseTable = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..", ' ': "/",
}

func morseText(_ context.Context, args []string) Result {
	text := strings.ToUpper(argsOr(args, "SOS"))
	codes := make([]string, 0, len(text))
	for _, c := range text {
		if m, known := morseTable[c]; known {
			codes = append(codes, m)
		} else {
			codes = append(codes, string(c))
		}
	}
	return ok(panel("📡 **MORSE CODE TRANSMISSION**", "Text: "+text+"\nMorse: "+strings.Join(codes, " ")+"\n\nVox transmission encoded."))
}

func reverseRunes(s string) string {
	rs := []rune(s)
	slices.Reverse(rs)
	return string(rs)
}

func reverseText(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR")
	return ok(panel("🔄 **TEXT REVERSAL**", "Original: "+text+"\nReversed: "+reverseRunes(text)+"\n\nMirror universe translation complete."))
}

var upsideTable = map[rune]rune{
	'a': 'ɐ', 'b': 'q', 'c': 'ɔ', 'd': 'p', 'e': 'ǝ', 'f': 'ɟ', 'g': 'ƃ',
	'h': 'ɥ', 'i': 'ᴉ', 'j': 'ɾ', 'k': 'ʞ', 'm': 'ɯ', 'n': 'u',
	'p': 'd', 'q': 'b', 'r': 'ɹ', 't': 'ʇ', 'u': 'n',
	'v': 'ʌ', 'w': 'ʍ', 'y': 'ʎ',
}

func upsideText(_ context.Context, args []string) Result {
	text := strings.ToLower(argsOr(args, "emperor"))
	flipped := []rune(strings.Map(func(c rune) rune {
		if f, known := upsideTable[c]; known {
			return f
		}
		return c
	}, text))
	slices.Reverse(flipped)
	return ok(panel("🙃 **UPSIDE DOWN TEXT**", "Original: "+text+"\nFlipped: "+string(flipped)+"\n\nGravity-defying text transformation."))
}

// shiftLetter rotates c within the alphabet starting at base. Negative
// shifts wrap backwards.
func shiftLetter(c, base rune, shift int) rune {
	off := (int(c-base) + shift) % 26
	if off < 0 {
		off += 26
	}
	return base + rune(off)
}

func caesarText(_ context.Context, args []string) Result {
	if len(args) < 2 {
		return fail("Usage: /caesar <shift> <text>")
	}
	shift, parsed := leadingInt(args[0])
	if !parsed || shift == 0 {
		shift = 3
	}
	text := strings.ToUpper(joinArgs(args[1:]))
	encrypted := strings.Map(func(c rune) rune {
		if c >= 'A' && c <= 'Z' {
			return shiftLetter(c, 'A', shift)
		}
		return c
	}, text)
	return ok(panel("🏛️ **CAESAR CIPHER**", "Shift: "+strconv.Itoa(shift)+"\nOriginal: "+text+"\nEncrypted: "+encrypted+"\n\nImperial encryption applied."))
}

func rot13(s string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'A' && c <= 'Z':
			return shiftLetter(c, 'A', 13)
		case c >= 'a' && c <= 'z':
			return shiftLetter(c, 'a', 13)
		}
		return c
	}, s)
}

func rot13Text(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR")
	return ok(panel("🔄 **ROT13 CIPHER**", "Original: "+text+"\nROT13: "+rot13(text)+"\n\nClassic cipher engaged."))
}

var leetTable = map[rune]rune{'a': '4', 'e': '3', 'i': '1', 'o': '0', 's': '5', 't': '7', 'l': '1'}

func leetText(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR")
	leet := strings.Map(func(c rune) rune {
		if l, known := leetTable[c]; known {
			return l
		}
		return c
	}, strings.ToLower(text))
	return ok(panel("👾 **L33T SP34K**", "Original: "+text+"\nL33t: "+leet+"\n\nH4CK3R m0d3 4c71v473d!"))
}

// elite applies its substitutions in sequence, vowels first, so an 'o' has
// already become '4' by the time the o->0 pass runs.
func elite(s string) string {
	return strings.Map(func(c rune) rune {
		switch unicode.ToLower(c) {
		case 'a', 'e', 'i', 'o', 'u':
			return '4'
		case 's':
			return '5'
		case 't':
			return '7'
		}
		return c
	}, s)
}

func eliteText(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR PROTECTS")
	return ok(panel("🎮 **3L173 5P34K C0NV3R510N**", "Original: "+text+"\nElite: "+elite(text)+"\n\nH4X0R m0d3 4c71v473d!"))
}

func mock(s string) string {
	var b strings.Builder
	for i, c := range []rune(s) {
		if i%2 == 0 {
			b.WriteRune(unicode.ToLower(c))
		} else {
			b.WriteRune(unicode.ToUpper(c))
		}
	}
	return b.String()
}

func mockText(_ context.Context, args []string) Result {
	text := argsOr(args, "this is fine")
	return ok(panel("🙄 **MOCKING TEXT**", "Original: "+text+"\nMocked: "+mock(text)+"\n\nSarcasm protocols engaged."))
}

func clapText(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR PROTECTS")
	return ok(panel("👏 **EMPHASIS AMPLIFIER**", strings.ReplaceAll(text, " ", " 👏 ")+"\n\nApplause enhancement complete."))
}

var rainbowDots = []string{"🔴", "🟠", "🟡", "🟢", "🔵", "🟣"}

func rainbowText(_ context.Context, args []string) Result {
	text := argsOr(args, "EMPEROR")
	var b strings.Builder
	for i, c := range []rune(text) {
		b.WriteString(rainbowDots[i%len(rainbowDots)])
		b.WriteRune(c)
	}
	return ok(panel("🌈 **RAINBOW TEXT**", b.String()+"\n\nSpectral enhancement applied."))
}

var zalgoMarks = []rune{
	'̖', '̗', '̘', '̙', '̜', '̝', '̞', '̟', '̠',
	'̤', '̥', '̦', '̩', '̪', '̫', '̬', '̭', '̮', '̯',
}

func (r *Router) zalgoText(_ context.Context, args []string) Result {
	text := argsOr(args, "CHAOS")
	var b strings.Builder
	for _, c := range text {
		b.WriteRune(c)
		for range r.rng.IntN(3) + 1 {
			b.WriteRune(zalgoMarks[r.rng.IntN(len(zalgoMarks))])
		}
	}
	return ok(panel("👹 **CHAOS CORRUPTION**", "Original: "+text+"\nCorrupted: "+b.String()+"\n\nThe warp has claimed your text!"))
}

func pigLatin(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		rs := []rune(w)
		if strings.ContainsRune("aeiouAEIOU", rs[0]) {
			words[i] = w + "way"
		} else {
			words[i] = string(rs[1:]) + string(rs[0]) + "ay"
		}
	}
	return strings.Join(words, " ")
}

func pigText(_ context.Context, args []string) Result {
	text := argsOr(args, "Emperor Protects")
	return ok(panel("🐷 **PIG LATIN TRANSLATION**", "Original: "+text+"\nPig Latin: "+pigLatin(text)+"\n\nEncryption via swine linguistics."))
}
