package commands

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

const msgDecodeFailed = "Decryption failed. Invalid encoding or corrupted data."

func (r *Router) registerEncoders() {
	r.register(Command{Name: "encrypt", Category: catUtilities, Usage: "<text>", Summary: "Text encryption", Handler: encrypt})
	r.register(Command{Name: "decode", Category: catUtilities, Usage: "<base64>", Summary: "Decode text", Handler: decode})
	r.register(Command{Name: "hash", Category: catUtilities, Usage: "<text>", Summary: "Generate hash", Handler: hash})
	r.register(Command{Name: "base64", Category: catUtilities, Usage: "<text>", Summary: "Base64 encode", Handler: encodeBase64})
	r.register(Command{Name: "url", Category: catUtilities, Usage: "<text>", Summary: "URL encode", Handler: encodeURL})
}

func encrypt(_ context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /encrypt <text>")
	}
	text := joinArgs(args)
	return ok(panel("🔐 **ENCRYPTION COMPLETE**", "Original: "+text+"\nEncrypted: "+base64.StdEncoding.EncodeToString([]byte(text))+"\n\nYour secrets are safe... for now."))
}

// decodeBase64 accepts padded or unpadded standard and URL-safe alphabets.
// The result must be valid UTF-8.
func decodeBase64(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		raw, err := enc.DecodeString(s)
		if err == nil && utf8.Valid(raw) {
			return string(raw), true
		}
	}
	return "", false
}

func decode(_ context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /decode <base64_text>")
	}
	encoded := joinArgs(args)
	decoded, valid := decodeBase64(encoded)
	if !valid {
		return fail(msgDecodeFailed)
	}
	return ok(panel("🔓 **DECRYPTION SUCCESSFUL**", "Encoded: "+encoded+"\nDecoded: "+decoded+"\n\nSecrets revealed by the machine spirit."))
}

func hash(_ context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /hash <text>")
	}
	text := joinArgs(args)
	sum := sha256.Sum256([]byte(text))
	return ok(panel("#️⃣ **HASH GENERATED**", "Input: "+text+"\nSHA-256: "+hex.EncodeToString(sum[:])+"\n\nData fingerprint captured."))
}

func encodeBase64(_ context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /base64 <text>")
	}
	text := joinArgs(args)
	return ok(panel("🔄 **BASE64 ENCODING**", "Original: "+text+"\nEncoded: "+base64.StdEncoding.EncodeToString([]byte(text))+"\n\nData transformed by sacred algorithms."))
}

func encodeURL(_ context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /url <text>")
	}
	text := joinArgs(args)
	return ok(panel("🔗 **URL ENCODING**", "Original: "+text+"\nEncoded: "+componentEscape(text)+"\n\nWeb-safe formatting applied."))
}

// componentEscape percent-encodes every byte outside the URI component
// unreserved set A-Z a-z 0-9 - _ . ! ~ * ' ( ). Unlike url.QueryEscape it
// never turns spaces into '+'.
func componentEscape(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
