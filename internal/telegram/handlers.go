package telegram

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"cogitator/internal/shell"
)

const (
	// MaxMessageLen is Telegram's limit in UTF-16 code units.
	MaxMessageLen = 4096

	msgCleared  = "🧹 Scrollback purged. The record begins anew."
	errorPrefix = "💀 "
)

var spoilerPattern = regexp.MustCompile(`(?s)\|\|(.*?)\|\|`)

func (s *Service) privateText(b *gotgbot.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat == nil || ctx.EffectiveUser == nil || ctx.EffectiveMessage == nil {
		return nil
	}
	return s.handle(context.Background(), b, ctx.EffectiveChat.Id, ctx.EffectiveUser.Id, ctx.EffectiveMessage.GetText())
}

func (s *Service) handle(parent context.Context, out sender, chatID, userID int64, text string) error {
	line := normalizeLine(text)
	if line == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(parent, s.lineTimeout)
	defer cancel()

	res := s.session(userID).Execute(ctx, line)
	s.logger.Debug().Int64("chat_id", chatID).Bool("success", res.Success).Msg("telegram line handled")

	reply := res.Message
	switch {
	case shell.IsClear(res):
		reply = msgCleared
	case !res.Success:
		reply = errorPrefix + reply
	}
	return s.reply(out, chatID, reply)
}

func (s *Service) reply(out sender, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, MaxMessageLen) {
		body, entities := spoilerEntities(chunk)
		if strings.TrimSpace(body) == "" {
			continue
		}
		if _, err := out.SendMessage(chatID, body, &gotgbot.SendMessageOpts{Entities: entities}); err != nil {
			return err
		}
	}
	return nil
}

// normalizeLine maps Telegram conventions onto shell input: /start opens
// help and a trailing @botname on the command word is dropped.
func normalizeLine(text string) string {
	first, rest := splitFirstWord(text)
	if !strings.HasPrefix(first, shell.Prefix) {
		return strings.TrimSpace(text)
	}
	if at := strings.IndexByte(first, '@'); at > 0 {
		first = first[:at]
	}
	if strings.EqualFold(first, "/start") {
		first = "/help"
	}
	if rest == "" {
		return first
	}
	return first + " " + rest
}

func splitFirstWord(s string) (first string, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	idx := strings.IndexByte(s, ' ')
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}

// splitMessage cuts text into chunks of at most limit UTF-16 units,
// preferring line breaks in the back half of each chunk.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for utf16Len(text) > limit {
		cut := cutPoint(text, limit)
		if head := strings.TrimRight(text[:cut], "\n"); head != "" {
			chunks = append(chunks, head)
		}
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text = strings.TrimRight(text, "\n"); text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func cutPoint(s string, limit int) int {
	units, end := 0, len(s)
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 1 {
			w = 1
		}
		if units+w > limit {
			end = i
			break
		}
		units += w
	}
	if end == 0 {
		for i := range s {
			if i > 0 {
				return i
			}
		}
		return len(s)
	}
	if nl := strings.LastIndexByte(s[:end], '\n'); nl > end/2 {
		return nl + 1
	}
	return end
}

// spoilerEntities strips ||markers|| from chunk and returns Telegram spoiler
// entities covering the hidden text.
func spoilerEntities(chunk string) (string, []gotgbot.MessageEntity) {
	var (
		b        strings.Builder
		entities []gotgbot.MessageEntity
		offset   int
		last     int
	)
	for _, loc := range spoilerPattern.FindAllStringSubmatchIndex(chunk, -1) {
		before := chunk[last:loc[0]]
		b.WriteString(before)
		offset += utf16Len(before)

		inner := chunk[loc[2]:loc[3]]
		b.WriteString(inner)
		if n := utf16Len(inner); n > 0 {
			entities = append(entities, gotgbot.MessageEntity{Type: "spoiler", Offset: int64(offset), Length: int64(n)})
			offset += n
		}
		last = loc[1]
	}
	b.WriteString(chunk[last:])
	return b.String(), entities
}
