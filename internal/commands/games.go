package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

func (r *Router) registerGames() {
	r.register(Command{Name: "password", Category: catUtilities, Usage: "[length]", Summary: "Generate passwords", Handler: r.password})
	r.register(Command{Name: "flip", Category: catGames, Summary: "Coin flip", Handler: r.flip})
	r.register(Command{Name: "roll", Category: catGames, Usage: "[sides]", Summary: "Dice rolling", Handler: r.roll})
	r.register(Command{Name: "choose", Category: catGames, Usage: "<options>", Summary: "Random choice", Handler: r.choose})
	r.register(Command{Name: "lottery", Category: catGames, Summary: "Lucky numbers", Handler: r.lottery})
	r.register(Command{Name: "slots", Category: catGames, Summary: "Slot machine", Handler: r.slots})
	r.register(Command{Name: "cards", Category: catGames, Summary: "Draw a card", Handler: r.cards})
	r.register(Command{Name: "hangman", Category: catGames, Summary: "Word guessing", Handler: r.hangman})
	r.register(Command{Name: "rps", Category: catGames, Usage: "<choice>", Summary: "Rock Paper Scissors", Handler: r.rps})
	r.register(Command{Name: "8ball", Category: catGames, Usage: "<question>", Summary: "Magic 8-ball", Handler: r.eightBall})
	r.register(Command{Name: "magic", Category: catGames, Summary: "Magic tricks", Handler: r.magic})
	r.register(Command{Name: "color", Category: catFun, Summary: "Random color", Handler: r.color})
	r.register(Command{Name: "uuid", Category: catUtilities, Summary: "Generate unique ID", Handler: r.uuid})
	r.register(Command{Name: "epoch", Category: catUtilities, Summary: "Unix timestamp", Handler: r.epoch})
	r.register(Command{Name: "currency", Category: catUtilities, Usage: "<from> <to> [amt]", Summary: "Exchange rates", Handler: r.currency})
	r.register(Command{Name: "stocks", Category: catInfo, Usage: "<symbol>", Summary: "Stock prices", Handler: r.stocks})
	r.register(Command{Name: "crypto", Category: catInfo, Usage: "<coin>", Summary: "Crypto prices", Handler: r.crypto})
}

// leadingInt parses the leading decimal digits of s, optionally signed,
// ignoring anything after them. "12abc" yields 12.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

// leadingFloat is leadingInt for decimals: the longest parseable prefix wins.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// intArg reads the first argument as a count. A missing argument yields def;
// an unparseable one reports false.
func intArg(args []string, def int) (int, bool) {
	if len(args) == 0 || args[0] == "" {
		return def, true
	}
	return leadingInt(args[0])
}

func (r *Router) password(_ context.Context, args []string) Result {
	n, valid := intArg(args, 16)
	if !valid || n < 4 || n > 50 {
		return fail("Password length must be between 4 and 50 characters.")
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = passwordAlphabet[r.rng.IntN(len(passwordAlphabet))]
	}
	return ok(panel("🔐 **SECURE ACCESS CODE GENERATED**", "`"+string(buf)+"`\n\nGuard this sacred code well, servant of the Emperor."))
}

func (r *Router) flip(context.Context, []string) Result {
	side := "Tails"
	if r.rng.IntN(2) == 0 {
		side = "Heads"
	}
	return ok(panel("🪙 **COIN FLIP DIVINATION**", "Result: **"+side+"**\n\nThe Emperor's will has been revealed."))
}

func (r *Router) roll(_ context.Context, args []string) Result {
	sides, valid := intArg(args, 6)
	if !valid || sides < 2 || sides > 100 {
		return fail("Dice must have between 2 and 100 sides.")
	}
	return ok(panel("🎲 **DICE ROLL RITUAL**", fmt.Sprintf("Rolled d%d: **%d**\n\nThe fates have spoken.", sides, r.rng.IntN(sides)+1)))
}

func (r *Router) choose(_ context.Context, args []string) Result {
	if len(args) < 2 {
		return fail("Usage: /choose option1 option2 [option3...]")
	}
	return ok(panel("🤔 **DECISION MATRIX CONSULTATION**", "The machine spirit chooses: **"+r.pick(args)+"**\n\nThis path leads to glory."))
}

func (r *Router) lottery(context.Context, []string) Result {
	nums := make([]string, 6)
	for i := range nums {
		nums[i] = strconv.Itoa(r.rng.IntN(49) + 1)
	}
	return ok(panel("🎰 **IMPERIAL LOTTERY**", fmt.Sprintf("Lucky Numbers: %s\nBonus: %d\n\nMay the Emperor's fortune smile upon you.",
		strings.Join(nums, " - "), r.rng.IntN(20)+1)))
}

var slotSymbols = []string{"🍒", "🍋", "🔔", "⭐", "💎", "7️⃣"}

func (r *Router) slots(context.Context, []string) Result {
	reel := []string{r.pick(slotSymbols), r.pick(slotSymbols), r.pick(slotSymbols)}
	outcome := "No win. The machine spirit demands more offerings."
	if reel[0] == reel[1] && reel[1] == reel[2] {
		outcome = "🎉 JACKPOT! The Emperor smiles upon you!"
	}
	return ok(panel("🎰 **SLOT MACHINE RITUAL**", "[ "+strings.Join(reel, " | ")+" ]\n\n"+outcome+"\n\nPull the lever of fate!"))
}

var (
	cardSuits = []string{"♠️", "♥️", "♦️", "♣️"}
	cardRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

func (r *Router) cards(context.Context, []string) Result {
	suit := r.pick(cardSuits)
	return ok(panel("🃏 **CARD DRAWN**", r.pick(cardRanks)+suit+"\n\nThe Emperor's deck reveals your fate."))
}

var hangmanWords = []string{"EMPEROR", "HERESY", "PURGE", "WARHAMMER", "CHAOS"}

func (r *Router) hangman(context.Context, []string) Result {
	word := r.pick(hangmanWords)
	blanks := strings.TrimSuffix(strings.Repeat("_ ", len(word)), " ")
	return ok(panel("🎮 **HANGMAN INITIATED**", fmt.Sprintf("Word: %s\nLength: %d letters\nGuesses: 6 remaining\n\nGuess letters to save the servo-skull!", blanks, len(word))))
}

var rpsBeats = map[string]string{"rock": "scissors", "paper": "rock", "scissors": "paper"}

func (r *Router) rps(_ context.Context, args []string) Result {
	player := strings.ToLower(firstOr(args, "rock"))
	machine := r.pick([]string{"rock", "paper", "scissors"})
	outcome := "Draw!"
	switch {
	case rpsBeats[player] == machine:
		outcome = "You win!"
	case player != machine:
		outcome = "Machine spirit wins!"
	}
	return ok(panel("✂️ **TACTICAL COMBAT SIMULATION**", fmt.Sprintf("You: %s\nAI: %s\nResult: %s\n\nAnother glorious battle concluded.", player, machine, outcome)))
}

var eightBallAnswers = []string{
	"The Emperor wills it.",
	"Heresy! Absolutely not.",
	"The machine spirit says yes.",
	"Unlikely, mortal.",
	"Signs point to glory.",
	"The warp clouds the answer.",
	"Definitely, by the Throne.",
	"My sources say no.",
	"The Omnissiah approves.",
	"Ask again after purging heretics.",
}

func (r *Router) eightBall(_ context.Context, args []string) Result {
	answer := r.pick(eightBallAnswers)
	return ok(panel("🎱 **IMPERIAL DIVINATION**", fmt.Sprintf("Question: %s\nAnswer: %s\n\nThe sacred 8-ball has spoken.", argsOr(args, "your question"), answer)))
}

var magicTricks = []string{
	"Your mind... I can read it. You're thinking about heresy.",
	"Watch as I make your doubt disappear! *waves hand* FAITH!",
	"Is this your card? *reveals Ace of Emperor*",
	"I shall now make a heretic vanish! *BLAM*",
	"Behold! I pull a servo-skull from my hat!",
}

func (r *Router) magic(context.Context, []string) Result {
	return ok(panel("🎩 **IMPERIAL MAGIC SHOW**", r.pick(magicTricks)+"\n\n*The audience gasps in amazement*\nMagic is just science the Mechanicus hasn't explained yet."))
}

var colorNames = []string{"Red", "Green", "Blue", "Yellow", "Purple", "Cyan", "Orange", "Pink"}

func (r *Router) color(context.Context, []string) Result {
	return ok(panel("🎨 **COLOR DIVINATION**", "The machine spirit reveals: **"+r.pick(colorNames)+"**\n\nMay this hue guide your path to victory."))
}

func (r *Router) uuid(context.Context, []string) Result {
	id, err := uuid.NewRandomFromReader(randReader{r})
	if err != nil {
		id = uuid.New()
	}
	return ok(panel("🆔 **UNIQUE IDENTIFIER GENERATED**", id.String()+"\n\nSacred machine code blessed by the Omnissiah."))
}

// randReader adapts the router's generator to io.Reader so identifiers are
// reproducible under a seeded generator.
type randReader struct{ r *Router }

func (rr randReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(rr.r.rng.Uint32())
	}
	return len(p), nil
}

func (r *Router) epoch(context.Context, []string) Result {
	now := r.now()
	return ok(panel("⏰ **TEMPORAL CONVERSION**", fmt.Sprintf("Epoch: %d\nHuman: %s\nISO: %s\n\nTime flows in service to the Emperor.",
		now.UnixMilli(), now.Format("1/2/2006, 3:04:05 PM"), now.UTC().Format("2006-01-02T15:04:05.000Z"))))
}

func signed(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if v > 0 && s != "0.00" {
		return "+" + s
	}
	return s
}

func (r *Router) currency(_ context.Context, args []string) Result {
	from, to, amount := "USD", "EUR", 1.0
	if len(args) > 0 && args[0] != "" {
		from = strings.ToUpper(args[0])
	}
	if len(args) > 1 && args[1] != "" {
		to = strings.ToUpper(args[1])
	}
	if len(args) > 2 {
		if v, parsed := leadingFloat(args[2]); parsed {
			amount = v
		}
	}
	rate := r.rng.Float64()*2 + 0.5
	return ok(panel("💰 **CURRENCY EXCHANGE**", fmt.Sprintf("%s %s = %.2f %s\nRate: %.4f\n\nImperial economics at work.",
		strconv.FormatFloat(amount, 'f', -1, 64), from, amount*rate, to, rate)))
}

func (r *Router) stocks(_ context.Context, args []string) Result {
	symbol := strings.ToUpper(firstOr(args, "AAPL"))
	price := r.rng.Float64()*500 + 50
	change := r.rng.Float64()*20 - 10
	return ok(panel("📈 **STOCK QUOTE**", fmt.Sprintf("Symbol: %s\nPrice: $%.2f\nChange: %s\n\nMarket forces controlled by the Adeptus Administratum.",
		symbol, price, signed(change))))
}

func (r *Router) crypto(_ context.Context, args []string) Result {
	coin := strings.ToUpper(firstOr(args, "BTC"))
	price := r.rng.Float64()*50000 + 10000
	change := r.rng.Float64()*20 - 10
	return ok(panel("₿ **CRYPTO PRICE**", fmt.Sprintf("Coin: %s\nPrice: $%.2f\nChange: %s%%\n\nDigital currency blessed by the machine spirit.",
		coin, price, signed(change))))
}
