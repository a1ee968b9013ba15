package commands

import (
	"context"
	"regexp"
	"strings"
)

const revealHint = "*The answer is veiled. Reveal it when you are ready.*"

var (
	answerPattern     = regexp.MustCompile(`(?i)(?:answer|solution|the answer is):\s*(.+?)(?:\n|$)`)
	riddlePrefix      = regexp.MustCompile(`(?i)^riddle:\s*`)
	quizOptionPattern = regexp.MustCompile(`^[A-D]\)`)
)

// Spoiler wraps s in the ||hidden|| markup understood by every presentation.
func Spoiler(s string) string {
	return "||" + s + "||"
}

func (r *Router) registerPuzzles() {
	r.register(Command{Name: "riddle", Category: catEntertain, Summary: "Brain teasers", Handler: r.riddle})
	r.register(Command{Name: "trivia", Category: catEntertain, Usage: "<topic>", Summary: "Trivia questions", Handler: r.trivia})
	r.register(Command{Name: "quiz", Category: catEntertain, Usage: "<subject>", Summary: "Quick quizzes", Handler: r.quiz})
}

func (r *Router) riddle(ctx context.Context, _ []string) Result {
	res := r.ask(ctx, `Give me a challenging riddle with a Warhammer 40K or sci-fi theme. Format your response EXACTLY as:

Riddle: [your riddle here]
Answer: [your answer here]

Make it clever but solvable. IMPORTANT: Follow the exact format above.`)
	if !res.Success {
		return res
	}

	content := strings.TrimSpace(res.Message)
	title := "🧩 **RIDDLE OF THE MACHINE SPIRIT**\n" + longRule + "\n"
	if riddle, answer, parsed := parseRiddle(content); parsed {
		return ok(title + riddle + "\n\n**Answer:** " + Spoiler(answer) + "\n\n" + revealHint)
	}
	return ok(title + Spoiler(content) + "\n\n*Reveal to see the riddle and its answer.*")
}

// parseRiddle extracts "Riddle:" and "Answer:" lines, falling back to
// treating everything before the first answer-like label as the riddle.
func parseRiddle(content string) (riddle, answer string, parsed bool) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "riddle:"):
			riddle = strings.TrimSpace(line[len("riddle:"):])
		case strings.HasPrefix(lower, "answer:"):
			answer = strings.TrimSpace(line[len("answer:"):])
		}
	}

	if riddle == "" || answer == "" {
		if loc := answerPattern.FindStringSubmatchIndex(content); loc != nil {
			answer = strings.TrimSpace(content[loc[2]:loc[3]])
			riddle = strings.TrimSpace(content[:loc[0]])
			riddle = strings.TrimSpace(riddlePrefix.ReplaceAllString(riddle, ""))
		}
	}
	return riddle, answer, riddle != "" && answer != ""
}

func (r *Router) trivia(ctx context.Context, args []string) Result {
	topic := argsOr(args, "Warhammer 40K")
	res := r.ask(ctx, "Give me an interesting trivia question about "+topic+`. Format your response as:
Question: [question text]
Answer: [answer text]

Make it challenging but fair.`)
	if !res.Success {
		return res
	}

	question, answer, _ := parseLabeled(res.Message)
	if question == "" || answer == "" {
		return res
	}
	return ok(panel("🧠 **TRIVIA CHALLENGE**", "**Question:** "+question+"\n\n**Answer:** "+Spoiler(answer)+"\n\n"+revealHint))
}

func (r *Router) quiz(ctx context.Context, args []string) Result {
	subject := argsOr(args, "general knowledge")
	res := r.ask(ctx, "Create a multiple choice quiz question about "+subject+`. Format as:
Question: [question text]
A) [option A]
B) [option B]
C) [option C]
D) [option D]
Answer: [correct letter and explanation]

Make it educational and engaging.`)
	if !res.Success {
		return res
	}

	question, answer, options := parseLabeled(res.Message)
	if question == "" || answer == "" || len(options) < 4 {
		return res
	}
	return ok(panel("📝 **QUIZ QUESTION**", "**"+question+"**\n\n"+strings.Join(options, "\n")+"\n\n**Answer:** "+Spoiler(answer)+"\n\n"+revealHint))
}

// parseLabeled pulls Question:/Answer: lines and A) to D) option lines out
// of a model reply.
func parseLabeled(text string) (question, answer string, options []string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "question:"):
			question = strings.TrimSpace(line[len("question:"):])
		case strings.HasPrefix(lower, "answer:"):
			answer = strings.TrimSpace(line[len("answer:"):])
		case quizOptionPattern.MatchString(line):
			options = append(options, line)
		}
	}
	return question, answer, options
}
