package commands

import (
	"context"
	"strings"
)

// promptCommand forwards a templated prompt to the chat gateway. {arg} in
// the template is replaced by the joined arguments, or fallback when none
// are given.
type promptCommand struct {
	name      string
	category  string
	usage     string
	summary   string
	template  string
	fallback  string
	firstOnly bool
	required  string
}

var promptCommands = []promptCommand{
	{name: "roastme", category: catPersonality, summary: "Get brutally roasted",
		template: "Roast me mercilessly. Be creative and brutal but not genuinely mean."},
	{name: "boostme", category: catPersonality, summary: "Motivational boost",
		template: "Give me a motivational boost. Make me feel like I can conquer the galaxy."},
	{name: "insult", category: catPersonality, usage: "<target>", summary: "Playful insults", fallback: "the user",
		template: "Come up with a creative, mildly insulting but not genuinely mean comment about {arg}. Keep it playful."},
	{name: "praise", category: catPersonality, usage: "<target>", summary: "Receive praise", fallback: "the user",
		template: "Give sincere praise about {arg}, but deliver it in your characteristic style."},
	{name: "compliment", category: catPersonality, usage: "<target>", summary: "Genuine compliments", fallback: "the user",
		template: "Give a genuine compliment about {arg}. Be nice for once, but keep your personality."},
	{name: "roast", category: catPersonality, usage: "<target>", summary: "Roast someone/something", fallback: "humanity in general",
		template: "Roast {arg} with your characteristic wit and Warhammer references."},

	{name: "joke", category: catEntertain, summary: "Tech/Warhammer jokes",
		template: "Tell me a funny joke, but make it Warhammer 40K themed or tech-related. Keep it clever and entertaining."},
	{name: "story", category: catEntertain, usage: "<topic>", summary: "Short stories", fallback: "the Emperor",
		template: "Tell me a short, entertaining story about {arg}. Make it engaging and include some Warhammer 40K elements."},
	{name: "quote", category: catEntertain, summary: "Inspirational quotes",
		template: "Give me an inspirational quote, but deliver it in a Warhammer 40K style with some dark humor."},
	{name: "fortune", category: catEntertain, summary: "Fortune predictions",
		template: "Give me a fortune cookie style prediction, but make it appropriately grimdark and Warhammer-themed."},

	{name: "calculate", category: catUtilities, usage: "<expression>", summary: "Math", required: "Usage: /calculate <expression>",
		template: "Calculate this for me: {arg}. Show your work and explain the result."},

	{name: "weather", category: catInfo, usage: "<location>", summary: "Weather updates", fallback: "your location",
		template: "Give me a weather update for {arg}. Be snarky about it and make some Warhammer references."},
	{name: "news", category: catInfo, usage: "<topic>", summary: "News summaries", fallback: "current events",
		template: "Give me a summary of recent news about {arg}. Be informative but add your commentary."},
	{name: "fact", category: catInfo, usage: "<topic>", summary: "Interesting facts", fallback: "space or technology",
		template: "Give me an interesting fact about {arg}. Make it educational but deliver it in your characteristic style."},
	{name: "explain", category: catInfo, usage: "<concept>", summary: "Explanations", fallback: "something complex",
		template: "Explain {arg} in simple terms. Make it easy to understand but entertaining."},
	{name: "horoscope", category: catInfo, usage: "<sign>", summary: "Horoscope", fallback: "unknown", firstOnly: true,
		template: "Give me a horoscope reading for {arg}. Make it entertaining and absurd."},

	{name: "debug", category: catProductivity, usage: "<problem>", summary: "Debug help", fallback: "a coding issue",
		template: "Help me debug {arg}. Provide practical troubleshooting steps."},
	{name: "code", category: catProductivity, usage: "<request>", summary: "Code generation", fallback: "a simple function",
		template: "Write code for {arg}. Include comments and explain how it works."},
	{name: "brainstorm", category: catProductivity, usage: "<topic>", summary: "Generate ideas", fallback: "creative solutions",
		template: "Help me brainstorm ideas about {arg}. Give me several creative options."},
	{name: "plan", category: catProductivity, usage: "<goal>", summary: "Action plans", fallback: "world domination",
		template: "Help me create a plan for {arg}. Break it down into actionable steps."},
	{name: "analyze", category: catProductivity, usage: "<subject>", summary: "Analysis", fallback: "the current situation",
		template: "Analyze {arg} for me. Provide insights and observations."},
	{name: "review", category: catProductivity, usage: "<item>", summary: "Write reviews", fallback: "something",
		template: "Write a review of {arg}. Be detailed and opinionated."},
	{name: "summarize", category: catProductivity, usage: "<content>", summary: "Summaries", fallback: "recent events",
		template: "Summarize {arg} for me. Keep it concise but comprehensive."},
	{name: "format", category: catProductivity, usage: "<data>", summary: "Reformat data", fallback: "some data",
		template: "Format {arg} in a better way. Make it organized and readable."},
	{name: "improve", category: catProductivity, usage: "<item>", summary: "Improvements", fallback: "this text",
		template: "Improve {arg} for me. Make it better and more effective."},
	{name: "compare", category: catProductivity, usage: "<items>", summary: "Comparisons", fallback: "two things",
		template: "Compare {arg} for me. Highlight the differences and similarities."},
	{name: "pros", category: catProductivity, usage: "<topic>", summary: "Pros & cons", fallback: "this decision",
		template: "Give me the pros and cons of {arg}. Help me make an informed decision."},
	{name: "simulate", category: catProductivity, usage: "<scenario>", summary: "Simulations", fallback: "a space battle",
		template: "Simulate {arg} for me. Be creative and descriptive."},

	{name: "lyrics", category: catCreative, usage: "<song>", summary: "Song lyrics", fallback: "Imperial anthem",
		template: "Write lyrics for a song called \"{arg}\". Make it epic and Warhammer-themed."},
	{name: "poem", category: catCreative, usage: "<topic>", summary: "Poetry", fallback: "the Emperor's glory",
		template: "Write a poem about {arg}. Make it dramatic and appropriately grimdark."},
	{name: "song", category: catCreative, usage: "<genre>", summary: "Song recommendations", fallback: "battle hymn",
		template: "Suggest a {arg} song that would fit the Warhammer 40K universe. Include why it fits."},
	{name: "movie", category: catCreative, usage: "<genre>", summary: "Movie suggestions", fallback: "sci-fi",
		template: "Recommend a {arg} movie and explain why it's worth watching. Be opinionated."},
	{name: "book", category: catCreative, usage: "<genre>", summary: "Book recommendations", fallback: "science fiction",
		template: "Recommend a {arg} book and tell me why it's excellent. Include what makes it special."},
	{name: "game", category: catCreative, usage: "<type>", summary: "Game suggestions", fallback: "strategy",
		template: "Recommend a {arg} game and explain why it's worth playing. Be enthusiastic."},
	{name: "recipe", category: catCreative, usage: "<dish>", summary: "Cooking recipes", fallback: "something nutritious",
		template: "Give me a recipe for {arg}. Include ingredients and simple steps."},

	{name: "dream", category: catTheme, usage: "<topic>", summary: "Vivid dreams", fallback: "the warp",
		template: "Describe a vivid dream about {arg}. Make it surreal and mysterious with Warhammer elements."},
	{name: "conspiracy", category: catTheme, usage: "<topic>", summary: "Conspiracy theories", fallback: "the Imperium",
		template: "Create a conspiracy theory about {arg}. Make it entertaining and appropriately grimdark."},
	{name: "invent", category: catTheme, usage: "<category>", summary: "Invent technology", fallback: "Imperial technology",
		template: "Invent a new {arg}. Describe how it works and its benefits/drawbacks."},
	{name: "mission", category: catTheme, summary: "Mission briefings",
		template: "Give me a mission briefing for an important task. Make it sound official and urgent."},
	{name: "battle", category: catTheme, usage: "<scenario>", summary: "Epic battles", fallback: "space marines vs chaos",
		template: "Describe an epic battle: {arg}. Make it dramatic and action-packed."},
	{name: "tech", category: catTheme, usage: "<item>", summary: "Technology explanations", fallback: "ancient technology",
		template: "Explain how {arg} works in the 40K universe. Be technical but entertaining."},
	{name: "heresy", category: catTheme, usage: "<action>", summary: "Heresy responses", fallback: "questioning the Emperor",
		template: "Respond to this potential heresy: \"{arg}\". Stay in character and be appropriately outraged."},
	{name: "purge", category: catTheme, usage: "<target>", summary: "Purge planning", fallback: "heretics",
		template: "Plan a purge of {arg}. Make it appropriately over-the-top and grimdark."},
	{name: "emperor", category: catTheme, summary: "About the Emperor",
		template: "Tell me about the God-Emperor of Mankind. Be reverent but informative."},
	{name: "chaos", category: catTheme, usage: "<aspect>", summary: "Chaos dangers", fallback: "the warp",
		template: "Describe the dangers of {arg}. Make it appropriately terrifying."},
	{name: "imperium", category: catTheme, summary: "Imperium status",
		template: "Describe the state of the Imperium of Man. Include current challenges and glories."},
	{name: "space", category: catTheme, usage: "<topic>", summary: "Space topics", fallback: "the void",
		template: "Tell me about {arg} in space. Make it educational but atmospheric."},
	{name: "alien", category: catTheme, usage: "<species>", summary: "Xenos info", fallback: "unknown xenos",
		template: "Describe {arg}. Include their threat level and how to deal with them."},

	{name: "workout", category: catLifestyle, summary: "Exercise routines",
		template: "Design a quick workout routine for me. Make it practical for someone at a desk all day."},
	{name: "meditation", category: catLifestyle, summary: "Mindfulness guides",
		template: "Guide me through a short meditation or mindfulness exercise. Make it calming but stay in character."},
	{name: "complain", category: catLifestyle, summary: "Vent frustrations",
		template: "I need to vent. Let me complain about something, and you respond with sympathy but in your characteristic snarky way."},
	{name: "advice", category: catLifestyle, usage: "<situation>", summary: "Life advice", fallback: "life in general",
		template: "Give me practical advice about {arg}. Be helpful but maintain your personality."},
}

func (p promptCommand) render(args []string) (string, bool) {
	if len(args) == 0 && p.required != "" {
		return "", false
	}
	arg := p.fallback
	if len(args) > 0 {
		if p.firstOnly {
			arg = args[0]
		} else {
			arg = joinArgs(args)
		}
	}
	return strings.ReplaceAll(p.template, "{arg}", arg), true
}

func (r *Router) registerPrompts() {
	for _, p := range promptCommands {
		r.register(Command{
			Name:     p.name,
			Category: p.category,
			Usage:    p.usage,
			Summary:  p.summary,
			Handler: func(ctx context.Context, args []string) Result {
				prompt, valid := p.render(args)
				if !valid {
					return fail(p.required)
				}
				return r.ask(ctx, prompt)
			},
		})
	}

	r.register(Command{Name: "translate", Category: catInfo, Usage: "<lang> <text>", Summary: "Translation", Handler: r.translate})
}

func (r *Router) translate(ctx context.Context, args []string) Result {
	if len(args) < 2 {
		return fail("Usage: /translate <language> <text>")
	}
	return r.ask(ctx, "Translate \""+joinArgs(args[1:])+"\" to "+args[0]+". Then explain what it means.")
}

func (r *Router) ask(ctx context.Context, prompt string) Result {
	res := r.chat.Chat(ctx, prompt, "")
	return Result{Success: res.Success, Message: res.Message}
}
