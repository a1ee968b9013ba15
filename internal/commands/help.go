package commands

import (
	"context"
	"fmt"
	"strings"
)

const (
	catPersonality  = "🔥 PERSONALITY & MOTIVATION"
	catSystem       = "💻 SYSTEM MONITORING"
	catEntertain    = "🎮 ENTERTAINMENT"
	catGames        = "🎲 GAMES & RANDOMIZERS"
	catUtilities    = "🛠️ UTILITIES"
	catInfo         = "🌍 INFORMATION"
	catText         = "🎨 TEXT TRANSFORMATION"
	catDisplay      = "📊 DATA & VISUALIZATION"
	catPersonal     = "📝 PERSONAL MANAGEMENT"
	catProductivity = "💪 PRODUCTIVITY"
	catCreative     = "🎵 CREATIVE"
	catTheme        = "⚔️ WARHAMMER 40K THEME"
	catTools        = "🔧 SYSTEM TOOLS"
	catFun          = "🎯 FUN STUFF"
	catData         = "💾 DATA MANAGEMENT"
	catLifestyle    = "🏃‍♂️ LIFESTYLE"
	catConfig       = "⚙️ CONFIGURATION"
	catOther        = "📚 OTHER"
)

var categoryOrder = []string{
	catPersonality, catSystem, catEntertain, catGames, catUtilities, catInfo,
	catText, catDisplay, catPersonal, catProductivity, catCreative, catTheme,
	catTools, catFun, catData, catLifestyle, catConfig, catOther,
}

func (r *Router) help(context.Context, []string) Result {
	byCategory := make(map[string][]Command)
	for _, name := range r.order {
		c := r.commands[name]
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	var b strings.Builder
	b.WriteString("**🤖 AI ASSISTANT COMMAND REFERENCE**\n")
	b.WriteString(longRule + "\n\n")
	b.WriteString("**💬 CONVERSATION:**\n• Just type anything without `/` to chat with the AI\n")

	for _, cat := range categoryOrder {
		cmds := byCategory[cat]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n**%s:**\n", cat)
		for _, c := range cmds {
			invocation := "/" + c.Name
			if c.Usage != "" {
				invocation += " " + c.Usage
			}
			fmt.Fprintf(&b, "• `%s` - %s\n", invocation, c.Summary)
		}
	}

	b.WriteString("\n**💡 PRO TIP:** Type without `/` for normal conversation!\n")
	b.WriteString("The Emperor protects, but commands get things done. ⚔️\n\n")
	b.WriteString(longRule + "\n")
	fmt.Fprintf(&b, "**📊 COMMAND STATISTICS:**\n• **Main Commands:** %d\n", len(r.commands))
	b.WriteString("*The machine spirit has many functions to serve the Imperium.*")
	return ok(b.String())
}
