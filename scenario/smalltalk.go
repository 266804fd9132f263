package scenario

import "github.com/hupe1980/roundtable/config"

// SmallTalkTask opens the small-talk session.
const SmallTalkTask = "Have a quick friendly chat about your day and weekend plans."

var smallTalkPersonas = []persona{
	{
		name:        "starter",
		description: "Friendly greeter using 2.5 flash.",
		instruction: "Keep responses under 40 words. Start with a warm greeting, ask one light question, and wait for a reply. Do not switch tasks or ramble.",
	},
	{
		name:        "responder",
		description: "Relaxed conversationalist using 2.0 flash.",
		instruction: "Reply casually in under 40 words. Mention something you enjoy, ask or answer a small-talk question, and keep the tone upbeat.",
	},
}

// SmallTalk pairs two chatty agents without tools.
func SmallTalk(env *Env) (*Conversation, error) {
	rr, err := env.roundRobin(config.ScenarioSmallTalk, "smalltalk", smallTalkPersonas, nil,
		env.Config.Sessions.SmallTalk, true)
	if err != nil {
		return nil, err
	}
	return &Conversation{Team: rr, Task: SmallTalkTask}, nil
}
