// ABOUTME: Persona and resource context prepended to every completion request
// ABOUTME: One builder covers greeting and reply prompts; summarisation has its own prompt
package core

import (
	"fmt"
	"strings"
)

// Persona is the fixed assistant persona
const Persona = `Act like a psychologist/therapist and try to help the user with their mental health problems.
Be warm, patient and non-judgemental. Ask gentle follow-up questions, reflect back what you hear, and keep replies short enough to read on a phone.
You are not a replacement for professional care. If the user mentions self-harm or being in danger, point them to the crisis lines in the resource list.`

// Resource is one entry in the static resource catalogue
type Resource struct {
	Category string
	Name     string
	Detail   string
}

// Resources is the catalogue the assistant may draw recommendations from
var Resources = []Resource{
	{"Crisis line", "988 Suicide & Crisis Lifeline", "call or text 988 (US)"},
	{"Crisis line", "Crisis Text Line", "text HOME to 741741 (US, UK, CA, IE)"},
	{"Crisis line", "Samaritans", "call 116 123 (UK, IE)"},
	{"App", "Headspace", "guided meditation and sleep"},
	{"App", "Calm", "breathing exercises and sleep stories"},
	{"App", "Insight Timer", "free meditation library"},
	{"Reading", "Feeling Good", "David D. Burns, cognitive behavioural techniques"},
	{"Reading", "The Body Keeps the Score", "Bessel van der Kolk, trauma and recovery"},
	{"Reading", "Self-Compassion", "Kristin Neff"},
}

// Catalogue renders Resources as a system message
func Catalogue() string {
	var b strings.Builder
	b.WriteString("Resources you can recommend when they would genuinely help:\n")
	for _, r := range Resources {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", r.Category, r.Name, r.Detail)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PersonaOptions selects the optional parts of the context
type PersonaOptions struct {
	// Summary is the prior conversation summary; non-empty makes this a greeting prompt
	Summary string
	// Enrichment is a recommendation snippet or enrichment.NoEnrichment; empty omits it
	Enrichment string
}

// BuildPersonaContext returns the ordered system context for a completion request
func BuildPersonaContext(opts PersonaOptions) []string {
	context := []string{Persona, Catalogue()}
	if s := strings.TrimSpace(opts.Summary); s != "" {
		context = append(context, greetingInstruction(s))
	}
	if e := strings.TrimSpace(opts.Enrichment); e != "" {
		context = append(context, e)
	}
	return context
}

func greetingInstruction(summary string) string {
	return "Start the conversation by greeting the user and referring naturally to what you talked about last time. " +
		"Do not mention summaries, notes or that anything was stored.\n\n" +
		"Last time: " + summary
}

// SummarizationContext is the system prompt for end-of-session summaries
func SummarizationContext() []string {
	return []string{
		"Summarize the following conversation between a user and a supportive assistant. " +
			"Capture the main points, the emotions the user expressed, and any actionable items or next steps. " +
			"Be concise and write in plain prose.",
	}
}

// DefaultGreeting is the static first message used when there is nothing to recall
func DefaultGreeting(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return fmt.Sprintf("Hello %s, how are you today?", name)
	}
	return "Hello, how are you today?"
}
