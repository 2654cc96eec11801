// Package quickanswer provides deterministic, pre-authored answers that
// bypass every inference call. A hit here means zero network traffic.
package quickanswer

import "strings"

// Type classifies a quick answer.
type Type string

const (
	TypeInfo    Type = "info"
	TypeCrisis  Type = "crisis"
	TypeClarify Type = "clarify"
)

// Link is an allow-listed in-site path a quick answer may surface.
type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Resource is a structured crisis resource (name, number, what to do).
type Resource struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Action string `json:"action"`
}

// Answer is one canned response.
type Answer struct {
	Type     Type      `json:"type"`
	Title    string    `json:"title,omitempty"`
	Message  string    `json:"message"`
	Resource *Resource `json:"resource,omitempty"`
	Links    []Link    `json:"links,omitempty"`
}

// IsCrisis reports whether this answer carries a crisis resource.
func (a *Answer) IsCrisis() bool {
	return a != nil && a.Type == TypeCrisis
}

type entry struct {
	phrases []string
	answer  Answer
}

// Phrase tables are matched against the lowercased message. Crisis entries
// are kept separate so MatchCrisis can enrich keyword-based detection with a
// structured resource even when the phrasing differs.
var crisisEntries = []entry{
	{
		phrases: []string{"suicide", "suicidal", "kill myself", "hurt myself", "end my life", "don't want to live", "self harm", "self-harm", "crisis line", "crisis hotline", "mental health crisis"},
		answer: Answer{
			Type:    TypeCrisis,
			Title:   "You're not alone",
			Message: "If you're thinking about hurting yourself, please reach out right now. The 988 Suicide & Crisis Lifeline is free, confidential, and available 24/7 — call or text 988.",
			Resource: &Resource{
				Name:   "988 Suicide & Crisis Lifeline",
				Phone:  "988",
				Action: "Call or text 988 any time, day or night.",
			},
		},
	},
	{
		phrases: []string{"domestic violence", "domestic abuse", "abusive partner", "abusive relationship", "partner hits me", "husband hits me", "wife hits me", "afraid of my partner"},
		answer: Answer{
			Type:    TypeCrisis,
			Title:   "Help is available",
			Message: "The National Domestic Violence Hotline is confidential and open 24/7. Call 1-800-799-7233 or text START to 88788. If you are in immediate danger, call 911.",
			Resource: &Resource{
				Name:   "National Domestic Violence Hotline",
				Phone:  "1-800-799-7233",
				Action: "Call any time, or text START to 88788.",
			},
		},
	},
	{
		phrases: []string{"call 911", "someone is hurting me", "in danger right now", "being attacked", "emergency help"},
		answer: Answer{
			Type:    TypeCrisis,
			Title:   "Emergency",
			Message: "If you or someone near you is in immediate danger, call 911 right away.",
			Resource: &Resource{
				Name:   "Emergency services",
				Phone:  "911",
				Action: "Call 911 immediately.",
			},
		},
	},
}

var infoEntries = []entry{
	{
		phrases: []string{"what is this app", "what is carl", "who are you", "what can you do", "how does this work"},
		answer: Answer{
			Type:    TypeInfo,
			Title:   "About Carl",
			Message: "I'm Carl, an assistant for finding free and low-cost help near you — food, housing, health care, and more. Tell me what you need in your own words and I'll look for programs that can help.",
			Links:   []Link{{Label: "Browse all categories", Path: "/categories"}},
		},
	},
	{
		phrases: []string{"what is 211", "what's 211", "dial 211"},
		answer: Answer{
			Type:    TypeInfo,
			Title:   "About 211",
			Message: "211 is a free phone line that connects you with a local specialist who can help you find food, housing, utility help, and other services. You can dial 211 from any phone.",
		},
	},
	{
		phrases: []string{"is this private", "is this anonymous", "do you save my information", "privacy policy"},
		answer: Answer{
			Type:    TypeInfo,
			Title:   "Your privacy",
			Message: "Your searches stay on your device, and personal details like phone numbers and emails are removed before anything is sent over the network. You can also turn on extra network privacy in settings.",
			Links:   []Link{{Label: "Privacy settings", Path: "/settings/privacy"}},
		},
	},
	{
		phrases: []string{"snap vs wic", "difference between snap and wic", "wic or snap"},
		answer: Answer{
			Type:    TypeInfo,
			Title:   "SNAP and WIC",
			Message: "SNAP is monthly grocery money for households with low income. WIC is a separate program for pregnant people and families with children under five, covering specific healthy foods. Many families qualify for both.",
			Links:   []Link{{Label: "Food assistance programs", Path: "/categories/food"}},
		},
	},
	{
		phrases: []string{"i need help but don't know where to start", "not sure what i need", "where do i start"},
		answer: Answer{
			Type:    TypeClarify,
			Message: "I can help with that. What's the biggest thing you need right now — food, a place to stay, help with bills, or something else?",
		},
	},
}

// Matcher is the deterministic lookup from message text to a canned answer.
type Matcher struct {
	crisis []entry
	info   []entry
}

// NewMatcher returns a matcher over the built-in answer tables.
func NewMatcher() *Matcher {
	return &Matcher{crisis: crisisEntries, info: infoEntries}
}

// Match returns a canned answer for the query, or nil. Crisis entries are
// checked first so a crisis phrasing never falls through to an info answer.
func (m *Matcher) Match(query string) *Answer {
	normalized := normalize(query)
	if normalized == "" {
		return nil
	}
	if a := lookup(m.crisis, normalized); a != nil {
		return a
	}
	return lookup(m.info, normalized)
}

// MatchCrisis consults only the crisis table. The orchestrator uses it to
// attach a structured resource to keyword-based crisis classification.
func (m *Matcher) MatchCrisis(query string) *Answer {
	normalized := normalize(query)
	if normalized == "" {
		return nil
	}
	return lookup(m.crisis, normalized)
}

func lookup(entries []entry, normalized string) *Answer {
	for i := range entries {
		for _, phrase := range entries[i].phrases {
			if phraseMatches(normalized, phrase) {
				answer := entries[i].answer
				return &answer
			}
		}
	}
	return nil
}

// phraseMatches requires the whole phrase to appear. Single-word phrases
// must appear as a whole word so "suicidal" doesn't match inside unrelated
// text by accident.
func phraseMatches(normalized, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return strings.Contains(normalized, phrase)
	}
	for _, word := range strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '?' || r == '!' || r == ';'
	}) {
		if word == phrase {
			return true
		}
	}
	return false
}

func normalize(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.Trim(q, "?!. ")
	return q
}
