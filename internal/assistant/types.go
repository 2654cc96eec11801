package assistant

import (
	"fmt"
	"strings"

	"github.com/benefitsnav/carl-assistant/internal/directory"
)

// Turn is a single exchange in a conversation transcript. Turns are
// caller-owned; the orchestrator never persists them.
type Turn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// maxHistoryTurns bounds how much of the caller's transcript is ever
// forwarded to a model backend.
const maxHistoryTurns = 4

// recentTurns returns at most the last maxHistoryTurns entries.
func recentTurns(history []Turn) []Turn {
	if len(history) <= maxHistoryTurns {
		return history
	}
	return history[len(history)-maxHistoryTurns:]
}

// Tier tags which path produced a SearchResult.
type Tier string

const (
	TierQuickAnswer Tier = "quick_answer"
	TierGreeting    Tier = "greeting"
	TierCrisis      Tier = "crisis"
	TierLLM         Tier = "llm"
	TierLLMTor      Tier = "llm_tor"
)

// CrisisType tags a detected crisis signal.
type CrisisType string

const (
	CrisisNone             CrisisType = ""
	CrisisEmergency        CrisisType = "emergency"
	CrisisMentalHealth     CrisisType = "mental_health"
	CrisisDomesticViolence CrisisType = "domestic_violence"
)

// Category is the closed vocabulary the intent parser may emit. Anything the
// model returns outside this set is normalized to CategoryGeneral.
type Category string

const (
	CategoryFood           Category = "food"
	CategoryHousing        Category = "housing"
	CategoryHealth         Category = "health"
	CategoryEmployment     Category = "employment"
	CategoryLegal          Category = "legal"
	CategoryTransportation Category = "transportation"
	CategoryUtilities      Category = "utilities"
	CategoryChildcare      Category = "childcare"
	CategorySeniors        Category = "seniors"
	CategoryVeterans       Category = "veterans"
	CategoryDisability     Category = "disability"
	CategoryPets           Category = "pets"
	CategoryEducation      Category = "education"
	CategoryFinancial      Category = "financial"
	CategoryGeneral        Category = "general"
)

var knownCategories = map[Category]bool{
	CategoryFood: true, CategoryHousing: true, CategoryHealth: true,
	CategoryEmployment: true, CategoryLegal: true, CategoryTransportation: true,
	CategoryUtilities: true, CategoryChildcare: true, CategorySeniors: true,
	CategoryVeterans: true, CategoryDisability: true, CategoryPets: true,
	CategoryEducation: true, CategoryFinancial: true, CategoryGeneral: true,
}

// NormalizeCategory maps arbitrary model output onto the closed vocabulary.
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if knownCategories[c] {
		return c
	}
	return CategoryGeneral
}

// Intent is the structured interpretation of a user message.
type Intent struct {
	Query         string   `json:"query"`
	Category      Category `json:"category"`
	NeedsLocation bool     `json:"needs_location"`
	IsGreeting    bool     `json:"is_greeting"`
	IsCrisis      bool     `json:"is_crisis"`
}

// ProfileContext carries privacy-respecting user context. Every field is
// categorical or bucketed; raw identifiers never belong here.
type ProfileContext struct {
	County         string   `json:"county,omitempty"`
	City           string   `json:"city,omitempty"`
	AgeRange       string   `json:"age_range,omitempty"` // bucketed, e.g. "25-34"
	Veteran        bool     `json:"veteran,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
}

// Summary renders the profile as a prompt block the composer can append so
// the model skips redundant questions.
func (p *ProfileContext) Summary() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("What we already know about this user (do not ask again):\n")
	if p.County != "" {
		fmt.Fprintf(&b, "- County: %s\n", p.County)
	}
	if p.City != "" {
		fmt.Fprintf(&b, "- City: %s\n", p.City)
	}
	if p.AgeRange != "" {
		fmt.Fprintf(&b, "- Age range: %s\n", p.AgeRange)
	}
	if p.Veteran {
		b.WriteString("- Veteran: yes\n")
	}
	if len(p.Qualifications) > 0 {
		fmt.Fprintf(&b, "- Qualifies for: %s\n", strings.Join(p.Qualifications, ", "))
	}
	return b.String()
}

// SearchResult is the terminal payload of one orchestrator call.
type SearchResult struct {
	Message    string              `json:"message"`
	Programs   []directory.Program `json:"programs,omitempty"`
	Tier       Tier                `json:"tier"`
	CrisisType CrisisType          `json:"crisis_type,omitempty"`
}

// maxResultPrograms caps how many directory entries a result may carry.
const maxResultPrograms = 5
