// Package domain defines Cortex's core entities: memories, relations,
// extraction logs, and agents. These types are shared by every
// subsystem (store, writer, sieve, gate, lifecycle) and carry no
// behavior beyond validation and the category/predicate vocabularies.
package domain

import (
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
)

var (
	errContentTooShort     = cortexerrors.NewValidation("memory content must be at least 3 characters")
	errUnknownCategory     = cortexerrors.NewValidation("unknown memory category")
	errOutOfRange          = cortexerrors.NewValidation("numeric field out of [0,1] range")
	errExpiresLayerMismatch = cortexerrors.NewValidation("expires_at must be set iff layer is working")
)

// Layer controls a memory's TTL, priority weight in the Gate, and
// visibility to the Lifecycle Engine's archival pass.
type Layer string

const (
	LayerWorking Layer = "working"
	LayerCore    Layer = "core"
	LayerArchive Layer = "archive"
)

// Category is one of the twenty closed tags across four tracks: user,
// operational, agent self-model, and system.
type Category string

const (
	CategoryIdentity     Category = "identity"
	CategoryPreference   Category = "preference"
	CategoryDecision     Category = "decision"
	CategoryFact         Category = "fact"
	CategoryEntity       Category = "entity"
	CategoryCorrection   Category = "correction"
	CategoryTodo         Category = "todo"
	CategorySkill        Category = "skill"
	CategoryRelationship Category = "relationship"
	CategoryGoal         Category = "goal"
	CategoryInsight      Category = "insight"
	CategoryProjectState Category = "project_state"

	CategoryConstraint Category = "constraint"
	CategoryPolicy     Category = "policy"

	CategoryAgentPersona         Category = "agent_persona"
	CategoryAgentRelationship    Category = "agent_relationship"
	CategoryAgentUserHabit       Category = "agent_user_habit"
	CategoryAgentSelfImprovement Category = "agent_self_improvement"

	CategoryContext Category = "context"
	CategorySummary Category = "summary"
)

// ValidCategories is the closed set consulted by validation throughout
// the write path; indexing a map keeps the membership check O(1).
var ValidCategories = map[Category]bool{
	CategoryIdentity: true, CategoryPreference: true, CategoryDecision: true,
	CategoryFact: true, CategoryEntity: true, CategoryCorrection: true,
	CategoryTodo: true, CategorySkill: true, CategoryRelationship: true,
	CategoryGoal: true, CategoryInsight: true, CategoryProjectState: true,
	CategoryConstraint: true, CategoryPolicy: true,
	CategoryAgentPersona: true, CategoryAgentRelationship: true,
	CategoryAgentUserHabit: true, CategoryAgentSelfImprovement: true,
	CategoryContext: true, CategorySummary: true,
}

// IsAgentCategory reports whether c belongs to the agent self-model
// family. Agent and user families never cross-supersede.
func IsAgentCategory(c Category) bool {
	switch c {
	case CategoryAgentPersona, CategoryAgentRelationship, CategoryAgentUserHabit, CategoryAgentSelfImprovement:
		return true
	default:
		return false
	}
}

// SameFamily reports whether a and b belong to the same category
// family (both agent self-model, or both non-agent).
func SameFamily(a, b Category) bool {
	return IsAgentCategory(a) == IsAgentCategory(b)
}

// Memory is the central entity persisted by the store.
type Memory struct {
	ID            string
	AgentID       string
	Layer         Layer
	Category      Category
	Content       string
	Importance    float64
	Confidence    float64
	DecayScore    float64
	AccessCount   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     *time.Time
	SupersededBy  *string
	IsPinned      bool
	Source        string
	Metadata      map[string]any
}

// Live reports whether m is visible to recall, dedup matching, and
// vector-top-K candidates.
func (m *Memory) Live() bool {
	return m.SupersededBy == nil
}

// Validate checks the invariants that must hold at every write: the
// expires_at/layer correspondence and the [0,1] numeric ranges.
func (m *Memory) Validate() error {
	if len(m.Content) < 3 {
		return errContentTooShort
	}
	if !ValidCategories[m.Category] {
		return errUnknownCategory
	}
	if m.Importance < 0 || m.Importance > 1 {
		return errOutOfRange
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return errOutOfRange
	}
	if m.DecayScore < 0 || m.DecayScore > 1 {
		return errOutOfRange
	}
	if (m.ExpiresAt != nil) != (m.Layer == LayerWorking) {
		return errExpiresLayerMismatch
	}
	return nil
}

// Relation is a (subject, predicate, object) tuple forming a knowledge
// graph, scoped to a single agent.
type Relation struct {
	ID         string
	AgentID    string
	Subject    string
	Predicate  Predicate
	Object     string
	Confidence float64
	Expired    bool
	MemoryID   string
	CreatedAt  time.Time
}

// Predicate is drawn from the closed relation vocabulary.
type Predicate string

const (
	PredicateUses             Predicate = "uses"
	PredicateWorksAt          Predicate = "works_at"
	PredicateLivesIn          Predicate = "lives_in"
	PredicateKnows            Predicate = "knows"
	PredicateManages          Predicate = "manages"
	PredicateBelongsTo        Predicate = "belongs_to"
	PredicateCreated          Predicate = "created"
	PredicatePrefers          Predicate = "prefers"
	PredicateStudies          Predicate = "studies"
	PredicateSkilledIn        Predicate = "skilled_in"
	PredicateCollaboratesWith Predicate = "collaborates_with"
	PredicateReportsTo        Predicate = "reports_to"
	PredicateOwns             Predicate = "owns"
	PredicateInterestedIn     Predicate = "interested_in"
	PredicateRelatedTo        Predicate = "related_to"
	PredicateNotUses          Predicate = "not_uses"
	PredicateNotInterestedIn  Predicate = "not_interested_in"
	PredicateDislikes         Predicate = "dislikes"
)

var ValidPredicates = map[Predicate]bool{
	PredicateUses: true, PredicateWorksAt: true, PredicateLivesIn: true,
	PredicateKnows: true, PredicateManages: true, PredicateBelongsTo: true,
	PredicateCreated: true, PredicatePrefers: true, PredicateStudies: true,
	PredicateSkilledIn: true, PredicateCollaboratesWith: true, PredicateReportsTo: true,
	PredicateOwns: true, PredicateInterestedIn: true, PredicateRelatedTo: true,
	PredicateNotUses: true, PredicateNotInterestedIn: true, PredicateDislikes: true,
}

// ExtractionLog is one audit row per Sieve channel run. It is never
// consulted by any core algorithm, purely informational.
type ExtractionLog struct {
	ID              string
	AgentID         string
	Channel         string
	ExchangePreview string
	RawOutput       string
	Parsed          []Memory
	WrittenCount    int
	DedupedCount    int
	SmartUpdated    int
	LatencyMillis   int64
	CreatedAt       time.Time
}

// Agent is a tenant/namespace. Config carries per-agent overrides of
// the global configuration; Profile is the Lifecycle Engine's
// synthesized summary read by the Sieve's deep channel.
type Agent struct {
	ID        string
	Name      string
	Config    map[string]any
	Profile   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
