// Package artifact defines the final research artifact and the aggregator
// that builds it from the three agents' outputs, plus export writers for
// the formats external consumers render.
package artifact

import (
	"time"
)

// Source is one reference gathered by the search agent.
type Source struct {
	// Title is the source's display title.
	Title string `json:"title"`

	// Snippet is a short excerpt relevant to the topic.
	Snippet string `json:"snippet"`

	// URL locates the source.
	URL string `json:"url"`
}

// Section is one structured part of the synthesis narrative.
type Section struct {
	// Heading is the section title.
	Heading string `json:"heading"`

	// Body is the section's narrative text.
	Body string `json:"body"`
}

// VerdictKind classifies the outcome of checking one claim.
type VerdictKind string

const (
	// VerdictVerified means supporting sources confirm the claim.
	VerdictVerified VerdictKind = "verified"

	// VerdictUnverified means the claim could not be confirmed or
	// refuted, including claims the fact-check agent never reached.
	VerdictUnverified VerdictKind = "unverified"

	// VerdictFalse means the claim is contradicted by the sources.
	VerdictFalse VerdictKind = "false"
)

// String returns the string representation of the verdict kind.
func (k VerdictKind) String() string {
	return string(k)
}

// IsValid checks if the verdict kind is a recognized value.
func (k VerdictKind) IsValid() bool {
	switch k {
	case VerdictVerified, VerdictUnverified, VerdictFalse:
		return true
	default:
		return false
	}
}

// Verdict is the fact-check outcome for a single claim.
type Verdict struct {
	// Claim is the checked statement, taken from the synthesis output.
	Claim string `json:"claim"`

	// Kind is the verdict classification.
	Kind VerdictKind `json:"kind"`

	// SourceRefs are zero-based indexes into the artifact's Sources list
	// supporting the verdict.
	SourceRefs []int `json:"source_refs,omitempty"`
}

// SearchOutput is the typed output of the search agent and the input to
// synthesis.
type SearchOutput struct {
	Sources []Source `json:"sources"`
}

// SynthesisOutput is the typed output of the synthesis agent and the input
// to fact-check.
type SynthesisOutput struct {
	// Sections is the structured narrative.
	Sections []Section `json:"sections"`

	// Claims are the checkable statements extracted from the narrative.
	Claims []string `json:"claims"`
}

// FactCheckOutput is the typed output of the fact-check agent.
type FactCheckOutput struct {
	Verdicts []Verdict `json:"verdicts"`
}

// Artifact is the read-only final research document. It is built at most
// once per session by Build.
type Artifact struct {
	// SessionID identifies the session that produced the artifact.
	SessionID string `json:"session_id"`

	// Topic is the research topic the artifact answers.
	Topic string `json:"topic"`

	// Sources are the references gathered by search, in gathered order.
	Sources []Source `json:"sources"`

	// Narrative is the synthesis output, in section order.
	Narrative []Section `json:"narrative"`

	// Verdicts covers every claim from the synthesis output. Claims the
	// fact-check agent never resolved are present as unverified.
	Verdicts []Verdict `json:"verdicts"`

	// FactCheckIncomplete is true when the fact-check agent did not
	// complete and the verdicts are best-effort.
	FactCheckIncomplete bool `json:"fact_check_incomplete"`

	// GeneratedAt is when the artifact was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// Build aggregates the agents' outputs into the final artifact. search and
// synth must be non-nil; facts may be nil when the fact-check agent failed
// after exhausting retries, in which case every claim is marked unverified
// and FactCheckIncomplete is set. Claims present in synth but absent from
// facts are marked unverified rather than omitted, so export is always
// possible once synthesis completed.
func Build(sessionID, topic string, search *SearchOutput, synth *SynthesisOutput, facts *FactCheckOutput, generatedAt time.Time) *Artifact {
	a := &Artifact{
		SessionID:           sessionID,
		Topic:               topic,
		Sources:             []Source{},
		Narrative:           []Section{},
		Verdicts:            []Verdict{},
		FactCheckIncomplete: facts == nil,
		GeneratedAt:         generatedAt,
	}

	if search != nil {
		a.Sources = append(a.Sources, search.Sources...)
	}
	if synth == nil {
		return a
	}
	a.Narrative = append(a.Narrative, synth.Sections...)

	resolved := make(map[string]Verdict)
	if facts != nil {
		for _, v := range facts.Verdicts {
			resolved[v.Claim] = v
		}
	}
	for _, claim := range synth.Claims {
		if v, ok := resolved[claim]; ok {
			a.Verdicts = append(a.Verdicts, v)
			continue
		}
		a.Verdicts = append(a.Verdicts, Verdict{Claim: claim, Kind: VerdictUnverified})
	}
	return a
}
