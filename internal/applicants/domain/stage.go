// Package domain holds the applicant pipeline rules: bucket classification
// into coarse stages and the stage-transition state machine.
package domain

import "strings"

// Stage is one of the coarse lifecycle states an applicant pipeline bucket
// maps to. Bucket names are free text; classification reduces them to these
// three values for grouping and metrics.
type Stage string

const (
	StageApplied      Stage = "applied"
	StageQualified    Stage = "qualified"
	StageNotQualified Stage = "not-qualified"
)

// IsKnownStage reports whether the value is one of the three coarse stages.
func IsKnownStage(stage string) bool {
	switch Stage(stage) {
	case StageApplied, StageQualified, StageNotQualified:
		return true
	}
	return false
}

// stageRule pairs a keyword set with the stage a matching bucket name
// classifies to. Rules are evaluated in order, so the qualified rule wins
// over the rejected rule when a name matches both.
type stageRule struct {
	keywords []string
	stage    Stage
}

var classificationRules = []stageRule{
	{
		keywords: []string{"interview", "qualified", "technical", "offer", "hired", "shortlist", "vetted"},
		stage:    StageQualified,
	},
	{
		keywords: []string{"rejected", "not qualified", "archived", "not interested", "disqualified", "declined"},
		stage:    StageNotQualified,
	},
}

// Classify maps a bucket's free-text name to a coarse stage. The match is a
// case-insensitive substring test against each rule's keyword set, first rule
// wins. Names matching nothing, including the empty name, default to applied.
//
// Note: "not qualified" contains "qualified", so a bucket literally named
// "Not Qualified" classifies as qualified. The first rule is evaluated first
// on purpose; see Classify tests for the pinned behavior.
func Classify(bucketName string) Stage {
	name := strings.ToLower(bucketName)
	for _, rule := range classificationRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(name, keyword) {
				return rule.stage
			}
		}
	}
	return StageApplied
}

// Bucket is the metadata the classifier needs about a pipeline bucket.
type Bucket struct {
	ID   string
	Name string
}

// ResolveBucket maps a target stage identifier back to a concrete bucket:
// the first bucket whose classification matches the target, or whose
// lowercased name contains the target id as a substring. Returns false when
// no bucket matches; callers must not mutate any state in that case.
func ResolveBucket(target string, buckets []Bucket) (Bucket, bool) {
	targetLower := strings.ToLower(strings.TrimSpace(target))
	if targetLower == "" {
		return Bucket{}, false
	}

	for _, b := range buckets {
		if string(Classify(b.Name)) == targetLower {
			return b, true
		}
		if strings.Contains(strings.ToLower(b.Name), targetLower) {
			return b, true
		}
	}

	return Bucket{}, false
}
