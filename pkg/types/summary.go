package types

import "time"

// Policy selects what happens when an import would touch destination data an
// analyst put there by hand.
type Policy string

const (
	// PolicySkip drops the incoming entry without recording a conflict.
	PolicySkip Policy = "skip"
	// PolicyOverwrite replaces destination user data with the incoming entry.
	PolicyOverwrite Policy = "overwrite"
	// PolicyReport leaves destination user data untouched and records the
	// conflict in the summary. This is the default.
	PolicyReport Policy = "report"
)

// ValidPolicy reports whether p is a recognized conflict policy.
func ValidPolicy(p Policy) bool {
	switch p {
	case PolicySkip, PolicyOverwrite, PolicyReport:
		return true
	}
	return false
}

// Stage identifies how far an import run progressed.
type Stage string

const (
	StageLoaded             Stage = "loaded"
	StageValidating         Stage = "validating"
	StageApplyingFunctions  Stage = "applying_functions"
	StageApplyingNames      Stage = "applying_names"
	StageApplyingComments   Stage = "applying_comments"
	StageApplyingStructures Stage = "applying_structures"
	StageSummarized         Stage = "summarized"
	StageFailed             Stage = "failed"
)

// ConflictKind names the category of a reported merge conflict.
type ConflictKind string

const (
	NameConflict    ConflictKind = "name_conflict"
	CommentConflict ConflictKind = "comment_conflict"
	StructConflict  ConflictKind = "struct_conflict"
)

// Conflict records one per-entry collision with destination user data. The
// entry was skipped, never applied over the existing data.
type Conflict struct {
	Kind     ConflictKind `json:"kind"`
	Address  uint64       `json:"address,omitempty"`
	StructID string       `json:"struct_id,omitempty"`
	Offset   uint64       `json:"offset,omitempty"`
	Existing string       `json:"existing"`
	Incoming string       `json:"incoming"`
}

// EntryError records one per-entry failure that did not abort the run.
type EntryError struct {
	Category string `json:"category"`
	Address  uint64 `json:"address,omitempty"`
	StructID string `json:"struct_id,omitempty"`
	Message  string `json:"message"`
}

// FunctionStats counts per-entry outcomes for the functions category.
type FunctionStats struct {
	Created        int `json:"created"`
	AlreadyPresent int `json:"already_present"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
}

// NameStats counts per-entry outcomes for the names category. Overwritten
// counts auto-generated destination names replaced by imported ones.
type NameStats struct {
	Applied     int `json:"applied"`
	Overwritten int `json:"overwritten"`
	Conflicts   int `json:"conflicts"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

// CommentStats counts per-entry outcomes for the comments category.
type CommentStats struct {
	Applied      int `json:"applied"`
	Overwritten  int `json:"overwritten"`
	Concatenated int `json:"concatenated"`
	Conflicts    int `json:"conflicts"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
}

// StructStats counts per-entry outcomes for the structures category.
type StructStats struct {
	Created      int `json:"created"`
	MembersAdded int `json:"members_added"`
	Matched      int `json:"matched"`
	Conflicts    int `json:"conflicts"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
}

// Summary is the result of one import run: per-category counts plus every
// conflict and per-entry error encountered. A summary exists even when
// individual entries failed; only decode-time errors abort before one is
// produced.
type Summary struct {
	RunID    string        `json:"run_id"`
	BinaryID string        `json:"binary_identifier,omitempty"`
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration_ns"`

	Functions  FunctionStats `json:"functions"`
	Names      NameStats     `json:"names"`
	Comments   CommentStats  `json:"comments"`
	Structures StructStats   `json:"structures"`

	Conflicts []Conflict   `json:"conflicts,omitempty"`
	Errors    []EntryError `json:"errors,omitempty"`
}

// TotalConflicts returns the number of reported conflicts across categories.
func (s *Summary) TotalConflicts() int {
	return len(s.Conflicts)
}

// TotalFailed returns the number of per-entry failures across categories.
func (s *Summary) TotalFailed() int {
	return s.Functions.Failed + s.Names.Failed + s.Comments.Failed + s.Structures.Failed
}
