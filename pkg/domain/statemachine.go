package domain

// State types as defined by the States Language dialect.
const (
	StateTypeTask     = "Task"
	StateTypeChoice   = "Choice"
	StateTypeWait     = "Wait"
	StateTypeParallel = "Parallel"
	StateTypePass     = "Pass"
	StateTypeSucceed  = "Succeed"
	StateTypeFail     = "Fail"
)

// Default retry policy values applied when a Retry entry omits them.
const (
	DefaultRetryIntervalSeconds = 1
	DefaultRetryMaxAttempts     = 3
	DefaultRetryBackoffRate     = 2.0
	DefaultRetryMaxDelaySeconds = 3600
)

// StateMachineDef is the validated definition tree of a state machine.
//
// It is produced by the compiler from an already-parsed document
// (a map decoded from JSON or safe-mode YAML). Unknown top-level keys
// in the document are ignored.
type StateMachineDef struct {
	// StartAt names the entry state. It must resolve in States.
	StartAt string

	// States maps state names to their definitions. Never empty.
	States map[string]*StateDef

	// Comment is optional free text carried through from the document.
	Comment string

	// TimeoutSeconds is advisory for the whole machine. The core does not
	// enforce it; hosts enforce it by passing a deadline context.
	TimeoutSeconds int
}

// StateDef is the definition of a single state. It is a tagged record:
// Type selects which of the optional field groups are meaningful.
// The compiler validates each group at construction time.
type StateDef struct {
	// Name is the key this state was registered under in States.
	Name string

	// Type is one of the StateType constants.
	Type string

	Comment string

	// Next and End are mutually exclusive for Task/Pass/Wait/Parallel:
	// exactly one must be set. Choice uses Default and per-choice Next
	// instead; Succeed and Fail carry neither.
	Next string
	End  bool

	// Data-flow fields. A nil pointer means the field was absent from the
	// document. ResultPathNull records an explicit JSON null ResultPath,
	// which discards the result; an explicit null InputPath or OutputPath
	// is treated the same as an absent one.
	InputPath      *string
	OutputPath     *string
	ResultPath     *string
	ResultPathNull bool
	Parameters     any
	ResultSelector any

	// Task fields.
	Resource         string
	TimeoutSeconds   int
	HeartbeatSeconds int
	Credentials      string
	Retry            []RetryDef
	Catch            []CatchDef

	// Choice fields.
	Choices []*ChoiceRule
	Default string

	// Wait fields. Seconds may be an integer or a numeric string, as found
	// in the document.
	Seconds       any
	SecondsSet    bool
	Timestamp     string
	SecondsPath   string
	TimestampPath string

	// Pass fields.
	Result    any
	ResultSet bool

	// Fail fields.
	Error string
	Cause string

	// Parallel branches, each an independent nested machine definition.
	Branches []*StateMachineDef
}

// RetryDef is one entry in a state's ordered Retry list.
type RetryDef struct {
	// ErrorEquals lists the error names this entry matches. Never empty.
	ErrorEquals []string

	// IntervalSeconds is the base delay before the first retry.
	IntervalSeconds int

	// MaxAttempts bounds how many retries this entry grants. Zero means the
	// entry never fires.
	MaxAttempts int

	// BackoffRate multiplies the delay on each successive attempt. At least 1.0.
	BackoffRate float64

	// MaxDelaySeconds caps the computed backoff.
	MaxDelaySeconds int
}

// CatchDef is one entry in a state's ordered Catch list.
type CatchDef struct {
	ErrorEquals []string

	// Next names the state to transition to when this entry matches.
	Next string

	// ResultPath places the {Error, Cause} object into the state input.
	// When nil, the state's own ResultPath applies.
	ResultPath     *string
	ResultPathNull bool
}

// ChoiceRule is one node in a Choice predicate tree. Either exactly one of
// And/Or/Not is set (a connective), or Variable plus exactly one comparator
// is set (a leaf). Next is only meaningful on top-level rules.
type ChoiceRule struct {
	Next string

	And []*ChoiceRule
	Or  []*ChoiceRule
	Not *ChoiceRule

	Variable string

	// Comparator holds the comparator name (e.g. "NumericGreaterThan") and
	// Operand its literal argument. Presence-style comparators (IsNull,
	// IsPresent, ...) take a boolean operand.
	Comparator string
	Operand    any
}

// ComparatorNames lists every comparator accepted in a ChoiceRule leaf.
// IsTimestamp, IsArray and IsObject are reserved type tests kept for
// document compatibility; they evaluate as plain type checks.
var ComparatorNames = []string{
	"NumericEquals",
	"NumericLessThan",
	"NumericGreaterThan",
	"NumericLessThanEquals",
	"NumericGreaterThanEquals",
	"StringEquals",
	"BooleanEquals",
	"IsNull",
	"IsPresent",
	"IsString",
	"IsNumeric",
	"IsBoolean",
	"IsTimestamp",
	"IsArray",
	"IsObject",
}
