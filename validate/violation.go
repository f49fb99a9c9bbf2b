package validate

import "fmt"

// Rule tags the invariant an IntegrityViolation reports. Callers branch on
// the tag; the Reason string is for humans.
type Rule string

const (
	RuleType         Rule = "type"
	RulePrincipal    Rule = "principal"
	RuleOwners       Rule = "owners"
	RuleDates        Rule = "dates"
	RuleIdentity     Rule = "identity"
	RuleGroupName    Rule = "group-name"
	RuleGroupUsers   Rule = "group-users"
	RuleDBShape      Rule = "db-shape"
	RuleAppendOnly   Rule = "append-only"
	RuleUserEmail    Rule = "user-email"
	RuleTokenFields  Rule = "token-fields"
	RuleTokenImmut   Rule = "token-immutable"
	RuleModification Rule = "modification"
)

// IntegrityViolation is the validator's rejection. It is an ordinary error
// value: recoverable by fixing the document and retrying, never a crash.
type IntegrityViolation struct {
	Rule   Rule
	Reason string
}

func (v *IntegrityViolation) Error() string {
	return fmt.Sprintf("integrity violation (%s): %s", v.Rule, v.Reason)
}

func violation(rule Rule, format string, args ...any) *IntegrityViolation {
	return &IntegrityViolation{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}
