// Package validate gates every document write. ValidateWrite is a pure
// predicate over the proposed state, the previous revision, and the acting
// principal: no I/O, no locking, safe from any number of goroutines. The
// same code runs inside a storage trigger and in offline test harnesses.
package validate

import (
	"github.com/avoskresensky/docvault/document"
)

// Validator holds deployment policy for write validation. The zero value
// is the strict default.
type Validator struct {
	// AllowAnonymousDelete permits deletions with no acting principal.
	// Content writes always require an authenticated principal.
	AllowAnonymousDelete bool
}

// ValidateWrite checks a proposed write against the previous persisted
// revision. oldDoc is nil on creation; newDoc is nil on deletion. A nil
// return means the write may be persisted.
func (v *Validator) ValidateWrite(newDoc, oldDoc document.Document, principal string) error {
	anonymous := principal == "" || principal == document.Anonymous

	if newDoc == nil {
		// Deletion bypasses content invariants but not identity.
		if anonymous && !v.AllowAnonymousDelete {
			return violation(RulePrincipal, "anonymous deletion is not allowed")
		}
		return nil
	}

	if anonymous {
		return violation(RulePrincipal, "only authenticated users can modify documents")
	}

	typ := newDoc.Type()
	if oldDoc != nil && oldDoc.Type() != typ {
		return violation(RuleType, "$type cannot change from %q to %q", oldDoc.Type(), typ)
	}

	switch typ {
	case document.TypeEntry:
		return v.validateEntry(newDoc, oldDoc)
	case document.TypeGroup:
		return v.validateGroup(newDoc, oldDoc)
	case document.TypeDB:
		return v.validateDB(newDoc)
	case document.TypeLog:
		if oldDoc != nil {
			return violation(RuleAppendOnly, "log documents cannot be updated")
		}
		return nil
	case document.TypeUser:
		if !document.IsEmail(newDoc.User()) {
			return violation(RuleUserEmail, "user field must be a valid email")
		}
		return nil
	case document.TypeToken:
		return v.validateToken(newDoc, oldDoc)
	default:
		return violation(RuleType, "invalid $type %q", typ)
	}
}

func (v *Validator) validateEntry(newDoc, oldDoc document.Document) error {
	if err := validateOwners(newDoc, oldDoc); err != nil {
		return err
	}
	if err := validateDates(newDoc, oldDoc); err != nil {
		return err
	}
	if newDoc.LastModification() == "" {
		return violation(RuleModification, "$lastModification is mandatory")
	}
	if oldDoc != nil {
		if newDoc.IDKey() != oldDoc.IDKey() {
			return violation(RuleIdentity, "$id cannot change (%s to %s)", oldDoc.IDKey(), newDoc.IDKey())
		}
		if newDoc.Kind() != oldDoc.Kind() {
			return violation(RuleIdentity, "$kind cannot change (%q to %q)", oldDoc.Kind(), newDoc.Kind())
		}
	}
	return nil
}

func (v *Validator) validateGroup(newDoc, oldDoc document.Document) error {
	name := newDoc.Name()
	switch {
	case name == "":
		return violation(RuleGroupName, "group must have a name")
	case document.IsEmail(name):
		return violation(RuleGroupName, "group name %q cannot be an email", name)
	case !document.IsGroupName(name):
		return violation(RuleGroupName, "invalid group name %q", name)
	case document.IsReservedPrincipal(name):
		return violation(RuleGroupName, "group name %q is reserved", name)
	}
	if oldDoc != nil && oldDoc.Name() != name {
		return violation(RuleIdentity, "group name cannot change (%q to %q)", oldDoc.Name(), name)
	}
	if err := validateOwners(newDoc, oldDoc); err != nil {
		return err
	}
	for _, u := range newDoc.Users() {
		if !document.IsEmail(u) {
			return violation(RuleGroupUsers, "group user %q is not a valid email", u)
		}
	}
	if err := validateDates(newDoc, oldDoc); err != nil {
		return err
	}
	if newDoc.LastModification() == "" {
		return violation(RuleModification, "$lastModification is mandatory")
	}
	return nil
}

// validateDB covers the two singleton configuration documents. Unknown db
// documents carry no content rules.
func (v *Validator) validateDB(newDoc document.Document) error {
	id, _ := newDoc.ID().(string)
	switch id {
	case document.RightsDocID:
		for right, value := range newDoc {
			if len(right) > 0 && right[0] == '$' {
				continue
			}
			if !document.IsArray(value) {
				return violation(RuleDBShape, "global right %q must be an array of principals", right)
			}
		}
	case document.DefaultGroupsDocID:
		for _, field := range []string{document.Anonymous, document.AnyUser} {
			value, ok := newDoc[field]
			if !ok {
				continue
			}
			if !document.IsArray(value) {
				return violation(RuleDBShape, "default groups %q must be an array", field)
			}
			for _, g := range document.StringSlice(value) {
				if !document.IsGroupName(g) {
					return violation(RuleDBShape, "default group %q is not a valid group name", g)
				}
			}
		}
	}
	return nil
}

func (v *Validator) validateToken(newDoc, oldDoc document.Document) error {
	if oldDoc != nil {
		return violation(RuleTokenImmut, "tokens cannot be modified")
	}
	if newDoc.Kind() != document.TypeEntry {
		return violation(RuleTokenFields, "only entry tokens are supported, got $kind %q", newDoc.Kind())
	}
	if newDoc.ID() == nil {
		return violation(RuleTokenFields, "token must reference an $id")
	}
	if !document.IsEmail(newDoc.Owner()) {
		return violation(RuleTokenFields, "token $owner must be a valid email")
	}
	if newDoc.UUID() == "" {
		return violation(RuleTokenFields, "token must carry a uuid")
	}
	if _, ok := newDoc.CreationDate(); !ok {
		return violation(RuleTokenFields, "token $creationDate must be numeric")
	}
	if !document.IsArray(newDoc["rights"]) {
		return violation(RuleTokenFields, "token rights must be an array")
	}
	return nil
}

func validateOwners(newDoc, oldDoc document.Document) error {
	owners := newDoc.Owners()
	if len(owners) == 0 {
		return violation(RuleOwners, "$owners must be a non-empty array")
	}
	if !document.IsEmail(owners[0]) {
		return violation(RuleOwners, "primary owner %q must be a valid email", owners[0])
	}
	for _, o := range owners[1:] {
		if !document.IsOwnerToken(o) {
			return violation(RuleOwners, "owner %q is neither an email nor a group name", o)
		}
	}
	if oldDoc != nil {
		prev := oldDoc.Owners()
		if len(prev) > 0 && prev[0] != owners[0] {
			return violation(RuleOwners, "primary owner cannot change (%q to %q)", prev[0], owners[0])
		}
	}
	return nil
}

func validateDates(newDoc, oldDoc document.Document) error {
	created, ok := newDoc.CreationDate()
	if !ok {
		return violation(RuleDates, "$creationDate must be numeric")
	}
	modified, ok := newDoc.ModificationDate()
	if !ok {
		return violation(RuleDates, "$modificationDate must be numeric")
	}
	if modified < created {
		return violation(RuleDates, "$modificationDate cannot precede $creationDate")
	}
	if oldDoc != nil {
		prevCreated, ok := oldDoc.CreationDate()
		if ok && prevCreated != created {
			return violation(RuleDates, "$creationDate cannot change")
		}
		prevModified, ok := oldDoc.ModificationDate()
		if ok && modified < prevModified {
			return violation(RuleDates, "$modificationDate cannot move backwards")
		}
	}
	return nil
}
