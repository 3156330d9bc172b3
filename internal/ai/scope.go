package ai

import "fmt"

var scopeNames = [...]string{
	ScopeLocal:    "local",
	ScopeGlobal:   "global",
	ScopeSaveData: "savemap",
}

func (s VariableScope) String() string {
	if s >= 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

func (s VariableScope) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(scopeNames) {
		return nil, fmt.Errorf("%w: scope %d", ErrInvalidOperand, int(s))
	}
	return []byte(scopeNames[s]), nil
}

func (s *VariableScope) UnmarshalText(b []byte) error {
	for i, name := range scopeNames {
		if name == string(b) {
			*s = VariableScope(i)
			return nil
		}
	}
	return fmt.Errorf("%w: scope %q", ErrInvalidOperand, b)
}

var familyNames = [...]string{
	FamilySet: "set",
	FamilyAdd: "add",
}

func (f AssignFamily) String() string {
	if f >= 0 && int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", int(f))
}

func (f AssignFamily) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(familyNames) {
		return nil, fmt.Errorf("%w: family %d", ErrInvalidOperand, int(f))
	}
	return []byte(familyNames[f]), nil
}

func (f *AssignFamily) UnmarshalText(b []byte) error {
	for i, name := range familyNames {
		if name == string(b) {
			*f = AssignFamily(i)
			return nil
		}
	}
	return fmt.Errorf("%w: family %q", ErrInvalidOperand, b)
}
