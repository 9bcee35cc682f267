package symbols

// ScopeID identifies a scope in the table arena.
type ScopeID uint32

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0
)

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// FunctionID identifies a function inside the table arena.
type FunctionID uint32

const (
	// NoFunctionID marks the absence of a function reference.
	NoFunctionID FunctionID = 0
)

// IsValid reports whether the function ID refers to an allocated function.
func (id FunctionID) IsValid() bool { return id != NoFunctionID }
