package foreign

// Kind selects the implementation flavor of a foreign class. The
// synthesizer keys its static slot tables on it.
type Kind uint8

const (
	KindClass Kind = iota
	KindInterface
	KindDelegate
	KindArray
	KindException
)

var kindNames = [...]string{
	KindClass:     "class",
	KindInterface: "interface",
	KindDelegate:  "delegate",
	KindArray:     "array",
	KindException: "exception",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is the restart-stable identity of a class within its Manager.
// Token 0 is reserved and always invalid.
type Token uint32

// Handle references a foreign object instance lent to the host domain
// through the manager's handle table. Handle 0 is invalid.
type Handle uint32

// Class describes one foreign-domain class. Identity is pointer
// identity: the synthesizer caches on *Class, never on name.
type Class struct {
	// FullName is namespace-qualified, with '+' separating nesting
	// levels and a backquoted arity suffix on generic definitions,
	// e.g. "Acme.Collections.Bag`1" or "Acme.Outer+Inner".
	FullName string

	// GenericArgs holds the bound type arguments of a constructed
	// generic class, in declaration order.
	GenericArgs []*Class

	// Base is the foreign superclass, nil at the root.
	Base *Class

	// Assembly names the defining unit; informational.
	Assembly string

	Kind Kind

	// Capability flags gate conditional slot installation.
	Iterable  bool
	Indexable bool
	Sized     bool

	// Methods lists the class's callable members; synthesis seeds the
	// type dict with refs to them.
	Methods []string

	token Token
}

// Token returns the class's restart-stable identity.
func (c *Class) Token() Token { return c.token }

// MethodRef is the dict-visible reference to a foreign method. Calls
// dispatch through the marshalling layer, which is outside this
// library.
type MethodRef struct {
	Class *Class
	Name  string
}

// ClassSpec describes a class to define.
type ClassSpec struct {
	FullName    string
	GenericArgs []*Class
	Base        *Class
	Assembly    string
	Kind        Kind
	Iterable    bool
	Indexable   bool
	Sized       bool
	Methods     []string
}
