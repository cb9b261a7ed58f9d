package rbac

// GuardState is the session snapshot a route decision is made from.
type GuardState struct {
	Principal Principal
	Loading   bool
}

// DecisionKind enumerates route guard outcomes.
type DecisionKind uint8

const (
	DecisionAllow DecisionKind = iota
	DecisionLoading
	DecisionLogin
	DecisionDenied
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionAllow:
		return "allow"
	case DecisionLoading:
		return "loading"
	case DecisionLogin:
		return "login"
	case DecisionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating a protected route.
type Decision struct {
	Kind DecisionKind
	// From carries the requested location for DecisionLogin so the login
	// flow can return there.
	From string
}

// Evaluate decides how a request for a protected location is handled.
// required may be empty when the route only needs an authenticated user.
// The result depends only on the arguments; nothing is cached.
func Evaluate(state GuardState, required, requested string) Decision {
	if state.Loading {
		return Decision{Kind: DecisionLoading}
	}
	if !roleOf(state.Principal).Valid() {
		return Decision{Kind: DecisionLogin, From: requested}
	}
	if required == "" {
		return Decision{Kind: DecisionAllow}
	}
	if !HasPermission(state.Principal, required) {
		return Decision{Kind: DecisionDenied}
	}
	return Decision{Kind: DecisionAllow}
}
