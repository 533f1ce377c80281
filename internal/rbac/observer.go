package rbac

// Observer receives provisioning and authorization signals for metrics.
// Implementations must be safe for concurrent use. A nil Observer is valid
// and drops every signal.
type Observer interface {
	RoleProvisioned(system bool)
	GrantCreated()
	PermissionUnresolved(name string)
	CheckDenied()
}

type noopObserver struct{}

func (noopObserver) RoleProvisioned(bool)        {}
func (noopObserver) GrantCreated()               {}
func (noopObserver) PermissionUnresolved(string) {}
func (noopObserver) CheckDenied()                {}

func observerOrNoop(o Observer) Observer {
	if o == nil {
		return noopObserver{}
	}
	return o
}
