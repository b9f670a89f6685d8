package domain

import "context"

// Registry is the host-owned store of all nodes. List returns nodes in
// registration order.
type Registry interface {
	List() []Node
	Get(name string) (Node, bool)
	Add(ctx context.Context, node Node) error
	Remove(ctx context.Context, node Node) error
	ReplaceAll(ctx context.Context, nodes []Node) error
}

// ComputerController drives the runtime side of a node
type ComputerController interface {
	SetTemporarilyOffline(name string, offline bool, reason string) error
	Connect(name string) error
	Disconnect(name string, reason string) error
}

// Persister saves and restores the registry contents
type Persister interface {
	Load(ctx context.Context) ([]Node, error)
	Save(ctx context.Context, nodes []Node) error
}
