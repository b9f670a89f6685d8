package resource

import (
	typedcorev1 "k8s.io/client-go/kubernetes/typed/core/v1"
)

// KubeClientInterface is an interface that defines only the necessary methods of a Kubernetes clientset.
// This interface implements both real clientsets and fake clientsets.
type KubeClientInterface interface {
	CoreV1() typedcorev1.CoreV1Interface
}

// DefaultDataKey is the ConfigMap key holding the node list
const DefaultDataKey = "nodes.yaml"
