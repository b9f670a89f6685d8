package resource

import (
	"multislave-config/cmd/app"
)

// Factory creates the Kubernetes backed adapters from one configuration
type Factory struct {
	config *app.Config
	client KubeClientInterface
	store  *ConfigMapStore
	events *EventRecorder
}

// NewFactory creates a factory for resource handlers
func NewFactory(config *app.Config, client KubeClientInterface) *Factory {
	k := config.Kubernetes

	f := &Factory{
		config: config,
		client: client,
		store:  NewConfigMapStore(client, k.Namespace, k.ConfigMapName, k.DataKey, k.RetryMaxElapsed),
	}
	if k.EventsEnabled {
		f.events = NewEventRecorder(client, k.Namespace, k.ConfigMapName, config.App.Component, k.RetryMaxElapsed)
	}
	return f
}

// Store returns the node list store
func (f *Factory) Store() *ConfigMapStore {
	return f.store
}

// Events returns the event recorder, or false when events are disabled
func (f *Factory) Events() (*EventRecorder, bool) {
	return f.events, f.events != nil
}
