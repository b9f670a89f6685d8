package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/registry"
)

// ConfigMapStore persists the node registry in one key of a ConfigMap
type ConfigMapStore struct {
	client     KubeClientInterface
	namespace  string
	name       string
	key        string
	maxElapsed time.Duration
}

// NewConfigMapStore creates a store for the ConfigMap namespace/name.
// Writes are retried for up to maxElapsed.
func NewConfigMapStore(client KubeClientInterface, namespace, name, key string, maxElapsed time.Duration) *ConfigMapStore {
	if key == "" {
		key = DefaultDataKey
	}
	return &ConfigMapStore{
		client:     client,
		namespace:  namespace,
		name:       name,
		key:        key,
		maxElapsed: maxElapsed,
	}
}

// Load reads the node list. A missing ConfigMap or key is an empty list.
func (s *ConfigMapStore) Load(ctx context.Context) ([]domain.Node, error) {
	if err := common.HandleContextError(ctx, "load node list"); err != nil {
		return nil, err
	}

	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configmap %s/%s: %w", s.namespace, s.name, err)
	}
	return registry.Unmarshal([]byte(cm.Data[s.key]))
}

// Save writes the node list, creating the ConfigMap when needed. Update
// conflicts and transient API errors are retried.
func (s *ConfigMapStore) Save(ctx context.Context, nodes []domain.Node) error {
	if err := common.HandleContextError(ctx, "save node list"); err != nil {
		return err
	}
	data, err := registry.Marshal(nodes)
	if err != nil {
		return err
	}

	logger := common.LoggerFromContext(ctx)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.maxElapsed

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("context canceled during node list save: %w", ctx.Err()))
		}

		configMaps := s.client.CoreV1().ConfigMaps(s.namespace)
		cm, err := configMaps.Get(ctx, s.name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			cm = &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{Name: s.name, Namespace: s.namespace},
				Data:       map[string]string{s.key: string(data)},
			}
			_, err = configMaps.Create(ctx, cm, metav1.CreateOptions{})
			return classify(err)
		}
		if err != nil {
			return classify(err)
		}

		if cm.Data == nil {
			cm.Data = make(map[string]string)
		}
		cm.Data[s.key] = string(data)
		_, err = configMaps.Update(ctx, cm, metav1.UpdateOptions{})
		if err != nil {
			logger.Debug("Retrying node list save", "configmap", s.name, "error", err)
		}
		return classify(err)
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("failed to save node list to configmap %s/%s: %w", s.namespace, s.name, err)
	}
	return nil
}

// classify marks errors that another attempt cannot fix as permanent
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case apierrors.IsConflict(err), apierrors.IsAlreadyExists(err),
		apierrors.IsServerTimeout(err), apierrors.IsTimeout(err),
		apierrors.IsTooManyRequests(err), apierrors.IsServiceUnavailable(err):
		return err
	default:
		return backoff.Permanent(err)
	}
}
