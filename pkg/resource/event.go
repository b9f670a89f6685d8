package resource

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"multislave-config/internal/common"
)

// maxMessageLength keeps event messages within the API server limit
const maxMessageLength = 1024

var reasons = map[string]string{
	"add":          "SlavesAdded",
	"configure":    "SlavesConfigured",
	"delete":       "SlavesDeleted",
	"take online":  "SlavesTakenOnline",
	"take offline": "SlavesTakenOffline",
	"connect":      "SlavesConnected",
	"disconnect":   "SlavesDisconnected",
}

// EventRecorder records bulk operations as events on the node list
// ConfigMap.
type EventRecorder struct {
	client     KubeClientInterface
	namespace  string
	configMap  string
	component  string
	maxElapsed time.Duration
}

// NewEventRecorder creates a recorder attaching events to namespace/configMap
func NewEventRecorder(client KubeClientInterface, namespace, configMap, component string, maxElapsed time.Duration) *EventRecorder {
	return &EventRecorder{
		client:     client,
		namespace:  namespace,
		configMap:  configMap,
		component:  component,
		maxElapsed: maxElapsed,
	}
}

// RecordOperation creates a Normal event for a successful operation and a
// Warning event carrying opErr otherwise.
func (r *EventRecorder) RecordOperation(ctx context.Context, operation string, nodes []string, opErr error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("context canceled before recording event: %w", ctx.Err())
	}

	reason, ok := reasons[operation]
	if !ok {
		reason = "BulkOperation"
	}
	eventType := corev1.EventTypeNormal
	message := fmt.Sprintf("%s: %s", operation, strings.Join(nodes, " "))
	if opErr != nil {
		eventType = corev1.EventTypeWarning
		reason += "Failed"
		message = fmt.Sprintf("%s; %v", message, opErr)
	}
	message = truncate(message, maxMessageLength)

	logger := common.LoggerFromContext(ctx)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.maxElapsed

	attempt := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("context canceled during event creation: %w", ctx.Err()))
		}

		ref := corev1.ObjectReference{
			Kind:       "ConfigMap",
			APIVersion: "v1",
			Namespace:  r.namespace,
			Name:       r.configMap,
		}
		// the ConfigMap may not exist before the first save
		cm, err := r.client.CoreV1().ConfigMaps(r.namespace).Get(ctx, r.configMap, metav1.GetOptions{})
		if err == nil {
			ref.UID = cm.UID
			ref.ResourceVersion = cm.ResourceVersion
		} else if !apierrors.IsNotFound(err) {
			return err
		}

		now := metav1.Now()
		event := &corev1.Event{
			ObjectMeta: metav1.ObjectMeta{
				Name:      fmt.Sprintf("%s.%x", r.configMap, time.Now().UnixNano()),
				Namespace: r.namespace,
			},
			InvolvedObject: ref,
			Reason:         reason,
			Message:        message,
			Type:           eventType,
			FirstTimestamp: now,
			LastTimestamp:  now,
			Count:          1,
			Source: corev1.EventSource{
				Component: r.component,
			},
		}

		if _, err := r.client.CoreV1().Events(r.namespace).Create(ctx, event, metav1.CreateOptions{}); err != nil {
			logger.Debug("Retry: failed to create event", "reason", reason, "error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("failed to record %s event: %w", operation, err)
	}
	return nil
}

// truncate shortens s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
