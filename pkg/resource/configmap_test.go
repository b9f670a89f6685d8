package resource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	kfake "k8s.io/client-go/kubernetes/fake"
	ktesting "k8s.io/client-go/testing"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

func testSlave(t *testing.T, name string) *domain.Slave {
	t.Helper()
	s, err := domain.NewSlave(domain.SlaveSpec{
		Name:              name,
		RemoteFS:          "/var/lib/" + name,
		Labels:            "linux",
		Launcher:          domain.JNLPLauncher{Tunnel: "gw:5000"},
		RetentionStrategy: domain.DemandRetention{InDemandDelay: 2, IdleDelay: 10},
	})
	require.NoError(t, err)
	return s
}

func TestConfigMapStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := kfake.NewSimpleClientset()
	store := NewConfigMapStore(client, "ci", "multislave", "", time.Second)

	nodes, err := store.Load(ctx)
	require.NoError(t, err, "a missing configmap is an empty fleet")
	assert.Empty(t, nodes)

	first := []domain.Node{testSlave(t, "a")}
	require.NoError(t, store.Save(ctx, first), "first save creates the configmap")

	want := []domain.Node{testSlave(t, "a"), testSlave(t, "b")}
	require.NoError(t, store.Save(ctx, want), "second save updates it")

	cm, err := client.CoreV1().ConfigMaps("ci").Get(ctx, "multislave", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data, DefaultDataKey)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConfigMapStoreKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	client := kfake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "multislave", Namespace: "ci"},
		Data:       map[string]string{"README": "managed"},
	})
	store := NewConfigMapStore(client, "ci", "multislave", "fleet", time.Second)

	nodes, err := store.Load(ctx)
	require.NoError(t, err, "a missing key is an empty fleet")
	assert.Empty(t, nodes)

	require.NoError(t, store.Save(ctx, []domain.Node{testSlave(t, "a")}))

	cm, err := client.CoreV1().ConfigMaps("ci").Get(ctx, "multislave", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "managed", cm.Data["README"])
	assert.Contains(t, cm.Data, "fleet")
}

func TestConfigMapStoreRetriesConflict(t *testing.T) {
	ctx := context.Background()
	client := kfake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "multislave", Namespace: "ci"},
	})

	conflicts := 2
	client.PrependReactor("update", "configmaps", func(action ktesting.Action) (bool, runtime.Object, error) {
		if conflicts > 0 {
			conflicts--
			return true, nil, apierrors.NewConflict(schema.GroupResource{Resource: "configmaps"}, "multislave", errors.New("stale"))
		}
		return false, nil, nil
	})

	store := NewConfigMapStore(client, "ci", "multislave", "", 5*time.Second)
	require.NoError(t, store.Save(ctx, []domain.Node{testSlave(t, "a")}))
	assert.Zero(t, conflicts)
}

func TestConfigMapStorePermanentError(t *testing.T) {
	client := kfake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "multislave", Namespace: "ci"},
	})

	calls := 0
	client.PrependReactor("update", "configmaps", func(action ktesting.Action) (bool, runtime.Object, error) {
		calls++
		return true, nil, apierrors.NewForbidden(schema.GroupResource{Resource: "configmaps"}, "multislave", errors.New("rbac"))
	})

	store := NewConfigMapStore(client, "ci", "multislave", "", 5*time.Second)
	err := store.Save(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apierrors.IsForbidden(err))
	assert.Equal(t, 1, calls, "forbidden is not retried")
}

func TestConfigMapStoreRejectsBadDocument(t *testing.T) {
	client := kfake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "multislave", Namespace: "ci"},
		Data:       map[string]string{DefaultDataKey: "nodes: [{name: x, kind: slave, retentionStrategy: {kind: sometimes}}]"},
	})

	_, err := NewConfigMapStore(client, "ci", "multislave", "", time.Second).Load(context.Background())
	assert.Error(t, err)
}

func TestConfigMapStoreHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewConfigMapStore(kfake.NewSimpleClientset(), "ci", "multislave", "", time.Second)
	_, err := store.Load(ctx)
	assert.True(t, common.IsContextCanceled(err))
	assert.True(t, common.IsContextCanceled(store.Save(ctx, nil)))
}
