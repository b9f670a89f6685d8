package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kfake "k8s.io/client-go/kubernetes/fake"

	"multislave-config/cmd/app"
	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/nodelist"
	"multislave-config/internal/features/fleet/service"
)

func testConfig(backend string) *app.Config {
	return &app.Config{
		App:      app.AppConfig{Component: "multislave-config"},
		Registry: app.RegistryConfig{Backend: backend},
		Kubernetes: app.KubernetesConfig{
			Namespace:       "ci",
			ConfigMapName:   "fleet",
			RetryMaxElapsed: time.Second,
		},
		Metrics: app.MetricsConfig{Namespace: "multislave"},
	}
}

func TestNewMemoryBackend(t *testing.T) {
	s, err := New(context.Background(), testConfig(app.BackendMemory))
	require.NoError(t, err)
	assert.Empty(t, s.Registry.List())
	assert.Nil(t, s.Gatherer())
	assert.NoError(t, s.Close())

	_, err = s.Manager.BeginSession(service.ModeConfigure)
	assert.ErrorIs(t, err, common.ErrEmptyNodeList)
}

func TestNewFileBackendWithMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(app.BackendFile)
	cfg.Registry.FilePath = filepath.Join(dir, "nodes.yaml")
	cfg.Metrics.Enabled = true
	cfg.Metrics.TextfilePath = filepath.Join(dir, "multislave.prom")

	ctx := context.Background()
	s, err := New(ctx, cfg)
	require.NoError(t, err)

	sess, err := s.Manager.BeginSession(service.ModeAdd)
	require.NoError(t, err)
	_, err = s.Manager.Create(ctx, sess, service.CreateRequest{Names: "a b", Mode: service.CreateNew})
	require.NoError(t, err)
	_, err = s.Manager.Apply(ctx, sess, nodelist.SettingsPatch{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	metrics, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `multislave_operations_total{operation="add",result="success"} 1`)

	reloaded, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.Len(t, reloaded.Registry.List(), 2)
}

func TestNewConfigMapBackend(t *testing.T) {
	cfg := testConfig(app.BackendConfigMap)
	cfg.Kubernetes.EventsEnabled = true
	client := kfake.NewSimpleClientset()

	ctx := context.Background()
	s, err := New(ctx, cfg, WithKubeClient(client))
	require.NoError(t, err)

	sess, err := s.Manager.BeginSession(service.ModeAdd)
	require.NoError(t, err)
	_, err = s.Manager.Create(ctx, sess, service.CreateRequest{Prefix: "w", First: "1", Last: "2", Mode: service.CreateNew})
	require.NoError(t, err)
	_, err = s.Manager.Apply(ctx, sess, nodelist.SettingsPatch{})
	require.NoError(t, err)

	cm, err := client.CoreV1().ConfigMaps("ci").Get(ctx, "fleet", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data["nodes.yaml"], "name: w1")

	events, err := client.CoreV1().Events("ci").List(ctx, metav1.ListOptions{})
	require.NoError(t, err)
	require.Len(t, events.Items, 1)
	assert.Equal(t, "SlavesAdded", events.Items[0].Reason)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), testConfig("etcd"))
	assert.True(t, common.IsInvalidInput(err))
}
