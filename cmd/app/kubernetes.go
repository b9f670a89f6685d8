package app

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	typedcorev1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// KubeClientInterface is the part of a clientset the node list store and
// event recorder use. Real and fake clientsets both implement it.
type KubeClientInterface interface {
	CoreV1() typedcorev1.CoreV1Interface
}

// KubeClients holds the Kubernetes client instances.
type KubeClients struct {
	// ClientSet talks to the core API group
	ClientSet KubeClientInterface

	// Config is the REST configuration the clientset was built from
	Config *rest.Config
}

// NewKubeClients returns configured Kubernetes clients identified by
// userAgent. A reachable kubeconfig file wins over in-cluster configuration.
func NewKubeClients(cfg *KubernetesConfig, userAgent string) (*KubeClients, error) {
	config, err := restConfig(cfg)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		config.UserAgent = userAgent
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return &KubeClients{
		ClientSet: clientset,
		Config:    config,
	}, nil
}

func restConfig(cfg *KubernetesConfig) (*rest.Config, error) {
	kubeconfig := kubeconfigPath(cfg.ConfigPath)

	if !fileExists(kubeconfig) {
		config, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster configs: %w", err)
		}
		return config, nil
	}

	config, err := clientcmd.BuildConfigFromFlags(cfg.MasterURL, kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build configs from kubeconfig %s: %w", kubeconfig, err)
	}
	return config, nil
}

// kubeconfigPath picks the explicit path, then $KUBECONFIG, then ~/.kube/config
func kubeconfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if path := os.Getenv("KUBECONFIG"); path != "" {
		return path
	}
	if home := homedir.HomeDir(); home != "" {
		return filepath.Join(home, ".kube", "config")
	}
	return ""
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
