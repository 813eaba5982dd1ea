package a2a

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/config"
	"github.com/inference-gateway/capability-orchestrator/logger"
)

// Service annotations read during discovery
const (
	AnnotationURL         = "inference-gateway.com/a2a-url"
	AnnotationPort        = "inference-gateway.com/a2a-port"
	AnnotationID          = "inference-gateway.com/a2a-id"
	AnnotationDescription = "inference-gateway.com/a2a-description"
	AnnotationStreaming   = "inference-gateway.com/a2a-streaming"

	defaultLabelSelector = "inference-gateway.com/a2a-agent=true"
)

// AgentRegistrar is the part of the capability registry discovery writes to
type AgentRegistrar interface {
	Get(id string) (capability.Descriptor, error)
	Register(id string, descriptor capability.Descriptor) error
	Unregister(id string)
}

// KubernetesServiceDiscovery turns labelled Kubernetes services into agent descriptors
type KubernetesServiceDiscovery struct {
	client        kubernetes.Interface
	namespace     string
	labelSelector string
	logger        logger.Logger
	config        *config.A2AConfig

	// ids registered by discovery, static configuration is never touched
	owned map[string]struct{}
}

// IsKubernetesEnvironment detects if the application is running in a Kubernetes environment
func IsKubernetesEnvironment() bool {
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
		return true
	}

	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	if kubeconfig := os.Getenv("KUBECONFIG"); kubeconfig != "" {
		if _, err := os.Stat(kubeconfig); err == nil {
			return true
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		if _, err := os.Stat(filepath.Join(homeDir, ".kube", "config")); err == nil {
			return true
		}
	}

	return false
}

// NewKubernetesServiceDiscovery creates a discovery instance from in-cluster config or kubeconfig
func NewKubernetesServiceDiscovery(cfg *config.A2AConfig, log logger.Logger) (*KubernetesServiceDiscovery, error) {
	if !IsKubernetesEnvironment() {
		return nil, fmt.Errorf("not running in Kubernetes environment")
	}

	client, err := createKubernetesClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	return NewKubernetesServiceDiscoveryWithClient(client, cfg, log), nil
}

// NewKubernetesServiceDiscoveryWithClient uses the given clientset
func NewKubernetesServiceDiscoveryWithClient(client kubernetes.Interface, cfg *config.A2AConfig, log logger.Logger) *KubernetesServiceDiscovery {
	namespace := cfg.ServiceDiscoveryNamespace
	if namespace == "" {
		if namespaceBytes, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
			namespace = strings.TrimSpace(string(namespaceBytes))
		}
		if namespace == "" {
			namespace = "default"
		}
	}

	labelSelector := cfg.ServiceDiscoveryLabelSelector
	if labelSelector == "" {
		labelSelector = defaultLabelSelector
	}

	return &KubernetesServiceDiscovery{
		client:        client,
		namespace:     namespace,
		labelSelector: labelSelector,
		logger:        log.Named("k8s_service_discovery"),
		config:        cfg,
		owned:         make(map[string]struct{}),
	}
}

func createKubernetesClient() (kubernetes.Interface, error) {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := os.Getenv("KUBECONFIG")
		if kubeconfig == "" {
			if homeDir, err := os.UserHomeDir(); err == nil {
				kubeconfig = filepath.Join(homeDir, ".kube", "config")
			}
		}

		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kubernetes config: %w", err)
		}
	}

	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	return client, nil
}

// DiscoverAgents lists matching services and returns one enabled agent descriptor per service
func (k *KubernetesServiceDiscovery) DiscoverAgents(ctx context.Context) ([]capability.Descriptor, error) {
	services, err := k.client.CoreV1().Services(k.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: k.labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	var descriptors []capability.Descriptor
	for i := range services.Items {
		service := &services.Items[i]
		agentURL := k.buildServiceURL(service)
		if agentURL == "" {
			continue
		}

		id := service.Name
		if custom := service.Annotations[AnnotationID]; custom != "" {
			id = custom
		}
		streaming, _ := strconv.ParseBool(service.Annotations[AnnotationStreaming])

		descriptors = append(descriptors, capability.Descriptor{
			ID:           id,
			Kind:         capability.KindAgent,
			Endpoint:     capability.Endpoint{URL: agentURL},
			Description:  service.Annotations[AnnotationDescription],
			Enabled:      true,
			Capabilities: capability.Capabilities{SupportsStreaming: streaming},
			Tags:         []string{"kubernetes"},
		})
		k.logger.Debug("discovered a2a service",
			"service", service.Name,
			"namespace", service.Namespace,
			"url", agentURL)
	}

	k.logger.Info("kubernetes service discovery completed",
		"namespace", k.namespace,
		"label_selector", k.labelSelector,
		"discovered_services", len(descriptors))

	return descriptors, nil
}

// Sync registers discovered agents and unregisters the ones discovery added
// earlier that are gone. Ids already present from static configuration win.
func (k *KubernetesServiceDiscovery) Sync(ctx context.Context, registry AgentRegistrar) error {
	descriptors, err := k.DiscoverAgents(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		seen[d.ID] = struct{}{}
		if _, owned := k.owned[d.ID]; !owned {
			if _, err := registry.Get(d.ID); err == nil {
				k.logger.Debug("skipping discovered agent shadowed by configuration", "id", d.ID)
				continue
			}
		} else if current, err := registry.Get(d.ID); err == nil && current.Endpoint.URL == d.Endpoint.URL {
			continue
		}
		if err := registry.Register(d.ID, d); err != nil {
			k.logger.Warn("failed to register discovered agent", "id", d.ID, "error", err)
			continue
		}
		k.owned[d.ID] = struct{}{}
	}

	for id := range k.owned {
		if _, ok := seen[id]; ok {
			continue
		}
		registry.Unregister(id)
		delete(k.owned, id)
		k.logger.Info("removed agent no longer discovered", "id", id)
	}
	return nil
}

// Run syncs on the configured interval until ctx is done
func (k *KubernetesServiceDiscovery) Run(ctx context.Context, registry AgentRegistrar) {
	interval := k.config.ServiceDiscoveryInterval
	if interval <= 0 {
		interval = time.Minute
	}

	if err := k.Sync(ctx, registry); err != nil {
		k.logger.Error("kubernetes service discovery failed", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := k.Sync(ctx, registry); err != nil {
				k.logger.Error("kubernetes service discovery failed", err)
			}
		}
	}
}

// buildServiceURL constructs the URL for an A2A service based on Kubernetes service information
func (k *KubernetesServiceDiscovery) buildServiceURL(service *corev1.Service) string {
	if customURL := service.Annotations[AnnotationURL]; customURL != "" {
		return customURL
	}

	port := k.findA2APort(service)
	if port == 0 {
		k.logger.Warn("no suitable port found for a2a service",
			"service", service.Name,
			"namespace", service.Namespace)
		return ""
	}

	switch service.Spec.Type {
	case corev1.ServiceTypeClusterIP, corev1.ServiceTypeNodePort, "":
		return fmt.Sprintf("http://%s.%s.svc.cluster.local:%d", service.Name, service.Namespace, port)
	case corev1.ServiceTypeLoadBalancer:
		if len(service.Status.LoadBalancer.Ingress) > 0 {
			ingress := service.Status.LoadBalancer.Ingress[0]
			if ingress.IP != "" {
				return fmt.Sprintf("http://%s:%d", ingress.IP, port)
			}
			if ingress.Hostname != "" {
				return fmt.Sprintf("http://%s:%d", ingress.Hostname, port)
			}
		}
		return fmt.Sprintf("http://%s.%s.svc.cluster.local:%d", service.Name, service.Namespace, port)
	default:
		k.logger.Warn("unsupported service type for a2a discovery",
			"service", service.Name,
			"type", service.Spec.Type)
		return ""
	}
}

// findA2APort picks a named port, then the annotated port, then a sole or 8080 port
func (k *KubernetesServiceDiscovery) findA2APort(service *corev1.Service) int32 {
	for _, port := range service.Spec.Ports {
		switch strings.ToLower(port.Name) {
		case "a2a", "agent", "http":
			return port.Port
		}
	}

	if portStr, exists := service.Annotations[AnnotationPort]; exists {
		for _, port := range service.Spec.Ports {
			if strconv.Itoa(int(port.Port)) == portStr {
				return port.Port
			}
		}
	}

	if len(service.Spec.Ports) == 1 {
		return service.Spec.Ports[0].Port
	}

	for _, port := range service.Spec.Ports {
		if port.Port == 8080 {
			return port.Port
		}
	}

	return 0
}

func (k *KubernetesServiceDiscovery) GetNamespace() string {
	return k.namespace
}

func (k *KubernetesServiceDiscovery) GetLabelSelector() string {
	return k.labelSelector
}
