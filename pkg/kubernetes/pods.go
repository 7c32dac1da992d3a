package kubernetes

import (
	"context"
	"fmt"
	"sort"

	"github.com/radiofrance/podgen/internal/logger"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

// ListTaskPods returns the pods of a namespace matching a task selector, sorted by name.
// An empty namespace lists pods across all namespaces.
func ListTaskPods(ctx context.Context, k8s kubernetes.Interface, namespace, selector string,
) ([]corev1.Pod, error) {
	parsed, err := labels.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid pod selector %q: %w", selector, err)
	}

	podList, err := k8s.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: parsed.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	pods := podList.Items
	sort.Slice(pods, func(i, j int) bool {
		if pods[i].Namespace != pods[j].Namespace {
			return pods[i].Namespace < pods[j].Namespace
		}
		return pods[i].Name < pods[j].Name
	})
	logger.Debugf("Found %d pod(s) matching %q", len(pods), selector)

	return pods, nil
}
