package podgen

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// Generator builds task pods on top of a fixed base pod.
// It is safe for concurrent use: the base pod is never modified.
type Generator struct {
	base *corev1.Pod
}

// NewGenerator creates a generator from either a base pod or a pod template file.
// Exactly one of them must be given.
func NewGenerator(pod *corev1.Pod, templateFile string) (*Generator, error) {
	switch {
	case pod == nil && templateFile == "":
		return nil, fmt.Errorf("%w: either a pod or a pod template file is required", ErrConfiguration)
	case pod != nil && templateFile != "":
		return nil, fmt.Errorf("%w: cannot pass both a pod and a pod template file", ErrConfiguration)
	case pod != nil:
		return &Generator{base: pod.DeepCopy()}, nil
	}

	base, err := LoadTemplate(templateFile)
	if err != nil {
		return nil, err
	}
	return &Generator{base: base}, nil
}

// Pod returns a copy of the base pod.
func (g *Generator) Pod() *corev1.Pod {
	return g.base.DeepCopy()
}

// Construct builds the pod of a task try on top of the base pod of the generator.
// Any Base set on the task is ignored.
func (g *Generator) Construct(task TaskPod) (*corev1.Pod, error) {
	task.Base = g.base
	return ConstructPod(task)
}
