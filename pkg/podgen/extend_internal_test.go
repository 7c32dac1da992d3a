//nolint:testpackage
package podgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func Test_mustExtend_UnknownField(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		mustExtend(&corev1.Container{}, &corev1.Container{}, "image", containerListFields)
	})
}

func Test_reconciledFieldsAreRegistered(t *testing.T) {
	t.Parallel()

	for _, field := range reconciledContainerListFields {
		assert.Contains(t, containerListFields, field)
	}
	for _, field := range reconciledObjectMetaListFields {
		assert.Contains(t, objectMetaListFields, field)
	}
	assert.Contains(t, specListFields, "initContainers")
	assert.Contains(t, specListFields, "volumes")
}

func Test_concat_DoesNotAliasInputs(t *testing.T) {
	t.Parallel()

	base := make([]string, 1, 4)
	base[0] = "a"
	out := concat(base, []string{"b"})
	out[0] = "changed"

	assert.Equal(t, []string{"a"}, base)
	assert.Equal(t, "a", base[:2][0])
	assert.Equal(t, "", base[:2][1])
}

func Test_mergeContainer_ReusesOwnedValues(t *testing.T) {
	t.Parallel()

	b := &corev1.Container{Command: []string{"run"}, Env: []corev1.EnvVar{{Name: "FOO"}}}
	c := &corev1.Container{Args: []string{"--fast"}}

	merged := mergeContainer(b, c)
	assert.Same(t, &b.Command[0], &merged.Command[0])
	assert.Same(t, &b.Env[0], &merged.Env[0])
	assert.Same(t, &c.Args[0], &merged.Args[0])
}

func Test_mergeObjectMeta_ReusesOwnedValues(t *testing.T) {
	t.Parallel()

	b := &metav1.ObjectMeta{Finalizers: []string{"a"}}
	c := &metav1.ObjectMeta{OwnerReferences: []metav1.OwnerReference{{Name: "owner"}}}

	merged := mergeObjectMeta(b, c)
	assert.Same(t, &b.Finalizers[0], &merged.Finalizers[0])
	assert.Same(t, &c.OwnerReferences[0], &merged.OwnerReferences[0])
}
