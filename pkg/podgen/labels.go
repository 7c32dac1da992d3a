package podgen

import (
	"strconv"
	"strings"
	"time"

	k8sutils "github.com/radiofrance/podgen/pkg/kubernetes"
	"k8s.io/apimachinery/pkg/labels"
)

// Label and annotation keys attached to every task pod.
const (
	LabelDagID              = "dag_id"
	LabelTaskID             = "task_id"
	LabelTryNumber          = "try_number"
	LabelMapIndex           = "map_index"
	LabelRunID              = "run_id"
	LabelLogicalDate        = "logical_date"
	LabelWorker             = "podgen-worker"
	LabelVersion            = "podgen_version"
	LabelKubernetesExecutor = "kubernetes_executor"

	// LabelAppManagedBy is the standard label key for the tool managing the resource.
	LabelAppManagedBy = "app.kubernetes.io/managed-by"
	// ManagedByPodgen is the value of LabelAppManagedBy on every task pod.
	ManagedByPodgen = "podgen"

	// UnassignedWorker is the worker label value of pods built without a worker id.
	UnassignedWorker = "unassigned"
)

// TaskIdentity identifies one try of one task instance.
type TaskIdentity struct {
	DagID     string
	TaskID    string
	TryNumber int
	// WorkerID is the id of the scheduler job that launched the pod. Optional.
	WorkerID string
	// MapIndex is only set for mapped tasks.
	MapIndex *int
	RunID    string
	// LogicalDate is ignored when zero.
	LogicalDate time.Time
}

// BuildLabels returns the labels identifying the pod of a task try. Every value is a valid
// label value; the raw identifiers are kept in annotations (see BuildAnnotations).
func BuildLabels(id TaskIdentity) map[string]string {
	podLabels := map[string]string{
		LabelDagID:              k8sutils.SafeLabelValue(id.DagID),
		LabelTaskID:             k8sutils.SafeLabelValue(id.TaskID),
		LabelTryNumber:          strconv.Itoa(id.TryNumber),
		LabelKubernetesExecutor: "True",
		LabelVersion:            versionLabelValue(),
		LabelWorker:             UnassignedWorker,
	}
	if id.WorkerID != "" {
		podLabels[LabelWorker] = k8sutils.SafeLabelValue(id.WorkerID)
	}
	if id.MapIndex != nil && *id.MapIndex >= 0 {
		podLabels[LabelMapIndex] = strconv.Itoa(*id.MapIndex)
	}
	if id.RunID != "" {
		podLabels[LabelRunID] = k8sutils.SafeLabelValue(id.RunID)
	}
	if !id.LogicalDate.IsZero() {
		podLabels[LabelLogicalDate] = k8sutils.LabelSafeTime(id.LogicalDate)
	}
	return podLabels
}

// BuildSelector returns the label selector matching the pods of a task try.
//
// The version label is left out so pods created before an upgrade are still found.
// Without a worker id the selector only requires the worker label to exist, so it matches
// the pod whatever scheduler job launched it.
func BuildSelector(id TaskIdentity) string {
	podLabels := BuildLabels(id)
	delete(podLabels, LabelVersion)
	if id.WorkerID == "" {
		delete(podLabels, LabelWorker)
	}

	selector := labels.Set(podLabels).String()
	if id.WorkerID == "" {
		selector += "," + LabelWorker
	}
	return selector
}

// BuildAnnotations returns the raw task identifiers, which labels can only hold sanitized.
func BuildAnnotations(id TaskIdentity) map[string]string {
	annotations := map[string]string{
		LabelDagID:     id.DagID,
		LabelTaskID:    id.TaskID,
		LabelTryNumber: strconv.Itoa(id.TryNumber),
	}
	if id.MapIndex != nil && *id.MapIndex >= 0 {
		annotations[LabelMapIndex] = strconv.Itoa(*id.MapIndex)
	}
	if id.RunID != "" {
		annotations[LabelRunID] = id.RunID
	}
	if !id.LogicalDate.IsZero() {
		annotations[LabelLogicalDate] = k8sutils.IsoFormat(id.LogicalDate)
	}
	return annotations
}

func versionLabelValue() string {
	return k8sutils.SafeLabelValue(strings.ReplaceAll(Version, "+", "-"))
}
