/*
Package podgen builds the pod that runs one try of a task on Kubernetes.

The pod is the composition of three layers, merged in this order:

  - the base pod, an operator-authored template usually loaded with LoadTemplate;
  - the override pod, supplied per task (see PodFromExecutorConfig);
  - the task identity: a unique name, labels, annotations, image, arguments.

Merging never mutates its inputs. Scalar fields of the upper layer win when set. Labels,
annotations and resource quantities merge key by key. Volumes, init containers and the env,
ports and mounts of each container are concatenated; containers themselves pair by position.
*/
package podgen
