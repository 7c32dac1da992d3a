package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/radiofrance/podgen/pkg/podgen"
)

const noMapIndex = -1

// taskOpts identifies the task try a command works on.
type taskOpts struct {
	podgen.Config `mapstructure:",squash"`

	DagID       string `mapstructure:"dag_id"`
	TaskID      string `mapstructure:"task_id"`
	TryNumber   int    `mapstructure:"try_number"`
	MapIndex    int    `mapstructure:"map_index"`
	RunID       string `mapstructure:"run_id"`
	LogicalDate string `mapstructure:"logical_date"`
}

func addTaskFlags(flags *pflag.FlagSet) {
	flags.String("dag-id", "", "Id of the DAG the task belongs to.")
	flags.String("task-id", "", "Id of the task.")
	flags.Int("try-number", 1, "Try number of the task instance.")
	flags.Int("map-index", noMapIndex, "Index of the mapped task instance, negative for unmapped tasks.")
	flags.String("run-id", "", "Id of the DAG run.")
	flags.String("logical-date", "", "Logical date of the DAG run (RFC 3339).")
}

func (o taskOpts) identity() (podgen.TaskIdentity, error) {
	if o.DagID == "" || o.TaskID == "" {
		return podgen.TaskIdentity{}, fmt.Errorf("--dag-id and --task-id are required")
	}

	id := podgen.TaskIdentity{
		DagID:     o.DagID,
		TaskID:    o.TaskID,
		TryNumber: o.TryNumber,
		WorkerID:  o.WorkerID,
		RunID:     o.RunID,
	}
	if o.MapIndex > noMapIndex {
		mapIndex := o.MapIndex
		id.MapIndex = &mapIndex
	}
	if o.LogicalDate != "" {
		date, err := time.Parse(time.RFC3339Nano, o.LogicalDate)
		if err != nil {
			return podgen.TaskIdentity{}, fmt.Errorf("invalid logical date %q: %w", o.LogicalDate, err)
		}
		id.LogicalDate = date
	}
	return id, nil
}
