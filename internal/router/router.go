// Package router assigns a Job to a Worker by an ordered rule table, and
// owns the one decision point in the pipeline that knows both worker
// names and job-type routing policy (spec.md §4.2, §4.5).
package router

import (
	"fmt"

	"docgen/internal/job"
	"docgen/internal/worker"
)

// Rule maps jobs matching Predicate to the worker named WorkerName.
type Rule struct {
	Reason     string
	WorkerName string
	Predicate  func(j job.Job) bool
}

// Router holds an ordered rule table plus a default worker name used when
// no rule matches.
type Router struct {
	Rules         []Rule
	DefaultWorker string
	Workers       map[string]worker.Worker
}

// New builds a Router over the given named workers.
func New(workers map[string]worker.Worker, defaultWorker string, rules ...Rule) Router {
	return Router{Rules: rules, DefaultWorker: defaultWorker, Workers: workers}
}

// Route returns the Worker selected for j and the name/reason of the
// decision, or an error if no worker is registered under the selected
// name.
func (r Router) Route(j job.Job) (worker.Worker, string, error) {
	name := r.DefaultWorker
	reason := "default worker"

	for _, rule := range r.Rules {
		if rule.Predicate(j) {
			name = rule.WorkerName
			reason = rule.Reason
			break
		}
	}

	w, ok := r.Workers[name]
	if !ok {
		return nil, "", fmt.Errorf("router: no worker registered under name %q", name)
	}
	return w, reason, nil
}

// DefaultRules implements the routing policy from spec.md §4.2: world_class
// jobs and any job with print export intent go to the layout-worker;
// everything else falls through to the default worker.
func DefaultRules() []Rule {
	return []Rule{
		{
			Reason:     "world_class mode requires the layout application",
			WorkerName: "layout-worker",
			Predicate:  func(j job.Job) bool { return j.Mode == job.ModeWorldClass },
		},
		{
			Reason:     "export intent is print",
			WorkerName: "layout-worker",
			Predicate:  func(j job.Job) bool { return j.Export.Intent == job.IntentPrint },
		},
	}
}
