package job

import "fmt"

// MaxOverallScore is the authoritative scale for every threshold that
// compares against a Job's overall score. spec.md §9 flags that two
// scales (0-100 grade vs 0-150 rubric) appear in the source; this
// implementation resolves that ambiguity by fixing 0-150 (the rubric
// scale, matching Scorecard.overall in spec.md §3) as canonical
// everywhere a "threshold" is compared against "overall". See DESIGN.md.
const MaxOverallScore = 150.0

// WorldClassThreshold is the minimum qa.threshold a world_class-mode job
// must declare, expressed on the MaxOverallScore (0-150) scale.
const WorldClassThreshold = 140.0

const weightSumTolerance = 0.01

// Validate checks the invariants from spec.md §3 and returns every
// violation found, not just the first.
func Validate(j Job) ConfigurationErrorCollection {
	var errs ConfigurationErrorCollection

	if j.JobID == "" {
		errs.Add("jobId", "must not be empty")
	}

	switch j.Mode {
	case ModeNormal, ModeWorldClass, ModeExperiment:
	case "":
		errs.Add("mode", "is required")
	default:
		errs.Add("mode", fmt.Sprintf("unrecognized mode %q", j.Mode))
	}

	if j.Export.Intent != "" && j.Export.Intent != IntentPrint && j.Export.Intent != IntentScreen {
		errs.Add("export.intent", fmt.Sprintf("must be %q or %q", IntentPrint, IntentScreen))
	}

	if j.QA.Threshold < 0 || j.QA.Threshold > MaxOverallScore {
		errs.Add("qa.threshold", fmt.Sprintf("must be within [0, %g]", MaxOverallScore))
	}

	if j.Mode == ModeWorldClass {
		if j.Export.Intent != IntentPrint {
			errs.Add("export.intent", "world_class mode requires intent=print")
		}
		if j.QA.Threshold < WorldClassThreshold {
			errs.Add("qa.threshold", fmt.Sprintf("world_class mode requires threshold >= %g", WorldClassThreshold))
		}
	}

	if sum, has := weightSum(j.Layers); has {
		if diff := sum - 1.0; diff < -weightSumTolerance || diff > weightSumTolerance {
			errs.Add("layers", fmt.Sprintf("layer weights sum to %g, want ~1.0", sum))
		}
	}

	if j.Mode == ModeExperiment {
		if j.Experiment == nil {
			errs.Add("experiment", "mode=experiment requires an experiment block")
		} else if j.Experiment.VariantCount < 1 && len(j.Experiment.VariantConfigs) == 0 {
			errs.Add("experiment.variantCount", "must be >= 1 when variantConfigs is empty")
		}
	}

	return errs
}

// weightSum sums every explicitly-set layer weight. It returns has=false
// when no job-level weight was supplied at all, since the invariant only
// applies "where provided" (spec.md §3).
func weightSum(layers map[string]LayerConfig) (sum float64, has bool) {
	for _, l := range layers {
		if l.Weight > 0 {
			sum += l.Weight
			has = true
		}
	}
	return sum, has
}
