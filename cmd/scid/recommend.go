package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/liamcoop/scid/sandcontrol"
)

// Output formats accepted by --output
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type recommendOptions struct {
	input  string
	engine string
	rules  string
	output string

	req RecommendRequest

	strength                float64
	permeability            float64
	porosity                float64
	viscosity               float64
	waterCut                float64
	environmentalFromImpact bool
}

func newRecommendCmd(a *app) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Advise whether to install sand control facilities",
		Long: `Evaluates one set of well observations and prints the advisory.

The reservoir is described either numerically (--strength, --permeability,
--porosity, --viscosity) or categorically (--consolidation,
--permeability-band, --grain-size, --fluid-viscosity), never both.
Observations can also be read from a YAML file with --input; flags given
alongside the file override its fields.`,
		Example: `  scid recommend --strength 800 --permeability 650 --porosity 25 --viscosity 500 \
    --rate above_critical --water-cut 45 --completion open_hole \
    --economic positive --environmental minimal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "YAML observation file")
	f.StringVar(&opts.engine, "engine", "", "evaluator: native or rules (default: rules when a rule file is set)")
	f.StringVar(&opts.rules, "rules", "", "YAML rule file for the rules engine")
	f.StringVarP(&opts.output, "output", "o", OutputText, "output format: text, json or yaml")
	f.BoolVar(&opts.req.Explain, "explain", false, "include per-rule results")

	f.Float64Var(&opts.strength, "strength", 0, "compressive strength (psi)")
	f.Float64Var(&opts.permeability, "permeability", 0, "permeability (mD)")
	f.Float64Var(&opts.porosity, "porosity", 0, "porosity (%)")
	f.Float64Var(&opts.viscosity, "viscosity", 0, "fluid viscosity (cP)")

	f.StringVar(&opts.req.Reservoir.Consolidation, "consolidation", "", "consolidated or poorly_consolidated")
	f.StringVar(&opts.req.Reservoir.PermeabilityBand, "permeability-band", "", "500_to_800 or other")
	f.StringVar(&opts.req.Reservoir.GrainSize, "grain-size", "", "large, small or none")
	f.StringVar(&opts.req.Reservoir.FluidViscosityLevel, "fluid-viscosity", "", "high, low or none")

	f.StringVar(&opts.req.Production.Rate, "rate", "", "above_critical, below_critical or none")
	f.Float64Var(&opts.waterCut, "water-cut", 0, "water cut (%)")
	f.StringVar(&opts.req.Production.WaterCutBand, "water-cut-band", "", "high or low")

	f.StringVar(&opts.req.Completion, "completion", "", "open_hole or cased")
	f.StringVar(&opts.req.Economic, "economic", "", "positive, negative or can_be_sorted")
	f.StringVar(&opts.req.Environmental, "environmental", "", "minimal or maximal (not read by variant B unless --environmental-from-impact)")

	f.StringVar(&opts.req.Variant, "variant", "", "decision variant: A or B (default from config)")
	f.BoolVar(&opts.environmentalFromImpact, "environmental-from-impact", false, "variant B: read the environmental impact instead of the economic feasibility")

	cmd.MarkFlagsMutuallyExclusive("water-cut", "water-cut-band")
	return cmd
}

// request merges the input file with the flags that were set
func (o *recommendOptions) request(flags *pflag.FlagSet) (RecommendRequest, error) {
	req := RecommendRequest{}
	if o.input != "" {
		var err error
		if req, err = LoadRecommendRequest(o.input); err != nil {
			return req, err
		}
	}

	setFloat := func(name string, src float64, dst **float64) {
		if flags.Changed(name) {
			v := src
			*dst = &v
		}
	}
	setString := func(name, src string, dst *string) {
		if flags.Changed(name) {
			*dst = src
		}
	}

	setFloat("strength", o.strength, &req.Reservoir.CompressiveStrength)
	setFloat("permeability", o.permeability, &req.Reservoir.Permeability)
	setFloat("porosity", o.porosity, &req.Reservoir.Porosity)
	setFloat("viscosity", o.viscosity, &req.Reservoir.FluidViscosity)
	setString("consolidation", o.req.Reservoir.Consolidation, &req.Reservoir.Consolidation)
	setString("permeability-band", o.req.Reservoir.PermeabilityBand, &req.Reservoir.PermeabilityBand)
	setString("grain-size", o.req.Reservoir.GrainSize, &req.Reservoir.GrainSize)
	setString("fluid-viscosity", o.req.Reservoir.FluidViscosityLevel, &req.Reservoir.FluidViscosityLevel)

	setString("rate", o.req.Production.Rate, &req.Production.Rate)
	setFloat("water-cut", o.waterCut, &req.Production.WaterCut)
	setString("water-cut-band", o.req.Production.WaterCutBand, &req.Production.WaterCutBand)

	setString("completion", o.req.Completion, &req.Completion)
	setString("economic", o.req.Economic, &req.Economic)
	setString("environmental", o.req.Environmental, &req.Environmental)
	setString("variant", o.req.Variant, &req.Variant)

	if flags.Changed("environmental-from-impact") {
		v := o.environmentalFromImpact
		req.EnvironmentalFromImpact = &v
	}
	if flags.Changed("explain") {
		req.Explain = o.req.Explain
	}
	return req, nil
}

func runRecommend(cmd *cobra.Command, a *app, opts *recommendOptions) error {
	switch opts.output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q (must be text, json or yaml)", opts.output)
	}

	req, err := opts.request(cmd.Flags())
	if err != nil {
		return err
	}

	rulesPath := a.cfg.Engine.RulesPath
	if opts.rules != "" {
		rulesPath = opts.rules
	}
	assessor, err := NewAssessor(opts.engine, rulesPath, a.cfg.Policy())
	if err != nil {
		return err
	}

	resp, err := assessor.Assess(req)
	if err != nil {
		return fmt.Errorf("invalid observations: %w", err)
	}

	out := cmd.OutOrStdout()
	switch opts.output {
	case OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case OutputYAML:
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(resp)
	default:
		return writeText(out, resp)
	}
}

func writeText(out io.Writer, resp *RecommendResponse) error {
	fmt.Fprintln(out, resp.Advice)
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, f := range sandcontrol.Factors {
		verdict := "not indicated"
		if resp.Verdicts.Get(f) {
			verdict = "indicated"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", f, verdict)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if resp.Vetoed {
		fmt.Fprintf(out, "vetoed by: %v\n", resp.VetoedBy)
	}
	fmt.Fprintf(out, "variant: %s  engine: %s  id: %s\n", resp.Variant, resp.Engine, resp.ID)

	if len(resp.Rules) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, r := range resp.Rules {
			status := "no match"
			switch {
			case r.Error != "":
				status = "error: " + r.Error
			case r.Matched:
				status = "match"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.Factor, r.RuleID, status)
		}
		return tw.Flush()
	}
	return nil
}
