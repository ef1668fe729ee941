package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qt-visual-agent/action"
	"qt-visual-agent/pipeline"
	"qt-visual-agent/recognize"
)

var findFlags struct {
	template   []string
	threshold  float64
	roi        string
	multiScale bool
	click      bool
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Locate a template image on the current screen",
	RunE:  runFind,
}

func init() {
	f := findCmd.Flags()
	f.StringSliceVar(&findFlags.template, "template", nil, "Template image path, repeatable (required)")
	f.Float64Var(&findFlags.threshold, "threshold", 0.7, "Minimum match score in [0, 1]")
	f.StringVar(&findFlags.roi, "roi", "", "Search region as x,y,w,h (default full screen)")
	f.BoolVar(&findFlags.multiScale, "multi-scale", false, "Also try rescaled template sizes")
	f.BoolVar(&findFlags.click, "click", false, "Click the match center when found")

	_ = findCmd.MarkFlagRequired("template")
}

func runFind(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	roi, err := parseRoi(findFlags.roi)
	if err != nil {
		return err
	}
	if err := checkRoiOnScreen(roi); err != nil {
		return err
	}

	p, err := pipeline.NewSession(buildOptions(cfg, log))
	if err != nil {
		return err
	}

	m, err := p.FindTarget(cmd.Context(), recognize.TemplateMatch{
		Templates:  findFlags.template,
		Thresholds: []float64{findFlags.threshold},
		Roi:        roi,
		MultiScale: findFlags.multiScale,
	})
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), m); err != nil {
		return err
	}
	if !m.Success {
		return fmt.Errorf("no match above threshold %.2f", findFlags.threshold)
	}

	if findFlags.click {
		out := p.PerformAction(action.Click{Target: action.Target{FromMatch: true}}, m)
		if out.Err != nil {
			return out.Err
		}
	}
	return nil
}

var findColorFlags struct {
	lower     string
	upper     string
	space     string
	count     int
	connected bool
	roi       string
}

var findColorCmd = &cobra.Command{
	Use:   "find-color",
	Short: "Locate pixels within a color range on the current screen",
	RunE:  runFindColor,
}

func init() {
	f := findColorCmd.Flags()
	f.StringVar(&findColorFlags.lower, "lower", "", "Lower channel bounds as h,s,v (required)")
	f.StringVar(&findColorFlags.upper, "upper", "", "Upper channel bounds as h,s,v (required)")
	f.StringVar(&findColorFlags.space, "space", "HSV", "Color space: HSV, RGB or BGR")
	f.IntVar(&findColorFlags.count, "count", 1, "Minimum matching pixel count")
	f.BoolVar(&findColorFlags.connected, "connected", false, "Count only the largest connected region")
	f.StringVar(&findColorFlags.roi, "roi", "", "Search region as x,y,w,h (default full screen)")

	_ = findColorCmd.MarkFlagRequired("lower")
	_ = findColorCmd.MarkFlagRequired("upper")
}

func runFindColor(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	lower, err := parseBounds(findColorFlags.lower)
	if err != nil {
		return err
	}
	upper, err := parseBounds(findColorFlags.upper)
	if err != nil {
		return err
	}
	roi, err := parseRoi(findColorFlags.roi)
	if err != nil {
		return err
	}
	if err := checkRoiOnScreen(roi); err != nil {
		return err
	}

	p, err := pipeline.NewSession(buildOptions(cfg, log))
	if err != nil {
		return err
	}

	m, err := p.FindTarget(cmd.Context(), recognize.ColorMatch{
		Lower:         lower,
		Upper:         upper,
		Space:         recognize.ColorSpace(strings.ToUpper(findColorFlags.space)),
		Roi:           roi,
		MinCount:      findColorFlags.count,
		ConnectedOnly: findColorFlags.connected,
	})
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), m); err != nil {
		return err
	}
	if !m.Success {
		return fmt.Errorf("fewer than %d pixels in range", findColorFlags.count)
	}
	return nil
}
