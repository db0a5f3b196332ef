package web

import (
	"context"
	"html/template"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// indexPage is the data behind the settings page.
type indexPage struct {
	Config           compare.RunConfig
	Partition        compare.Partition
	NoAccess         bool
	NoAccessLabel    string
	Banner           string
	Notice           string
	Fields           map[string]string
	Prepared         *compare.Prepared
	Range            spinglass.TimeRange
	HasRange         bool
	PrecisionOptions []int
	Distributions    []spinglass.Distribution
	AnnealTypes      []spinglass.AnnealType
	Status           RunStatus
	CanRun           bool
	LayoutSVG        template.HTML
	Placements       []placementFigure
}

// resultsPage is the data behind the results page.
type resultsPage struct {
	Status       RunStatus
	Banner       string
	HistogramSVG template.HTML
	Timing       [2][]timingRow
}

type timingRow struct {
	Name  string
	Value float64
}

func (s *Server) index(c *gin.Context) {
	sess := sessionFrom(c)
	cfg := sess.Settings()
	var fields map[string]string
	if len(c.Request.URL.Query()) > 0 {
		next, err := parseSettings(c.Request.URL.Query(), cfg)
		if err != nil {
			fields = fieldErrors(err)
		} else {
			cfg = next
			sess.SetSettings(cfg)
		}
	}
	page := s.buildIndex(c, sess, cfg)
	for k, v := range fields {
		page.Fields[k] = v
	}
	c.HTML(http.StatusOK, "index.html", page)
}

// buildIndex fetches the catalog, intersection and shared anneal range for
// cfg. Service failures become a banner or notice instead of an error page.
func (s *Server) buildIndex(c *gin.Context, sess *Session, cfg compare.RunConfig) *indexPage {
	page := &indexPage{
		Config:           cfg,
		NoAccessLabel:    compare.NoAccess,
		PrecisionOptions: spinglass.PrecisionOptions,
		Distributions:    []spinglass.Distribution{spinglass.DistributionUniform, spinglass.DistributionPowerLaw},
		AnnealTypes:      []spinglass.AnnealType{spinglass.AnnealStandard, spinglass.AnnealFast},
		Status:           sess.Status(),
		Fields:           map[string]string{},
	}
	ctx, cancel := s.catalogContext(c)
	defer cancel()

	part, err := s.runner.Partition(ctx)
	if err != nil {
		logrus.WithError(err).Warn("could not list solvers")
		page.Banner = bannerFor(err)
		page.NoAccess = true
		return page
	}
	page.Partition = part
	if !part.Ready() {
		page.NoAccess = true
		return page
	}
	cfg.Advantage = compare.Pick(part.Advantage, cfg.Advantage)
	cfg.Advantage2 = compare.Pick(part.Advantage2, cfg.Advantage2)
	page.Config = cfg

	prep, err := s.runner.Prepare(ctx, cfg.Advantage, cfg.Advantage2)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"advantage":  cfg.Advantage,
			"advantage2": cfg.Advantage2,
		}).Warn("could not prepare intersection")
		page.Notice = "The selected systems have no usable common topology: " + err.Error()
	} else {
		page.Prepared = prep
		page.LayoutSVG, page.Placements = figures(prep)
	}

	r, err := s.runner.AnnealRange(ctx, cfg.Advantage, cfg.Advantage2, cfg.Anneal.Type)
	if err == nil && !r.IsEmpty() {
		page.Range = r
		page.HasRange = true
	} else if err == nil {
		page.Fields["anneal_type"] = "The selected systems share no " + string(cfg.Anneal.Type) + " anneal time range."
	}
	page.CanRun = prep != nil && page.HasRange
	return page
}

func (s *Server) startRun(c *gin.Context) {
	sess := sessionFrom(c)
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := parseSettings(c.Request.PostForm, sess.Settings())
	if err == nil {
		sess.SetSettings(cfg)
		err = s.precheck(c, cfg)
	}
	if err != nil {
		page := s.buildIndex(c, sess, cfg)
		if f := fieldErrors(err); f != nil {
			page.Fields = f
		} else {
			page.Banner = bannerFor(err)
		}
		c.HTML(statusFor(err), "index.html", page)
		return
	}

	id, _ := sess.Start(context.Background(), func(ctx context.Context) (*compare.Result, error) {
		return s.run(ctx, cfg)
	})
	logrus.WithFields(logrus.Fields{"session": sess.ID[:8], "run": id}).Info("started run")
	c.Redirect(http.StatusSeeOther, "/results")
}

// precheck rejects settings before anything is submitted so the form can
// show the message next to the offending control.
func (s *Server) precheck(c *gin.Context, cfg compare.RunConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.catalogContext(c)
	defer cancel()
	ranges, err := s.runner.AnnealRanges(ctx, cfg.Advantage, cfg.Advantage2)
	if err != nil {
		return err
	}
	return cfg.Anneal.Validate(ranges)
}

func (s *Server) cancelRun(c *gin.Context) {
	sess := sessionFrom(c)
	if sess.Cancel() {
		logrus.WithField("session", sess.ID[:8]).Info("cancel requested")
	}
	c.Redirect(http.StatusSeeOther, "/results")
}

func (s *Server) results(c *gin.Context) {
	st := sessionFrom(c).Status()
	page := resultsPage{Status: st}
	if st.State == StateFailed {
		page.Banner = bannerFor(st.Err())
	}
	if st.Result != nil && st.Result.Comparison != nil {
		cmp := st.Result.Comparison
		svg, err := histogramSVG(cmp)
		if err != nil {
			logrus.WithError(err).Warn("could not draw histogram")
		}
		page.HistogramSVG = svg
		for i, sys := range cmp.Systems {
			page.Timing[i] = timingRows(sys.Samples)
		}
	}
	c.HTML(http.StatusOK, "results.html", page)
}

// figures draws the intersection and each system's placement. A figure that
// fails to render is logged and left out.
func figures(prep *compare.Prepared) (template.HTML, []placementFigure) {
	layout, err := chimeraSVG(prep.Intersection)
	if err != nil {
		logrus.WithError(err).Warn("could not draw intersection")
	}
	var out []placementFigure
	for sys, hw := range []*topology.Hardware{prep.Advantage, prep.Advantage2} {
		if hw == nil {
			continue
		}
		fig, err := placementSVG(prep.Intersection, hw, sys)
		if err != nil {
			logrus.WithError(err).WithField("solver", hw.Solver).Warn("could not draw placement")
			continue
		}
		out = append(out, fig)
	}
	return layout, out
}

func timingRows(ss *spinglass.SampleSet) []timingRow {
	if ss == nil {
		return nil
	}
	rows := make([]timingRow, 0, len(ss.Timing))
	for k, v := range ss.Timing {
		rows = append(rows, timingRow{Name: k, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}
