package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// pair returns the solver pair named in the query, defaulting to the
// session's.
func pair(c *gin.Context) (string, string) {
	cfg := sessionFrom(c).Settings()
	return c.DefaultQuery("advantage", cfg.Advantage), c.DefaultQuery("advantage2", cfg.Advantage2)
}

func (s *Server) catalogContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.catalogTimeout)
}

func (s *Server) apiSolvers(c *gin.Context) {
	ctx, cancel := s.catalogContext(c)
	defer cancel()
	solvers, err := s.runner.Solvers(ctx)
	if err != nil {
		abortJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"partition": compare.PartitionSolvers(solvers),
		"solvers":   solvers,
	})
}

type intersectionResponse struct {
	Advantage  string           `json:"advantage"`
	Advantage2 string           `json:"advantage2"`
	Size       int              `json:"size"`
	Tile       int              `json:"tile"`
	Qubits     int              `json:"qubits"`
	Couplers   int              `json:"couplers"`
	Yields     []topology.Yield `json:"yields"`
}

func (s *Server) apiIntersection(c *gin.Context) {
	a, b := pair(c)
	ctx, cancel := s.catalogContext(c)
	defer cancel()
	prep, err := s.runner.Prepare(ctx, a, b)
	if err != nil {
		abortJSON(c, err)
		return
	}
	in := prep.Intersection
	c.JSON(http.StatusOK, intersectionResponse{
		Advantage:  a,
		Advantage2: b,
		Size:       in.Size,
		Tile:       in.Tile,
		Qubits:     in.Graph.NumNodes(),
		Couplers:   in.Graph.NumEdges(),
		Yields:     in.Yields,
	})
}

func (s *Server) apiAnnealRange(c *gin.Context) {
	a, b := pair(c)
	t := c.DefaultQuery("type", string(sessionFrom(c).Settings().Anneal.Type))
	if !spinglass.IsValidAnnealType(t) {
		abortJSON(c, &spinglass.ValidationError{Field: "anneal_type", Msg: "unknown anneal type " + `"` + t + `"` + "; valid: standard, fast"})
		return
	}
	ctx, cancel := s.catalogContext(c)
	defer cancel()
	r, err := s.runner.AnnealRange(ctx, a, b, spinglass.AnnealType(t))
	if err != nil {
		abortJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": t, "min": r.Min, "max": r.Max, "empty": r.IsEmpty()})
}

// apiRun runs a comparison and blocks until it finishes. The body, if any,
// overrides fields of the session settings; the merged settings are saved.
func (s *Server) apiRun(c *gin.Context) {
	sess := sessionFrom(c)
	cfg := sess.Settings()
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	sess.SetSettings(cfg)

	id, done := sess.Start(c.Request.Context(), func(ctx context.Context) (*compare.Result, error) {
		return s.run(ctx, cfg)
	})
	<-done
	st := sess.Status()
	if st.RunID != id {
		abortJSON(c, ErrSuperseded)
		return
	}
	if st.Err() != nil {
		abortJSON(c, st.Err())
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) apiRunStatus(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).Status())
}

func (s *Server) apiCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": sessionFrom(c).Cancel()})
}

// apiExportConfig downloads the session settings as YAML (default) or JSON.
func (s *Server) apiExportConfig(c *gin.Context) {
	cfg := sessionFrom(c).Settings()
	switch format := c.DefaultQuery("format", "yaml"); format {
	case "json":
		c.Header("Content-Disposition", `attachment; filename="anneal-bench-run.json"`)
		c.IndentedJSON(http.StatusOK, cfg)
	case "yaml":
		out, err := yaml.Marshal(cfg)
		if err != nil {
			abortJSON(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="anneal-bench-run.yaml"`)
		c.Data(http.StatusOK, "application/yaml", out)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "format must be yaml or json, got " + format})
	}
}

// apiImportConfig replaces the session settings with a YAML or JSON document.
// Unknown YAML fields are rejected.
func (s *Server) apiImportConfig(c *gin.Context) {
	var cfg compare.RunConfig
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		dec := yaml.NewDecoder(c.Request.Body)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "parsing config: " + err.Error()})
			return
		}
	}
	if err := cfg.Validate(); err != nil {
		abortJSON(c, err)
		return
	}
	if !spinglass.IsValidAnnealType(string(cfg.Anneal.Type)) {
		abortJSON(c, &spinglass.ValidationError{Field: "anneal_type", Msg: "unknown anneal type; valid: standard, fast"})
		return
	}
	sessionFrom(c).SetSettings(cfg)
	c.JSON(http.StatusOK, cfg)
}
