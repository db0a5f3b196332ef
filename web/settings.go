package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
)

// settingsForm marks a full settings form submission, in which an absent
// checkbox means false.
const settingsForm = "settings"

// parseSettings applies the form values present in form on top of base.
func parseSettings(form url.Values, base compare.RunConfig) (compare.RunConfig, error) {
	cfg := base
	has := func(key string) bool { _, ok := form[key]; return ok }
	get := func(key string) string { return strings.TrimSpace(form.Get(key)) }

	if has("advantage") {
		cfg.Advantage = get("advantage")
	}
	if has("advantage2") {
		cfg.Advantage2 = get("advantage2")
	}
	if has("distribution") {
		cfg.Weights.Distribution = spinglass.Distribution(get("distribution"))
	}
	if has("precision") {
		p, err := strconv.ParseFloat(get("precision"), 64)
		if err != nil {
			return cfg, &spinglass.ValidationError{Field: "precision", Msg: fmt.Sprintf("precision must be a number, got %q", get("precision"))}
		}
		cfg.Weights.Precision = p
	}
	if has("seed") {
		cfg.Weights.Seed = nil
		if v := get("seed"); v != "" {
			seed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return cfg, &spinglass.ValidationError{Field: "seed", Msg: fmt.Sprintf("seed must be an integer, got %q", v)}
			}
			cfg.Weights.Seed = &seed
		}
	}
	if has("biases") {
		cfg.Weights.Biases = checked(get("biases"))
	} else if form.Get("form") == settingsForm {
		cfg.Weights.Biases = false
	}
	if has("anneal_type") {
		t := get("anneal_type")
		if !spinglass.IsValidAnnealType(t) {
			return cfg, &spinglass.ValidationError{Field: "anneal_type", Msg: fmt.Sprintf("unknown anneal type %q; valid: standard, fast", t)}
		}
		cfg.Anneal.Type = spinglass.AnnealType(t)
	}
	if has("anneal_time") {
		v, err := strconv.ParseFloat(get("anneal_time"), 64)
		if err != nil {
			return cfg, &spinglass.ValidationError{Field: "anneal_time", Msg: fmt.Sprintf("anneal time must be a number, got %q", get("anneal_time"))}
		}
		cfg.Anneal.Time = v
	}
	return cfg, nil
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
