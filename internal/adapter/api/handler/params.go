package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smr547/agdc/internal/domain"
)

// Query parameters use comma-separated lists for the set-valued predicates,
// e.g. ?x=120,121&y=-21,-20&satellites=LS5,LS7&datasets=ARG25,PQ25.

func parseIntList(q url.Values, name string) ([]int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %q is not an integer", name, p)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseSatellites(q url.Values) ([]domain.Satellite, error) {
	raw := strings.TrimSpace(q.Get("satellites"))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]domain.Satellite, 0, len(parts))
	for _, p := range parts {
		s, err := domain.ParseSatellite(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseLevels(q url.Values) ([]domain.ProcessingLevel, error) {
	raw := strings.TrimSpace(q.Get("datasets"))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]domain.ProcessingLevel, 0, len(parts))
	seen := make(map[domain.ProcessingLevel]struct{}, len(parts))
	for _, p := range parts {
		l, err := domain.ParseProcessingLevel(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		// A name and its label (NBAR, ARG25) are the same product; keep
		// the first occurrence.
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

func parseDate(q url.Values, name string) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parameter %q: want YYYY-MM-DD, got %q", name, raw)
	}
	return t, nil
}

// parseFilter assembles the shared predicate set. Absent dates stay zero; a
// zero bound means "all time" downstream.
func parseFilter(q url.Values) (domain.Filter, error) {
	var f domain.Filter
	var err error

	if f.X, err = parseIntList(q, "x"); err != nil {
		return f, err
	}
	if f.Y, err = parseIntList(q, "y"); err != nil {
		return f, err
	}
	if f.Satellites, err = parseSatellites(q); err != nil {
		return f, err
	}
	if f.Levels, err = parseLevels(q); err != nil {
		return f, err
	}
	if f.AcqMin, err = parseDate(q, "acq_min"); err != nil {
		return f, err
	}
	if f.AcqMax, err = parseDate(q, "acq_max"); err != nil {
		return f, err
	}
	if f.Sort, err = domain.ParseSortDirection(q.Get("sort")); err != nil {
		return f, err
	}
	return f, nil
}

// parseMissingSpec reads the present/absent pair, defaulting to surface
// reflectance present and fractional cover absent.
func parseMissingSpec(q url.Values) (domain.MissingSpec, error) {
	spec := domain.DefaultMissingSpec()

	if raw := strings.TrimSpace(q.Get("present")); raw != "" {
		l, err := domain.ParseProcessingLevel(raw)
		if err != nil {
			return spec, err
		}
		spec.Present = l
	}
	if raw := strings.TrimSpace(q.Get("absent")); raw != "" {
		l, err := domain.ParseProcessingLevel(raw)
		if err != nil {
			return spec, err
		}
		spec.Absent = l
	}
	return spec, nil
}

func parseTerrainFilter(q url.Values) (domain.TerrainFilter, error) {
	var f domain.TerrainFilter
	var err error

	if f.X, err = parseIntList(q, "x"); err != nil {
		return f, err
	}
	if f.Y, err = parseIntList(q, "y"); err != nil {
		return f, err
	}
	if f.Sort, err = domain.ParseSortDirection(q.Get("sort")); err != nil {
		return f, err
	}
	return f, nil
}

func parsePolygonFilter(q url.Values) (domain.PolygonFilter, error) {
	var f domain.PolygonFilter
	var err error

	f.WKT = strings.TrimSpace(q.Get("wkt"))
	if f.Satellites, err = parseSatellites(q); err != nil {
		return f, err
	}
	if f.Levels, err = parseLevels(q); err != nil {
		return f, err
	}
	if f.AcqMin, err = parseDate(q, "acq_min"); err != nil {
		return f, err
	}
	if f.AcqMax, err = parseDate(q, "acq_max"); err != nil {
		return f, err
	}
	if f.Sort, err = domain.ParseSortDirection(q.Get("sort")); err != nil {
		return f, err
	}
	return f, nil
}
