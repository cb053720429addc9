package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/smr547/agdc/internal/adapter/repository/postgres"
	"github.com/smr547/agdc/internal/domain"
	"github.com/smr547/agdc/internal/pkg/config"
	"github.com/smr547/agdc/internal/pkg/logger"
	"github.com/smr547/agdc/internal/usecase"
)

// Command-line front end for the catalogue. Listing operations print one
// JSON document per row; export operations stream the database's CSV either
// to stdout or to -o, where the file is written next to its final name and
// renamed only on success so an interrupted export never looks complete.

const usageOps = "cells | cells-missing | tiles | tiles-missing | terrain | intersect | " +
	"export-cells | export-cells-missing | export-tiles | export-tiles-missing"

type cliFlags struct {
	op         string
	x, y       string
	satellites string
	datasets   string
	acqMin     string
	acqMax     string
	present    string
	absent     string
	sort       string
	wkt        string
	output     string
}

func main() {
	var f cliFlags
	flag.StringVar(&f.op, "op", "", "operation: "+usageOps)
	flag.StringVar(&f.x, "x", "", "comma-separated longitude cell indices, e.g. 120,121")
	flag.StringVar(&f.y, "y", "", "comma-separated latitude cell indices, e.g. -21,-20")
	flag.StringVar(&f.satellites, "satellites", "", "comma-separated satellites, e.g. LS5,LS7")
	flag.StringVar(&f.datasets, "datasets", "", "comma-separated dataset types, e.g. ARG25,PQ25")
	flag.StringVar(&f.acqMin, "acq-min", "", "minimum acquisition date, YYYY-MM-DD")
	flag.StringVar(&f.acqMax, "acq-max", "", "maximum acquisition date, YYYY-MM-DD")
	flag.StringVar(&f.present, "present", "", "dataset type that must exist for missing listings (default ARG25)")
	flag.StringVar(&f.absent, "absent", "", "dataset type that must not exist for missing listings (default FC25)")
	flag.StringVar(&f.sort, "sort", "", "sort direction: asc or desc")
	flag.StringVar(&f.wkt, "wkt", "", "WKT polygon for the intersect operation")
	flag.StringVar(&f.output, "o", "", "output file for exports (default stdout)")
	flag.Parse()

	if f.op == "" {
		fmt.Fprintln(os.Stderr, "missing -op; one of:", usageOps)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DSN(), cfg.SearchPath, cfg.QueryTimeout)
	if err != nil {
		log.Error("failed to connect to datacube database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewTileStore(pool, log, cfg.FetchSize)
	catalogue := usecase.NewCatalogueService(store, nil, nil, log)

	if err := run(ctx, catalogue, f); err != nil {
		log.Error("operation failed", "op", f.op, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, catalogue *usecase.CatalogueService, f cliFlags) error {
	switch f.op {
	case "cells", "cells-missing", "tiles", "tiles-missing":
		filter, err := buildFilter(f)
		if err != nil {
			return err
		}
		spec, err := buildMissingSpec(f)
		if err != nil {
			return err
		}
		switch f.op {
		case "cells":
			cells, err := catalogue.ListCellsAll(ctx, filter)
			if err != nil {
				return err
			}
			return printJSON(cells)
		case "cells-missing":
			cells, err := catalogue.ListCellsMissingAll(ctx, filter, spec)
			if err != nil {
				return err
			}
			return printJSON(cells)
		case "tiles":
			return printTiles(func() (domain.TileIterator, error) {
				return catalogue.ListTiles(ctx, filter)
			})
		default:
			return printTiles(func() (domain.TileIterator, error) {
				return catalogue.ListTilesMissing(ctx, filter, spec)
			})
		}

	case "terrain":
		tf, err := buildTerrainFilter(f)
		if err != nil {
			return err
		}
		return printTiles(func() (domain.TileIterator, error) {
			return catalogue.ListTerrainTiles(ctx, tf)
		})

	case "intersect":
		pf, err := buildPolygonFilter(f)
		if err != nil {
			return err
		}
		return printTiles(func() (domain.TileIterator, error) {
			return catalogue.ListTilesIntersecting(ctx, pf)
		})

	case "export-cells", "export-cells-missing", "export-tiles", "export-tiles-missing":
		filter, err := buildFilter(f)
		if err != nil {
			return err
		}
		spec, err := buildMissingSpec(f)
		if err != nil {
			return err
		}
		return writeExport(f.output, func(w io.Writer) (int64, error) {
			switch f.op {
			case "export-cells":
				return catalogue.ExportCells(ctx, filter, w)
			case "export-cells-missing":
				return catalogue.ExportCellsMissing(ctx, filter, spec, w)
			case "export-tiles":
				return catalogue.ExportTiles(ctx, filter, w)
			default:
				return catalogue.ExportTilesMissing(ctx, filter, spec, w)
			}
		})

	default:
		return fmt.Errorf("unknown operation %q; one of: %s", f.op, usageOps)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTiles streams rows as they arrive instead of materializing a year of
// acquisitions in memory.
func printTiles(open func() (domain.TileIterator, error)) error {
	it, err := open()
	if err != nil {
		return err
	}
	defer it.Close()

	enc := json.NewEncoder(os.Stdout)
	for it.Next() {
		if err := enc.Encode(it.Tile()); err != nil {
			return err
		}
	}
	return it.Err()
}

// writeExport streams CSV to path via a temporary sibling file, renaming it
// into place only after the copy finishes.
func writeExport(path string, run func(io.Writer) (int64, error)) error {
	if path == "" {
		rows, err := run(os.Stdout)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d rows exported\n", rows)
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	rows, err := run(tmp)
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d rows exported to %s\n", rows, path)
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseInts(raw, name string) ([]int, error) {
	parts := splitList(raw)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("-%s: %q is not an integer", name, p)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseDateFlag returns the zero time for an empty flag; an unset bound
// means "all time" downstream.
func parseDateFlag(raw, name string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: want YYYY-MM-DD, got %q", name, raw)
	}
	return t, nil
}

func buildFilter(f cliFlags) (domain.Filter, error) {
	var out domain.Filter
	var err error

	if out.X, err = parseInts(f.x, "x"); err != nil {
		return out, err
	}
	if out.Y, err = parseInts(f.y, "y"); err != nil {
		return out, err
	}
	for _, s := range splitList(f.satellites) {
		sat, err := domain.ParseSatellite(s)
		if err != nil {
			return out, err
		}
		out.Satellites = append(out.Satellites, sat)
	}
	seen := make(map[domain.ProcessingLevel]struct{})
	for _, d := range splitList(f.datasets) {
		l, err := domain.ParseProcessingLevel(d)
		if err != nil {
			return out, err
		}
		// A name and its label (NBAR, ARG25) are the same product; keep
		// the first occurrence.
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out.Levels = append(out.Levels, l)
	}
	if out.AcqMin, err = parseDateFlag(f.acqMin, "acq-min"); err != nil {
		return out, err
	}
	if out.AcqMax, err = parseDateFlag(f.acqMax, "acq-max"); err != nil {
		return out, err
	}
	if out.Sort, err = domain.ParseSortDirection(f.sort); err != nil {
		return out, err
	}
	return out, nil
}

func buildMissingSpec(f cliFlags) (domain.MissingSpec, error) {
	spec := domain.DefaultMissingSpec()
	if f.present != "" {
		l, err := domain.ParseProcessingLevel(f.present)
		if err != nil {
			return spec, err
		}
		spec.Present = l
	}
	if f.absent != "" {
		l, err := domain.ParseProcessingLevel(f.absent)
		if err != nil {
			return spec, err
		}
		spec.Absent = l
	}
	return spec, nil
}

func buildTerrainFilter(f cliFlags) (domain.TerrainFilter, error) {
	var out domain.TerrainFilter
	var err error

	if out.X, err = parseInts(f.x, "x"); err != nil {
		return out, err
	}
	if out.Y, err = parseInts(f.y, "y"); err != nil {
		return out, err
	}
	if out.Sort, err = domain.ParseSortDirection(f.sort); err != nil {
		return out, err
	}
	return out, nil
}

func buildPolygonFilter(f cliFlags) (domain.PolygonFilter, error) {
	base, err := buildFilter(f)
	if err != nil {
		return domain.PolygonFilter{}, err
	}
	return domain.PolygonFilter{
		WKT:        strings.TrimSpace(f.wkt),
		Satellites: base.Satellites,
		AcqMin:     base.AcqMin,
		AcqMax:     base.AcqMax,
		Levels:     base.Levels,
		Sort:       base.Sort,
	}, nil
}
