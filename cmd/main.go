package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"reflect"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/jord/carver"
	"github.com/aukilabs/jord/database"
	"github.com/aukilabs/jord/export"
	"github.com/aukilabs/jord/featureflag"
	jordhttp "github.com/aukilabs/jord/http"
	"github.com/aukilabs/jord/mesher"
	"github.com/aukilabs/jord/mesher/quadtree"
	"github.com/aukilabs/jord/models"
	"github.com/aukilabs/jord/pointindex"
	"github.com/aukilabs/jord/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The jord version number. Set at build.
	version = "v0.3.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "jord_info",
		Help:        "Jord information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Database         string   `cli:""        env:"JORD_DATABASE"           help:"Path to the terrain sample database."`
	Log              string   `cli:""        env:"JORD_LOG"                help:"Path to the scan log to ingest. Defaults to terrain_scan.log in the temp directory."`
	Out              string   `cli:""        env:"JORD_OUT"                help:"Mesh output path. The .glb extension selects glTF binary, anything else OBJ."`
	NoLog            bool     `cli:""        env:"JORD_NOLOG"              help:"Skip log ingestion and mesh the database as-is."`
	AdminAddr        string   `cli:""        env:"JORD_ADMIN_ADDR"         help:"Admin listening address (metrics, health, live status). Empty disables it."`
	MinMergeDistance float64  `cli:",hidden" env:"JORD_MIN_MERGE_DISTANCE" help:"Minimum 3D spacing between stored points."`
	LogLevel         string   `cli:""        env:"JORD_LOG_LEVEL"          help:"Log level (debug|info|warning|error)."`
	LogIndent        bool     `cli:""        env:"JORD_LOG_INDENT"         help:"Indent logs."`
	FeatureFlags     []string `cli:",hidden" env:"JORD_FEATURE_FLAGS"      help:"Comma separated feature flags"`
	Version          bool     `cli:""        env:"-"                       help:"Show version."`
	Help             bool     `cli:""        env:"-"                       help:"Show help."`
}

type mergeConfig struct {
	A                string  `cli:""        env:"-"                       help:"First input database."`
	B                string  `cli:""        env:"-"                       help:"Second input database."`
	Out              string  `cli:""        env:"-"                       help:"Merged output database."`
	MinMergeDistance float64 `cli:",hidden" env:"JORD_MIN_MERGE_DISTANCE" help:"Minimum 3D spacing between stored points."`
	LogLevel         string  `cli:""        env:"JORD_LOG_LEVEL"          help:"Log level (debug|info|warning|error)."`
	Help             bool    `cli:""        env:"-"                       help:"Show help."`
}

func main() {
	conf := config{
		Database:         "terrain.db",
		Out:              "terrain_mesh.glb",
		AdminAddr:        ":18291",
		MinMergeDistance: 0.01,
		LogLevel:         logs.InfoLevel.String(),
	}
	mergeConf := mergeConfig{
		Out:              "terrain_merged.db",
		MinMergeDistance: 0.01,
		LogLevel:         logs.InfoLevel.String(),
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Ingests terrain scan samples, reconstructs a mesh and exports it.").
		Options(&conf)
	cli.Register("update").
		Help("Ingests the scan log into the sample database without meshing.").
		Options(&conf)
	cli.Register("merge").
		Help("Merges two sample databases into a third.").
		Options(&mergeConf)

	switch cli.Load() {
	case "update":
		setupLogs(conf.LogLevel, conf.LogIndent)
		showVersion(conf)
		if err := ingest(ctx, conf, false); err != nil {
			logs.Fatal(err)
		}

	case "merge":
		setupLogs(mergeConf.LogLevel, false)
		if err := merge(mergeConf); err != nil {
			logs.Fatal(err)
		}

	default:
		setupLogs(conf.LogLevel, conf.LogIndent)
		showVersion(conf)
		if err := ingest(ctx, conf, true); err != nil {
			logs.Fatal(err)
		}
	}
}

func setupLogs(level string, indent bool) {
	logs.SetLevel(logs.ParseLevel(level))
	logs.Encoder = json.Marshal
	if indent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal
}

func showVersion(conf config) {
	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}
}

// ingest tails the scan log into the database until interrupted, then
// optionally meshes, carves and exports.
func ingest(ctx context.Context, conf config, exportMesh bool) error {
	logPath := conf.Log
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "terrain_scan.log")
	}

	flags := featureflag.New(conf.FeatureFlags)

	var r *runner.Runner
	if !conf.NoLog {
		r = &runner.Runner{
			DatabasePath:     conf.Database,
			LogPath:          logPath,
			MinMergeDistance: conf.MinMergeDistance,
		}
		flags.IfSet(featureflag.FlagStartAtBeginning, func() {
			r.StartAtBeginning = true
		})
	}

	if conf.AdminAddr != "" {
		go serveAdmin(ctx, conf.AdminAddr, r)
	}

	var points []*models.Vertex
	var rays []models.Ray

	if r != nil {
		if err := r.Run(ctx); err != nil {
			return errors.New("ingestion failed").Wrap(err)
		}
		points, rays = r.Snapshot()
	} else {
		db, err := database.Load(conf.Database)
		if err != nil {
			return errors.New("loading database for meshing failed").
				WithTag("path", conf.Database).
				Wrap(err)
		}
		points, rays = db.Points, db.Rays
	}

	if !exportMesh {
		return nil
	}

	var opts []mesher.Option
	flags.IfSet(featureflag.FlagExactDedup, func() {
		opts = append(opts, mesher.WithExactDedup())
	})

	triangles := mesher.Triangulate(points, opts...)
	logs.WithTag("points", len(points)).
		WithTag("triangles", len(triangles)).
		Info("triangulation done")

	if len(rays) > 0 && len(triangles) > 0 {
		tree := quadtree.Build(triangles, quadtree.BoundsOf(triangles))
		carved := carver.Carve(tree, rays)
		triangles = carver.Surviving(triangles)

		logs.WithTag("rays", len(rays)).
			WithTag("carved", carved).
			WithTag("triangles", len(triangles)).
			Info("carving done")
	}

	if err := export.Save(conf.Out, triangles); err != nil {
		return errors.New("exporting mesh failed").
			WithTag("path", conf.Out).
			Wrap(err)
	}

	logs.WithTag("path", conf.Out).
		WithTag("triangles", len(triangles)).
		Info("mesh exported")
	return nil
}

func merge(conf mergeConfig) error {
	if conf.A == "" || conf.B == "" {
		return errors.New("merge requires two input databases (-a and -b)")
	}

	a, err := database.Load(conf.A)
	if err != nil {
		return errors.New("loading first database failed").
			WithTag("path", conf.A).
			Wrap(err)
	}

	b, err := database.Load(conf.B)
	if err != nil {
		return errors.New("loading second database failed").
			WithTag("path", conf.B).
			Wrap(err)
	}

	ix := pointindex.NewFromPoints(conf.MinMergeDistance, a.Points)
	accepted := ix.AddRange(b.Points)

	rays := make([]models.Ray, 0, len(a.Rays)+len(b.Rays))
	rays = append(rays, a.Rays...)
	rays = append(rays, b.Rays...)

	out := &database.Database{Points: ix.Points(), Rays: rays}
	if err := out.Save(conf.Out); err != nil {
		return errors.New("saving merged database failed").
			WithTag("path", conf.Out).
			Wrap(err)
	}

	logs.WithTag("points", len(out.Points)).
		WithTag("merged_in", accepted).
		WithTag("rays", len(out.Rays)).
		WithTag("path", conf.Out).
		Info("databases merged")
	return nil
}

func serveAdmin(ctx context.Context, addr string, r *runner.Runner) {
	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", jordhttp.HandleHealthCheck)
	admin.Handle("/version", jordhttp.HandleWithCORS(http.HandlerFunc(jordhttp.HandleVersion(version))))
	if r != nil {
		admin.Handle("/live", jordhttp.HandleWithCORS(jordhttp.HandleLive(func() any {
			return r.Status()
		})))
	}
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))

	jordhttp.ListenAndServe(ctx, &http.Server{Addr: addr, Handler: &admin})
}
