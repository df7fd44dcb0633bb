package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/genericiooptions"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"

	"github.com/hashmap-kz/kubiq/internal/diag"
	"github.com/hashmap-kz/kubiq/internal/dsl"
	"github.com/hashmap-kz/kubiq/internal/engine"
	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
	"github.com/hashmap-kz/kubiq/internal/fetch"
	"github.com/hashmap-kz/kubiq/internal/output"
	"github.com/hashmap-kz/kubiq/internal/plan"
)

// version is stamped via -ldflags at release time.
var version = "dev"

type queryOptions struct {
	outputFormat       string
	describe           bool
	noPushdownWarnings bool
	showVersion        bool
}

type queryRunOptions struct {
	configFlags *genericclioptions.ConfigFlags
	streams     genericiooptions.IOStreams
	queryOpts   queryOptions

	// cluster and cache are injectable for tests; when nil, the cluster is
	// built from the connection flags and the cache is created empty on
	// first use.
	cluster fetch.Cluster
	cache   *fetch.DiscoveryCache
}

// NewQueryCmd builds the kubiq command. Query flags stay at the top; the
// kubectl connection flags get their own section so --help stays readable.
func NewQueryCmd(streams genericiooptions.IOStreams) *cobra.Command {
	cfgFlags := genericclioptions.NewConfigFlags(true) // all kubectl connection flags
	qo := queryOptions{}

	cmd := &cobra.Command{
		Use:   "kubiq <resource> [where <predicates>] [order by <keys>] [select <paths|aggregations>]",
		Short: "SQL-like read queries over Kubernetes resources, CRDs included",
		Long: `kubiq runs SQL-like read queries against the Kubernetes API server.

 * Works on any resource kind discovered at runtime, CRDs included
 * Pushes name/namespace/label equality down to server-side selectors
 * Filters, orders, projects and aggregates the rest client-side
`,
		Example: `
  # All pods in a namespace
  kubiq pods where metadata.namespace == demo-a

  # Project a nested subtree as JSON
  kubiq -o json pods where metadata.name == worker-a select metadata.annotations

  # Global aggregates
  kubiq -o json pods select count(*),avg(metadata.generation)

  # Multi-key ordering
  kubiq widgets order by spec.priority desc, metadata.name asc
`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if qo.showVersion {
				fmt.Fprintf(streams.Out, "kubiq %s\n", version)
				return nil
			}
			run := &queryRunOptions{
				configFlags: cfgFlags,
				streams:     streams,
				queryOpts:   qo,
			}
			return runQuery(cmd.Context(), run, args)
		},
	}

	// core flags
	f := cmd.Flags()
	f.SortFlags = false // preserve insertion order

	f.StringVarP(&qo.outputFormat, "output", "o", "table",
		"Output format: table, json or yaml.")
	f.BoolVarP(&qo.describe, "describe", "d", false,
		"Emit the full object per row instead of the name summary.")
	f.BoolVar(&qo.noPushdownWarnings, "no-pushdown-warnings", false,
		"Suppress 'pushdown:' diagnostics on stderr.")
	f.BoolVarP(&qo.showVersion, "version", "V", false,
		"Print the kubiq version and exit.")

	// Kubernetes connection flags (own section)
	conn := pflag.NewFlagSet("Kubernetes connection flags", pflag.ContinueOnError)
	cfgFlags.AddFlags(conn)
	cmd.Flags().AddFlagSet(conn)

	return cmd
}

// runQuery is the end-to-end pipeline: parse, plan, fetch, filter, then
// aggregate or sort+project, and render.
func runQuery(ctx context.Context, run *queryRunOptions, args []string) error {
	format, err := output.ParseFormat(run.queryOpts.outputFormat)
	if err != nil {
		return kqerr.Usage(err)
	}
	if len(args) == 0 {
		return kqerr.Usage(fmt.Errorf("missing resource argument"))
	}

	query, err := dsl.Parse(args)
	if err != nil {
		return err
	}
	qp := toPlan(query)
	if qp.Select.IsAggregation() && run.queryOpts.describe {
		return kqerr.Usage(fmt.Errorf("--describe cannot be combined with aggregations"))
	}

	sink := &diag.Sink{
		W:                run.streams.ErrOut,
		SuppressPushdown: run.queryOpts.noPushdownWarnings,
	}
	listOpts := plan.Build(qp, sink)

	cluster, err := run.clusterClient()
	if err != nil {
		return err
	}
	if run.cache == nil {
		run.cache = fetch.NewDiscoveryCache()
	}
	fetcher := &fetch.Fetcher{Cluster: cluster, Cache: run.cache, Diag: sink}

	objs, err := fetcher.Fetch(ctx, qp.Resource, listOpts)
	if err != nil {
		return err
	}

	// Residual WHERE: the full predicate set, pushed or not.
	objs = engine.Filter(objs, qp.Predicates)

	var rows []*engine.Row
	switch {
	case qp.Select.IsAggregation():
		agg, err := engine.Aggregate(objs, qp.Select.Aggregations)
		if err != nil {
			return err
		}
		rows = engine.AggregationRow(agg)
	default:
		engine.Sort(objs, qp.OrderBy)
		switch {
		case run.queryOpts.describe:
			rows = engine.ProjectDescribe(objs)
		case qp.Select != nil && len(qp.Select.Paths) > 0:
			rows = engine.ProjectPaths(objs, qp.Select.Paths)
		default:
			rows = engine.ProjectSummary(objs)
		}
	}

	return output.Render(run.streams.Out, format, rows)
}

// clusterClient returns the injected fake or builds the client-go
// implementation from the connection flags.
func (run *queryRunOptions) clusterClient() (fetch.Cluster, error) {
	if run.cluster != nil {
		return run.cluster, nil
	}
	cfg, err := run.configFlags.ToRESTConfig()
	if err != nil {
		return nil, kqerr.NewK8s(kqerr.ConfigInfer, err)
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, kqerr.NewK8s(kqerr.ClientBuild, err)
	}
	disc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, kqerr.NewK8s(kqerr.ClientBuild, err)
	}
	ns := ""
	if run.configFlags.Namespace != nil {
		ns = *run.configFlags.Namespace
	}
	run.cluster = &fetch.KubeCluster{Discovery: disc, Dynamic: dyn, Namespace: ns}
	return run.cluster, nil
}

// toPlan converts the parsed AST into the engine-owned plan; DSL types stop
// here.
func toPlan(q *dsl.Query) *engine.Plan {
	p := &engine.Plan{Resource: q.Resource}
	for _, c := range q.Where {
		p.Predicates = append(p.Predicates, engine.Predicate{
			Path:  c.Path,
			Op:    toOp(c.Op),
			Value: toValue(c.Lit),
		})
	}
	for _, k := range q.OrderBy {
		dir := engine.Asc
		if k.Dir == dsl.Desc {
			dir = engine.Desc
		}
		p.OrderBy = append(p.OrderBy, engine.SortKey{Path: k.Path, Dir: dir})
	}
	if q.Select != nil {
		sel := &engine.Selection{Paths: q.Select.Paths}
		for _, a := range q.Select.Aggregations {
			sel.Aggregations = append(sel.Aggregations, engine.Aggregation{
				Func:   engine.AggFunc(a.Func),
				Path:   a.Path,
				Source: a.Source(),
			})
		}
		p.Select = sel
	}
	return p
}

func toOp(op dsl.Op) engine.PredOp {
	if op == dsl.OpNe {
		return engine.Ne
	}
	return engine.Eq
}

func toValue(lit dsl.Literal) any {
	switch lit.Kind {
	case dsl.LitBool:
		return lit.Bool
	case dsl.LitNumber:
		return lit.Number
	default:
		return lit.Str
	}
}
