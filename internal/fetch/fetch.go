package fetch

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/hashmap-kz/kubiq/internal/diag"
	"github.com/hashmap-kz/kubiq/internal/engine"
	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
	"github.com/hashmap-kz/kubiq/internal/plan"
)

const (
	pageLimit      int64 = 500
	maxPages             = 10000
	maxAttempts          = 5
	requestTimeout       = 30 * time.Second
)

// newBackoff returns the fixed retry schedule: 100ms initial, doubling,
// 20% jitter, capped at 2s.
func newBackoff() wait.Backoff {
	return wait.Backoff{
		Duration: 100 * time.Millisecond,
		Factor:   2,
		Jitter:   0.2,
		Steps:    maxAttempts,
		Cap:      2 * time.Second,
	}
}

// Fetcher drives discovery and the paged list, and normalizes wire objects
// into flattened engine objects.
type Fetcher struct {
	Cluster Cluster
	Cache   *DiscoveryCache
	Diag    *diag.Sink
}

// Fetch resolves the resource and lists all pages under the pushed-down
// selectors. On a stale resolution (404/410 from a post-discovery list) it
// invalidates the cache entry, re-discovers, and retries the whole list
// exactly once.
func (f *Fetcher) Fetch(ctx context.Context, name string, opts *plan.ListOptions) ([]*engine.Object, error) {
	if name == "" {
		return nil, kqerr.NewK8sf(kqerr.EmptyResourceName, "resource name is empty")
	}
	res, err := f.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	objs, err := f.listAll(ctx, res, opts)
	if ke, ok := kqerr.AsK8s(err); ok && ke.Kind == kqerr.ResourceResolutionStale {
		f.Cache.Invalidate(name)
		res, err = f.resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		objs, err = f.listAll(ctx, res, opts)
		if ke, ok := kqerr.AsK8s(err); ok && ke.Kind == kqerr.ResourceResolutionStale {
			return nil, ke
		}
	}
	return objs, err
}

// resolve consults the TTL cache before hitting discovery. Discovery shares
// the transient retry policy with list calls.
func (f *Fetcher) resolve(ctx context.Context, name string) (*Resource, error) {
	if res, ok := f.Cache.Get(name); ok {
		return res, nil
	}
	backoff := newBackoff()
	attempts := 0
	start := time.Now()
	for {
		attempts++
		rctx, cancel := context.WithTimeout(ctx, requestTimeout)
		res, err := f.Cluster.Discover(rctx, name)
		cancel()
		if err == nil {
			f.Cache.Put(name, res)
			return res, nil
		}
		switch classify(err, false) {
		case classCanceled:
			return nil, err
		case classTransient:
			if attempts >= maxAttempts {
				f.Diag.RetrySummary(attempts, time.Since(start), string(kindOf(err)))
				return nil, kqerr.NewK8s(kqerr.RetryExhausted, err)
			}
			if serr := sleepCtx(ctx, backoff.Step()); serr != nil {
				return nil, serr
			}
		default:
			if _, ok := kqerr.AsK8s(err); ok {
				return nil, err
			}
			return nil, kqerr.NewK8s(kqerr.DiscoveryRun, err)
		}
	}
}

// listAll walks the continue-token chain. Guards: a server may not hand back
// the token it was just given (PaginationStuck), and the chain is capped at
// maxPages (PaginationExceeded).
func (f *Fetcher) listAll(ctx context.Context, res *Resource, opts *plan.ListOptions) ([]*engine.Object, error) {
	fieldSel := opts.FieldSelector()
	labelSel := opts.LabelSelector()
	fellBack := false

	var out []*engine.Object
	token := ""
	for pages := 1; ; pages++ {
		if pages > maxPages {
			return nil, kqerr.NewK8sf(kqerr.PaginationExceeded,
				"list did not terminate within %d pages", maxPages)
		}
		params := ListParams{Limit: pageLimit, Continue: token}
		if !fellBack {
			params.FieldSelector = fieldSel
			params.LabelSelector = labelSel
		}
		page, err := f.listPage(ctx, res, params, &fellBack)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			out = append(out, engine.Flatten(item.Object))
		}
		if page.Continue == "" {
			return out, nil
		}
		if page.Continue == token {
			return nil, kqerr.NewK8sf(kqerr.PaginationStuck,
				"server returned the same continue token twice")
		}
		token = page.Continue
	}
}

// listPage fetches one page, retrying transients with backoff and falling
// back to a selector-free request once on rejection. The fallback consumes
// an attempt but does not reset the backoff schedule.
func (f *Fetcher) listPage(ctx context.Context, res *Resource, params ListParams, fellBack *bool) (*Page, error) {
	backoff := newBackoff()
	start := time.Now()
	for attempts := 1; ; attempts++ {
		rctx, cancel := context.WithTimeout(ctx, requestTimeout)
		page, err := f.Cluster.List(rctx, res, params)
		cancel()
		if err == nil {
			return page, nil
		}
		selectorsActive := params.FieldSelector != "" || params.LabelSelector != ""
		switch classify(err, selectorsActive) {
		case classSelectorRejected:
			if attempts >= maxAttempts {
				f.Diag.RetrySummary(attempts, time.Since(start), string(kqerr.SelectorRejected))
				return nil, kqerr.NewK8s(kqerr.RetryExhausted, err)
			}
			*fellBack = true
			params.FieldSelector = ""
			params.LabelSelector = ""
			f.Diag.SelectorFallback(err.Error())
		case classStale:
			return nil, kqerr.NewK8s(kqerr.ResourceResolutionStale, err)
		case classTransient:
			if attempts >= maxAttempts {
				f.Diag.RetrySummary(attempts, time.Since(start), string(kindOf(err)))
				return nil, kqerr.NewK8s(kqerr.RetryExhausted, err)
			}
			if serr := sleepCtx(ctx, backoff.Step()); serr != nil {
				return nil, serr
			}
		case classCanceled:
			return nil, err
		default:
			return nil, kqerr.NewK8s(kqerr.ListFailed, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
