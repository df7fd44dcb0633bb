// Package fetch resolves a plural resource name against API discovery and
// runs the cluster-wide paged list with retry, selector fallback, and stale
// re-discovery. It is the only package that touches the wire client.
package fetch

import (
	"context"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"

	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
)

// Resource describes one discovered API resource.
type Resource struct {
	GVR        schema.GroupVersionResource
	Kind       string
	Namespaced bool
}

// ListParams mirrors the list options the contract exposes.
type ListParams struct {
	Limit         int64
	Continue      string
	FieldSelector string
	LabelSelector string
}

// Page is one page of a list response.
type Page struct {
	Items    []*unstructured.Unstructured
	Continue string
}

// Cluster is the narrow contract the fetcher needs from the cluster. Tests
// implement it with fakes; production uses the client-go implementation
// below.
type Cluster interface {
	Discover(ctx context.Context, resource string) (*Resource, error)
	List(ctx context.Context, res *Resource, params ListParams) (*Page, error)
}

// KubeCluster implements Cluster on client-go discovery and dynamic clients.
// Namespace, when set, scopes lists of namespaced resources; empty means
// cluster-wide.
type KubeCluster struct {
	Discovery discovery.DiscoveryInterface
	Dynamic   dynamic.Interface
	Namespace string
}

// Discover resolves a plural name, kind, or short name (case-insensitive)
// to a listable API resource, preferring the server's preferred versions.
func (c *KubeCluster) Discover(ctx context.Context, resource string) (*Resource, error) {
	lists, err := c.Discovery.ServerPreferredResources()
	if err != nil && len(lists) == 0 {
		return nil, kqerr.NewK8s(kqerr.DiscoveryRun, err)
	}
	for _, list := range lists {
		gv, gvErr := schema.ParseGroupVersion(list.GroupVersion)
		if gvErr != nil {
			continue
		}
		for i := range list.APIResources {
			ar := &list.APIResources[i]
			if strings.Contains(ar.Name, "/") {
				continue // subresource
			}
			if !matchesName(ar, resource) || !hasListVerb(ar) {
				continue
			}
			return &Resource{
				GVR:        gv.WithResource(ar.Name),
				Kind:       ar.Kind,
				Namespaced: ar.Namespaced,
			}, nil
		}
	}
	return nil, kqerr.NewK8sf(kqerr.ResourceNotFound, "no API resource matches %q", resource)
}

func matchesName(ar *metav1.APIResource, name string) bool {
	if strings.EqualFold(ar.Name, name) || strings.EqualFold(ar.Kind, name) {
		return true
	}
	for _, short := range ar.ShortNames {
		if strings.EqualFold(short, name) {
			return true
		}
	}
	return false
}

func hasListVerb(ar *metav1.APIResource) bool {
	for _, v := range ar.Verbs {
		if v == "list" {
			return true
		}
	}
	return false
}

// List fetches one page via the dynamic client.
func (c *KubeCluster) List(ctx context.Context, res *Resource, params ListParams) (*Page, error) {
	var ri dynamic.ResourceInterface = c.Dynamic.Resource(res.GVR)
	if res.Namespaced && c.Namespace != "" {
		ri = c.Dynamic.Resource(res.GVR).Namespace(c.Namespace)
	}
	list, err := ri.List(ctx, metav1.ListOptions{
		Limit:         params.Limit,
		Continue:      params.Continue,
		FieldSelector: params.FieldSelector,
		LabelSelector: params.LabelSelector,
	})
	if err != nil {
		return nil, err
	}
	page := &Page{Continue: list.GetContinue()}
	for i := range list.Items {
		page.Items = append(page.Items, &list.Items[i])
	}
	return page, nil
}
